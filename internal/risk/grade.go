package risk

// Risk grade bands over probability of default. Half-open intervals: a PD
// exactly on a boundary falls into the higher band.
//
//	A: [0, 0.05)   B: [0.05, 0.15)   C: [0.15, 0.30)   D: [0.30, 1.0]
func GradeFromPD(pd float64) string {
	switch {
	case pd < 0:
		return "D"
	case pd < 0.05:
		return "A"
	case pd < 0.15:
		return "B"
	case pd < 0.30:
		return "C"
	default:
		return "D"
	}
}

// GradeOrdinal maps grades to their ordering (A < B < C < D). Unknown grades
// sort last.
func GradeOrdinal(grade string) int {
	switch grade {
	case "A":
		return 0
	case "B":
		return 1
	case "C":
		return 2
	case "D":
		return 3
	default:
		return 4
	}
}
