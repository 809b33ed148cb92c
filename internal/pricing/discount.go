package pricing

// Market parameters. Fixed for now; in production these would track a
// market-data feed.
const (
	RiskFreeRate     = 0.04
	LiquidityPremium = 0.02

	// individualRiskFactor converts the loan's own PD into extra spread.
	individualRiskFactor = 0.05
)

// GradeSpread is the annualized credit spread for a risk grade. Unknown
// grades price at the widest spread.
func GradeSpread(grade string) float64 {
	switch grade {
	case "A":
		return 0.01
	case "B":
		return 0.03
	case "C":
		return 0.05
	case "D":
		return 0.08
	default:
		return 0.08
	}
}

// DiscountRate composes the risk-adjusted annual discount rate. No upper
// bound is applied: for pathological PD the rate can exceed 100% and
// callers must tolerate that.
func DiscountRate(pd float64, grade string) float64 {
	return RiskFreeRate + GradeSpread(grade) + LiquidityPremium + pd*individualRiskFactor
}
