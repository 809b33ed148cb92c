package risk

import (
	"math/rand"
)

// GenerateSyntheticTrainingSet builds a deterministic synthetic loan book
// for model bootstrap when no persisted artifact exists. Labels follow the
// usual credit intuition: higher rate, lower credit score and more missed
// installments push a loan toward default.
func GenerateSyntheticTrainingSet(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	tenures := []int{12, 24, 36, 48, 60}

	samples := make([][]float64, 0, n)
	labels := make([]int, 0, n)
	for i := 0; i < n; i++ {
		principal := 10000 + rng.Float64()*490000
		interestRate := 6 + rng.Float64()*12
		tenure := tenures[rng.Intn(len(tenures))]
		creditScore := float64(500 + rng.Intn(350))
		income := 30000 + rng.Float64()*170000
		paid := rng.Intn(60)
		missed := rng.Intn(10)
		outstanding := principal * (0.3 + rng.Float64()*0.7)

		paymentRatio := float64(paid) / float64(paid+missed+1)
		outstandingRatio := outstanding / principal

		samples = append(samples, []float64{
			principal,
			interestRate,
			float64(tenure),
			creditScore,
			income,
			float64(paid),
			float64(missed),
			outstanding,
			paymentRatio,
			outstandingRatio,
		})

		riskSignal := 0.3*(interestRate-6)/12 +
			0.3*(850-creditScore)/350 +
			0.4*float64(missed)/float64(paid+missed+1)
		label := 0
		if riskSignal+rng.NormFloat64()*0.1 > 0.5 {
			label = 1
		}
		labels = append(labels, label)
	}
	return samples, labels
}
