package pricing

import (
	"math"
)

// PriceCapRatio caps the suggested price at a near-full-value ceiling of
// outstanding balance, regardless of how optimistic the NPV is.
const PriceCapRatio = 0.98

// Terms are the contractual inputs to a pricing run.
type Terms struct {
	MonthlyEMI         float64
	TenureMonths       int
	EMIsPaid           int
	CurrentOutstanding float64
}

func (t Terms) RemainingMonths() int {
	return t.TenureMonths - t.EMIsPaid
}

// monthlyHazard is the flat-hazard approximation: the loan's total PD spread
// uniformly over its remaining months. Isolated here so a real survival
// curve can replace it without touching the accumulation loop.
func monthlyHazard(pd float64, remainingMonths int) float64 {
	if remainingMonths <= 0 {
		return 0
	}
	return pd / float64(remainingMonths)
}

// ExpectedNPV discounts the remaining installment stream, weighting each
// month's cash flow by the probability the loan has survived to it.
func ExpectedNPV(monthlyEMI float64, remainingMonths int, annualRate, pd float64) float64 {
	monthlyRate := annualRate / 12
	hazard := monthlyHazard(pd, remainingMonths)

	npv := 0.0
	survival := 1.0
	for month := 1; month <= remainingMonths; month++ {
		discountFactor := math.Pow(1+monthlyRate, -float64(month))
		npv += monthlyEMI * survival * discountFactor
		survival *= 1 - hazard
	}
	return npv
}
