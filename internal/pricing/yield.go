package pricing

import (
	"math"
)

const (
	yieldInitialGuess  = 0.10
	yieldTolerance     = 0.01
	yieldMaxIterations = 50
	yieldMin           = 0.001
	yieldMax           = 0.50
)

// SolveYield inverts a price into the implied annualized yield of the
// remaining installment stream, via Newton-Raphson with an analytic
// derivative. The estimate is clamped into [0.1%, 50%] after every step to
// keep the iteration stable for pathological inputs. A near-zero derivative
// falls back to bisection instead of propagating a division fault.
//
// The second return value reports convergence. Non-convergence is best
// effort, not an error: the clamped last estimate is still returned, and
// callers should distrust values pinned at the clamp boundaries.
func SolveYield(price, monthlyEMI float64, remainingMonths int) (float64, bool) {
	if remainingMonths <= 0 || price <= 0 {
		return 0, true
	}

	y := yieldInitialGuess
	for i := 0; i < yieldMaxIterations; i++ {
		pv, derivative := pvAndDerivative(y, monthlyEMI, remainingMonths)
		diff := pv - price
		if math.Abs(diff) < yieldTolerance {
			return y, true
		}
		if math.Abs(derivative) < 1e-9 {
			return bisectYield(price, monthlyEMI, remainingMonths)
		}
		y -= diff / derivative
		y = math.Max(yieldMin, math.Min(y, yieldMax))
	}
	return y, false
}

// pvAndDerivative evaluates the installment stream's present value at an
// annual yield y, together with dPV/dy.
func pvAndDerivative(y, monthlyEMI float64, remainingMonths int) (float64, float64) {
	monthlyRate := y / 12
	pv := 0.0
	derivative := 0.0
	for month := 1; month <= remainingMonths; month++ {
		discount := math.Pow(1+monthlyRate, float64(month))
		pv += monthlyEMI / discount
		derivative -= float64(month) * monthlyEMI / (12 * discount * (1 + monthlyRate))
	}
	return pv, derivative
}

// bisectYield is the fallback solver. PV is strictly decreasing in yield, so
// plain bisection on the clamp interval always terminates.
func bisectYield(price, monthlyEMI float64, remainingMonths int) (float64, bool) {
	lo, hi := yieldMin, yieldMax
	pvLo, _ := pvAndDerivative(lo, monthlyEMI, remainingMonths)
	pvHi, _ := pvAndDerivative(hi, monthlyEMI, remainingMonths)
	if price > pvLo {
		return lo, false
	}
	if price < pvHi {
		return hi, false
	}
	for i := 0; i < 100; i++ {
		mid := (lo + hi) / 2
		pv, _ := pvAndDerivative(mid, monthlyEMI, remainingMonths)
		diff := pv - price
		if math.Abs(diff) < yieldTolerance {
			return mid, true
		}
		if diff > 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2, false
}
