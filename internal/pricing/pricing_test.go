package pricing

import (
	"math"
	"testing"
)

func testTerms() Terms {
	return Terms{
		MonthlyEMI:         1000,
		TenureMonths:       48,
		EMIsPaid:           12,
		CurrentOutstanding: 30000,
	}
}

func TestDiscountRate_Composition(t *testing.T) {
	got := DiscountRate(0.10, "B")
	want := 0.04 + 0.03 + 0.02 + 0.10*0.05
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("discount rate: got %v want %v", got, want)
	}
}

func TestDiscountRate_UnknownGradeWidestSpread(t *testing.T) {
	if DiscountRate(0.1, "X") != DiscountRate(0.1, "D") {
		t.Fatalf("unknown grade should price like D")
	}
}

func TestDiscountRate_MonotonicInRisk(t *testing.T) {
	grades := []string{"A", "B", "C", "D"}
	for i := 1; i < len(grades); i++ {
		if DiscountRate(0.1, grades[i]) <= DiscountRate(0.1, grades[i-1]) {
			t.Fatalf("rate not increasing from grade %s to %s", grades[i-1], grades[i])
		}
	}
	if DiscountRate(0.5, "B") <= DiscountRate(0.1, "B") {
		t.Fatalf("rate not increasing in pd")
	}
}

func TestExpectedNPV_DecreasesWithPD(t *testing.T) {
	low := ExpectedNPV(1000, 36, 0.10, 0.02)
	high := ExpectedNPV(1000, 36, 0.10, 0.40)
	if high >= low {
		t.Fatalf("npv should fall with pd: low-pd %v high-pd %v", low, high)
	}
}

func TestExpectedNPV_BelowUndiscountedSum(t *testing.T) {
	npv := ExpectedNPV(1000, 36, 0.10, 0.05)
	if npv <= 0 || npv >= 36000 {
		t.Fatalf("npv out of bounds: %v", npv)
	}
}

func TestSolveYield_RoundTrip(t *testing.T) {
	// Price a 36-month stream at 12% annual, then recover the rate.
	const emi, months, annual = 1000.0, 36, 0.12
	price, _ := pvAndDerivative(annual, emi, months)

	got, converged := SolveYield(price, emi, months)
	if !converged {
		t.Fatalf("solver did not converge")
	}
	if math.Abs(got-annual) > 0.005 {
		t.Fatalf("yield: got %v want ~%v", got, annual)
	}
}

func TestSolveYield_DegenerateInputs(t *testing.T) {
	if y, ok := SolveYield(0, 1000, 36); y != 0 || !ok {
		t.Fatalf("zero price: got %v %v", y, ok)
	}
	if y, ok := SolveYield(10000, 1000, 0); y != 0 || !ok {
		t.Fatalf("no remaining months: got %v %v", y, ok)
	}
}

func TestSolveYield_ClampsUnreachablePrice(t *testing.T) {
	// Price far above any PV in the yield range pins at the minimum yield.
	y, converged := SolveYield(1e9, 1000, 12)
	if converged {
		t.Fatalf("expected non-convergence for unreachable price")
	}
	if y < yieldMin || y > yieldMax {
		t.Fatalf("yield escaped clamp range: %v", y)
	}
}

func TestFairValue_FullyRepaidLoan(t *testing.T) {
	engine := NewEngine(nil)
	terms := testTerms()
	terms.EMIsPaid = terms.TenureMonths

	res := engine.FairValue(terms, 0.10, "B")
	if res.SuggestedPrice != terms.CurrentOutstanding {
		t.Fatalf("fully repaid price: got %v want %v", res.SuggestedPrice, terms.CurrentOutstanding)
	}
	if res.YieldToMaturity != 0 {
		t.Fatalf("fully repaid yield: got %v want 0", res.YieldToMaturity)
	}
	if !res.Assumptions.LoanFullyRepaid {
		t.Fatalf("fully repaid marker not set")
	}
}

func TestFairValue_PriceCappedAtOutstanding(t *testing.T) {
	engine := NewEngine(nil)
	terms := testTerms()
	// Tiny outstanding forces the cap to bind.
	terms.CurrentOutstanding = 1000

	res := engine.FairValue(terms, 0.01, "A")
	cap := round2(terms.CurrentOutstanding * PriceCapRatio)
	if res.SuggestedPrice > cap {
		t.Fatalf("price %v above cap %v", res.SuggestedPrice, cap)
	}
	if res.SuggestedPrice != cap {
		t.Fatalf("cap should bind here: got %v want %v", res.SuggestedPrice, cap)
	}
}

func TestFairValue_TypicalLoanInPlausibleBand(t *testing.T) {
	engine := NewEngine(nil)
	terms := testTerms()

	res := engine.FairValue(terms, 0.08, "B")
	if res.SuggestedPrice < 0.5*terms.CurrentOutstanding {
		t.Fatalf("price implausibly low: %v", res.SuggestedPrice)
	}
	if res.SuggestedPrice > PriceCapRatio*terms.CurrentOutstanding {
		t.Fatalf("price above cap: %v", res.SuggestedPrice)
	}
	if res.Assumptions.RemainingMonths != 36 {
		t.Fatalf("remaining months: got %d want 36", res.Assumptions.RemainingMonths)
	}
	if res.Assumptions.ProbabilityOfDefault != 0.08 {
		t.Fatalf("pd assumption: got %v", res.Assumptions.ProbabilityOfDefault)
	}
}

func TestFairValue_PriceFallsWithPD(t *testing.T) {
	engine := NewEngine(nil)
	terms := testTerms()

	low := engine.FairValue(terms, 0.02, "A")
	high := engine.FairValue(terms, 0.45, "D")
	if high.SuggestedPrice >= low.SuggestedPrice {
		t.Fatalf("price should fall with risk: %v vs %v", high.SuggestedPrice, low.SuggestedPrice)
	}
}

func TestRunStress_FourScenarios(t *testing.T) {
	engine := NewEngine(nil)
	report := engine.RunStress(testTerms(), 0.10, "B")

	for _, name := range []string{"base", "adverse", "severe", "optimistic"} {
		if _, ok := report[name]; !ok {
			t.Fatalf("missing scenario %s", name)
		}
	}
	if len(report) != 4 {
		t.Fatalf("scenario count: got %d want 4", len(report))
	}

	base := report["base"]
	adverse := report["adverse"]
	severe := report["severe"]
	optimistic := report["optimistic"]

	if adverse.Price > base.Price {
		t.Fatalf("adverse price above base: %v vs %v", adverse.Price, base.Price)
	}
	if severe.Price > adverse.Price {
		t.Fatalf("severe price above adverse: %v vs %v", severe.Price, adverse.Price)
	}
	if optimistic.Price < base.Price {
		t.Fatalf("optimistic price below base: %v vs %v", optimistic.Price, base.Price)
	}
	if math.Abs(adverse.PDApplied-0.15) > 1e-12 || math.Abs(severe.PDApplied-0.20) > 1e-12 {
		t.Fatalf("shocked pds: adverse %v severe %v", adverse.PDApplied, severe.PDApplied)
	}
	if math.Abs(optimistic.PDApplied-0.07) > 1e-12 {
		t.Fatalf("optimistic pd: %v", optimistic.PDApplied)
	}
	if adverse.PriceChangePct == nil || *adverse.PriceChangePct > 0 {
		t.Fatalf("adverse price change: %+v", adverse.PriceChangePct)
	}
}

func TestRunStress_CapsAndFloors(t *testing.T) {
	engine := NewEngine(nil)

	report := engine.RunStress(testTerms(), 0.80, "D")
	if report["severe"].PDApplied != 1.0 {
		t.Fatalf("severe pd should cap at 1: %v", report["severe"].PDApplied)
	}

	report = engine.RunStress(testTerms(), 0.0005, "A")
	if report["optimistic"].PDApplied != 0.001 {
		t.Fatalf("optimistic pd should floor at 0.001: %v", report["optimistic"].PDApplied)
	}
}

func TestRunStress_ZeroBasePriceIsDegenerateNotFatal(t *testing.T) {
	engine := NewEngine(nil)
	terms := Terms{
		MonthlyEMI:         0,
		TenureMonths:       36,
		EMIsPaid:           0,
		CurrentOutstanding: 0,
	}

	report := engine.RunStress(terms, 0.10, "C")
	if len(report) != 4 {
		t.Fatalf("scenario count: got %d want 4", len(report))
	}
	for name, sc := range report {
		if name == "base" {
			continue
		}
		if !sc.Degenerate {
			t.Fatalf("scenario %s should be degenerate", name)
		}
		if sc.PriceChangePct != nil {
			t.Fatalf("scenario %s has price change on zero base", name)
		}
	}
}
