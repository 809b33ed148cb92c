package pricing

import (
	"math"
	"time"

	"go.uber.org/zap"
)

// Assumptions snapshots every input the fair-value calculation used, so a
// stored price can be audited long after market parameters move.
type Assumptions struct {
	RiskFreeRate         float64   `json:"risk_free_rate"`
	RiskGradeSpread      float64   `json:"risk_grade_spread"`
	LiquidityPremium     float64   `json:"liquidity_premium"`
	ProbabilityOfDefault float64   `json:"probability_of_default"`
	RemainingMonths      int       `json:"remaining_months"`
	DiscountRateAnnual   float64   `json:"discount_rate_annual"`
	CalculationDate      time.Time `json:"calculation_date"`
	LoanFullyRepaid      bool      `json:"loan_fully_repaid,omitempty"`
}

// Result is a completed fair-value run. Rates are percentages, money is in
// the loan's currency, both rounded to two decimals.
type Result struct {
	SuggestedPrice  float64     `json:"suggested_price"`
	YieldToMaturity float64     `json:"yield_to_maturity"`
	DiscountRate    float64     `json:"discount_rate"`
	NPVCashFlows    float64     `json:"npv_cash_flows"`
	LowConfidence   bool        `json:"low_confidence,omitempty"`
	Assumptions     Assumptions `json:"assumptions"`
}

// Engine prices loans. It is stateless and safe for concurrent use.
type Engine struct {
	logger *zap.Logger
}

func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// FairValue computes the survival-weighted NPV of the remaining installments,
// caps the suggested price at 98% of outstanding, and solves the implied
// yield at that price. A loan with no remaining installments prices at its
// outstanding balance with zero yield and is flagged as fully repaid.
func (e *Engine) FairValue(terms Terms, pd float64, grade string) Result {
	now := time.Now().UTC()
	remaining := terms.RemainingMonths()

	if remaining <= 0 {
		return Result{
			SuggestedPrice: round2(terms.CurrentOutstanding),
			NPVCashFlows:   round2(terms.CurrentOutstanding),
			Assumptions: Assumptions{
				RiskFreeRate:         RiskFreeRate,
				RiskGradeSpread:      GradeSpread(grade),
				LiquidityPremium:     LiquidityPremium,
				ProbabilityOfDefault: pd,
				CalculationDate:      now,
				LoanFullyRepaid:      true,
			},
		}
	}

	rate := DiscountRate(pd, grade)
	npv := ExpectedNPV(terms.MonthlyEMI, remaining, rate, pd)
	price := math.Min(npv, terms.CurrentOutstanding*PriceCapRatio)
	if price < 0 {
		price = 0
	}

	ytm, converged := SolveYield(price, terms.MonthlyEMI, remaining)
	if !converged {
		e.logger.Warn("yield solver did not converge",
			zap.Float64("price", price),
			zap.Float64("monthly_emi", terms.MonthlyEMI),
			zap.Int("remaining_months", remaining),
			zap.Float64("last_estimate", ytm))
	}

	return Result{
		SuggestedPrice:  round2(price),
		YieldToMaturity: round2(ytm * 100),
		DiscountRate:    round2(rate * 100),
		NPVCashFlows:    round2(npv),
		LowConfidence:   !converged,
		Assumptions: Assumptions{
			RiskFreeRate:         RiskFreeRate,
			RiskGradeSpread:      GradeSpread(grade),
			LiquidityPremium:     LiquidityPremium,
			ProbabilityOfDefault: pd,
			RemainingMonths:      remaining,
			DiscountRateAnnual:   rate,
			CalculationDate:      now,
		},
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
