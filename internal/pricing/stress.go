package pricing

// ScenarioResult is one stress scenario's repriced outcome. PriceChangePct
// is nil when the base price is zero, where a relative change is undefined;
// Degenerate marks that case so consumers can tell it apart from "no change".
type ScenarioResult struct {
	PDApplied      float64  `json:"pd_applied"`
	Price          float64  `json:"price"`
	Yield          float64  `json:"yield"`
	PriceChangePct *float64 `json:"price_change_pct,omitempty"`
	Degenerate     bool     `json:"degenerate,omitempty"`
	Description    string   `json:"description"`
}

// StressReport maps scenario name to outcome. It always carries exactly the
// four scenarios: base, adverse, severe and optimistic.
type StressReport map[string]ScenarioResult

var stressScenarios = []struct {
	name        string
	scale       float64
	cap         float64
	floor       float64
	description string
}{
	{name: "adverse", scale: 1.5, cap: 1.0, description: "Default probability up 50%"},
	{name: "severe", scale: 2.0, cap: 1.0, description: "Default probability doubled"},
	{name: "optimistic", scale: 0.7, floor: 0.001, description: "Default probability down 30%"},
}

// RunStress reprices a loan under shocked default probabilities. Upward
// shocks cap at certain default, the optimistic shock floors at 0.1% so PD
// never vanishes entirely; grade and contractual terms are held fixed so the
// report isolates PD sensitivity.
func (e *Engine) RunStress(terms Terms, basePD float64, grade string) StressReport {
	base := e.FairValue(terms, basePD, grade)

	report := StressReport{
		"base": {
			PDApplied:   basePD,
			Price:       base.SuggestedPrice,
			Yield:       base.YieldToMaturity,
			Description: "Current model estimate",
		},
	}

	for _, sc := range stressScenarios {
		shocked := basePD * sc.scale
		if sc.cap > 0 && shocked > sc.cap {
			shocked = sc.cap
		}
		if shocked < sc.floor {
			shocked = sc.floor
		}

		res := e.FairValue(terms, shocked, grade)
		entry := ScenarioResult{
			PDApplied:   shocked,
			Price:       res.SuggestedPrice,
			Yield:       res.YieldToMaturity,
			Description: sc.description,
		}
		if base.SuggestedPrice > 0 {
			pct := round2((res.SuggestedPrice/base.SuggestedPrice - 1) * 100)
			entry.PriceChangePct = &pct
		} else {
			entry.Degenerate = true
		}
		report[sc.name] = entry
	}
	return report
}
