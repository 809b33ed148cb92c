package risk

import (
	"fmt"
	"math"
	"sort"
)

// Explanation is one per-feature attribution entry. Attributions are
// additive in the scaled feature space.
type Explanation struct {
	FeatureName      string  `json:"feature_name"`
	FeatureValue     float64 `json:"feature_value"`
	AttributionScore float64 `json:"attribution_score"`
	Description      string  `json:"description"`
}

// Explainer produces per-prediction attributions. Implementations are chosen
// at model construction time: a linear explainer when a background reference
// distribution is available, a degraded listing otherwise. Prediction and
// grading never depend on which implementation is active.
type Explainer interface {
	Explain(features FeatureVector, scaled []float64) []Explanation
}

// LinearExplainer attributes a prediction to each feature as
// w_i * (x_i - background_i) in scaled space, against the training-set
// reference distribution.
type LinearExplainer struct {
	model      *LogisticModel
	background []float64
}

func NewLinearExplainer(model *LogisticModel, background []float64) *LinearExplainer {
	return &LinearExplainer{model: model, background: background}
}

func (e *LinearExplainer) Explain(features FeatureVector, scaled []float64) []Explanation {
	out := make([]Explanation, 0, NumFeatures)
	for i, name := range FeatureNames {
		bg := 0.0
		if i < len(e.background) {
			bg = e.background[i]
		}
		attribution := 0.0
		if i < len(e.model.Weights) && i < len(scaled) {
			attribution = e.model.Weights[i] * (scaled[i] - bg)
		}
		impact := "decreases"
		if attribution > 0 {
			impact = "increases"
		}
		out = append(out, Explanation{
			FeatureName:      name,
			FeatureValue:     features[i],
			AttributionScore: attribution,
			Description: fmt.Sprintf("%s=%.2f %s default risk (magnitude: %.4f)",
				name, features[i], impact, math.Abs(attribution)),
		})
	}
	sort.SliceStable(out, func(a, b int) bool {
		return math.Abs(out[a].AttributionScore) > math.Abs(out[b].AttributionScore)
	})
	return out
}

// FallbackExplainer is the degraded mode: one entry per feature with a zero
// attribution and a note that explanation is unavailable.
type FallbackExplainer struct{}

func (FallbackExplainer) Explain(features FeatureVector, _ []float64) []Explanation {
	out := make([]Explanation, 0, NumFeatures)
	for i, name := range FeatureNames {
		out = append(out, Explanation{
			FeatureName:      name,
			FeatureValue:     features[i],
			AttributionScore: 0.0,
			Description:      fmt.Sprintf("%s=%.2f (explanation unavailable)", name, features[i]),
		})
	}
	return out
}
