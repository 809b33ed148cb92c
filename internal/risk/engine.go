package risk

import (
	"math"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Model is an immutable classifier snapshot: logistic weights, the scaler
// fit at training time, and the explainer selected from the available
// capabilities. A Model is never mutated after construction; retraining
// produces a new one.
type Model struct {
	Version    string
	TrainedAt  time.Time
	Classifier *LogisticModel
	Scaler     *StandardScaler
	Background []float64

	explainer Explainer
}

func NewModel(version string, trainedAt time.Time, classifier *LogisticModel, scaler *StandardScaler, background []float64) *Model {
	m := &Model{
		Version:    version,
		TrainedAt:  trainedAt,
		Classifier: classifier,
		Scaler:     scaler,
		Background: background,
	}
	if len(background) == NumFeatures {
		m.explainer = NewLinearExplainer(classifier, background)
	} else {
		m.explainer = FallbackExplainer{}
	}
	return m
}

// Assessment is the immutable result of one risk evaluation. A re-assessment
// supersedes it; nothing updates it in place.
type Assessment struct {
	ProbabilityOfDefault float64   `json:"probability_of_default"`
	ExpectedLoss         float64   `json:"expected_loss"`
	RiskGrade            string    `json:"risk_grade"`
	ModelVersion         string    `json:"model_version"`
	AssessedAt           time.Time `json:"assessed_at"`
}

// Engine evaluates loans against the current model snapshot. The snapshot is
// shared read-only state: concurrent Assess calls need no locking, and
// Swap replaces the whole snapshot atomically so in-flight evaluations keep
// the model they started with.
type Engine struct {
	model  atomic.Pointer[Model]
	logger *zap.Logger
}

func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{logger: logger}
}

// Swap installs a new model snapshot.
func (e *Engine) Swap(m *Model) {
	e.model.Store(m)
	if e.logger != nil && m != nil {
		e.logger.Info("risk model swapped",
			zap.String("version", m.Version),
			zap.Time("trained_at", m.TrainedAt),
		)
	}
}

// Current returns the active model snapshot, or nil before the first Swap.
func (e *Engine) Current() *Model {
	return e.model.Load()
}

// Assess produces a risk assessment and per-feature explanations for one
// loan. Returns ErrNotTrained before a model has been installed.
func (e *Engine) Assess(snap LoanSnapshot) (Assessment, []Explanation, error) {
	features, err := BuildFeatures(snap)
	if err != nil {
		return Assessment{}, nil, err
	}
	m := e.model.Load()
	if m == nil || m.Classifier == nil || m.Scaler == nil {
		return Assessment{}, nil, ErrNotTrained
	}

	scaled := m.Scaler.Transform(features[:])
	pd := clamp01(m.Classifier.PredictProba(scaled))
	assessment := Assessment{
		ProbabilityOfDefault: pd,
		ExpectedLoss:         pd * LossGivenDefault * snap.CurrentOutstanding,
		RiskGrade:            GradeFromPD(pd),
		ModelVersion:         m.Version,
		AssessedAt:           time.Now().UTC(),
	}
	return assessment, m.explainer.Explain(features, scaled), nil
}

// Train fits a fresh model on the given feature rows and binary labels
// (1 = default) and returns it with training metrics. The caller decides
// whether to Swap it in and whether to persist it.
func Train(samples [][]float64, labels []int, version string, opts TrainOptions) (*Model, TrainMetrics) {
	scaler := FitScaler(samples)
	scaled := make([][]float64, len(samples))
	for i, row := range samples {
		scaled[i] = scaler.Transform(row)
	}

	classifier, accuracy := TrainLogistic(scaled, labels, opts)

	// Background reference for attributions: the scaled training mean.
	background := make([]float64, NumFeatures)
	if len(scaled) > 0 {
		for _, row := range scaled {
			for j, v := range row {
				if j < NumFeatures {
					background[j] += v
				}
			}
		}
		for j := range background {
			background[j] /= float64(len(scaled))
		}
	}

	trainedAt := time.Now().UTC()
	metrics := TrainMetrics{
		Accuracy:  accuracy,
		Samples:   len(samples),
		Features:  NumFeatures,
		Version:   version,
		TrainedAt: trainedAt,
	}
	return NewModel(version, trainedAt, classifier, scaler, background), metrics
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(1, math.Max(0, v))
}
