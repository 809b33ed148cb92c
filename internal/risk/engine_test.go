package risk

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"
)

func trainTestModel(t *testing.T) (*Model, TrainMetrics) {
	t.Helper()
	samples, labels := GenerateSyntheticTrainingSet(2000, 7)
	return Train(samples, labels, "test", TrainOptions{Epochs: 200, LearningRate: 0.1})
}

func TestTrain_SeparatesSyntheticBook(t *testing.T) {
	_, metrics := trainTestModel(t)
	if metrics.Accuracy < 0.7 {
		t.Fatalf("training accuracy too low: %v", metrics.Accuracy)
	}
	if metrics.Samples != 2000 || metrics.Features != NumFeatures {
		t.Fatalf("unexpected metrics: %+v", metrics)
	}
}

func TestEngine_AssessBeforeSwapIsErrNotTrained(t *testing.T) {
	engine := NewEngine(nil)
	_, _, err := engine.Assess(validSnapshot())
	if !errors.Is(err, ErrNotTrained) {
		t.Fatalf("expected ErrNotTrained, got %v", err)
	}
}

func TestEngine_AssessProducesConsistentOutputs(t *testing.T) {
	model, _ := trainTestModel(t)
	engine := NewEngine(nil)
	engine.Swap(model)

	snap := validSnapshot()
	assessment, explanations, err := engine.Assess(snap)
	if err != nil {
		t.Fatalf("assess: %v", err)
	}
	if assessment.ProbabilityOfDefault < 0 || assessment.ProbabilityOfDefault > 1 {
		t.Fatalf("pd out of range: %v", assessment.ProbabilityOfDefault)
	}
	wantEL := assessment.ProbabilityOfDefault * LossGivenDefault * snap.CurrentOutstanding
	if math.Abs(assessment.ExpectedLoss-wantEL) > 1e-9 {
		t.Fatalf("expected loss mismatch: got %v want %v", assessment.ExpectedLoss, wantEL)
	}
	if assessment.RiskGrade != GradeFromPD(assessment.ProbabilityOfDefault) {
		t.Fatalf("grade mismatch: %s vs pd %v", assessment.RiskGrade, assessment.ProbabilityOfDefault)
	}
	if len(explanations) != NumFeatures {
		t.Fatalf("explanations: got %d want %d", len(explanations), NumFeatures)
	}
	// Linear explainer sorts by absolute attribution.
	for i := 1; i < len(explanations); i++ {
		if math.Abs(explanations[i].AttributionScore) > math.Abs(explanations[i-1].AttributionScore)+1e-12 {
			t.Fatalf("explanations not sorted at %d", i)
		}
	}
}

func TestEngine_RiskierLoanScoresHigher(t *testing.T) {
	model, _ := trainTestModel(t)
	engine := NewEngine(nil)
	engine.Swap(model)

	safe := validSnapshot()
	score := 800.0
	safe.BorrowerCreditScore = &score
	safe.InterestRate = 7
	safe.EMIsMissed = 0
	safe.EMIsPaid = 30

	risky := validSnapshot()
	lowScore := 510.0
	risky.BorrowerCreditScore = &lowScore
	risky.InterestRate = 17
	risky.EMIsMissed = 8
	risky.EMIsPaid = 2

	safeRes, _, err := engine.Assess(safe)
	if err != nil {
		t.Fatalf("assess safe: %v", err)
	}
	riskyRes, _, err := engine.Assess(risky)
	if err != nil {
		t.Fatalf("assess risky: %v", err)
	}
	if riskyRes.ProbabilityOfDefault <= safeRes.ProbabilityOfDefault {
		t.Fatalf("risky pd %v not above safe pd %v",
			riskyRes.ProbabilityOfDefault, safeRes.ProbabilityOfDefault)
	}
}

func TestModel_FallbackExplainerWithoutBackground(t *testing.T) {
	model, _ := trainTestModel(t)
	degraded := NewModel(model.Version, model.TrainedAt, model.Classifier, model.Scaler, nil)

	engine := NewEngine(nil)
	engine.Swap(degraded)

	full := NewEngine(nil)
	full.Swap(model)

	snap := validSnapshot()
	degradedRes, explanations, err := engine.Assess(snap)
	if err != nil {
		t.Fatalf("assess degraded: %v", err)
	}
	fullRes, _, err := full.Assess(snap)
	if err != nil {
		t.Fatalf("assess full: %v", err)
	}

	// Prediction must not depend on which explainer is active.
	if degradedRes.ProbabilityOfDefault != fullRes.ProbabilityOfDefault {
		t.Fatalf("pd differs across explainers: %v vs %v",
			degradedRes.ProbabilityOfDefault, fullRes.ProbabilityOfDefault)
	}
	if len(explanations) != NumFeatures {
		t.Fatalf("fallback explanations: got %d want %d", len(explanations), NumFeatures)
	}
	for _, exp := range explanations {
		if exp.AttributionScore != 0 {
			t.Fatalf("fallback attribution not zero: %+v", exp)
		}
	}
}

func TestArtifact_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	model, _ := trainTestModel(t)
	model.Version = "9.9.9"

	if err := SaveModel(dir, model); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadModel(dir, "9.9.9")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Version != model.Version {
		t.Fatalf("version: got %s want %s", loaded.Version, model.Version)
	}
	if len(loaded.Classifier.Weights) != NumFeatures {
		t.Fatalf("weights width: %d", len(loaded.Classifier.Weights))
	}

	snap := validSnapshot()
	a := NewEngine(nil)
	a.Swap(model)
	b := NewEngine(nil)
	b.Swap(loaded)
	origRes, _, _ := a.Assess(snap)
	loadedRes, _, _ := b.Assess(snap)
	if math.Abs(origRes.ProbabilityOfDefault-loadedRes.ProbabilityOfDefault) > 1e-12 {
		t.Fatalf("pd drifted through artifact: %v vs %v",
			origRes.ProbabilityOfDefault, loadedRes.ProbabilityOfDefault)
	}
}

func TestLoadModel_MissingArtifact(t *testing.T) {
	_, err := LoadModel(t.TempDir(), "0.0.1")
	if !errors.Is(err, ErrArtifactNotFound) {
		t.Fatalf("expected ErrArtifactNotFound, got %v", err)
	}
}

func TestArtifactPath_Versioned(t *testing.T) {
	got := artifactPath("models", "2.1.0")
	want := filepath.Join("models", "risk_model_v2.1.0.json")
	if got != want {
		t.Fatalf("artifact path: got %s want %s", got, want)
	}
}

func TestGenerateSyntheticTrainingSet_Deterministic(t *testing.T) {
	a, la := GenerateSyntheticTrainingSet(50, 99)
	b, lb := GenerateSyntheticTrainingSet(50, 99)
	if len(a) != 50 || len(la) != 50 {
		t.Fatalf("unexpected sizes: %d %d", len(a), len(la))
	}
	for i := range a {
		if la[i] != lb[i] {
			t.Fatalf("labels diverge at %d", i)
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				t.Fatalf("samples diverge at %d/%d", i, j)
			}
		}
	}
}

func TestEngine_SwapReplacesSnapshot(t *testing.T) {
	model, _ := trainTestModel(t)
	engine := NewEngine(nil)
	engine.Swap(model)

	v2 := NewModel("2.0.0", time.Now().UTC(), model.Classifier, model.Scaler, model.Background)
	engine.Swap(v2)

	res, _, err := engine.Assess(validSnapshot())
	if err != nil {
		t.Fatalf("assess: %v", err)
	}
	if res.ModelVersion != "2.0.0" {
		t.Fatalf("model version: got %s want 2.0.0", res.ModelVersion)
	}
}
