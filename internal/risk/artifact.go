package risk

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type artifactFile struct {
	Version    string    `json:"model_version"`
	TrainedAt  time.Time `json:"trained_at"`
	Weights    []float64 `json:"weights"`
	Bias       float64   `json:"bias"`
	ScalerMean []float64 `json:"scaler_mean"`
	ScalerStd  []float64 `json:"scaler_std"`
	Background []float64 `json:"background"`
}

func artifactPath(dir, version string) string {
	return filepath.Join(dir, fmt.Sprintf("risk_model_v%s.json", version))
}

// SaveModel persists the classifier and scaler as a versioned JSON artifact.
func SaveModel(dir string, m *Model) error {
	if m == nil || m.Classifier == nil || m.Scaler == nil {
		return fmt.Errorf("save model: %w", ErrNotTrained)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	art := artifactFile{
		Version:    m.Version,
		TrainedAt:  m.TrainedAt,
		Weights:    m.Classifier.Weights,
		Bias:       m.Classifier.Bias,
		ScalerMean: m.Scaler.Mean,
		ScalerStd:  m.Scaler.Std,
		Background: m.Background,
	}
	raw, err := json.MarshalIndent(art, "", "  ")
	if err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	return os.WriteFile(artifactPath(dir, m.Version), raw, 0o644)
}

// LoadModel restores a model snapshot from a persisted artifact. A missing
// artifact is ErrArtifactNotFound; loading never falls back to retraining.
func LoadModel(dir, version string) (*Model, error) {
	raw, err := os.ReadFile(artifactPath(dir, version))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: version %s in %s", ErrArtifactNotFound, version, dir)
	}
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	var art artifactFile
	if err := json.Unmarshal(raw, &art); err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	if len(art.Weights) != NumFeatures || len(art.ScalerMean) != NumFeatures || len(art.ScalerStd) != NumFeatures {
		return nil, fmt.Errorf("load model: artifact for version %s has wrong feature width", version)
	}

	classifier := &LogisticModel{Weights: art.Weights, Bias: art.Bias}
	scaler := &StandardScaler{Mean: art.ScalerMean, Std: art.ScalerStd}
	return NewModel(art.Version, art.TrainedAt, classifier, scaler, art.Background), nil
}
