package risk

import (
	"math"
	"time"
)

// LossGivenDefault is the fixed fraction of outstanding balance assumed lost
// on default (industry-standard 45%).
const LossGivenDefault = 0.45

// StandardScaler standardizes features to zero mean and unit variance. It is
// fit once on training data and reused unchanged at inference time.
type StandardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

func FitScaler(samples [][]float64) *StandardScaler {
	if len(samples) == 0 {
		return &StandardScaler{}
	}
	width := len(samples[0])
	mean := make([]float64, width)
	std := make([]float64, width)
	n := float64(len(samples))

	for _, row := range samples {
		for j, v := range row {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= n
	}
	for _, row := range samples {
		for j, v := range row {
			d := v - mean[j]
			std[j] += d * d
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / n)
	}
	return &StandardScaler{Mean: mean, Std: std}
}

func (s *StandardScaler) Transform(x []float64) []float64 {
	out := make([]float64, len(x))
	for j, v := range x {
		sd := 1.0
		if j < len(s.Std) && s.Std[j] > 0 {
			sd = s.Std[j]
		}
		m := 0.0
		if j < len(s.Mean) {
			m = s.Mean[j]
		}
		out[j] = (v - m) / sd
	}
	return out
}

// LogisticModel is a binary classifier with a logistic link over
// standardized features. The positive class is "default".
type LogisticModel struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

func (m *LogisticModel) PredictProba(scaled []float64) float64 {
	z := m.Bias
	for j, w := range m.Weights {
		if j < len(scaled) {
			z += w * scaled[j]
		}
	}
	return sigmoid(z)
}

func sigmoid(z float64) float64 {
	// Split on sign to keep exp() bounded for large |z|.
	if z >= 0 {
		return 1.0 / (1.0 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1.0 + e)
}

type TrainOptions struct {
	Epochs       int
	LearningRate float64
}

type TrainMetrics struct {
	Accuracy  float64   `json:"accuracy"`
	Samples   int       `json:"n_samples"`
	Features  int       `json:"n_features"`
	Version   string    `json:"model_version"`
	TrainedAt time.Time `json:"trained_at"`
}

// TrainLogistic fits a logistic regression by full-batch gradient descent
// with class-balanced sample weighting, correcting for the low base rate of
// defaults in the training set.
func TrainLogistic(samples [][]float64, labels []int, opts TrainOptions) (*LogisticModel, float64) {
	epochs := opts.Epochs
	if epochs <= 0 {
		epochs = 400
	}
	lr := opts.LearningRate
	if lr <= 0 {
		lr = 0.1
	}

	n := len(samples)
	width := 0
	if n > 0 {
		width = len(samples[0])
	}
	model := &LogisticModel{Weights: make([]float64, width)}
	if n == 0 || width == 0 {
		return model, 0
	}

	posWeight, negWeight := classWeights(labels)

	grad := make([]float64, width)
	for epoch := 0; epoch < epochs; epoch++ {
		for j := range grad {
			grad[j] = 0
		}
		gradBias := 0.0
		for i, row := range samples {
			p := model.PredictProba(row)
			w := negWeight
			y := 0.0
			if labels[i] == 1 {
				w = posWeight
				y = 1.0
			}
			diff := w * (p - y)
			for j, v := range row {
				grad[j] += diff * v
			}
			gradBias += diff
		}
		scale := lr / float64(n)
		for j := range model.Weights {
			model.Weights[j] -= scale * grad[j]
		}
		model.Bias -= scale * gradBias
	}

	correct := 0
	for i, row := range samples {
		predicted := 0
		if model.PredictProba(row) >= 0.5 {
			predicted = 1
		}
		if predicted == labels[i] {
			correct++
		}
	}
	return model, float64(correct) / float64(n)
}

// classWeights returns per-class sample weights n/(2*n_c) so both classes
// contribute equally to the loss regardless of imbalance.
func classWeights(labels []int) (pos, neg float64) {
	var nPos, nNeg float64
	for _, y := range labels {
		if y == 1 {
			nPos++
		} else {
			nNeg++
		}
	}
	total := nPos + nNeg
	pos, neg = 1.0, 1.0
	if nPos > 0 {
		pos = total / (2.0 * nPos)
	}
	if nNeg > 0 {
		neg = total / (2.0 * nNeg)
	}
	return pos, neg
}
