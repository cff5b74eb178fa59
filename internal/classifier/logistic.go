// Package classifier provides the binary directional model the pipeline
// trains and backtests. The model choice is a narrow collaborator: anything
// implementing Model can be swapped in.
package classifier

import (
	"encoding/json"
	"math"
	"os"

	"github.com/quantlab-io/signalpipe/pkg/errors"
)

// Model is the classifier contract used by training and backtesting.
type Model interface {
	Fit(features [][]float64, labels []int) error
	Predict(features [][]float64) ([]int, error)
}

// Logistic is a regularized logistic regression trained with batch gradient
// descent over standardized features. Training is deterministic: weights
// start at zero and the update order is fixed.
type Logistic struct {
	// Bias and Weights are the fitted parameters.
	Bias    float64   `json:"bias"`
	Weights []float64 `json:"weights"`
	// Means and Stds hold the per-feature standardization fitted on the
	// training partition.
	Means []float64 `json:"means"`
	Stds  []float64 `json:"stds"`
	// FeatureColumns records the column order the model was fitted with.
	FeatureColumns []string `json:"feature_columns"`

	learningRate float64
	iterations   int
	l2           float64
}

// NewLogistic creates an unfitted logistic regression model.
func NewLogistic(featureColumns []string) *Logistic {
	return &Logistic{
		FeatureColumns: featureColumns,
		learningRate:   0.1,
		iterations:     500,
		l2:             1e-4,
	}
}

// Fit implements Model.
func (m *Logistic) Fit(features [][]float64, labels []int) error {
	if len(features) == 0 {
		return errors.New(errors.ErrCodeInvalidParameter, "cannot fit on an empty feature matrix")
	}

	if len(features) != len(labels) {
		return errors.Newf(errors.ErrCodeInvalidParameter,
			"feature matrix has %d rows, labels have %d", len(features), len(labels))
	}

	dim := len(features[0])
	if dim == 0 {
		return errors.New(errors.ErrCodeInvalidParameter, "feature matrix has no columns")
	}

	for i, label := range labels {
		if label != 0 && label != 1 {
			return errors.Newf(errors.ErrCodeInvalidLabel, "label at row %d is %d, want 0 or 1", i, label)
		}

		if len(features[i]) != dim {
			return errors.Newf(errors.ErrCodeInvalidParameter,
				"row %d has %d features, want %d", i, len(features[i]), dim)
		}
	}

	m.Means, m.Stds = standardization(features, dim)
	scaled := m.scale(features)

	m.Bias = 0
	m.Weights = make([]float64, dim)

	n := float64(len(scaled))

	for iter := 0; iter < m.iterations; iter++ {
		gradBias := 0.0
		grad := make([]float64, dim)

		for i, row := range scaled {
			p := m.probability(row)
			diff := p - float64(labels[i])

			gradBias += diff
			for j, v := range row {
				grad[j] += diff * v
			}
		}

		m.Bias -= m.learningRate * gradBias / n
		for j := range m.Weights {
			m.Weights[j] -= m.learningRate * (grad[j]/n + m.l2*m.Weights[j])
		}
	}

	return nil
}

// Predict implements Model.
func (m *Logistic) Predict(features [][]float64) ([]int, error) {
	if m.Weights == nil {
		return nil, errors.New(errors.ErrCodeModelNotFitted, "model has not been fitted")
	}

	labels := make([]int, len(features))

	for i, row := range features {
		if len(row) != len(m.Weights) {
			return nil, errors.Newf(errors.ErrCodeInvalidParameter,
				"row %d has %d features, model was fitted with %d", i, len(row), len(m.Weights))
		}

		if m.probability(m.scaleRow(row)) >= 0.5 {
			labels[i] = 1
		}
	}

	return labels, nil
}

func (m *Logistic) probability(row []float64) float64 {
	z := m.Bias
	for j, v := range row {
		z += m.Weights[j] * v
	}

	return 1 / (1 + math.Exp(-z))
}

func (m *Logistic) scale(features [][]float64) [][]float64 {
	out := make([][]float64, len(features))
	for i, row := range features {
		out[i] = m.scaleRow(row)
	}

	return out
}

func (m *Logistic) scaleRow(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - m.Means[j]) / m.Stds[j]
	}

	return out
}

// standardization computes per-column means and standard deviations.
// Constant columns get a unit deviation so scaling stays finite.
func standardization(features [][]float64, dim int) (means, stds []float64) {
	means = make([]float64, dim)
	stds = make([]float64, dim)

	n := float64(len(features))

	for _, row := range features {
		for j, v := range row {
			means[j] += v
		}
	}

	for j := range means {
		means[j] /= n
	}

	for _, row := range features {
		for j, v := range row {
			d := v - means[j]
			stds[j] += d * d
		}
	}

	for j := range stds {
		stds[j] = math.Sqrt(stds[j] / n)
		if stds[j] == 0 {
			stds[j] = 1
		}
	}

	return means, stds
}

// SaveModel persists a fitted model as JSON. The format is opaque to the
// rest of the pipeline.
func SaveModel(m *Logistic, path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeModelPersistence, "failed to encode model", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(errors.ErrCodeModelPersistence, err, "failed to write model to %s", path)
	}

	return nil
}

// LoadModel restores a model persisted by SaveModel.
func LoadModel(path string) (*Logistic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeModelPersistence, err, "failed to read model from %s", path)
	}

	model := NewLogistic(nil)
	if err := json.Unmarshal(data, model); err != nil {
		return nil, errors.Wrap(errors.ErrCodeModelPersistence, "failed to decode model", err)
	}

	if model.Weights == nil || len(model.Means) != len(model.Weights) || len(model.Stds) != len(model.Weights) {
		return nil, errors.New(errors.ErrCodeModelPersistence, "persisted model is incomplete")
	}

	return model, nil
}
