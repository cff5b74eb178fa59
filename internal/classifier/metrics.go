package classifier

import (
	"encoding/json"
	"os"

	"github.com/quantlab-io/signalpipe/pkg/errors"
)

// Metrics holds the evaluation of a fitted model on the test partition.
// The confusion matrix is indexed [actual][predicted].
type Metrics struct {
	Accuracy        float64   `json:"accuracy"`
	Precision       float64   `json:"precision"`
	Recall          float64   `json:"recall"`
	F1              float64   `json:"f1"`
	Support         int       `json:"support"`
	ConfusionMatrix [2][2]int `json:"confusion_matrix"`
}

// Evaluate compares predicted against actual binary labels.
func Evaluate(predicted, actual []int) (Metrics, error) {
	if len(predicted) != len(actual) {
		return Metrics{}, errors.Newf(errors.ErrCodeInvalidParameter,
			"predicted has %d labels, actual has %d", len(predicted), len(actual))
	}

	if len(predicted) == 0 {
		return Metrics{}, errors.New(errors.ErrCodeInvalidParameter, "cannot evaluate zero predictions")
	}

	var m Metrics

	m.Support = len(actual)

	correct := 0

	for i := range actual {
		if actual[i] < 0 || actual[i] > 1 || predicted[i] < 0 || predicted[i] > 1 {
			return Metrics{}, errors.Newf(errors.ErrCodeInvalidLabel,
				"labels at position %d are not binary: actual=%d predicted=%d", i, actual[i], predicted[i])
		}

		m.ConfusionMatrix[actual[i]][predicted[i]]++

		if actual[i] == predicted[i] {
			correct++
		}
	}

	m.Accuracy = float64(correct) / float64(len(actual))

	truePositive := float64(m.ConfusionMatrix[1][1])
	falsePositive := float64(m.ConfusionMatrix[0][1])
	falseNegative := float64(m.ConfusionMatrix[1][0])

	if truePositive+falsePositive > 0 {
		m.Precision = truePositive / (truePositive + falsePositive)
	}

	if truePositive+falseNegative > 0 {
		m.Recall = truePositive / (truePositive + falseNegative)
	}

	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}

	return m, nil
}

// WriteMetrics persists evaluation metrics as JSON.
func WriteMetrics(m Metrics, path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeModelPersistence, "failed to encode metrics", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(errors.ErrCodeModelPersistence, err, "failed to write metrics to %s", path)
	}

	return nil
}
