package backtest

import (
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/quantlab-io/signalpipe/internal/dataset"
	"github.com/quantlab-io/signalpipe/internal/logger"
	"github.com/quantlab-io/signalpipe/internal/signal"
	"github.com/quantlab-io/signalpipe/internal/types"
	"github.com/quantlab-io/signalpipe/pkg/errors"
)

// Mode selects which slice of the dataset the simulation runs over. The
// mode is always caller-selected, never inferred.
type Mode string

const (
	// ModeTestOnly simulates only over the chronological test partition,
	// for out-of-sample validation.
	ModeTestOnly Mode = "test-only"
	// ModeFull simulates over the entire dataset.
	ModeFull Mode = "full"
)

// Predictor is the classifier surface the driver needs.
type Predictor interface {
	Predict(features [][]float64) ([]int, error)
}

// Driver feeds translated model signals and open prices into the portfolio
// simulator and extracts summary statistics.
type Driver struct {
	portfolio *Portfolio
	log       *logger.Logger
}

// NewDriver creates a backtest driver with the given starting capital.
func NewDriver(initialCapital float64, log *logger.Logger) (*Driver, error) {
	portfolio, err := NewPortfolio(initialCapital)
	if err != nil {
		return nil, err
	}

	return &Driver{
		portfolio: portfolio,
		log:       log,
	}, nil
}

// Run predicts labels for the selected slice of the dataset, translates
// them into lagged entry/exit signals and invokes the simulator once.
//
// The test partition is carved out with the same chronological splitter the
// training stage uses, so the out-of-sample window is identical in both
// places.
func (d *Driver) Run(frame *dataset.Frame, model Predictor, featureColumns []string, mode Mode, testFraction float64, granularity types.Granularity) (Stats, error) {
	var (
		slice *dataset.Frame
		err   error
	)

	switch mode {
	case ModeTestOnly:
		_, slice, err = dataset.Split(frame, testFraction)
		if err != nil {
			return Stats{}, err
		}
	case ModeFull:
		slice = frame
	default:
		return Stats{}, errors.Newf(errors.ErrCodeInvalidParameter, "unknown backtest mode %q", string(mode))
	}

	features, err := slice.Matrix(featureColumns)
	if err != nil {
		return Stats{}, err
	}

	labels, err := model.Predict(features)
	if err != nil {
		return Stats{}, err
	}

	entries, exits, err := signal.Translate(labels)
	if err != nil {
		return Stats{}, err
	}

	opens, err := slice.Column(dataset.ColumnOpen)
	if err != nil {
		return Stats{}, err
	}

	stats, err := d.portfolio.FromSignals(opens, entries, exits, granularity)
	if err != nil {
		return Stats{}, err
	}

	d.log.Info("backtest complete",
		zap.String("mode", string(mode)),
		zap.Int("periods", stats.Periods),
		zap.Int("trades", stats.TotalTrades),
		zap.Float64("total_return", stats.TotalReturn),
		zap.Float64("max_drawdown", stats.MaxDrawdown),
	)

	return stats, nil
}

// WriteStats persists summary statistics as YAML.
func WriteStats(stats Stats, path string) error {
	data, err := yaml.Marshal(stats)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDatasetWriteFailed, "failed to encode backtest stats", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(errors.ErrCodeDatasetWriteFailed, err, "failed to write backtest stats to %s", path)
	}

	return nil
}
