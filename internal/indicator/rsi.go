package indicator

import (
	"github.com/quantlab-io/signalpipe/internal/types"
	"github.com/quantlab-io/signalpipe/pkg/errors"
)

// RSI is the Relative Strength Index over close-to-close changes.
//
// Numeric convention: average gain and average loss are simple rolling
// means over the window. When the average loss is exactly zero the RSI is
// defined as 100; this keeps a flat or monotonically rising series well
// defined instead of dividing by zero.
type RSI struct {
	period int
}

// NewRSI creates an RSI indicator with the given period.
func NewRSI(period int) (*RSI, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "rsi period must be positive, got %d", period)
	}

	return &RSI{period: period}, nil
}

// Columns implements Indicator.
func (r *RSI) Columns() []string {
	return []string{"rsi"}
}

// Warmup implements Indicator.
// The first delta exists at index 1, so the first full window of deltas
// ends at index period.
func (r *RSI) Warmup() int {
	return r.period
}

// Compute implements Indicator.
func (r *RSI) Compute(bars []types.PriceBar) (map[string][]float64, error) {
	values := make([]float64, len(bars))

	gains := make([]float64, len(bars))
	losses := make([]float64, len(bars))

	for i := 1; i < len(bars); i++ {
		change := bars[i].Close - bars[i-1].Close
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	gainSum := 0.0
	lossSum := 0.0

	for i := 1; i < len(bars); i++ {
		gainSum += gains[i]
		lossSum += losses[i]

		if i > r.period {
			gainSum -= gains[i-r.period]
			lossSum -= losses[i-r.period]
		}

		if i < r.period {
			continue
		}

		avgGain := gainSum / float64(r.period)
		avgLoss := lossSum / float64(r.period)

		if avgLoss == 0 {
			values[i] = 100

			continue
		}

		rs := avgGain / avgLoss
		values[i] = 100 - (100 / (1 + rs))
	}

	return map[string][]float64{"rsi": values}, nil
}
