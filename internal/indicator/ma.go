package indicator

import (
	"github.com/quantlab-io/signalpipe/internal/types"
	"github.com/quantlab-io/signalpipe/pkg/errors"
)

// SMA is a simple moving average of close prices over a fixed window.
type SMA struct {
	column string
	window int
}

// NewSMA creates a simple moving average indicator writing to the given
// column name.
func NewSMA(column string, window int) (*SMA, error) {
	if window <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "sma window must be positive, got %d", window)
	}

	return &SMA{column: column, window: window}, nil
}

// Columns implements Indicator.
func (s *SMA) Columns() []string {
	return []string{s.column}
}

// Warmup implements Indicator.
func (s *SMA) Warmup() int {
	return s.window - 1
}

// Compute implements Indicator.
func (s *SMA) Compute(bars []types.PriceBar) (map[string][]float64, error) {
	values := make([]float64, len(bars))

	sum := 0.0

	for i, bar := range bars {
		sum += bar.Close
		if i >= s.window {
			sum -= bars[i-s.window].Close
		}

		if i >= s.window-1 {
			values[i] = sum / float64(s.window)
		}
	}

	return map[string][]float64{s.column: values}, nil
}

// rollingMean computes the simple moving average of an arbitrary series.
// Entries before window-1 are left at zero; callers discard them via the
// warm-up convention.
func rollingMean(series []float64, window int) []float64 {
	values := make([]float64, len(series))

	sum := 0.0

	for i, v := range series {
		sum += v
		if i >= window {
			sum -= series[i-window]
		}

		if i >= window-1 {
			values[i] = sum / float64(window)
		}
	}

	return values
}
