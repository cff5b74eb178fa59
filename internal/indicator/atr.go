package indicator

import (
	"math"

	"github.com/quantlab-io/signalpipe/internal/types"
	"github.com/quantlab-io/signalpipe/pkg/errors"
)

// ATR is the Average True Range: a simple rolling mean of the true range.
// The first bar's true range is its high-low span since no previous close
// exists.
type ATR struct {
	period int
}

// NewATR creates an ATR indicator with the given period.
func NewATR(period int) (*ATR, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "atr period must be positive, got %d", period)
	}

	return &ATR{period: period}, nil
}

// Columns implements Indicator.
func (a *ATR) Columns() []string {
	return []string{"atr"}
}

// Warmup implements Indicator.
func (a *ATR) Warmup() int {
	return a.period - 1
}

// Compute implements Indicator.
func (a *ATR) Compute(bars []types.PriceBar) (map[string][]float64, error) {
	trueRange := make([]float64, len(bars))

	for i, bar := range bars {
		tr := bar.High - bar.Low

		if i > 0 {
			prevClose := bars[i-1].Close
			tr = math.Max(tr, math.Abs(bar.High-prevClose))
			tr = math.Max(tr, math.Abs(bar.Low-prevClose))
		}

		trueRange[i] = tr
	}

	return map[string][]float64{"atr": rollingMean(trueRange, a.period)}, nil
}
