package indicator

import (
	"math"

	"github.com/quantlab-io/signalpipe/internal/types"
	"github.com/quantlab-io/signalpipe/pkg/errors"
)

// Volatility is the sample standard deviation of one-period close returns
// over a fixed window.
type Volatility struct {
	window int
}

// NewVolatility creates a volatility indicator with the given window.
func NewVolatility(window int) (*Volatility, error) {
	if window <= 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "volatility window must be > 1, got %d", window)
	}

	return &Volatility{window: window}, nil
}

// Columns implements Indicator.
func (v *Volatility) Columns() []string {
	return []string{"volatility"}
}

// Warmup implements Indicator.
// Returns start at index 1, so the first full window of returns ends at
// index window.
func (v *Volatility) Warmup() int {
	return v.window
}

// Compute implements Indicator.
func (v *Volatility) Compute(bars []types.PriceBar) (map[string][]float64, error) {
	values := make([]float64, len(bars))

	returns := make([]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		if bars[i-1].Close != 0 {
			returns[i] = bars[i].Close/bars[i-1].Close - 1
		}
	}

	for i := v.window; i < len(bars); i++ {
		mean := 0.0
		for j := i - v.window + 1; j <= i; j++ {
			mean += returns[j]
		}

		mean /= float64(v.window)

		variance := 0.0
		for j := i - v.window + 1; j <= i; j++ {
			d := returns[j] - mean
			variance += d * d
		}

		values[i] = math.Sqrt(variance / float64(v.window-1))
	}

	return map[string][]float64{"volatility": values}, nil
}
