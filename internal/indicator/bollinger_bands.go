package indicator

import (
	"math"

	"github.com/quantlab-io/signalpipe/internal/types"
	"github.com/quantlab-io/signalpipe/pkg/errors"
)

// BollingerBands produces the middle band (SMA of the close), and upper and
// lower bands offset by a multiple of the rolling sample standard deviation.
type BollingerBands struct {
	window int
	k      float64
}

// NewBollingerBands creates a Bollinger Bands indicator with the given
// window and band width multiplier.
func NewBollingerBands(window int, k float64) (*BollingerBands, error) {
	if window <= 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "bollinger window must be > 1, got %d", window)
	}

	if k <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "bollinger multiplier must be positive, got %v", k)
	}

	return &BollingerBands{window: window, k: k}, nil
}

// Columns implements Indicator.
func (b *BollingerBands) Columns() []string {
	return []string{"bb_upper", "bb_middle", "bb_lower"}
}

// Warmup implements Indicator.
func (b *BollingerBands) Warmup() int {
	return b.window - 1
}

// Compute implements Indicator.
func (b *BollingerBands) Compute(bars []types.PriceBar) (map[string][]float64, error) {
	upper := make([]float64, len(bars))
	middle := make([]float64, len(bars))
	lower := make([]float64, len(bars))

	for i := b.window - 1; i < len(bars); i++ {
		mean := 0.0
		for j := i - b.window + 1; j <= i; j++ {
			mean += bars[j].Close
		}

		mean /= float64(b.window)

		variance := 0.0
		for j := i - b.window + 1; j <= i; j++ {
			d := bars[j].Close - mean
			variance += d * d
		}

		std := math.Sqrt(variance / float64(b.window-1))

		middle[i] = mean
		upper[i] = mean + b.k*std
		lower[i] = mean - b.k*std
	}

	return map[string][]float64{
		"bb_upper":  upper,
		"bb_middle": middle,
		"bb_lower":  lower,
	}, nil
}
