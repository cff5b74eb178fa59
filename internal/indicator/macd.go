package indicator

import (
	"github.com/quantlab-io/signalpipe/internal/types"
	"github.com/quantlab-io/signalpipe/pkg/errors"
)

// MACD is the Moving Average Convergence Divergence indicator: the spread
// between a fast and a slow EMA of the close, a signal EMA of that spread,
// and their difference (histogram).
type MACD struct {
	fast   int
	slow   int
	signal int
}

// NewMACD creates a MACD indicator with the given fast, slow and signal
// periods.
func NewMACD(fast, slow, signal int) (*MACD, error) {
	if fast <= 0 || slow <= 0 || signal <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod,
			"macd periods must be positive, got fast=%d slow=%d signal=%d", fast, slow, signal)
	}

	if fast >= slow {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod,
			"macd fast period %d must be shorter than slow period %d", fast, slow)
	}

	return &MACD{fast: fast, slow: slow, signal: signal}, nil
}

// Columns implements Indicator.
func (m *MACD) Columns() []string {
	return []string{"macd", "macd_signal", "macd_hist"}
}

// Warmup implements Indicator.
// The slow EMA is defined from slow-1; the signal EMA needs a further
// signal-1 MACD values.
func (m *MACD) Warmup() int {
	return m.slow + m.signal - 2
}

// Compute implements Indicator.
func (m *MACD) Compute(bars []types.PriceBar) (map[string][]float64, error) {
	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}

	fastEMA := ema(closes, m.fast, 0)
	slowEMA := ema(closes, m.slow, 0)

	macdLine := make([]float64, len(bars))
	for i := m.slow - 1; i < len(bars); i++ {
		macdLine[i] = fastEMA[i] - slowEMA[i]
	}

	// The signal EMA runs over the MACD line starting at its first defined
	// value.
	signalLine := ema(macdLine, m.signal, m.slow-1)

	hist := make([]float64, len(bars))
	for i := m.Warmup(); i < len(bars); i++ {
		hist[i] = macdLine[i] - signalLine[i]
	}

	return map[string][]float64{
		"macd":        macdLine,
		"macd_signal": signalLine,
		"macd_hist":   hist,
	}, nil
}

// ema computes an exponential moving average over series[offset:], seeded
// with the simple mean of the first period values. Entries before
// offset+period-1 are left at zero.
func ema(series []float64, period, offset int) []float64 {
	values := make([]float64, len(series))

	if len(series)-offset < period {
		return values
	}

	seed := 0.0
	for i := offset; i < offset+period; i++ {
		seed += series[i]
	}

	seed /= float64(period)

	first := offset + period - 1
	values[first] = seed

	alpha := 2.0 / float64(period+1)

	for i := first + 1; i < len(series); i++ {
		values[i] = alpha*series[i] + (1-alpha)*values[i-1]
	}

	return values
}
