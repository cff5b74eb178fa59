package indicator

import (
	"github.com/quantlab-io/signalpipe/internal/types"
	"github.com/quantlab-io/signalpipe/pkg/errors"
)

// Momentum is the fractional change of the close price over a fixed number
// of periods.
type Momentum struct {
	period int
}

// NewMomentum creates a momentum indicator with the given period.
func NewMomentum(period int) (*Momentum, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "momentum period must be positive, got %d", period)
	}

	return &Momentum{period: period}, nil
}

// Columns implements Indicator.
func (m *Momentum) Columns() []string {
	return []string{"momentum"}
}

// Warmup implements Indicator.
func (m *Momentum) Warmup() int {
	return m.period
}

// Compute implements Indicator.
func (m *Momentum) Compute(bars []types.PriceBar) (map[string][]float64, error) {
	values := make([]float64, len(bars))

	for i := m.period; i < len(bars); i++ {
		base := bars[i-m.period].Close
		if base != 0 {
			values[i] = (bars[i].Close - base) / base
		}
	}

	return map[string][]float64{"momentum": values}, nil
}
