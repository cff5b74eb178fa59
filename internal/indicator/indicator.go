// Package indicator computes rolling technical features over an ordered
// price series. Each indicator declares a warm-up span; the engine drops
// every row whose warm-up is not fully covered by preceding data instead of
// null-filling it.
package indicator

import (
	"github.com/quantlab-io/signalpipe/internal/types"
)

// Indicator is a single technical indicator computed over the full series.
type Indicator interface {
	// Columns returns the names of the series this indicator produces, in
	// output order.
	Columns() []string
	// Warmup returns the number of leading rows for which the indicator has
	// no defined value.
	Warmup() int
	// Compute returns one full-length series per column. Values inside the
	// warm-up span are unspecified; the engine discards them.
	Compute(bars []types.PriceBar) (map[string][]float64, error)
}
