package writer

import (
	"github.com/quantlab-io/signalpipe/internal/types"
)

// CandleWriter defines the interface for persisting downloaded candles.
type CandleWriter interface {
	// Initialize sets up the writer, potentially creating tables or files.
	Initialize() error
	// Write persists a single candle.
	Write(bar types.PriceBar) error
	// Finalize completes the writing process (e.g., commits transactions, exports files).
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
	// GetOutputPath returns the configured output file path.
	GetOutputPath() string
}
