package indicator

import (
	"time"

	"go.uber.org/zap"

	"github.com/quantlab-io/signalpipe/internal/dataset"
	"github.com/quantlab-io/signalpipe/internal/logger"
	"github.com/quantlab-io/signalpipe/internal/types"
	"github.com/quantlab-io/signalpipe/pkg/errors"
)

// Config holds the window lengths for the configured indicator set.
type Config struct {
	ShortWindow      int
	LongWindow       int
	RSIPeriod        int
	MomentumPeriod   int
	VolatilityWindow int
	MACDFast         int
	MACDSlow         int
	MACDSignal       int
	BollingerWindow  int
	BollingerK       float64
	ATRPeriod        int
}

// DefaultConfig returns the standard indicator windows: 10/50 moving
// averages, 14-period RSI, 5-period momentum, 20-period volatility, 12/26/9
// MACD, 20-period 2-sigma Bollinger bands and 14-period ATR.
func DefaultConfig() Config {
	return Config{
		ShortWindow:      10,
		LongWindow:       50,
		RSIPeriod:        14,
		MomentumPeriod:   5,
		VolatilityWindow: 20,
		MACDFast:         12,
		MACDSlow:         26,
		MACDSignal:       9,
		BollingerWindow:  20,
		BollingerK:       2.0,
		ATRPeriod:        14,
	}
}

// Engine runs a configured set of indicators over a price series and
// assembles the technical feature table.
type Engine struct {
	indicators []Indicator
	warmup     int
	log        *logger.Logger
}

// NewEngine builds the engine for the given configuration.
func NewEngine(cfg Config, log *logger.Logger) (*Engine, error) {
	maShort, err := NewSMA("ma_short", cfg.ShortWindow)
	if err != nil {
		return nil, err
	}

	maLong, err := NewSMA("ma_long", cfg.LongWindow)
	if err != nil {
		return nil, err
	}

	rsi, err := NewRSI(cfg.RSIPeriod)
	if err != nil {
		return nil, err
	}

	momentum, err := NewMomentum(cfg.MomentumPeriod)
	if err != nil {
		return nil, err
	}

	volatility, err := NewVolatility(cfg.VolatilityWindow)
	if err != nil {
		return nil, err
	}

	macd, err := NewMACD(cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)
	if err != nil {
		return nil, err
	}

	bollinger, err := NewBollingerBands(cfg.BollingerWindow, cfg.BollingerK)
	if err != nil {
		return nil, err
	}

	atr, err := NewATR(cfg.ATRPeriod)
	if err != nil {
		return nil, err
	}

	indicators := []Indicator{maShort, maLong, rsi, momentum, volatility, macd, bollinger, atr}

	warmup := 0
	for _, ind := range indicators {
		if ind.Warmup() > warmup {
			warmup = ind.Warmup()
		}
	}

	return &Engine{
		indicators: indicators,
		warmup:     warmup,
		log:        log,
	}, nil
}

// Warmup returns the number of leading rows the engine drops.
func (e *Engine) Warmup() int {
	return e.warmup
}

// Compute derives the technical feature table for an ascending price
// series. Output rows are a contiguous suffix of the input: the first rows,
// for which at least one indicator's lookback window is not covered, are
// dropped rather than imputed. The original OHLCV columns are preserved
// alongside the indicator columns.
func (e *Engine) Compute(bars []types.PriceBar) (*dataset.Frame, error) {
	if err := validateBars(bars); err != nil {
		return nil, err
	}

	if len(bars) <= e.warmup {
		return nil, errors.Newf(errors.ErrCodeIndicatorCalculation,
			"no rows remain after warm-up: %d bars, %d required", len(bars), e.warmup+1)
	}

	index := make([]time.Time, 0, len(bars)-e.warmup)
	opens := make([]float64, 0, len(bars)-e.warmup)
	highs := make([]float64, 0, len(bars)-e.warmup)
	lows := make([]float64, 0, len(bars)-e.warmup)
	closes := make([]float64, 0, len(bars)-e.warmup)
	volumes := make([]float64, 0, len(bars)-e.warmup)

	for _, bar := range bars[e.warmup:] {
		index = append(index, bar.Time)
		opens = append(opens, bar.Open)
		highs = append(highs, bar.High)
		lows = append(lows, bar.Low)
		closes = append(closes, bar.Close)
		volumes = append(volumes, bar.Volume)
	}

	frame, err := dataset.New(index)
	if err != nil {
		return nil, err
	}

	ohlcv := []struct {
		name   string
		values []float64
	}{
		{dataset.ColumnOpen, opens},
		{dataset.ColumnHigh, highs},
		{dataset.ColumnLow, lows},
		{dataset.ColumnClose, closes},
		{dataset.ColumnVolume, volumes},
	}

	for _, col := range ohlcv {
		if err := frame.AddColumn(col.name, col.values); err != nil {
			return nil, err
		}
	}

	for _, ind := range e.indicators {
		computed, err := ind.Compute(bars)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeIndicatorCalculation, err,
				"failed to compute %v", ind.Columns())
		}

		for _, name := range ind.Columns() {
			values, ok := computed[name]
			if !ok || len(values) != len(bars) {
				return nil, errors.Newf(errors.ErrCodeInvariantViolation,
					"indicator returned malformed series for column %q", name)
			}

			if err := frame.AddColumn(name, values[e.warmup:]); err != nil {
				return nil, err
			}
		}
	}

	e.log.Debug("computed technical features",
		zap.Int("input_rows", len(bars)),
		zap.Int("output_rows", frame.Len()),
		zap.Int("warmup", e.warmup),
	)

	return frame, nil
}

// validateBars enforces the input precondition: strictly increasing unique
// timestamps.
func validateBars(bars []types.PriceBar) error {
	if len(bars) == 0 {
		return errors.New(errors.ErrCodeMalformedSeries, "price series is empty")
	}

	for i := 1; i < len(bars); i++ {
		if !bars[i].Time.After(bars[i-1].Time) {
			return errors.Newf(errors.ErrCodeMalformedSeries,
				"price series not strictly ascending at position %d (%s)",
				i, bars[i].Time.Format(time.RFC3339))
		}
	}

	return nil
}
