// Package backtest simulates translated signals against historical prices
// and extracts summary statistics.
package backtest

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/quantlab-io/signalpipe/internal/types"
	"github.com/quantlab-io/signalpipe/pkg/errors"
)

// Stats summarizes one simulation run.
type Stats struct {
	StartValue    float64 `yaml:"start_value"`
	EndValue      float64 `yaml:"end_value"`
	TotalReturn   float64 `yaml:"total_return"`
	MaxDrawdown   float64 `yaml:"max_drawdown"`
	SharpeRatio   float64 `yaml:"sharpe_ratio"`
	TotalTrades   int     `yaml:"total_trades"`
	WinningTrades int     `yaml:"winning_trades"`
	LosingTrades  int     `yaml:"losing_trades"`
	WinRate       float64 `yaml:"win_rate"`
	ProfitFactor  float64 `yaml:"profit_factor"`
	Periods       int     `yaml:"periods"`
}

// Portfolio is a long-only, all-in signal simulator. On an entry signal it
// converts all cash into the asset at that period's open price; on an exit
// signal it converts the position back to cash at the open. Exits are
// processed before entries within the same period.
type Portfolio struct {
	initialCapital decimal.Decimal
}

// NewPortfolio creates a simulator starting with the given capital.
func NewPortfolio(initialCapital float64) (*Portfolio, error) {
	if initialCapital <= 0 || math.IsNaN(initialCapital) {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter,
			"initial capital must be positive, got %v", initialCapital)
	}

	return &Portfolio{
		initialCapital: decimal.NewFromFloat(initialCapital),
	}, nil
}

// FromSignals runs one simulation over equal-length entry, exit and open
// price series and returns the summary statistics. The granularity tag is
// used only to annualize the Sharpe ratio.
func (p *Portfolio) FromSignals(opens []float64, entries, exits []bool, granularity types.Granularity) (Stats, error) {
	if len(opens) != len(entries) || len(opens) != len(exits) {
		return Stats{}, errors.Newf(errors.ErrCodeInvalidParameter,
			"series lengths differ: opens=%d entries=%d exits=%d", len(opens), len(entries), len(exits))
	}

	if len(opens) == 0 {
		return Stats{}, errors.New(errors.ErrCodeInvalidParameter, "cannot simulate over an empty series")
	}

	periodsPerYear, err := granularity.PeriodsPerYear()
	if err != nil {
		return Stats{}, err
	}

	cash := p.initialCapital
	quantity := decimal.Zero
	inPosition := false
	entryPrice := decimal.Zero

	stats := Stats{
		StartValue: p.initialCapital.InexactFloat64(),
		Periods:    len(opens),
	}

	grossProfit := decimal.Zero
	grossLoss := decimal.Zero

	equity := make([]float64, len(opens))

	for t := range opens {
		if opens[t] <= 0 || math.IsNaN(opens[t]) {
			return Stats{}, errors.Newf(errors.ErrCodeMalformedSeries,
				"open price at position %d is %v", t, opens[t])
		}

		price := decimal.NewFromFloat(opens[t])

		if exits[t] && inPosition {
			cash = quantity.Mul(price)
			pnl := price.Sub(entryPrice).Mul(quantity)

			stats.TotalTrades++

			switch {
			case pnl.IsPositive():
				stats.WinningTrades++

				grossProfit = grossProfit.Add(pnl)
			case pnl.IsNegative():
				stats.LosingTrades++

				grossLoss = grossLoss.Add(pnl.Neg())
			}

			quantity = decimal.Zero
			inPosition = false
		}

		if entries[t] && !inPosition {
			quantity = cash.Div(price)
			cash = decimal.Zero
			entryPrice = price
			inPosition = true
		}

		value := cash
		if inPosition {
			value = quantity.Mul(price)
		}

		equity[t] = value.InexactFloat64()
	}

	stats.EndValue = equity[len(equity)-1]
	stats.TotalReturn = stats.EndValue/stats.StartValue - 1
	stats.MaxDrawdown = maxDrawdown(equity)
	stats.SharpeRatio = sharpe(equity, periodsPerYear)

	if stats.TotalTrades > 0 {
		stats.WinRate = float64(stats.WinningTrades) / float64(stats.TotalTrades)
	}

	if grossLoss.IsPositive() {
		stats.ProfitFactor = grossProfit.Div(grossLoss).InexactFloat64()
	}

	return stats, nil
}

// maxDrawdown returns the largest peak-to-trough decline of the equity
// curve as a positive fraction.
func maxDrawdown(equity []float64) float64 {
	peak := equity[0]
	worst := 0.0

	for _, value := range equity {
		if value > peak {
			peak = value
		}

		if peak > 0 {
			drawdown := (peak - value) / peak
			if drawdown > worst {
				worst = drawdown
			}
		}
	}

	return worst
}

// sharpe computes the annualized Sharpe ratio of per-period equity returns
// with a zero risk-free rate.
func sharpe(equity []float64, periodsPerYear float64) float64 {
	if len(equity) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1] != 0 {
			returns = append(returns, equity[i]/equity[i-1]-1)
		}
	}

	if len(returns) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}

	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}

	std := math.Sqrt(variance / float64(len(returns)-1))
	if std == 0 {
		return 0
	}

	return mean / std * math.Sqrt(periodsPerYear)
}
