package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/quantlab-io/signalpipe/internal/types"
	"github.com/quantlab-io/signalpipe/pkg/marketdata/writer"
)

// ProviderType defines the type of candle data provider.
type ProviderType string

const (
	ProviderBinance ProviderType = "binance"
	ProviderPolygon ProviderType = "polygon"
)

// OnDownloadProgress reports paging progress to the caller.
type OnDownloadProgress = func(current float64, total float64, message string)

// Provider downloads historical candles from an exchange or data vendor.
type Provider interface {
	// ConfigWriter configures the writer the provider persists candles
	// through. It could be a file, a database, etc.
	ConfigWriter(writer writer.CandleWriter)
	// Download fetches candles for the given ticker and date range at the
	// given granularity. Paging and rate limiting are the provider's
	// responsibility; the context can cancel the operation.
	Download(ctx context.Context, ticker string, startDate, endDate time.Time, granularity types.Granularity, onProgress OnDownloadProgress) (path string, err error)
}

// NewProvider creates a candle provider of the given type. Polygon needs an
// API key; Binance public kline data does not.
func NewProvider(providerType ProviderType, apiKey string) (Provider, error) {
	switch providerType {
	case ProviderBinance:
		return NewBinanceClient()
	case ProviderPolygon:
		return NewPolygonClient(apiKey)
	default:
		return nil, fmt.Errorf("unsupported candle provider: %s", providerType)
	}
}
