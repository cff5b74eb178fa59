// Package marketdata downloads historical candles from exchange providers
// and persists them as a Parquet file the pipeline consumes.
package marketdata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/quantlab-io/signalpipe/internal/types"
	"github.com/quantlab-io/signalpipe/pkg/marketdata/provider"
	"github.com/quantlab-io/signalpipe/pkg/marketdata/writer"
)

// ClientConfig holds the configuration for the candle download client.
type ClientConfig struct {
	ProviderType  provider.ProviderType `validate:"required,oneof=binance polygon"`
	DataPath      string                `validate:"required"`
	PolygonApiKey string                `validate:"required_if=ProviderType polygon"`
}

// DownloadParams holds the parameters for a candle download request.
type DownloadParams struct {
	Ticker      string            `validate:"required"`
	StartDate   time.Time         `validate:"required"`
	EndDate     time.Time         `validate:"required,gtfield=StartDate"`
	Granularity types.Granularity `validate:"required,oneof=hour day"`
}

// Client downloads candles from a provider and stores them through the
// DuckDB writer.
type Client struct {
	provider   provider.Provider
	config     ClientConfig
	validate   *validator.Validate
	onProgress provider.OnDownloadProgress
}

// NewClient creates a new candle download client with the given
// configuration.
func NewClient(config ClientConfig, onProgress provider.OnDownloadProgress) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid client configuration: %w", err)
	}

	candleProvider, err := provider.NewProvider(config.ProviderType, config.PolygonApiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create candle provider: %w", err)
	}

	return &Client{
		provider:   candleProvider,
		config:     config,
		validate:   validate,
		onProgress: onProgress,
	}, nil
}

// Download fetches the requested candles and returns the path of the
// resulting Parquet file.
func (c *Client) Download(ctx context.Context, params DownloadParams) (string, error) {
	if err := c.validate.Struct(params); err != nil {
		return "", fmt.Errorf("invalid download parameters: %w", err)
	}

	outputFileName := fmt.Sprintf("%s_%s_%s_%s.parquet",
		params.Ticker,
		params.StartDate.Format("2006-01-02"),
		params.EndDate.Format("2006-01-02"),
		params.Granularity)
	outputPath := filepath.Join(c.config.DataPath, outputFileName)

	if _, err := os.Stat(c.config.DataPath); os.IsNotExist(err) {
		if err := os.MkdirAll(c.config.DataPath, 0o755); err != nil {
			return "", fmt.Errorf("failed to create data path: %w", err)
		}
	}

	candleWriter := writer.NewDuckDBWriter(outputPath)
	c.provider.ConfigWriter(candleWriter)

	path, err := c.provider.Download(
		ctx,
		params.Ticker,
		params.StartDate,
		params.EndDate,
		params.Granularity,
		c.onProgress,
	)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}

	return path, nil
}
