package provider

import (
	"context"
	"fmt"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"

	"github.com/quantlab-io/signalpipe/internal/types"
	"github.com/quantlab-io/signalpipe/pkg/marketdata/writer"
)

type PolygonClient struct {
	client *polygon.Client
	writer writer.CandleWriter
}

// NewPolygonClient creates a provider for Polygon aggregate data.
func NewPolygonClient(apiKey string) (Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("apiKey is required")
	}

	return &PolygonClient{
		client: polygon.New(apiKey),
		writer: nil,
	}, nil
}

func (c *PolygonClient) ConfigWriter(w writer.CandleWriter) {
	c.writer = w
}

// Download fetches aggregates for the given ticker and date range. Polygon
// handles paging inside its iterator.
func (c *PolygonClient) Download(ctx context.Context, ticker string, startDate, endDate time.Time, granularity types.Granularity, onProgress OnDownloadProgress) (path string, err error) {
	timespan, err := polygonTimespan(granularity)
	if err != nil {
		return "", err
	}

	if c.writer == nil {
		return "", fmt.Errorf("no writer configured for PolygonClient. Call ConfigWriter first")
	}

	if err := c.writer.Initialize(); err != nil {
		return "", fmt.Errorf("failed to initialize writer: %w", err)
	}

	defer c.writer.Close()

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     ticker,
		Multiplier: 1,
		Timespan:   timespan,
		From:       models.Millis(startDate),
		To:         models.Millis(endDate),
	}.WithLimit(50000)

	iter := c.client.ListAggs(ctx, params)

	total := endDate.Sub(startDate).Seconds()
	processed := 0

	for iter.Next() {
		agg := iter.Item()

		bar := types.PriceBar{
			Time:   time.Time(agg.Timestamp).UTC(),
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		}

		if err := c.writer.Write(bar); err != nil {
			return "", fmt.Errorf("failed to write candle: %w", err)
		}

		processed++

		if onProgress != nil && processed%1000 == 0 {
			elapsed := time.Time(agg.Timestamp).Sub(startDate).Seconds()
			onProgress(elapsed, total, fmt.Sprintf("Downloading %s from Polygon", ticker))
		}
	}

	if iter.Err() != nil {
		return "", fmt.Errorf("error iterating polygon aggregates: %w", iter.Err())
	}

	outputPath, err := c.writer.Finalize()
	if err != nil {
		return "", fmt.Errorf("failed to finalize writer: %w", err)
	}

	return outputPath, nil
}

func polygonTimespan(granularity types.Granularity) (models.Timespan, error) {
	switch granularity {
	case types.GranularityHour:
		return models.Hour, nil
	case types.GranularityDay:
		return models.Day, nil
	default:
		return "", fmt.Errorf("unsupported granularity for Polygon: %s", granularity)
	}
}
