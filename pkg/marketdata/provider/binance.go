package provider

import (
	"context"
	"fmt"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"

	"github.com/quantlab-io/signalpipe/internal/types"
	"github.com/quantlab-io/signalpipe/pkg/marketdata/writer"
)

// binancePageLimit is the maximum klines per request allowed by the API.
const binancePageLimit = 1000

type BinanceClient struct {
	client *binance.Client
	writer writer.CandleWriter
}

// NewBinanceClient creates a provider for Binance public kline data. No
// API key is required.
func NewBinanceClient() (Provider, error) {
	client := binance.NewClient("", "")

	return &BinanceClient{
		client: client,
		writer: nil,
	}, nil
}

func (c *BinanceClient) ConfigWriter(w writer.CandleWriter) {
	c.writer = w
}

// Download fetches historical klines for the given ticker and date range.
// The API caps each page at 1000 klines, so the fetch advances the start
// time to one millisecond past the last close time of each page until the
// range is exhausted.
func (c *BinanceClient) Download(ctx context.Context, ticker string, startDate, endDate time.Time, granularity types.Granularity, onProgress OnDownloadProgress) (path string, err error) {
	interval, err := binanceInterval(granularity)
	if err != nil {
		return "", err
	}

	if c.writer == nil {
		return "", fmt.Errorf("writer is not configured")
	}

	if err := c.writer.Initialize(); err != nil {
		return "", fmt.Errorf("failed to initialize writer: %w", err)
	}

	defer c.writer.Close()

	startMillis := startDate.UnixMilli()
	endMillis := endDate.UnixMilli()
	currentStart := startMillis

	for {
		klines, err := c.client.NewKlinesService().
			Symbol(ticker).
			Interval(interval).
			StartTime(currentStart).
			EndTime(endMillis).
			Limit(binancePageLimit).
			Do(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to fetch klines from Binance: %w", err)
		}

		if onProgress != nil {
			onProgress(float64(currentStart-startMillis), float64(endMillis-startMillis),
				fmt.Sprintf("Downloading %s klines from Binance", ticker))
		}

		if err := c.writeKlines(klines); err != nil {
			return "", fmt.Errorf("failed to write klines: %w", err)
		}

		// Fewer than a full page means the range is exhausted.
		if len(klines) < binancePageLimit {
			break
		}

		currentStart = klines[len(klines)-1].CloseTime + 1
		if currentStart >= endMillis {
			break
		}
	}

	outputPath, err := c.writer.Finalize()
	if err != nil {
		return "", fmt.Errorf("failed to finalize writer: %w", err)
	}

	return outputPath, nil
}

func (c *BinanceClient) writeKlines(klines []*binance.Kline) error {
	for _, k := range klines {
		bar, err := klineToPriceBar(k)
		if err != nil {
			return err
		}

		if err := c.writer.Write(bar); err != nil {
			return err
		}
	}

	return nil
}

func klineToPriceBar(k *binance.Kline) (types.PriceBar, error) {
	open, err := strconv.ParseFloat(k.Open, 64)
	if err != nil {
		return types.PriceBar{}, fmt.Errorf("failed to parse open price %q: %w", k.Open, err)
	}

	high, err := strconv.ParseFloat(k.High, 64)
	if err != nil {
		return types.PriceBar{}, fmt.Errorf("failed to parse high price %q: %w", k.High, err)
	}

	low, err := strconv.ParseFloat(k.Low, 64)
	if err != nil {
		return types.PriceBar{}, fmt.Errorf("failed to parse low price %q: %w", k.Low, err)
	}

	closePrice, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return types.PriceBar{}, fmt.Errorf("failed to parse close price %q: %w", k.Close, err)
	}

	volume, err := strconv.ParseFloat(k.Volume, 64)
	if err != nil {
		return types.PriceBar{}, fmt.Errorf("failed to parse volume %q: %w", k.Volume, err)
	}

	return types.PriceBar{
		Time:   time.UnixMilli(k.OpenTime).UTC(),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closePrice,
		Volume: volume,
	}, nil
}

func binanceInterval(granularity types.Granularity) (string, error) {
	switch granularity {
	case types.GranularityHour:
		return "1h", nil
	case types.GranularityDay:
		return "1d", nil
	default:
		return "", fmt.Errorf("unsupported granularity for Binance: %s", granularity)
	}
}
