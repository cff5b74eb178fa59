// Command signalpipe runs the crypto signal research pipeline: candle and
// news ingestion, sentiment scoring, dataset building, model training and
// backtesting. Each subcommand is one stage; stages communicate only through
// the file artifacts named in the configuration.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"github.com/quantlab-io/signalpipe/internal/backtest"
	"github.com/quantlab-io/signalpipe/internal/config"
	"github.com/quantlab-io/signalpipe/internal/logger"
	"github.com/quantlab-io/signalpipe/internal/pipeline"
	"github.com/quantlab-io/signalpipe/internal/sentiment"
	"github.com/quantlab-io/signalpipe/pkg/llm"
	"github.com/quantlab-io/signalpipe/pkg/marketdata"
	"github.com/quantlab-io/signalpipe/pkg/marketdata/provider"
	"github.com/quantlab-io/signalpipe/pkg/newsdata"
)

var dateLayouts = cli.TimestampConfig{
	Layouts: []string{"2006-01-02"},
}

func main() {
	// Secrets come from the environment; .env is a local convenience and
	// its absence is not an error.
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:  "signalpipe",
		Usage: "Crypto trading signal research pipeline",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the pipeline configuration file",
			},
		},
		Commands: []*cli.Command{
			downloadCommand(),
			newsCommand(),
			scoreCommand(),
			buildCommand(),
			trainCommand(),
			backtestCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// loadConfig reads the configuration named by --config, or the defaults when
// no file is given.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	if path := cmd.String("config"); path != "" {
		return config.Load(path)
	}

	return config.Default()
}

func downloadCommand() *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "Download historical candles into a Parquet file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "ticker",
				Aliases: []string{"t"},
				Usage:   "Ticker symbol, defaults to the configured asset",
			},
			&cli.TimestampFlag{
				Name:     "start",
				Aliases:  []string{"s"},
				Usage:    "Start date in `YYYY-MM-DD` format",
				Required: true,
				Config:   dateLayouts,
			},
			&cli.TimestampFlag{
				Name:    "end",
				Aliases: []string{"e"},
				Usage:   "End date in `YYYY-MM-DD` format. Defaults to today.",
				Value:   time.Now(),
				Config:  dateLayouts,
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Output directory for the candle file",
				Value:   "data/raw",
			},
		},
		Action: downloadAction,
	}
}

func downloadAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ticker := cmd.String("ticker")
	if ticker == "" {
		ticker = cfg.Asset.Ticker
	}

	bar := progressbar.NewOptions(100,
		progressbar.OptionSetDescription(fmt.Sprintf("Downloading %s", ticker)),
		progressbar.OptionShowCount(),
	)

	onProgress := func(current, total float64, message string) {
		if total > 0 {
			_ = bar.Set(int(current / total * 100))
		}

		bar.Describe(message)
	}

	client, err := marketdata.NewClient(marketdata.ClientConfig{
		ProviderType:  provider.ProviderType(cfg.Asset.Provider),
		DataPath:      cmd.String("data"),
		PolygonApiKey: os.Getenv("POLYGON_API_KEY"),
	}, onProgress)
	if err != nil {
		return err
	}

	path, err := client.Download(ctx, marketdata.DownloadParams{
		Ticker:      ticker,
		StartDate:   cmd.Timestamp("start"),
		EndDate:     cmd.Timestamp("end"),
		Granularity: cfg.Pipeline.Granularity,
	})
	if err != nil {
		return err
	}

	_ = bar.Finish()
	fmt.Printf("\nCandles written to %s\n", path)

	return nil
}

func newsCommand() *cli.Command {
	return &cli.Command{
		Name:  "news",
		Usage: "Fetch news articles for the configured query",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "query",
				Aliases: []string{"q"},
				Usage:   "Search query, defaults to the configured one",
			},
			&cli.TimestampFlag{
				Name:     "start",
				Aliases:  []string{"s"},
				Usage:    "Start date in `YYYY-MM-DD` format",
				Required: true,
				Config:   dateLayouts,
			},
			&cli.TimestampFlag{
				Name:    "end",
				Aliases: []string{"e"},
				Usage:   "End date in `YYYY-MM-DD` format. Defaults to today.",
				Value:   time.Now(),
				Config:  dateLayouts,
			},
		},
		Action: newsAction,
	}
}

func newsAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	query := cmd.String("query")
	if query == "" {
		query = cfg.News.Query
	}

	zapLogger, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer zapLogger.Sync()

	client, err := newsdata.NewClient(newsdata.ClientConfig{
		BaseURL:  cfg.News.BaseURL,
		APIKey:   os.Getenv("NEWS_API_KEY"),
		Language: cfg.News.Language,
		PageSize: cfg.News.PageSize,
	}, zapLogger)
	if err != nil {
		return err
	}

	docs, err := client.Search(ctx, query, cmd.Timestamp("start"), cmd.Timestamp("end"))
	if err != nil {
		return err
	}

	if err := ensureParent(cfg.Data.NewsPath); err != nil {
		return err
	}

	if err := newsdata.SaveDocuments(docs, cfg.Data.NewsPath); err != nil {
		return err
	}

	fmt.Printf("Saved %d articles to %s\n", len(docs), cfg.Data.NewsPath)

	return nil
}

func scoreCommand() *cli.Command {
	return &cli.Command{
		Name:   "score",
		Usage:  "Score fetched news articles with the sentiment estimator",
		Action: scoreAction,
	}
}

func scoreAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	zapLogger, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer zapLogger.Sync()

	docs, err := newsdata.LoadDocuments(cfg.Data.NewsPath)
	if err != nil {
		return err
	}

	client := llm.NewClient(cfg.LLM.Endpoint, os.Getenv("LLM_API_KEY"), cfg.LLM.Model)
	estimator := sentiment.NewEstimator(client, cfg.Asset.Name, zapLogger)

	scored, err := estimator.ScoreAll(ctx, docs)
	if err != nil {
		return err
	}

	if err := ensureParent(cfg.Data.ScoredPath); err != nil {
		return err
	}

	if err := newsdata.SaveDocuments(scored, cfg.Data.ScoredPath); err != nil {
		return err
	}

	fmt.Printf("Scored %d of %d articles, saved to %s\n", len(scored), len(docs), cfg.Data.ScoredPath)

	return nil
}

func buildCommand() *cli.Command {
	return &cli.Command{
		Name:  "build",
		Usage: "Build the supervised dataset from candles and scored news",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "candles",
				Usage: "Candle Parquet file, overrides the configured path",
			},
		},
		Action: buildAction,
	}
}

func buildAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if path := cmd.String("candles"); path != "" {
		cfg.Data.CandlesPath = path
	}

	zapLogger, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer zapLogger.Sync()

	if err := pipeline.New(cfg, zapLogger).BuildDataset(); err != nil {
		return err
	}

	fmt.Printf("Dataset written to %s\n", cfg.Data.DatasetPath)

	return nil
}

func trainCommand() *cli.Command {
	return &cli.Command{
		Name:   "train",
		Usage:  "Train the classifier and evaluate it on the test partition",
		Action: trainAction,
	}
}

func trainAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	zapLogger, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer zapLogger.Sync()

	metrics, err := pipeline.New(cfg, zapLogger).Train()
	if err != nil {
		return err
	}

	fmt.Printf("Model written to %s\n", cfg.Data.ModelPath)
	fmt.Printf("Test accuracy: %.4f  precision: %.4f  recall: %.4f  f1: %.4f\n",
		metrics.Accuracy, metrics.Precision, metrics.Recall, metrics.F1)

	return nil
}

func backtestCommand() *cli.Command {
	return &cli.Command{
		Name:  "backtest",
		Usage: "Replay the trained model's signals through the simulator",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "mode",
				Usage: "Dataset slice to simulate over: test-only or full",
				Value: string(backtest.ModeTestOnly),
			},
		},
		Action: backtestAction,
	}
}

func backtestAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	zapLogger, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer zapLogger.Sync()

	stats, err := pipeline.New(cfg, zapLogger).Backtest(backtest.Mode(cmd.String("mode")))
	if err != nil {
		return err
	}

	fmt.Printf("Stats written to %s\n", cfg.Data.StatsPath)
	fmt.Printf("Total return: %.2f%%  max drawdown: %.2f%%  sharpe: %.2f\n",
		stats.TotalReturn*100, stats.MaxDrawdown*100, stats.SharpeRatio)
	fmt.Printf("Trades: %d  win rate: %.2f%%  profit factor: %.2f\n",
		stats.TotalTrades, stats.WinRate*100, stats.ProfitFactor)

	return nil
}

func ensureParent(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	return os.MkdirAll(dir, 0o755)
}
