// Package pipeline wires the research stages together: feature building,
// training and backtesting. Each stage reads and writes the file artifacts
// named in the configuration, so stages can be re-run independently.
package pipeline

import (
	"os"
	"path/filepath"
	"time"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/quantlab-io/signalpipe/internal/backtest"
	"github.com/quantlab-io/signalpipe/internal/classifier"
	"github.com/quantlab-io/signalpipe/internal/config"
	"github.com/quantlab-io/signalpipe/internal/dataset"
	"github.com/quantlab-io/signalpipe/internal/datasource"
	"github.com/quantlab-io/signalpipe/internal/indicator"
	"github.com/quantlab-io/signalpipe/internal/logger"
	"github.com/quantlab-io/signalpipe/internal/sentiment"
	"github.com/quantlab-io/signalpipe/internal/types"
	"github.com/quantlab-io/signalpipe/pkg/errors"
	"github.com/quantlab-io/signalpipe/pkg/newsdata"
)

// Pipeline runs the offline research stages over the configured artifacts.
type Pipeline struct {
	cfg *config.Config
	log *logger.Logger
}

// New creates a pipeline bound to a validated configuration.
func New(cfg *config.Config, log *logger.Logger) *Pipeline {
	return &Pipeline{
		cfg: cfg,
		log: log,
	}
}

// BuildDataset assembles the supervised dataset: it computes technical
// indicators over the stored candles, aggregates scored news into sentiment
// buckets, merges both on a shared UTC time axis and persists the result as
// parquet.
//
// A missing scored-news file is not fatal: price history predating news
// coverage is still usable, the sentiment columns just stay neutral.
func (p *Pipeline) BuildDataset() error {
	source, err := datasource.NewDuckDBSource(p.cfg.Data.CandlesPath, p.log)
	if err != nil {
		return err
	}
	defer source.Close()

	bars, err := source.ReadAll(optional.None[time.Time](), optional.None[time.Time]())
	if err != nil {
		return err
	}

	engine, err := indicator.NewEngine(p.cfg.Indicators.EngineConfig(), p.log)
	if err != nil {
		return err
	}

	technical, err := engine.Compute(bars)
	if err != nil {
		return err
	}

	docs, err := p.loadScoredNews()
	if err != nil {
		return err
	}

	buckets, err := sentiment.Aggregate(docs, p.cfg.Pipeline.Granularity)
	if err != nil {
		return err
	}

	merged, err := dataset.Merge(technical, buckets, dataset.MergeOptions{
		Horizon:     p.cfg.Pipeline.Horizon,
		Granularity: p.cfg.Pipeline.Granularity,
		Fill:        p.cfg.Pipeline.FillPolicy,
	})
	if err != nil {
		return err
	}

	if err := ensureParent(p.cfg.Data.DatasetPath); err != nil {
		return err
	}

	if err := dataset.WriteDataset(merged, p.cfg.Data.DatasetPath); err != nil {
		return err
	}

	p.log.Info("dataset built",
		zap.Int("candles", len(bars)),
		zap.Int("rows", merged.Len()),
		zap.Int("sentiment_buckets", len(buckets)),
		zap.String("path", p.cfg.Data.DatasetPath),
	)

	return nil
}

// Train fits the classifier on the chronological training partition,
// evaluates it on the held-out test partition and persists both the model
// and the evaluation metrics.
func (p *Pipeline) Train() (classifier.Metrics, error) {
	frame, err := dataset.ReadDataset(p.cfg.Data.DatasetPath)
	if err != nil {
		return classifier.Metrics{}, err
	}

	train, test, err := dataset.Split(frame, p.cfg.Pipeline.TestFraction)
	if err != nil {
		return classifier.Metrics{}, err
	}

	features := p.cfg.FeatureColumns(frame)

	trainX, err := train.Matrix(features)
	if err != nil {
		return classifier.Metrics{}, err
	}

	trainY, err := labels(train)
	if err != nil {
		return classifier.Metrics{}, err
	}

	model := classifier.NewLogistic(features)
	if err := model.Fit(trainX, trainY); err != nil {
		return classifier.Metrics{}, err
	}

	if err := ensureParent(p.cfg.Data.ModelPath); err != nil {
		return classifier.Metrics{}, err
	}

	if err := classifier.SaveModel(model, p.cfg.Data.ModelPath); err != nil {
		return classifier.Metrics{}, err
	}

	if test.Len() == 0 {
		p.log.Warn("test partition is empty, skipping evaluation",
			zap.Float64("test_fraction", p.cfg.Pipeline.TestFraction),
		)

		return classifier.Metrics{}, nil
	}

	testX, err := test.Matrix(features)
	if err != nil {
		return classifier.Metrics{}, err
	}

	testY, err := labels(test)
	if err != nil {
		return classifier.Metrics{}, err
	}

	predicted, err := model.Predict(testX)
	if err != nil {
		return classifier.Metrics{}, err
	}

	metrics, err := classifier.Evaluate(predicted, testY)
	if err != nil {
		return classifier.Metrics{}, err
	}

	if err := classifier.WriteMetrics(metrics, p.cfg.Data.MetricsPath); err != nil {
		return classifier.Metrics{}, err
	}

	p.log.Info("model trained",
		zap.Int("train_rows", train.Len()),
		zap.Int("test_rows", test.Len()),
		zap.Float64("accuracy", metrics.Accuracy),
		zap.Float64("f1", metrics.F1),
		zap.String("model_path", p.cfg.Data.ModelPath),
	)

	return metrics, nil
}

// Backtest replays the persisted model's signals through the portfolio
// simulator over the selected dataset slice and persists the summary
// statistics.
func (p *Pipeline) Backtest(mode backtest.Mode) (backtest.Stats, error) {
	frame, err := dataset.ReadDataset(p.cfg.Data.DatasetPath)
	if err != nil {
		return backtest.Stats{}, err
	}

	model, err := classifier.LoadModel(p.cfg.Data.ModelPath)
	if err != nil {
		return backtest.Stats{}, err
	}

	driver, err := backtest.NewDriver(p.cfg.Pipeline.InitialCapital, p.log)
	if err != nil {
		return backtest.Stats{}, err
	}

	stats, err := driver.Run(
		frame,
		model,
		model.FeatureColumns,
		mode,
		p.cfg.Pipeline.TestFraction,
		p.cfg.Pipeline.Granularity,
	)
	if err != nil {
		return backtest.Stats{}, err
	}

	if err := ensureParent(p.cfg.Data.StatsPath); err != nil {
		return backtest.Stats{}, err
	}

	if err := backtest.WriteStats(stats, p.cfg.Data.StatsPath); err != nil {
		return backtest.Stats{}, err
	}

	return stats, nil
}

// loadScoredNews reads the scored news batch if it exists.
func (p *Pipeline) loadScoredNews() ([]types.NewsDocument, error) {
	if _, err := os.Stat(p.cfg.Data.ScoredPath); os.IsNotExist(err) {
		p.log.Warn("no scored news found, sentiment columns will be neutral",
			zap.String("path", p.cfg.Data.ScoredPath),
		)

		return nil, nil
	}

	return newsdata.LoadDocuments(p.cfg.Data.ScoredPath)
}

// labels extracts the target column as binary integer labels.
func labels(frame *dataset.Frame) ([]int, error) {
	target, err := frame.Column(dataset.ColumnTarget)
	if err != nil {
		return nil, err
	}

	out := make([]int, len(target))

	for i, v := range target {
		switch v {
		case 0:
			out[i] = 0
		case 1:
			out[i] = 1
		default:
			return nil, errors.Newf(errors.ErrCodeInvalidLabel, "target at row %d is %v, want 0 or 1", i, v)
		}
	}

	return out, nil
}

func ensureParent(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(errors.ErrCodeDatasetWriteFailed, err, "failed to create directory %s", dir)
	}

	return nil
}
