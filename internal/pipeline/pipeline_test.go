package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/quantlab-io/signalpipe/internal/backtest"
	"github.com/quantlab-io/signalpipe/internal/config"
	"github.com/quantlab-io/signalpipe/internal/dataset"
	"github.com/quantlab-io/signalpipe/internal/logger"
	"github.com/quantlab-io/signalpipe/internal/types"
	"github.com/quantlab-io/signalpipe/pkg/marketdata/writer"
	"github.com/quantlab-io/signalpipe/pkg/newsdata"
)

type PipelineTestSuite struct {
	suite.Suite
	cfg      *config.Config
	pipeline *Pipeline
}

func TestPipelineSuite(t *testing.T) {
	suite.Run(t, new(PipelineTestSuite))
}

const candleCount = 80

func (suite *PipelineTestSuite) SetupTest() {
	dir := suite.T().TempDir()

	cfg, err := config.Default()
	suite.Require().NoError(err)

	cfg.Data.CandlesPath = filepath.Join(dir, "candles.parquet")
	cfg.Data.NewsPath = filepath.Join(dir, "news.json")
	cfg.Data.ScoredPath = filepath.Join(dir, "news_scored.json")
	cfg.Data.DatasetPath = filepath.Join(dir, "dataset.parquet")
	cfg.Data.ModelPath = filepath.Join(dir, "model.json")
	cfg.Data.MetricsPath = filepath.Join(dir, "metrics.json")
	cfg.Data.StatsPath = filepath.Join(dir, "stats.yaml")

	suite.cfg = cfg
	suite.pipeline = New(cfg, logger.NewNopLogger())

	suite.writeCandles()
	suite.writeScoredNews()
}

// writeCandles persists a daily series whose closes alternate so both target
// classes occur.
func (suite *PipelineTestSuite) writeCandles() {
	candleWriter := writer.NewDuckDBWriter(suite.cfg.Data.CandlesPath)
	suite.Require().NoError(candleWriter.Initialize())

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < candleCount; i++ {
		c := 100.0
		if i%2 == 1 {
			c = 105.0
		}

		suite.Require().NoError(candleWriter.Write(types.PriceBar{
			Time:   base.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		}))
	}

	_, err := candleWriter.Finalize()
	suite.Require().NoError(err)
	suite.Require().NoError(candleWriter.Close())
}

func (suite *PipelineTestSuite) writeScoredNews() {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	docs := []types.NewsDocument{
		{
			ID:          "a",
			PublishedAt: base.Add(10 * time.Hour),
			Title:       "bullish development",
			Sentiment:   optional.Some(0.6),
		},
		{
			ID:          "b",
			PublishedAt: base.AddDate(0, 0, 2).Add(14 * time.Hour),
			Title:       "bearish development",
			Sentiment:   optional.Some(-0.2),
		},
	}

	suite.Require().NoError(newsdata.SaveDocuments(docs, suite.cfg.Data.ScoredPath))
}

func (suite *PipelineTestSuite) TestBuildDataset() {
	suite.Require().NoError(suite.pipeline.BuildDataset())

	frame, err := dataset.ReadDataset(suite.cfg.Data.DatasetPath)
	suite.Require().NoError(err)

	// 49 warm-up rows and 1 trailing horizon row are dropped.
	suite.Assert().Equal(candleCount-49-1, frame.Len())

	// 2024-03-01 is 60 days past the series start, which lands at dataset
	// row 11 after the 49 warm-up rows are dropped.
	mean, err := frame.Column(dataset.ColumnSentimentMean)
	suite.Require().NoError(err)

	volume, err := frame.Column(dataset.ColumnNewsVolume)
	suite.Require().NoError(err)

	suite.Assert().InDelta(0.6, mean[11], 1e-12)
	suite.Assert().InDelta(1.0, volume[11], 1e-12)
	suite.Assert().InDelta(-0.2, mean[13], 1e-12)

	// Everything outside the two news days stays neutral.
	suite.Assert().Zero(mean[10])
	suite.Assert().Zero(mean[12])
	suite.Assert().Zero(volume[12])

	target, err := frame.Column(dataset.ColumnTarget)
	suite.Require().NoError(err)

	// Alternating closes produce alternating targets.
	for i := 1; i < len(target); i++ {
		suite.Assert().NotEqual(target[i-1], target[i], "index %d", i)
	}
}

func (suite *PipelineTestSuite) TestBuildDatasetWithoutScoredNews() {
	suite.Require().NoError(os.Remove(suite.cfg.Data.ScoredPath))

	suite.Require().NoError(suite.pipeline.BuildDataset())

	frame, err := dataset.ReadDataset(suite.cfg.Data.DatasetPath)
	suite.Require().NoError(err)
	suite.Assert().Equal(candleCount-49-1, frame.Len())
}

func (suite *PipelineTestSuite) TestTrainAndBacktest() {
	suite.Require().NoError(suite.pipeline.BuildDataset())

	metrics, err := suite.pipeline.Train()
	suite.Require().NoError(err)

	// 30 dataset rows split 24/6 at the default test fraction.
	suite.Assert().Equal(6, metrics.Support)
	suite.Assert().FileExists(suite.cfg.Data.ModelPath)
	suite.Assert().FileExists(suite.cfg.Data.MetricsPath)

	stats, err := suite.pipeline.Backtest(backtest.ModeTestOnly)
	suite.Require().NoError(err)
	suite.Assert().Equal(6, stats.Periods)
	suite.Assert().InDelta(10000.0, stats.StartValue, 1e-9)
	suite.Assert().FileExists(suite.cfg.Data.StatsPath)

	full, err := suite.pipeline.Backtest(backtest.ModeFull)
	suite.Require().NoError(err)
	suite.Assert().Equal(30, full.Periods)
}

func (suite *PipelineTestSuite) TestTrainWithoutDataset() {
	_, err := suite.pipeline.Train()
	suite.Assert().Error(err)
}

func (suite *PipelineTestSuite) TestBacktestWithoutModel() {
	suite.Require().NoError(suite.pipeline.BuildDataset())

	_, err := suite.pipeline.Backtest(backtest.ModeTestOnly)
	suite.Assert().Error(err)
}
