package indicator

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/quantlab-io/signalpipe/internal/dataset"
	"github.com/quantlab-io/signalpipe/internal/logger"
	"github.com/quantlab-io/signalpipe/pkg/errors"
)

type EngineTestSuite struct {
	suite.Suite
	engine *Engine
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (suite *EngineTestSuite) SetupTest() {
	engine, err := NewEngine(DefaultConfig(), logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.engine = engine
}

func (suite *EngineTestSuite) TestWarmupIsLongestLookback() {
	// The 50-period moving average dominates the default configuration.
	suite.Assert().Equal(49, suite.engine.Warmup())
}

func (suite *EngineTestSuite) TestComputeDropsWarmupRows() {
	bars := barsFromCloses(constantCloses(60, 100))

	frame, err := suite.engine.Compute(bars)
	suite.Require().NoError(err)

	suite.Assert().Equal(60-suite.engine.Warmup(), frame.Len())

	// The output index is a contiguous suffix of the input.
	index := frame.Index()
	for i, t := range index {
		suite.Assert().True(t.Equal(bars[suite.engine.Warmup()+i].Time), "index %d", i)
	}
}

func (suite *EngineTestSuite) TestComputeColumns() {
	frame, err := suite.engine.Compute(barsFromCloses(constantCloses(60, 100)))
	suite.Require().NoError(err)

	expected := []string{
		dataset.ColumnOpen, dataset.ColumnHigh, dataset.ColumnLow,
		dataset.ColumnClose, dataset.ColumnVolume,
		"ma_short", "ma_long", "rsi", "momentum", "volatility",
		"macd", "macd_signal", "macd_hist",
		"bb_upper", "bb_middle", "bb_lower", "atr",
	}

	suite.Assert().Equal(expected, frame.Columns())

	// A flat series pins the convention-sensitive columns.
	rsi, err := frame.Column("rsi")
	suite.Require().NoError(err)
	suite.Assert().InDelta(100.0, rsi[0], 1e-12)

	maLong, err := frame.Column("ma_long")
	suite.Require().NoError(err)
	suite.Assert().InDelta(100.0, maLong[0], 1e-12)
}

func (suite *EngineTestSuite) TestComputeRejectsShortSeries() {
	_, err := suite.engine.Compute(barsFromCloses(constantCloses(49, 100)))
	suite.Assert().True(errors.HasCode(err, errors.ErrCodeIndicatorCalculation))
}

func (suite *EngineTestSuite) TestComputeRejectsUnsortedSeries() {
	bars := barsFromCloses(constantCloses(60, 100))
	bars[10].Time = bars[9].Time

	_, err := suite.engine.Compute(bars)
	suite.Assert().True(errors.HasCode(err, errors.ErrCodeMalformedSeries))
}

func (suite *EngineTestSuite) TestComputeRejectsEmptySeries() {
	_, err := suite.engine.Compute(nil)
	suite.Assert().True(errors.HasCode(err, errors.ErrCodeMalformedSeries))
}
