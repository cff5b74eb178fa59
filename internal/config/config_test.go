package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/quantlab-io/signalpipe/internal/dataset"
	"github.com/quantlab-io/signalpipe/internal/types"
	"github.com/quantlab-io/signalpipe/pkg/errors"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) TestDefaults() {
	cfg, err := Default()
	suite.Require().NoError(err)

	suite.Assert().Equal("BTCUSDT", cfg.Asset.Ticker)
	suite.Assert().Equal("binance", cfg.Asset.Provider)
	suite.Assert().Equal(types.GranularityDay, cfg.Pipeline.Granularity)
	suite.Assert().Equal(1, cfg.Pipeline.Horizon)
	suite.Assert().InDelta(0.2, cfg.Pipeline.TestFraction, 1e-12)
	suite.Assert().Equal(dataset.FillNeutral, cfg.Pipeline.FillPolicy)
	suite.Assert().InDelta(10000.0, cfg.Pipeline.InitialCapital, 1e-12)
	suite.Assert().Equal(50, cfg.Indicators.LongWindow)
	suite.Assert().Equal(defaultExcludedColumns, cfg.Pipeline.ExcludeColumns)
}

func (suite *ConfigTestSuite) TestParseOverridesDefaults() {
	doc := []byte(`
asset:
  ticker: ETHUSDT
pipeline:
  granularity: hour
  horizon: 3
  fill_policy: forward
`)

	cfg, err := Parse(doc)
	suite.Require().NoError(err)

	suite.Assert().Equal("ETHUSDT", cfg.Asset.Ticker)
	suite.Assert().Equal(types.GranularityHour, cfg.Pipeline.Granularity)
	suite.Assert().Equal(3, cfg.Pipeline.Horizon)
	suite.Assert().Equal(dataset.FillForward, cfg.Pipeline.FillPolicy)

	// Untouched sections keep their defaults.
	suite.Assert().Equal(14, cfg.Indicators.RSIPeriod)
	suite.Assert().Equal("binance", cfg.Asset.Provider)
}

func (suite *ConfigTestSuite) TestValidationErrors() {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "Unknown provider",
			doc:  "asset:\n  provider: kraken\n",
		},
		{
			name: "Test fraction of one",
			doc:  "pipeline:\n  test_fraction: 1.0\n",
		},
		{
			name: "Unknown fill policy",
			doc:  "pipeline:\n  fill_policy: interpolate\n",
		},
		{
			name: "Negative horizon",
			doc:  "pipeline:\n  horizon: -1\n",
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			_, err := Parse([]byte(tc.doc))
			suite.Assert().True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration), "got %v", err)
		})
	}
}

func (suite *ConfigTestSuite) TestParseRejectsMalformedYAML() {
	_, err := Parse([]byte("asset: [unclosed"))
	suite.Assert().True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestLoad() {
	path := filepath.Join(suite.T().TempDir(), "config.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte("asset:\n  ticker: SOLUSDT\n"), 0o644))

	cfg, err := Load(path)
	suite.Require().NoError(err)
	suite.Assert().Equal("SOLUSDT", cfg.Asset.Ticker)

	_, err = Load(filepath.Join(suite.T().TempDir(), "absent.yaml"))
	suite.Assert().True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

type fakeColumns []string

func (f fakeColumns) Columns() []string { return f }

func (suite *ConfigTestSuite) TestFeatureColumns() {
	cfg, err := Default()
	suite.Require().NoError(err)

	frame := fakeColumns{
		dataset.ColumnOpen, dataset.ColumnClose, "rsi", "momentum",
		dataset.ColumnSentimentMean, dataset.ColumnTarget,
	}

	features := cfg.FeatureColumns(frame)
	suite.Assert().Equal([]string{"rsi", "momentum", dataset.ColumnSentimentMean}, features)
}

func (suite *ConfigTestSuite) TestFeatureColumnsRespectsCustomExclusions() {
	cfg, err := Parse([]byte("pipeline:\n  exclude_columns: [target, sentiment_mean]\n"))
	suite.Require().NoError(err)

	frame := fakeColumns{dataset.ColumnClose, "rsi", dataset.ColumnSentimentMean, dataset.ColumnTarget}

	features := cfg.FeatureColumns(frame)
	suite.Assert().Equal([]string{dataset.ColumnClose, "rsi"}, features)
}
