// Package config loads and validates the pipeline configuration. All
// configuration is explicit: structs are passed into constructors, nothing
// reads ambient global state.
package config

import (
	"os"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/quantlab-io/signalpipe/internal/dataset"
	"github.com/quantlab-io/signalpipe/internal/indicator"
	"github.com/quantlab-io/signalpipe/internal/types"
	"github.com/quantlab-io/signalpipe/pkg/errors"
)

// Config is the root pipeline configuration.
type Config struct {
	Asset      AssetConfig     `yaml:"asset"`
	Data       DataConfig      `yaml:"data"`
	Pipeline   PipelineConfig  `yaml:"pipeline"`
	Indicators IndicatorConfig `yaml:"indicators"`
	News       NewsConfig      `yaml:"news"`
	LLM        LLMConfig       `yaml:"llm"`
}

// AssetConfig identifies the traded asset.
type AssetConfig struct {
	// Ticker is the provider symbol, e.g. BTCUSDT.
	Ticker string `yaml:"ticker" default:"BTCUSDT" validate:"required"`
	// Name is the human-readable asset name used in sentiment prompts.
	Name string `yaml:"name" default:"Bitcoin (BTC)" validate:"required"`
	// Provider selects the candle source.
	Provider string `yaml:"provider" default:"binance" validate:"oneof=binance polygon"`
}

// DataConfig holds the artifact paths the stages hand to each other.
type DataConfig struct {
	CandlesPath string `yaml:"candles_path" default:"data/raw/candles.parquet" validate:"required"`
	NewsPath    string `yaml:"news_path" default:"data/raw/news.json" validate:"required"`
	ScoredPath  string `yaml:"scored_path" default:"data/processed/news_scored.json" validate:"required"`
	DatasetPath string `yaml:"dataset_path" default:"data/processed/dataset.parquet" validate:"required"`
	ModelPath   string `yaml:"model_path" default:"data/processed/model.json" validate:"required"`
	MetricsPath string `yaml:"metrics_path" default:"data/processed/metrics.json" validate:"required"`
	StatsPath   string `yaml:"stats_path" default:"data/processed/backtest_stats.yaml" validate:"required"`
}

// PipelineConfig holds the core alignment and training knobs.
type PipelineConfig struct {
	// Granularity is the shared bucket size for sentiment aggregation and
	// merging.
	Granularity types.Granularity `yaml:"granularity" default:"day" validate:"oneof=hour day"`
	// Horizon is the number of periods ahead the target looks.
	Horizon int `yaml:"horizon" default:"1" validate:"min=1"`
	// TestFraction is the chronological test share.
	TestFraction float64 `yaml:"test_fraction" default:"0.2" validate:"gte=0,lt=1"`
	// FillPolicy fills technical rows without sentiment coverage.
	FillPolicy dataset.FillPolicy `yaml:"fill_policy" default:"neutral" validate:"oneof=neutral forward"`
	// InitialCapital seeds the backtest portfolio.
	InitialCapital float64 `yaml:"initial_capital" default:"10000" validate:"gt=0"`
	// ExcludeColumns are dataset columns withheld from the learning
	// feature set. Price columns are excluded by default: they exist for
	// the join and the backtest, never as features.
	ExcludeColumns []string `yaml:"exclude_columns"`
}

// IndicatorConfig holds the indicator window lengths.
type IndicatorConfig struct {
	ShortWindow      int     `yaml:"short_window" default:"10" validate:"min=1"`
	LongWindow       int     `yaml:"long_window" default:"50" validate:"min=1"`
	RSIPeriod        int     `yaml:"rsi_period" default:"14" validate:"min=1"`
	MomentumPeriod   int     `yaml:"momentum_period" default:"5" validate:"min=1"`
	VolatilityWindow int     `yaml:"volatility_window" default:"20" validate:"min=2"`
	MACDFast         int     `yaml:"macd_fast" default:"12" validate:"min=1"`
	MACDSlow         int     `yaml:"macd_slow" default:"26" validate:"min=2"`
	MACDSignal       int     `yaml:"macd_signal" default:"9" validate:"min=1"`
	BollingerWindow  int     `yaml:"bollinger_window" default:"20" validate:"min=2"`
	BollingerK       float64 `yaml:"bollinger_k" default:"2.0" validate:"gt=0"`
	ATRPeriod        int     `yaml:"atr_period" default:"14" validate:"min=1"`
}

// NewsConfig configures the news search collaborator.
type NewsConfig struct {
	BaseURL  string `yaml:"base_url" default:"https://newsapi.org/v2"`
	Query    string `yaml:"query" default:"Bitcoin"`
	Language string `yaml:"language" default:"en"`
	PageSize int    `yaml:"page_size" default:"100" validate:"min=1,max=100"`
}

// LLMConfig configures the sentiment estimator collaborator.
type LLMConfig struct {
	Endpoint string `yaml:"endpoint" default:"https://api.openai.com/v1"`
	Model    string `yaml:"model" default:"gpt-4o-mini"`
}

// defaultExcludedColumns are never learning features: the target itself and
// the raw price columns kept for the join and the backtest.
var defaultExcludedColumns = []string{
	dataset.ColumnTarget,
	dataset.ColumnOpen,
	dataset.ColumnHigh,
	dataset.ColumnLow,
	dataset.ColumnClose,
	dataset.ColumnVolume,
}

// Load reads, defaults and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config %s", path)
	}

	return Parse(data)
}

// Parse decodes a configuration document, applies defaults and validates
// it.
func Parse(data []byte) (*Config, error) {
	var cfg Config

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to decode config", err)
	}

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to apply config defaults", err)
	}

	if cfg.Pipeline.ExcludeColumns == nil {
		cfg.Pipeline.ExcludeColumns = defaultExcludedColumns
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid configuration", err)
	}

	return &cfg, nil
}

// Default returns the configuration with every field at its default.
func Default() (*Config, error) {
	return Parse(nil)
}

// EngineConfig maps the indicator section onto the engine configuration.
func (c IndicatorConfig) EngineConfig() indicator.Config {
	return indicator.Config{
		ShortWindow:      c.ShortWindow,
		LongWindow:       c.LongWindow,
		RSIPeriod:        c.RSIPeriod,
		MomentumPeriod:   c.MomentumPeriod,
		VolatilityWindow: c.VolatilityWindow,
		MACDFast:         c.MACDFast,
		MACDSlow:         c.MACDSlow,
		MACDSignal:       c.MACDSignal,
		BollingerWindow:  c.BollingerWindow,
		BollingerK:       c.BollingerK,
		ATRPeriod:        c.ATRPeriod,
	}
}

// FeatureColumns returns the dataset columns used as learning features:
// everything the frame carries minus the excluded set.
func (c *Config) FeatureColumns(frame interface{ Columns() []string }) []string {
	excluded := make(map[string]bool, len(c.Pipeline.ExcludeColumns))
	for _, name := range c.Pipeline.ExcludeColumns {
		excluded[name] = true
	}

	var features []string

	for _, name := range frame.Columns() {
		if !excluded[name] {
			features = append(features, name)
		}
	}

	return features
}
