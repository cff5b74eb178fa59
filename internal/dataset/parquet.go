package dataset

import (
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/quantlab-io/signalpipe/pkg/errors"
)

// FeatureRecord is the persisted form of one dataset row. The parquet file
// built from these records is the pipeline's primary externally-visible
// artifact: training and backtesting both consume it directly by path, so
// the column set is stable.
type FeatureRecord struct {
	// Timestamp is Unix milliseconds, UTC.
	Timestamp     int64   `parquet:"timestamp"`
	Open          float64 `parquet:"open"`
	High          float64 `parquet:"high"`
	Low           float64 `parquet:"low"`
	Close         float64 `parquet:"close"`
	Volume        float64 `parquet:"volume"`
	MAShort       float64 `parquet:"ma_short"`
	MALong        float64 `parquet:"ma_long"`
	RSI           float64 `parquet:"rsi"`
	Momentum      float64 `parquet:"momentum"`
	Volatility    float64 `parquet:"volatility"`
	MACD          float64 `parquet:"macd"`
	MACDSignal    float64 `parquet:"macd_signal"`
	MACDHist      float64 `parquet:"macd_hist"`
	BollingerUp   float64 `parquet:"bb_upper"`
	BollingerMid  float64 `parquet:"bb_middle"`
	BollingerLow  float64 `parquet:"bb_lower"`
	ATR           float64 `parquet:"atr"`
	SentimentMean float64 `parquet:"sentiment_mean"`
	NewsVolume    float64 `parquet:"news_volume"`
	Target        int32   `parquet:"target"`
}

// featureColumns maps frame column names to record fields, in persisted
// order. Target and the timestamp index are handled separately.
var featureColumns = []struct {
	name string
	get  func(*FeatureRecord) *float64
}{
	{ColumnOpen, func(r *FeatureRecord) *float64 { return &r.Open }},
	{ColumnHigh, func(r *FeatureRecord) *float64 { return &r.High }},
	{ColumnLow, func(r *FeatureRecord) *float64 { return &r.Low }},
	{ColumnClose, func(r *FeatureRecord) *float64 { return &r.Close }},
	{ColumnVolume, func(r *FeatureRecord) *float64 { return &r.Volume }},
	{"ma_short", func(r *FeatureRecord) *float64 { return &r.MAShort }},
	{"ma_long", func(r *FeatureRecord) *float64 { return &r.MALong }},
	{"rsi", func(r *FeatureRecord) *float64 { return &r.RSI }},
	{"momentum", func(r *FeatureRecord) *float64 { return &r.Momentum }},
	{"volatility", func(r *FeatureRecord) *float64 { return &r.Volatility }},
	{"macd", func(r *FeatureRecord) *float64 { return &r.MACD }},
	{"macd_signal", func(r *FeatureRecord) *float64 { return &r.MACDSignal }},
	{"macd_hist", func(r *FeatureRecord) *float64 { return &r.MACDHist }},
	{"bb_upper", func(r *FeatureRecord) *float64 { return &r.BollingerUp }},
	{"bb_middle", func(r *FeatureRecord) *float64 { return &r.BollingerMid }},
	{"bb_lower", func(r *FeatureRecord) *float64 { return &r.BollingerLow }},
	{"atr", func(r *FeatureRecord) *float64 { return &r.ATR }},
	{ColumnSentimentMean, func(r *FeatureRecord) *float64 { return &r.SentimentMean }},
	{ColumnNewsVolume, func(r *FeatureRecord) *float64 { return &r.NewsVolume }},
}

// ToRecords converts a merged Frame into persistable records. Every
// persisted column must be present on the frame; the merge stage guarantees
// that for datasets built by this pipeline.
func ToRecords(frame *Frame) ([]FeatureRecord, error) {
	target, err := frame.Column(ColumnTarget)
	if err != nil {
		return nil, err
	}

	columns := make(map[string][]float64, len(featureColumns))

	for _, c := range featureColumns {
		values, err := frame.Column(c.name)
		if err != nil {
			return nil, err
		}

		columns[c.name] = values
	}

	index := frame.Index()
	records := make([]FeatureRecord, frame.Len())

	for i := range records {
		records[i].Timestamp = index[i].UnixMilli()
		records[i].Target = int32(target[i])

		for _, c := range featureColumns {
			*c.get(&records[i]) = columns[c.name][i]
		}
	}

	return records, nil
}

// FromRecords rebuilds a Frame from persisted records.
func FromRecords(records []FeatureRecord) (*Frame, error) {
	index := make([]time.Time, len(records))
	for i, r := range records {
		index[i] = time.UnixMilli(r.Timestamp).UTC()
	}

	frame, err := New(index)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDatasetReadFailed, "persisted dataset index is malformed", err)
	}

	for _, c := range featureColumns {
		values := make([]float64, len(records))
		for i := range records {
			values[i] = *c.get(&records[i])
		}

		if err := frame.AddColumn(c.name, values); err != nil {
			return nil, err
		}
	}

	target := make([]float64, len(records))
	for i, r := range records {
		target[i] = float64(r.Target)
	}

	if err := frame.AddColumn(ColumnTarget, target); err != nil {
		return nil, err
	}

	return frame, nil
}

// WriteDataset persists a merged Frame as a parquet file.
func WriteDataset(frame *Frame, path string) error {
	records, err := ToRecords(frame)
	if err != nil {
		return err
	}

	if err := parquet.WriteFile(path, records); err != nil {
		return errors.Wrapf(errors.ErrCodeDatasetWriteFailed, err, "failed to write dataset to %s", path)
	}

	return nil
}

// ReadDataset loads a persisted dataset back into a Frame.
func ReadDataset(path string) (*Frame, error) {
	records, err := parquet.ReadFile[FeatureRecord](path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDatasetReadFailed, err, "failed to read dataset from %s", path)
	}

	return FromRecords(records)
}
