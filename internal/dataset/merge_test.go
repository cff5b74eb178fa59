package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/quantlab-io/signalpipe/internal/types"
	"github.com/quantlab-io/signalpipe/pkg/errors"
)

type MergeTestSuite struct {
	suite.Suite
}

func TestMergeSuite(t *testing.T) {
	suite.Run(t, new(MergeTestSuite))
}

// technicalFrame builds a daily frame with a close column starting at
// 2024-01-01.
func (suite *MergeTestSuite) technicalFrame(closes []float64) *Frame {
	frame, err := New(dayIndex(len(closes)))
	suite.Require().NoError(err)
	suite.Require().NoError(frame.AddColumn(ColumnClose, closes))

	return frame
}

func defaultOptions() MergeOptions {
	return MergeOptions{
		Horizon:     1,
		Granularity: types.GranularityDay,
		Fill:        FillNeutral,
	}
}

func (suite *MergeTestSuite) TestTargetConstruction() {
	frame := suite.technicalFrame([]float64{100, 105, 102})

	merged, err := Merge(frame, nil, defaultOptions())
	suite.Require().NoError(err)

	suite.Assert().Equal(2, merged.Len())

	target, err := merged.Column(ColumnTarget)
	suite.Require().NoError(err)
	suite.Assert().Equal([]float64{1, 0}, target)
}

func (suite *MergeTestSuite) TestEqualCloseIsNotUp() {
	frame := suite.technicalFrame([]float64{100, 100})

	merged, err := Merge(frame, nil, defaultOptions())
	suite.Require().NoError(err)

	target, err := merged.Column(ColumnTarget)
	suite.Require().NoError(err)
	suite.Assert().Equal([]float64{0}, target)
}

func (suite *MergeTestSuite) TestRowCountLaw() {
	tests := []struct {
		name    string
		rows    int
		horizon int
	}{
		{name: "Horizon one", rows: 10, horizon: 1},
		{name: "Horizon three", rows: 10, horizon: 3},
		{name: "Horizon equals rows", rows: 4, horizon: 4},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			closes := make([]float64, tc.rows)
			for i := range closes {
				closes[i] = float64(100 + i)
			}

			opts := defaultOptions()
			opts.Horizon = tc.horizon

			merged, err := Merge(suite.technicalFrame(closes), nil, opts)
			suite.Require().NoError(err)
			suite.Assert().Equal(tc.rows-tc.horizon, merged.Len())
		})
	}
}

func (suite *MergeTestSuite) TestNeutralFillWithoutBuckets() {
	frame := suite.technicalFrame([]float64{100, 101, 102, 103})

	merged, err := Merge(frame, nil, defaultOptions())
	suite.Require().NoError(err)

	mean, err := merged.Column(ColumnSentimentMean)
	suite.Require().NoError(err)
	suite.Assert().Equal([]float64{0, 0, 0}, mean)

	volume, err := merged.Column(ColumnNewsVolume)
	suite.Require().NoError(err)
	suite.Assert().Equal([]float64{0, 0, 0}, volume)
}

func (suite *MergeTestSuite) TestBucketJoinByPeriod() {
	frame := suite.technicalFrame([]float64{100, 101, 102, 103})

	buckets := []types.SentimentBucket{
		{
			PeriodStart:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			SentimentMean: 0.5,
			DocumentCount: 3,
		},
	}

	merged, err := Merge(frame, buckets, defaultOptions())
	suite.Require().NoError(err)

	mean, err := merged.Column(ColumnSentimentMean)
	suite.Require().NoError(err)
	suite.Assert().Equal([]float64{0, 0.5, 0}, mean)

	volume, err := merged.Column(ColumnNewsVolume)
	suite.Require().NoError(err)
	suite.Assert().Equal([]float64{0, 3, 0}, volume)
}

func (suite *MergeTestSuite) TestForwardFill() {
	frame := suite.technicalFrame([]float64{100, 101, 102, 103, 104})

	buckets := []types.SentimentBucket{
		{
			PeriodStart:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			SentimentMean: 0.4,
			DocumentCount: 2,
		},
	}

	opts := defaultOptions()
	opts.Fill = FillForward

	merged, err := Merge(frame, buckets, opts)
	suite.Require().NoError(err)

	mean, err := merged.Column(ColumnSentimentMean)
	suite.Require().NoError(err)

	// Rows before the first bucket stay neutral; later rows carry the last
	// bucket forward.
	suite.Assert().Equal([]float64{0, 0.4, 0.4, 0.4}, mean)
}

func (suite *MergeTestSuite) TestTimezoneNormalization() {
	frame := suite.technicalFrame([]float64{100, 101})

	// Same instant as 2024-01-01 00:00 UTC, expressed in another zone.
	zone := time.FixedZone("UTC+5", 5*60*60)

	buckets := []types.SentimentBucket{
		{
			PeriodStart:   time.Date(2024, 1, 1, 5, 0, 0, 0, zone),
			SentimentMean: 0.7,
			DocumentCount: 1,
		},
	}

	merged, err := Merge(frame, buckets, defaultOptions())
	suite.Require().NoError(err)

	mean, err := merged.Column(ColumnSentimentMean)
	suite.Require().NoError(err)
	suite.Assert().Equal([]float64{0.7}, mean)
}

func (suite *MergeTestSuite) TestDuplicateBucketRejected() {
	frame := suite.technicalFrame([]float64{100, 101, 102})

	// Two buckets landing in the same day after truncation.
	buckets := []types.SentimentBucket{
		{PeriodStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), SentimentMean: 0.1, DocumentCount: 1},
		{PeriodStart: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), SentimentMean: 0.9, DocumentCount: 1},
	}

	_, err := Merge(frame, buckets, defaultOptions())
	suite.Assert().True(errors.HasCode(err, errors.ErrCodeMalformedSeries))
}

func (suite *MergeTestSuite) TestValidationErrors() {
	tests := []struct {
		name         string
		frame        *Frame
		opts         MergeOptions
		expectedCode errors.ErrorCode
	}{
		{
			name:         "Nil frame",
			frame:        nil,
			opts:         defaultOptions(),
			expectedCode: errors.ErrCodeMalformedSeries,
		},
		{
			name:  "Zero horizon",
			frame: suite.technicalFrame([]float64{100, 101}),
			opts: MergeOptions{
				Horizon:     0,
				Granularity: types.GranularityDay,
				Fill:        FillNeutral,
			},
			expectedCode: errors.ErrCodeInvalidHorizon,
		},
		{
			name:  "Unknown fill policy",
			frame: suite.technicalFrame([]float64{100, 101}),
			opts: MergeOptions{
				Horizon:     1,
				Granularity: types.GranularityDay,
				Fill:        FillPolicy("interpolate"),
			},
			expectedCode: errors.ErrCodeInvalidParameter,
		},
		{
			name:  "Horizon exceeds rows",
			frame: suite.technicalFrame([]float64{100}),
			opts: MergeOptions{
				Horizon:     2,
				Granularity: types.GranularityDay,
				Fill:        FillNeutral,
			},
			expectedCode: errors.ErrCodeMalformedSeries,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			_, err := Merge(tc.frame, nil, tc.opts)
			suite.Assert().True(errors.HasCode(err, tc.expectedCode), "got %v", err)
		})
	}
}

func (suite *MergeTestSuite) TestFutureCloseOnlyAffectsItsHorizonWindow() {
	closes := []float64{100, 101, 102, 103, 104, 105}

	mutated := make([]float64, len(closes))
	copy(mutated, closes)
	mutated[4] = 50 // push the day-5 close below its predecessor

	opts := defaultOptions()

	base, err := Merge(suite.technicalFrame(closes), nil, opts)
	suite.Require().NoError(err)

	changed, err := Merge(suite.technicalFrame(mutated), nil, opts)
	suite.Require().NoError(err)

	baseTarget, err := base.Column(ColumnTarget)
	suite.Require().NoError(err)

	changedTarget, err := changed.Column(ColumnTarget)
	suite.Require().NoError(err)

	// Only row 3, whose horizon window reaches index 4, may see its target
	// change. Every earlier row is untouched.
	suite.Assert().Equal(baseTarget[:3], changedTarget[:3])
	suite.Assert().NotEqual(baseTarget[3], changedTarget[3])
}

func (suite *MergeTestSuite) TestMissingCloseColumn() {
	frame, err := New(dayIndex(3))
	suite.Require().NoError(err)
	suite.Require().NoError(frame.AddColumn(ColumnOpen, []float64{1, 2, 3}))

	_, err = Merge(frame, nil, defaultOptions())
	suite.Assert().True(errors.HasCode(err, errors.ErrCodeMalformedSeries))
}

func (suite *MergeTestSuite) TestOutputColumns() {
	frame := suite.technicalFrame([]float64{100, 105, 102})
	suite.Require().NoError(frame.AddColumn("rsi", []float64{40, 60, 50}))

	merged, err := Merge(frame, nil, defaultOptions())
	suite.Require().NoError(err)

	// All technical columns survive; only the sentiment columns and the
	// target are added. The shifted future close never appears.
	suite.Assert().Equal(
		[]string{ColumnClose, "rsi", ColumnSentimentMean, ColumnNewsVolume, ColumnTarget},
		merged.Columns(),
	)

	rsi, err := merged.Column("rsi")
	suite.Require().NoError(err)
	suite.Assert().Equal([]float64{40, 60}, rsi)
}
