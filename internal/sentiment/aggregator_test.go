package sentiment

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/quantlab-io/signalpipe/internal/types"
)

type AggregatorTestSuite struct {
	suite.Suite
}

func TestAggregatorSuite(t *testing.T) {
	suite.Run(t, new(AggregatorTestSuite))
}

func scoredDoc(id string, published time.Time, score float64) types.NewsDocument {
	return types.NewsDocument{
		ID:          id,
		PublishedAt: published,
		Title:       "title " + id,
		Sentiment:   optional.Some(score),
	}
}

func (suite *AggregatorTestSuite) TestEmptyInput() {
	buckets, err := Aggregate(nil, types.GranularityDay)
	suite.Require().NoError(err)
	suite.Assert().Empty(buckets)
}

func (suite *AggregatorTestSuite) TestUnscoredDocumentsExcluded() {
	docs := []types.NewsDocument{
		{
			ID:          "unscored",
			PublishedAt: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
			Title:       "no score yet",
		},
	}

	buckets, err := Aggregate(docs, types.GranularityDay)
	suite.Require().NoError(err)
	suite.Assert().Empty(buckets)
}

func (suite *AggregatorTestSuite) TestZeroTimestampExcluded() {
	docs := []types.NewsDocument{
		scoredDoc("a", time.Time{}, 0.5),
	}

	buckets, err := Aggregate(docs, types.GranularityDay)
	suite.Require().NoError(err)
	suite.Assert().Empty(buckets)
}

func (suite *AggregatorTestSuite) TestMeanPerBucket() {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	docs := []types.NewsDocument{
		scoredDoc("a", day.Add(9*time.Hour), 0.2),
		scoredDoc("b", day.Add(15*time.Hour), 0.8),
	}

	buckets, err := Aggregate(docs, types.GranularityDay)
	suite.Require().NoError(err)
	suite.Require().Len(buckets, 1)

	suite.Assert().True(buckets[0].PeriodStart.Equal(day))
	suite.Assert().InDelta(0.5, buckets[0].SentimentMean, 1e-12)
	suite.Assert().Equal(2, buckets[0].DocumentCount)
}

func (suite *AggregatorTestSuite) TestGapFreeCoverage() {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// Documents on days 1 and 5 only; days 2-4 still get buckets.
	docs := []types.NewsDocument{
		scoredDoc("a", day, -0.4),
		scoredDoc("b", day.AddDate(0, 0, 4), 0.6),
	}

	buckets, err := Aggregate(docs, types.GranularityDay)
	suite.Require().NoError(err)
	suite.Require().Len(buckets, 5)

	for i, b := range buckets {
		suite.Assert().True(b.PeriodStart.Equal(day.AddDate(0, 0, i)), "bucket %d", i)
	}

	suite.Assert().InDelta(-0.4, buckets[0].SentimentMean, 1e-12)
	suite.Assert().Equal(1, buckets[0].DocumentCount)

	for _, b := range buckets[1:4] {
		suite.Assert().Zero(b.SentimentMean)
		suite.Assert().Zero(b.DocumentCount)
	}

	suite.Assert().InDelta(0.6, buckets[4].SentimentMean, 1e-12)
}

func (suite *AggregatorTestSuite) TestHourGranularity() {
	docs := []types.NewsDocument{
		scoredDoc("a", time.Date(2024, 1, 1, 10, 15, 0, 0, time.UTC), 0.3),
		scoredDoc("b", time.Date(2024, 1, 1, 10, 45, 0, 0, time.UTC), 0.7),
		scoredDoc("c", time.Date(2024, 1, 1, 12, 5, 0, 0, time.UTC), -1),
	}

	buckets, err := Aggregate(docs, types.GranularityHour)
	suite.Require().NoError(err)
	suite.Require().Len(buckets, 3)

	suite.Assert().InDelta(0.5, buckets[0].SentimentMean, 1e-12)
	suite.Assert().Equal(0, buckets[1].DocumentCount)
	suite.Assert().InDelta(-1.0, buckets[2].SentimentMean, 1e-12)
}

func (suite *AggregatorTestSuite) TestTimezoneNormalization() {
	zone := time.FixedZone("UTC-5", -5*60*60)

	// 23:00 UTC-5 is 04:00 UTC the next day.
	docs := []types.NewsDocument{
		scoredDoc("a", time.Date(2024, 1, 1, 23, 0, 0, 0, zone), 0.9),
	}

	buckets, err := Aggregate(docs, types.GranularityDay)
	suite.Require().NoError(err)
	suite.Require().Len(buckets, 1)
	suite.Assert().True(buckets[0].PeriodStart.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))
}

func (suite *AggregatorTestSuite) TestDeterministicAcrossRuns() {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	docs := []types.NewsDocument{
		scoredDoc("a", day.Add(3*time.Hour), 0.25),
		scoredDoc("b", day.AddDate(0, 0, 2), -0.75),
		scoredDoc("c", day.Add(20*time.Hour), 0.5),
	}

	first, err := Aggregate(docs, types.GranularityDay)
	suite.Require().NoError(err)

	second, err := Aggregate(docs, types.GranularityDay)
	suite.Require().NoError(err)

	suite.Assert().Equal(first, second)
}

func (suite *AggregatorTestSuite) TestInvalidGranularity() {
	_, err := Aggregate([]types.NewsDocument{
		scoredDoc("a", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 0.1),
	}, types.Granularity("week"))
	suite.Assert().Error(err)
}
