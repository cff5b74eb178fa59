// Package sentiment scores news documents and reduces them to one bucket
// per time period at the merge granularity.
package sentiment

import (
	"time"

	"github.com/quantlab-io/signalpipe/internal/types"
)

// Aggregate reduces timestamped, per-document sentiment scores to one
// bucket per period, spanning the minimum to maximum observed document
// period. The sequence is gap-free: periods without documents still get a
// bucket with a neutral mean and zero count, because the merge stage
// depends on complete coverage.
//
// Documents missing a score or a timestamp are silently excluded. An input
// with no usable documents is not an error; it yields an empty sequence,
// which merges into an all-neutral dataset.
func Aggregate(docs []types.NewsDocument, granularity types.Granularity) ([]types.SentimentBucket, error) {
	duration, err := granularity.Duration()
	if err != nil {
		return nil, err
	}

	sums := make(map[int64]float64)
	counts := make(map[int64]int)

	var minPeriod, maxPeriod time.Time

	for _, doc := range docs {
		if !doc.HasScore() || doc.PublishedAt.IsZero() {
			continue
		}

		period, err := granularity.Truncate(doc.PublishedAt)
		if err != nil {
			return nil, err
		}

		key := period.Unix()
		sums[key] += doc.Sentiment.Unwrap()
		counts[key]++

		if minPeriod.IsZero() || period.Before(minPeriod) {
			minPeriod = period
		}

		if maxPeriod.IsZero() || period.After(maxPeriod) {
			maxPeriod = period
		}
	}

	if len(counts) == 0 {
		return nil, nil
	}

	var buckets []types.SentimentBucket

	for period := minPeriod; !period.After(maxPeriod); period = period.Add(duration) {
		key := period.Unix()

		bucket := types.SentimentBucket{
			PeriodStart:   period,
			SentimentMean: 0.0,
			DocumentCount: counts[key],
		}

		if counts[key] > 0 {
			bucket.SentimentMean = sums[key] / float64(counts[key])
		}

		buckets = append(buckets, bucket)
	}

	return buckets, nil
}
