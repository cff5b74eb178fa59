package dataset

import (
	"time"

	"github.com/quantlab-io/signalpipe/internal/types"
	"github.com/quantlab-io/signalpipe/pkg/errors"
)

// FillPolicy controls how technical rows without time-aligned sentiment
// coverage are filled. Exactly one policy applies to a merge; the two are
// never blended.
type FillPolicy string

const (
	// FillNeutral fills uncovered rows with a neutral score (0.0) and zero
	// document count. This is the default.
	FillNeutral FillPolicy = "neutral"
	// FillForward carries the last known bucket values forward. Rows before
	// the first bucket still fall back to neutral.
	FillForward FillPolicy = "forward"
)

// MergeOptions configures the time-alignment merge.
type MergeOptions struct {
	// Horizon is the number of periods ahead used to manufacture the
	// directional target. Must be >= 1.
	Horizon int
	// Granularity is the bucket size of the sentiment series. Technical
	// timestamps are truncated to this granularity when matching buckets.
	Granularity types.Granularity
	// Fill selects the gap-fill policy for uncovered rows.
	Fill FillPolicy
}

// Merge aligns a technical indicator Frame with a sentiment bucket sequence
// on a shared UTC time axis and manufactures the supervised-learning target.
//
// Every technical row is preserved by the join; rows with no sentiment
// coverage are filled per the configured policy. The target at row t is 1
// iff close at t+Horizon is strictly greater than close at t; the trailing
// Horizon rows have no future close and are dropped, so the result always
// has exactly technical.Len() - Horizon rows. The future close used to
// build the target never appears as an output column.
func Merge(technical *Frame, buckets []types.SentimentBucket, opts MergeOptions) (*Frame, error) {
	if technical == nil {
		return nil, errors.New(errors.ErrCodeMalformedSeries, "technical frame is nil")
	}

	if opts.Horizon < 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidHorizon, "horizon must be >= 1, got %d", opts.Horizon)
	}

	if opts.Fill != FillNeutral && opts.Fill != FillForward {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "unknown fill policy %q", string(opts.Fill))
	}

	if !technical.HasColumn(ColumnClose) {
		return nil, errors.New(errors.ErrCodeMalformedSeries, "technical frame has no close column")
	}

	n := technical.Len()
	if n < opts.Horizon {
		return nil, errors.Newf(errors.ErrCodeMalformedSeries,
			"technical frame has %d rows, fewer than horizon %d", n, opts.Horizon)
	}

	// Timezone normalization happens unconditionally before any comparison.
	// The Frame index is already UTC by construction; bucket periods are
	// normalized here.
	bucketIndex, err := indexBuckets(buckets, opts.Granularity)
	if err != nil {
		return nil, err
	}

	index := technical.Index()

	sentimentMean, newsVolume, err := joinSentiment(index, bucketIndex, opts)
	if err != nil {
		return nil, err
	}

	closes, err := technical.Column(ColumnClose)
	if err != nil {
		return nil, err
	}

	// Target construction: compare the close Horizon periods ahead with the
	// current close. The shifted series itself is a local helper and is
	// never attached to the output.
	kept := n - opts.Horizon

	target := make([]float64, kept)
	for i := 0; i < kept; i++ {
		if closes[i+opts.Horizon] > closes[i] {
			target[i] = 1
		}
	}

	out, err := New(index[:kept])
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvariantViolation, "merge produced a non-ascending index", err)
	}

	for _, name := range technical.Columns() {
		values, err := technical.Column(name)
		if err != nil {
			return nil, err
		}

		if err := out.AddColumn(name, values[:kept]); err != nil {
			return nil, err
		}
	}

	if err := out.AddColumn(ColumnSentimentMean, sentimentMean[:kept]); err != nil {
		return nil, err
	}

	if err := out.AddColumn(ColumnNewsVolume, newsVolume[:kept]); err != nil {
		return nil, err
	}

	if err := out.AddColumn(ColumnTarget, target); err != nil {
		return nil, err
	}

	// Post-condition: the result index must still be strictly ascending and
	// unique. A failure here is a defect in this function, not bad input.
	if err := validateAscending(out.index); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvariantViolation, "merge post-condition failed", err)
	}

	return out, nil
}

// indexBuckets normalizes bucket periods to UTC at the merge granularity
// and indexes them by period start. Duplicate periods are rejected: two
// buckets claiming the same period means the aggregation upstream is
// broken, and collapsing them silently would hide that.
func indexBuckets(buckets []types.SentimentBucket, granularity types.Granularity) (map[int64]types.SentimentBucket, error) {
	out := make(map[int64]types.SentimentBucket, len(buckets))

	for _, b := range buckets {
		period, err := granularity.Truncate(b.PeriodStart)
		if err != nil {
			return nil, err
		}

		key := period.Unix()
		if _, exists := out[key]; exists {
			return nil, errors.Newf(errors.ErrCodeMalformedSeries,
				"duplicate sentiment bucket for period %s", period.Format(time.RFC3339))
		}

		b.PeriodStart = period
		out[key] = b
	}

	return out, nil
}

// joinSentiment attaches sentiment columns to every technical row. It is a
// left join: no technical row is ever dropped, uncovered rows are filled
// per policy. Empty or non-overlapping bucket input yields all-neutral
// columns.
func joinSentiment(index []time.Time, buckets map[int64]types.SentimentBucket, opts MergeOptions) (sentimentMean, newsVolume []float64, err error) {
	sentimentMean = make([]float64, len(index))
	newsVolume = make([]float64, len(index))

	lastMean := 0.0
	lastVolume := 0.0
	seen := false

	for i, t := range index {
		period, err := opts.Granularity.Truncate(t)
		if err != nil {
			return nil, nil, err
		}

		if b, ok := buckets[period.Unix()]; ok {
			sentimentMean[i] = b.SentimentMean
			newsVolume[i] = float64(b.DocumentCount)
			lastMean = b.SentimentMean
			lastVolume = float64(b.DocumentCount)
			seen = true

			continue
		}

		if opts.Fill == FillForward && seen {
			sentimentMean[i] = lastMean
			newsVolume[i] = lastVolume

			continue
		}

		// Neutral default: rows predating sentiment availability keep the
		// full price history instead of being dropped.
		sentimentMean[i] = 0.0
		newsVolume[i] = 0
	}

	return sentimentMean, newsVolume, nil
}
