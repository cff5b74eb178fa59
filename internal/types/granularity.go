package types

import (
	"time"

	"github.com/quantlab-io/signalpipe/pkg/errors"
)

// Granularity is the shared time-bucket size used by the sentiment
// aggregator, the merge stage and the backtest annualization.
type Granularity string

const (
	GranularityHour Granularity = "hour"
	GranularityDay  Granularity = "day"
)

// Duration returns the bucket length.
func (g Granularity) Duration() (time.Duration, error) {
	switch g {
	case GranularityHour:
		return time.Hour, nil
	case GranularityDay:
		return 24 * time.Hour, nil
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidGranularity, "unsupported granularity %q", string(g))
	}
}

// Truncate maps a timestamp to the start of its bucket in UTC.
func (g Granularity) Truncate(t time.Time) (time.Time, error) {
	d, err := g.Duration()
	if err != nil {
		return time.Time{}, err
	}

	return t.UTC().Truncate(d), nil
}

// PeriodsPerYear returns the number of buckets in a year, used for Sharpe
// ratio annualization.
func (g Granularity) PeriodsPerYear() (float64, error) {
	switch g {
	case GranularityHour:
		return 365 * 24, nil
	case GranularityDay:
		return 365, nil
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidGranularity, "unsupported granularity %q", string(g))
	}
}
