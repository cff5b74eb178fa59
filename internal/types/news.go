package types

import (
	"time"

	"github.com/moznion/go-optional"
)

// NewsDocument is one news article as returned by the news search
// collaborator. PublishedAt may carry a source timezone or be naive;
// consumers normalize to UTC before any comparison. Sentiment is optional:
// some sources supply a precomputed score, otherwise the sentiment
// estimator fills it in.
type NewsDocument struct {
	ID          string                   `json:"id"`
	PublishedAt time.Time                `json:"published_at"`
	Title       string                   `json:"title"`
	Description string                   `json:"description"`
	Sentiment   optional.Option[float64] `json:"sentiment,omitempty"`
}

// HasScore reports whether the document carries a usable sentiment score.
func (d NewsDocument) HasScore() bool {
	return d.Sentiment.IsSome()
}

// SentimentBucket is the aggregate of all scored documents falling into one
// period at the merge granularity. Empty buckets exist with a neutral mean
// rather than being absent; the merge stage depends on a gap-free sequence.
type SentimentBucket struct {
	PeriodStart   time.Time `json:"period_start"`
	SentimentMean float64   `json:"sentiment_mean"`
	DocumentCount int       `json:"document_count"`
}
