package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Input malformation errors (100-199). Caller-supplied data violates a
	// stated precondition. Always surfaced immediately, never silently
	// coerced.
	ErrCodeMalformedSeries      ErrorCode = 100
	ErrCodeInvalidSplit         ErrorCode = 101
	ErrCodeInvalidParameter     ErrorCode = 102
	ErrCodeInvalidConfiguration ErrorCode = 103
	ErrCodeInvalidPeriod        ErrorCode = 104
	ErrCodeInvalidGranularity   ErrorCode = 105
	ErrCodeInvalidHorizon       ErrorCode = 106
	ErrCodeInvalidLabel         ErrorCode = 107

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeDatasetWriteFailed    ErrorCode = 203
	ErrCodeDatasetReadFailed     ErrorCode = 204

	// Indicator errors (300-399)
	ErrCodeIndicatorNotFound    ErrorCode = 300
	ErrCodeIndicatorCalculation ErrorCode = 301

	// External collaborator errors (400-499). Recovered at the
	// per-document/per-page granularity; the batch only fails when zero
	// usable units remain.
	ErrCodeSentimentParse    ErrorCode = 400
	ErrCodeSentimentEmpty    ErrorCode = 401
	ErrCodeNewsFetchFailed   ErrorCode = 402
	ErrCodeCandleFetchFailed ErrorCode = 403
	ErrCodeCandleWriteFailed ErrorCode = 404

	// Model errors (500-599)
	ErrCodeModelNotFitted   ErrorCode = 500
	ErrCodeModelPersistence ErrorCode = 501

	// Invariant violations (600-699). An internal post-condition failed.
	// Always fatal: signals a defect in the pipeline itself, never bad
	// input, and is never caught-and-ignored.
	ErrCodeInvariantViolation ErrorCode = 600
)
