package dataset

import (
	"time"

	"github.com/quantlab-io/signalpipe/pkg/errors"
)

// Column names shared across pipeline stages.
const (
	ColumnOpen          = "open"
	ColumnHigh          = "high"
	ColumnLow           = "low"
	ColumnClose         = "close"
	ColumnVolume        = "volume"
	ColumnSentimentMean = "sentiment_mean"
	ColumnNewsVolume    = "news_volume"
	ColumnTarget        = "target"
)

// Frame is a small in-memory column table keyed by a strictly ascending,
// unique UTC time index. Each pipeline stage builds its own Frame and hands
// it downstream; a Frame is treated as immutable once returned by the stage
// that produced it.
type Frame struct {
	index []time.Time
	order []string
	cols  map[string][]float64
}

// New creates a Frame over the given index. The index is copied, normalized
// to UTC and validated for strictly ascending unique timestamps.
func New(index []time.Time) (*Frame, error) {
	normalized := make([]time.Time, len(index))
	for i, t := range index {
		normalized[i] = t.UTC()
	}

	if err := validateAscending(normalized); err != nil {
		return nil, err
	}

	return &Frame{
		index: normalized,
		order: nil,
		cols:  make(map[string][]float64),
	}, nil
}

// validateAscending checks that timestamps are strictly increasing, which
// also implies uniqueness.
func validateAscending(index []time.Time) error {
	for i := 1; i < len(index); i++ {
		if !index[i].After(index[i-1]) {
			return errors.Newf(errors.ErrCodeMalformedSeries,
				"timestamps not strictly ascending at position %d: %s !> %s",
				i, index[i].Format(time.RFC3339), index[i-1].Format(time.RFC3339))
		}
	}

	return nil
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.index)
}

// Index returns a copy of the time index.
func (f *Frame) Index() []time.Time {
	out := make([]time.Time, len(f.index))
	copy(out, f.index)

	return out
}

// AddColumn appends a named column. The values are copied and must match
// the index length. Used only while the owning stage is assembling the
// Frame.
func (f *Frame) AddColumn(name string, values []float64) error {
	if _, exists := f.cols[name]; exists {
		return errors.Newf(errors.ErrCodeInvalidParameter, "column %q already exists", name)
	}

	if len(values) != len(f.index) {
		return errors.Newf(errors.ErrCodeInvalidParameter,
			"column %q has %d values, index has %d rows", name, len(values), len(f.index))
	}

	copied := make([]float64, len(values))
	copy(copied, values)

	f.cols[name] = copied
	f.order = append(f.order, name)

	return nil
}

// Column returns a copy of the named column.
func (f *Frame) Column(name string) ([]float64, error) {
	values, ok := f.cols[name]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeDataNotFound, "column %q not found", name)
	}

	out := make([]float64, len(values))
	copy(out, values)

	return out, nil
}

// HasColumn reports whether the named column exists.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.cols[name]

	return ok
}

// Columns returns the column names in insertion order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)

	return out
}

// Slice returns a new Frame holding rows [start, end). All columns are
// copied.
func (f *Frame) Slice(start, end int) (*Frame, error) {
	if start < 0 || end > len(f.index) || start > end {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter,
			"slice bounds [%d, %d) out of range for %d rows", start, end, len(f.index))
	}

	out, err := New(f.index[start:end])
	if err != nil {
		return nil, err
	}

	for _, name := range f.order {
		if err := out.AddColumn(name, f.cols[name][start:end]); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// Matrix assembles the named columns into one row-major matrix, in the
// given column order. Used to build the classifier feature matrix.
func (f *Frame) Matrix(columns []string) ([][]float64, error) {
	selected := make([][]float64, len(columns))

	for j, name := range columns {
		values, ok := f.cols[name]
		if !ok {
			return nil, errors.Newf(errors.ErrCodeDataNotFound, "column %q not found", name)
		}

		selected[j] = values
	}

	rows := make([][]float64, len(f.index))
	for i := range f.index {
		row := make([]float64, len(columns))
		for j := range columns {
			row[j] = selected[j][i]
		}

		rows[i] = row
	}

	return rows, nil
}
