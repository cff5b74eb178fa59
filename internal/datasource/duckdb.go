// Package datasource reads persisted candle files back into memory for the
// feature-building stage.
package datasource

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/quantlab-io/signalpipe/internal/logger"
	"github.com/quantlab-io/signalpipe/internal/types"
	"github.com/quantlab-io/signalpipe/pkg/errors"
)

// CandleSource provides read access to a stored candle series.
type CandleSource interface {
	// ReadAll returns the candles inside the optional time bounds in
	// ascending order.
	ReadAll(start, end optional.Option[time.Time]) ([]types.PriceBar, error)
	// Count returns the number of candles inside the optional time bounds.
	Count(start, end optional.Option[time.Time]) (int, error)
	// Close releases the underlying database handle.
	Close() error
}

// DuckDBSource reads candles from a Parquet file through a DuckDB view.
type DuckDBSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDuckDBSource opens an in-memory DuckDB instance with a candle view
// over the given Parquet file.
func NewDuckDBSource(parquetPath string, log *logger.Logger) (*DuckDBSource, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open DuckDB", err)
	}

	query := fmt.Sprintf(`CREATE VIEW candles AS SELECT * FROM read_parquet('%s');`, parquetPath)

	if _, err := db.Exec(query); err != nil {
		db.Close()

		return nil, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err,
			"failed to create candle view over %s", parquetPath)
	}

	log.Debug("opened candle datasource", zap.String("path", parquetPath))

	return &DuckDBSource{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// ReadAll implements CandleSource.
func (d *DuckDBSource) ReadAll(start, end optional.Option[time.Time]) ([]types.PriceBar, error) {
	builder := d.sq.
		Select("time", "open", "high", "low", "close", "volume").
		From("candles").
		OrderBy("time ASC")

	builder = applyBounds(builder, start, end)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build candle query", err)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query candles", err)
	}
	defer rows.Close()

	var bars []types.PriceBar

	for rows.Next() {
		var bar types.PriceBar

		if err := rows.Scan(&bar.Time, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan candle row", err)
		}

		// Parquet timestamps come back without a zone; they were written in
		// UTC and are re-tagged as such here, unconditionally.
		bar.Time = bar.Time.UTC()

		bars = append(bars, bar)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "candle row iteration failed", err)
	}

	return bars, nil
}

// Count implements CandleSource.
func (d *DuckDBSource) Count(start, end optional.Option[time.Time]) (int, error) {
	builder := d.sq.Select("COUNT(*)").From("candles")
	builder = applyBounds(builder, start, end)

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build count query", err)
	}

	var count int
	if err := d.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count candles", err)
	}

	return count, nil
}

// Close implements CandleSource.
func (d *DuckDBSource) Close() error {
	return d.db.Close()
}

func applyBounds(builder squirrel.SelectBuilder, start, end optional.Option[time.Time]) squirrel.SelectBuilder {
	if start.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{"time": start.Unwrap().UTC()})
	}

	if end.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{"time": end.Unwrap().UTC()})
	}

	return builder
}
