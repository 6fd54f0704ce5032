// Package postgres reads device consumption history from the
// monitoring database.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	telemetry "energy-dashboard/internal/telemetry/domain"
)

const defaultHistoryTable = "hourly_consumption"

// HistoryQuery is a Postgres-backed sample source.
type HistoryQuery struct {
	db    *sql.DB
	table string
}

// QueryOption configures the history query.
type QueryOption func(*HistoryQuery)

// WithTable overrides the default table name.
func WithTable(table string) QueryOption {
	return func(q *HistoryQuery) {
		if table != "" {
			q.table = table
		}
	}
}

// NewHistoryQuery constructs a query with the default table name.
func NewHistoryQuery(db *sql.DB, opts ...QueryOption) *HistoryQuery {
	query := &HistoryQuery{db: db, table: defaultHistoryTable}
	for _, opt := range opts {
		opt(query)
	}
	return query
}

// ByDevice returns the consumption samples for a device ordered by
// time ascending. Authorization is the caller's concern; no identity
// filtering happens here.
func (q *HistoryQuery) ByDevice(ctx context.Context, deviceID int64) ([]telemetry.ConsumptionSample, error) {
	if q == nil || q.db == nil {
		return nil, errors.New("history query: nil db")
	}
	if deviceID <= 0 {
		return nil, errors.New("history query: invalid device id")
	}

	query := fmt.Sprintf(`
SELECT timestamp, total_consumption
FROM %s
WHERE device_id = $1
ORDER BY timestamp ASC`, q.table)

	rows, err := q.db.QueryContext(ctx, query, deviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	samples := make([]telemetry.ConsumptionSample, 0)
	for rows.Next() {
		var ts int64
		var value sql.NullFloat64
		if err := rows.Scan(&ts, &value); err != nil {
			return nil, err
		}
		if !value.Valid {
			continue
		}
		samples = append(samples, telemetry.ConsumptionSample{Timestamp: ts, Value: value.Float64})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}
