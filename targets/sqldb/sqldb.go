// Package sqldb ships record batches into a relational table with a single
// multi-row INSERT per batch. PostgreSQL (via the pgx stdlib driver) and
// Oracle (via go-ora) are supported out of the box; any database/sql handle
// works through NewWithDB.
package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	// Database drivers registered for the convenience constructors.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/sijms/go-ora/v2"

	"github.com/gaborage/logfan"
)

// DefaultTable is the destination table when none is configured.
const DefaultTable = "log_records"

// Sink writes batches to a SQL table with columns logged_at, logger_name,
// severity, message and payload (the full record serialized as JSON).
type Sink struct {
	db      *sql.DB
	table   string
	builder sq.StatementBuilderType
}

var _ logfan.BatchSink = (*Sink)(nil)

// NewPostgres opens a PostgreSQL-backed sink through the pgx stdlib driver.
func NewPostgres(dsn, table string) (*Sink, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqldb: failed to open postgres connection: %w", err)
	}
	return NewWithDB(db, table, sq.Dollar)
}

// NewOracle opens an Oracle-backed sink through the go-ora driver.
func NewOracle(dsn, table string) (*Sink, error) {
	db, err := sql.Open("oracle", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqldb: failed to open oracle connection: %w", err)
	}
	return NewWithDB(db, table, sq.Colon)
}

// NewWithDB wraps an existing handle. The caller keeps ownership of db
// unless the sink is closed through Close.
func NewWithDB(db *sql.DB, table string, format sq.PlaceholderFormat) (*Sink, error) {
	if db == nil {
		return nil, ErrNilDB
	}
	if table == "" {
		table = DefaultTable
	}
	return &Sink{
		db:      db,
		table:   table,
		builder: sq.StatementBuilder.PlaceholderFormat(format),
	}, nil
}

// LogRecords inserts the batch in one statement so a partial batch can
// never be persisted by a failed attempt on databases with atomic
// single-statement semantics.
func (s *Sink) LogRecords(ctx context.Context, records []logfan.Record) error {
	if len(records) == 0 {
		return nil
	}

	insert := s.builder.
		Insert(s.table).
		Columns("logged_at", "logger_name", "severity", "message", "payload")

	for i := range records {
		payload, err := json.Marshal(records[i])
		if err != nil {
			return fmt.Errorf("sqldb: failed to serialize record: %w", err)
		}
		insert = insert.Values(
			records[i].Time,
			records[i].Logger,
			int(records[i].Level),
			records[i].FormatMessage(),
			payload,
		)
	}

	query, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("sqldb: failed to build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("sqldb: failed to insert %d records: %w", len(records), err)
	}
	return nil
}

// Close releases the underlying handle.
func (s *Sink) Close() error {
	return s.db.Close()
}
