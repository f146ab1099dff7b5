package sqlexec

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/roach88/relquery/query"
	"github.com/roach88/relquery/schema"
	"github.com/roach88/relquery/sqlgen"
)

// Row is one result row keyed by the "<alias>_<field>" column aliases the
// SQL backend emits.
type Row map[string]any

// Executor runs composed queries against a SQLite database.
//
// The composer core never executes anything; Executor is the execution
// capability a deployment plugs in behind it. It owns no query state -
// every call compiles and runs one query value - so a single Executor is
// safe for concurrent use to the extent the underlying *sql.DB is.
type Executor struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open creates or opens a SQLite database at the given path and wraps it
// in an Executor. Use ":memory:" for an in-memory database.
func Open(path string, logger zerolog.Logger) (*Executor, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite supports one writer; a single connection avoids SQLITE_BUSY
	// and keeps :memory: databases from vanishing between connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &Executor{db: db, log: logger}, nil
}

// New wraps an existing database handle. The caller keeps ownership of db.
func New(db *sql.DB, logger zerolog.Logger) *Executor {
	return &Executor{db: db, log: logger}
}

// Close closes the underlying database connection.
func (e *Executor) Close() error {
	if e.db == nil {
		return nil
	}
	return e.db.Close()
}

// DB returns the underlying sql.DB for setup work (DDL, fixtures).
func (e *Executor) DB() *sql.DB {
	return e.db
}

// Run compiles q and executes it, returning all result rows.
//
// Each execution is tagged with a time-sortable UUIDv7 query id and logged
// with its SQL, argument count, row count, and duration.
func (e *Executor) Run(ctx context.Context, q query.Query, reg *schema.Registry) ([]Row, error) {
	queryID := uuid.Must(uuid.NewV7()).String()

	stmt, args, err := sqlgen.Compile(q, reg)
	if err != nil {
		e.log.Error().Str("query_id", queryID).Err(err).Msg("query compilation failed")
		return nil, fmt.Errorf("compile query: %w", err)
	}

	start := time.Now()
	rows, err := e.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		e.log.Error().Str("query_id", queryID).Str("sql", stmt).Err(err).Msg("query execution failed")
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	result, err := scanRows(rows)
	if err != nil {
		return nil, err
	}

	e.log.Info().
		Str("query_id", queryID).
		Str("root", q.Root()).
		Str("sql", stmt).
		Int("args", len(args)).
		Int("rows", len(result)).
		Dur("elapsed", time.Since(start)).
		Msg("query executed")

	return result, nil
}

// scanRows reads every row into a map keyed by column alias.
func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	var result []Row
	for rows.Next() {
		values := make([]any, len(cols))
		pointers := make([]any, len(cols))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			// SQLite hands text back as []byte; strings are easier on
			// callers.
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
