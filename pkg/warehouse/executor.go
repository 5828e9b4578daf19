// Package warehouse executes generated SQL against the read-only trade
// data warehouse with timeouts and bounded retry.
package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx driver for database/sql

	"github.com/shreyasgm/ask-atlas-sub001/pkg/config"
)

// EmptyResultMessage is the canonical text stored when a query returns
// zero rows.
const EmptyResultMessage = "SQL query returned no results."

// QueryExecutionError wraps a non-transient execution failure so the
// pipeline can store it in last_error and surface it to the model.
type QueryExecutionError struct {
	SQL string
	Err error
}

func (e *QueryExecutionError) Error() string {
	return fmt.Sprintf("query execution failed: %v", e.Err)
}

func (e *QueryExecutionError) Unwrap() error { return e.Err }

// Result is the outcome of one successful query.
type Result struct {
	Columns         []string
	Rows            [][]string
	RowCount        int
	Tables          []string
	ExecutionTimeMS int64
}

// Executor runs read-only queries with per-query timeout and retry on
// transient connection errors.
type Executor struct {
	db  *sql.DB
	cfg config.WarehouseConfig
}

// NewExecutor opens a pooled read-only connection to the warehouse.
func NewExecutor(ctx context.Context, cfg config.WarehouseConfig) (*Executor, error) {
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open warehouse connection: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping warehouse: %w", err)
	}
	return &Executor{db: db, cfg: cfg}, nil
}

// NewExecutorFromDB wraps an existing connection. Used by tests.
func NewExecutorFromDB(db *sql.DB, cfg config.WarehouseConfig) *Executor {
	return &Executor{db: db, cfg: cfg}
}

// Close closes the connection pool.
func (e *Executor) Close() error { return e.db.Close() }

// Execute runs one SELECT statement. Transient connection and timeout
// errors are retried with exponential backoff; anything else returns a
// QueryExecutionError immediately.
func (e *Executor) Execute(ctx context.Context, query string) (*Result, error) {
	attempts := e.cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := e.runOnce(ctx, query)
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !isTransient(err) {
			return nil, &QueryExecutionError{SQL: query, Err: err}
		}
		lastErr = err

		if attempt < attempts {
			backoff := e.cfg.RetryBase * time.Duration(1<<(attempt-1))
			if e.cfg.RetryMax > 0 && backoff > e.cfg.RetryMax {
				backoff = e.cfg.RetryMax
			}
			slog.Warn("Transient warehouse error, retrying",
				"attempt", attempt, "backoff", backoff, "error", err)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, &QueryExecutionError{SQL: query, Err: lastErr}
}

func (e *Executor) runOnce(ctx context.Context, query string) (*Result, error) {
	timeout := e.cfg.QueryTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	rows, err := e.db.QueryContext(queryCtx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var data [][]string
	for rows.Next() {
		raw := make([]sql.NullString, len(columns))
		dest := make([]any, len(columns))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		record := make([]string, len(columns))
		for i, v := range raw {
			if v.Valid {
				record[i] = v.String
			} else {
				record[i] = "NULL"
			}
		}
		data = append(data, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &Result{
		Columns:         columns,
		Rows:            data,
		RowCount:        len(data),
		Tables:          ExtractTableNames(query),
		ExecutionTimeMS: time.Since(started).Milliseconds(),
	}, nil
}

// isTransient reports whether an error is worth retrying: connection
// failures and timeouts, not SQL errors.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"timeout",
		"too many connections",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
