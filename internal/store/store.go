package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/aspectlab/metastore/internal/metrics"
)

//go:embed schema.sql
var schemaSQL string

// Store is the relational backing store for aspect rows, secondary index
// rows and numeric id counters. Uses SQLite with WAL mode.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and the schema automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - foreign key enforcement
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// RetryLimitReachedError is returned when a transactional unit of work
// still conflicts after exhausting its retries. Wraps the last conflict.
type RetryLimitReachedError struct {
	Retries int
	Err     error
}

func (e *RetryLimitReachedError) Error() string {
	return fmt.Sprintf("failed to commit after %d retries: %v", e.Retries, e.Err)
}

func (e *RetryLimitReachedError) Unwrap() error { return e.Err }

// IsConflict reports whether err is a write-write conflict signal:
// a unique-constraint violation or a lock/rollback error from SQLite.
// Only conflicts are retried; everything else propagates.
func IsConflict(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrConstraint ||
		sqliteErr.Code == sqlite3.ErrBusy ||
		sqliteErr.Code == sqlite3.ErrLocked
}

// RunInTransactionWithRetry runs fn inside a fresh transaction, commits
// on success, and retries the whole unit on conflict up to maxRetries
// additional attempts. fn may run more than once and must be retry-safe:
// no externally visible effects before commit.
//
// Non-conflict errors abort immediately. Exhausted retries return a
// *RetryLimitReachedError wrapping the last conflict.
func (s *Store) RunInTransactionWithRetry(ctx context.Context, maxRetries int, fn func(tx *sql.Tx) error) error {
	var lastConflict error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			metrics.TxRetries.Inc()
		}

		err := s.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !IsConflict(err) {
			return err
		}
		metrics.TxConflicts.Inc()
		lastConflict = err
	}

	metrics.TxRetriesExhausted.Inc()
	return &RetryLimitReachedError{Retries: maxRetries, Err: lastConflict}
}

func (s *Store) runOnce(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
