// Package history keeps an on-device log of alarm activity in SQLite: sets,
// disables, triggers, and how each sunrise ended.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/XSAM/otelsql"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"sunrised/internal/alarm"
)

var sqlOpen = sql.Open

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 500
)

// Store records and reads alarm events. Implements alarm.Recorder.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ alarm.Recorder = (*Store)(nil)

// Open opens (or creates) the history database at path and ensures the schema
// exists. The pure-Go driver needs no cgo, which keeps cross-compiling for the
// Pi painless.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	driverName, err := otelsql.Register("sqlite",
		otelsql.WithAttributes(semconv.DBSystemSqlite),
	)
	if err != nil {
		return nil, fmt.Errorf("register otelsql: %w", err)
	}

	db, err := sqlOpen(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}

	// Single writer; the daemon and the web process each hold their own
	// connection and SQLite arbitrates via the busy timeout.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	if err := ensureMigrated(ctx, db, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	return NewStore(db, logger), nil
}

// NewStore wraps an already-open database.
func NewStore(db *sql.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Record appends one event. Timestamps are stored as RFC3339 UTC text.
func (s *Store) Record(ctx context.Context, e alarm.Event) error {
	const q = `INSERT INTO events (ts, kind, detail, source) VALUES (?, ?, ?, ?)`
	at := e.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx, q, at.UTC().Format(time.RFC3339Nano), e.Kind, e.Detail, e.Source)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Recent returns the newest events, newest first. limit <= 0 selects the
// default page size.
func (s *Store) Recent(ctx context.Context, limit int) ([]alarm.Event, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	const q = `SELECT id, ts, kind, detail, source FROM events ORDER BY id DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []alarm.Event
	for rows.Next() {
		var (
			e  alarm.Event
			ts string
		)
		if err := rows.Scan(&e.ID, &ts, &e.Kind, &e.Detail, &e.Source); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		at, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			s.logger.Warn("bad event timestamp", zap.Int64("id", e.ID), zap.String("ts", ts))
		} else {
			e.At = at
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}
