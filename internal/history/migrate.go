package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_events",
		SQL: `CREATE TABLE IF NOT EXISTS events (
  id     INTEGER PRIMARY KEY AUTOINCREMENT,
  ts     TEXT NOT NULL,
  kind   TEXT NOT NULL,
  detail TEXT NOT NULL DEFAULT '',
  source TEXT NOT NULL DEFAULT ''
);`,
	},
	{
		Name: "create_index_events_ts",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_events_ts ON events (ts);`,
	},
	{
		Name: "create_index_events_kind",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_events_kind ON events (kind);`,
	},
}

// ensureMigrated checks for the events table and applies the steps when it is
// missing. Steps are idempotent, so a partial earlier run is harmless.
func ensureMigrated(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	start := time.Now()

	var name string
	const sentinel = `SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'events'`
	err := db.QueryRowContext(ctx, sentinel).Scan(&name)
	switch {
	case err == nil:
		logger.Debug("history schema already exists", zap.Duration("took", time.Since(start)))
		return nil
	case errors.Is(err, sql.ErrNoRows):
	default:
		return fmt.Errorf("check sentinel table: %w", err)
	}

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			return fmt.Errorf("migration step %s: %w", step.Name, err)
		}
		logger.Debug("migration step applied",
			zap.String("step", step.Name),
			zap.Duration("took", time.Since(stepStart)),
		)
	}

	logger.Info("history schema created", zap.Duration("took", time.Since(start)))
	return nil
}
