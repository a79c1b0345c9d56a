package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// migration is a single schema change.
type migration struct {
	Version     int
	Description string
	Up          string
}

// migrations must stay sorted by version; applied versions are never edited.
var migrations = []migration{
	{
		Version:     1,
		Description: "runs table",
		Up: `
			CREATE TABLE runs (
				id           TEXT PRIMARY KEY,
				target       TEXT NOT NULL,
				started_at   TEXT NOT NULL,
				completed_at TEXT NOT NULL,
				complexity   TEXT NOT NULL DEFAULT '',
				organization TEXT NOT NULL DEFAULT '',
				planned      INTEGER NOT NULL DEFAULT 0,
				status       TEXT NOT NULL,
				failed_stage TEXT NOT NULL DEFAULT '',
				error        TEXT NOT NULL DEFAULT '',
				output_path  TEXT NOT NULL DEFAULT ''
			);
			CREATE INDEX idx_runs_started_at ON runs(started_at);`,
	},
	{
		Version:     2,
		Description: "per-stage timings",
		Up: `
			CREATE TABLE run_stages (
				run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
				step        INTEGER NOT NULL,
				stage       TEXT NOT NULL,
				duration_ms INTEGER NOT NULL,
				outcome     TEXT NOT NULL,
				PRIMARY KEY (run_id, step)
			);`,
	},
	{
		Version:     3,
		Description: "output language",
		Up:          `ALTER TABLE runs ADD COLUMN language TEXT NOT NULL DEFAULT '';`,
	},
}

// migrate applies every migration newer than the recorded schema version.
func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TEXT NOT NULL
		)`); err != nil {
		return fmt.Errorf("failed to create version table: %w", err)
	}

	current, err := schemaVersion(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if err := apply(ctx, db, m); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", m.Version, err)
		}
	}
	return nil
}

func schemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version int
	err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	return version, err
}

func apply(ctx context.Context, db *sql.DB, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, m.Up); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_version (version, description, applied_at) VALUES (?, ?, ?)",
		m.Version, m.Description, formatTime(time.Now()),
	); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	return tx.Commit()
}
