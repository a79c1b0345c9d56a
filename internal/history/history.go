// Package history keeps a SQLite ledger of analysis runs: when a run happened,
// what was planned, how each stage ended and where the document was written.
// Analysis state itself is never persisted.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"go.uber.org/zap"

	"github.com/steveyegge/curator/internal/pipeline"
	"github.com/steveyegge/curator/internal/types"
)

// Run statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ErrNotFound is returned by Get for an unknown run ID.
var ErrNotFound = errors.New("run not found")

// Run is one ledger entry.
type Run struct {
	ID           string
	Target       string
	StartedAt    time.Time
	CompletedAt  time.Time
	Complexity   types.Complexity
	Organization types.OrganizationLevel
	Planned      int
	Status       string
	FailedStage  types.StageID
	Error        string
	OutputPath   string
	Language     string
	Stages       []types.StageTiming
}

// NewRun builds the ledger entry for a finished or aborted pipeline run.
// result may be nil when the run failed before any stage started.
func NewRun(target string, strategy *types.WorkflowStrategy, result *pipeline.RunResult, runErr error) *Run {
	run := &Run{
		Target:       target,
		Complexity:   strategy.Profile.Complexity,
		Organization: strategy.Profile.OrganizationLevel,
		Planned:      len(strategy.Stages),
		Status:       StatusCompleted,
	}
	if result != nil {
		run.ID = result.RunID
		run.StartedAt = result.StartedAt
		run.CompletedAt = result.CompletedAt
		run.Stages = result.Timings
		if doc := result.State.Document; doc != nil {
			run.Language = doc.Language
		}
	}
	if runErr != nil {
		run.Status = StatusFailed
		run.Error = runErr.Error()
		var stageErr *types.StageExecutionError
		if errors.As(runErr, &stageErr) {
			run.FailedStage = stageErr.Stage
		}
	}
	return run
}

// StagesRun counts the stages that finished.
func (r *Run) StagesRun() int {
	n := 0
	for _, s := range r.Stages {
		if s.Outcome != types.OutcomeFailed {
			n++
		}
	}
	return n
}

// Degraded counts the stages that finished on a fallback strategy.
func (r *Run) Degraded() int {
	n := 0
	for _, s := range r.Stages {
		if s.Outcome == types.OutcomeDegraded {
			n++
		}
	}
	return n
}

// Duration returns the wall-clock time of the run.
func (r *Run) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}

// Ledger is the run history database.
type Ledger struct {
	db  *sql.DB
	log *zap.Logger
}

// Open opens (creating if needed) the ledger at path and applies pending
// schema migrations.
func Open(ctx context.Context, path string, log *zap.Logger) (*Ledger, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Debug("history ledger opened", zap.String("path", path))
	return &Ledger{db: db, log: log}, nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record stores a run and its stage timings in one transaction.
func (l *Ledger) Record(ctx context.Context, run *Run) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, target, started_at, completed_at, complexity, organization,
			planned, status, failed_stage, error, output_path, language)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Target, formatTime(run.StartedAt), formatTime(run.CompletedAt),
		string(run.Complexity), string(run.Organization), run.Planned, run.Status,
		string(run.FailedStage), run.Error, run.OutputPath, run.Language)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	for i, s := range run.Stages {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO run_stages (run_id, step, stage, duration_ms, outcome) VALUES (?, ?, ?, ?, ?)`,
			run.ID, i+1, string(s.Stage), s.Duration.Milliseconds(), string(s.Outcome))
		if err != nil {
			return fmt.Errorf("insert stage %s of run %s: %w", s.Stage, run.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", run.ID, err)
	}
	l.log.Debug("run recorded", zap.String("run_id", run.ID), zap.String("status", run.Status))
	return nil
}

const runColumns = `id, target, started_at, completed_at, complexity, organization,
	planned, status, failed_stage, error, output_path, language`

// List returns the most recent runs, newest first. limit <= 0 means 20.
func (l *Ledger) List(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	for _, run := range runs {
		if run.Stages, err = l.stages(ctx, run.ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// Get returns one run by ID.
func (l *Ledger) Get(ctx context.Context, id string) (*Run, error) {
	row := l.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if run.Stages, err = l.stages(ctx, id); err != nil {
		return nil, err
	}
	return run, nil
}

func (l *Ledger) stages(ctx context.Context, runID string) ([]types.StageTiming, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT stage, duration_ms, outcome FROM run_stages WHERE run_id = ? ORDER BY step`, runID)
	if err != nil {
		return nil, fmt.Errorf("query stages of run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []types.StageTiming
	for rows.Next() {
		var stage, outcome string
		var ms int64
		if err := rows.Scan(&stage, &ms, &outcome); err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		out = append(out, types.StageTiming{
			Stage:    types.StageID(stage),
			Duration: time.Duration(ms) * time.Millisecond,
			Outcome:  types.OutcomeStatus(outcome),
		})
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var (
		run                    Run
		started, completed     string
		complexity, org, stage string
	)
	err := s.Scan(&run.ID, &run.Target, &started, &completed, &complexity, &org,
		&run.Planned, &run.Status, &stage, &run.Error, &run.OutputPath, &run.Language)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	if run.StartedAt, err = parseTime(started); err != nil {
		return nil, err
	}
	if run.CompletedAt, err = parseTime(completed); err != nil {
		return nil, err
	}
	run.Complexity = types.Complexity(complexity)
	run.Organization = types.OrganizationLevel(org)
	run.FailedStage = types.StageID(stage)
	return &run, nil
}

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
