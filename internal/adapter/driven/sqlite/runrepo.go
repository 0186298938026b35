package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/envpush/internal/domain/model"
	"github.com/ericfisherdev/envpush/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RunStore = (*RunRepo)(nil)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// RunRepo is the SQLite implementation of the RunStore port interface.
type RunRepo struct {
	db *DB
}

// NewRunRepo creates a new RunRepo backed by the given DB.
func NewRunRepo(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

// Save upserts the run row and replaces its result log in one transaction.
func (r *RunRepo) Save(ctx context.Context, run model.RunSnapshot) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save run %s: %w", run.ID, err)
	}
	defer func() { _ = tx.Rollback() }()

	const upsert = `
		INSERT INTO runs (id, owner, repo, environment, kind, repository_id, phase, status,
			current_step, total_steps, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner = excluded.owner,
			repo = excluded.repo,
			environment = excluded.environment,
			kind = excluded.kind,
			repository_id = excluded.repository_id,
			phase = excluded.phase,
			status = excluded.status,
			current_step = excluded.current_step,
			total_steps = excluded.total_steps,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at`

	_, err = tx.ExecContext(ctx, upsert,
		run.ID, run.Owner, run.Repo, run.Environment, string(run.Kind), run.RepositoryID,
		string(run.Progress.Phase), run.Progress.Status, run.Progress.Current, run.Progress.Total,
		formatTime(run.StartedAt), formatTime(run.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_entries WHERE run_id = ?`, run.ID); err != nil {
		return fmt.Errorf("clear entries for run %s: %w", run.ID, err)
	}

	const insertEntry = `INSERT INTO run_entries (run_id, seq, kind, message, at) VALUES (?, ?, ?, ?, ?)`
	for i, e := range run.Entries {
		if _, err := tx.ExecContext(ctx, insertEntry, run.ID, i, string(e.Kind), e.Message, formatTime(e.At)); err != nil {
			return fmt.Errorf("save entry %d for run %s: %w", i, run.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", run.ID, err)
	}
	return nil
}

const selectRun = `SELECT id, owner, repo, environment, kind, repository_id, phase, status,
	current_step, total_steps, started_at, finished_at FROM runs`

// Get retrieves a run with its entries. Returns nil, nil if it does not exist.
func (r *RunRepo) Get(ctx context.Context, id string) (*model.RunSnapshot, error) {
	run, err := scanRun(r.db.Reader.QueryRowContext(ctx, selectRun+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}

	run.Entries, err = r.entries(ctx, id)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRecent returns up to limit runs ordered by start time, newest first.
func (r *RunRepo) ListRecent(ctx context.Context, limit int) ([]model.RunSnapshot, error) {
	rows, err := r.db.Reader.QueryContext(ctx, selectRun+` ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	var runs []model.RunSnapshot
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	_ = rows.Close()

	for i := range runs {
		runs[i].Entries, err = r.entries(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
	}

	return runs, nil
}

func (r *RunRepo) entries(ctx context.Context, runID string) ([]model.ResultEntry, error) {
	const query = `SELECT kind, message, at FROM run_entries WHERE run_id = ? ORDER BY seq`

	rows, err := r.db.Reader.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("list entries for run %s: %w", runID, err)
	}
	defer rows.Close()

	var entries []model.ResultEntry
	for rows.Next() {
		var e model.ResultEntry
		var kind, at string
		if err := rows.Scan(&kind, &e.Message, &at); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Kind = model.ResultKind(kind)
		if e.At, err = parseTime(at); err != nil {
			return nil, fmt.Errorf("parse entry time: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*model.RunSnapshot, error) {
	var run model.RunSnapshot
	var kind, phase, startedAt, finishedAt string

	err := s.Scan(
		&run.ID, &run.Owner, &run.Repo, &run.Environment, &kind, &run.RepositoryID,
		&phase, &run.Progress.Status, &run.Progress.Current, &run.Progress.Total,
		&startedAt, &finishedAt,
	)
	if err != nil {
		return nil, err
	}

	run.Kind = model.ItemKind(kind)
	run.Progress.Phase = model.RunPhase(phase)

	if run.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if run.FinishedAt, err = parseTime(finishedAt); err != nil {
		return nil, fmt.Errorf("parse finished_at: %w", err)
	}

	return &run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime accepts the stored layout and plain RFC 3339.
func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{timeLayout, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
