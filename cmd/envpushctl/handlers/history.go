package handlers

import (
	"context"
	"fmt"
	"io"
	"time"

	sqliteadapter "github.com/ericfisherdev/envpush/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/envpush/internal/config"
	"github.com/ericfisherdev/envpush/internal/domain/port/driven"
)

// History prints recent runs from the configured database. A non-positive
// limit uses ENVPUSH_HISTORY_LIMIT.
func History(ctx context.Context, out io.Writer, limit int) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if limit <= 0 {
		limit = cfg.HistoryLimit
	}

	db, err := sqliteadapter.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	return history(ctx, out, sqliteadapter.NewRunRepo(db), limit, time.Now())
}

func history(ctx context.Context, out io.Writer, store driven.RunStore, limit int, now time.Time) error {
	runs, err := store.ListRecent(ctx, limit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	_, err = fmt.Fprint(out, renderHistory(runs, now))
	return err
}
