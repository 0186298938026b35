// Package handlers implements the envpushctl commands.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	githubadapter "github.com/ericfisherdev/envpush/internal/adapter/driven/github"
	sodiumadapter "github.com/ericfisherdev/envpush/internal/adapter/driven/sodium"
	sqliteadapter "github.com/ericfisherdev/envpush/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/envpush/internal/application"
	"github.com/ericfisherdev/envpush/internal/config"
	"github.com/ericfisherdev/envpush/internal/domain/model"
	"github.com/ericfisherdev/envpush/internal/domain/port/driven"
)

// ErrRunFailed is returned when a run ends in the failed phase.
var ErrRunFailed = errors.New("run failed")

// ErrItemsFailed is returned when a run completed but some items errored.
var ErrItemsFailed = errors.New("some items failed")

// ApplyOptions holds the flag values of the apply command.
type ApplyOptions struct {
	ManifestPath string
	Token        string
	SaveHistory  bool
}

type applyDeps struct {
	clients        application.ClientFactory
	sealer         driven.SecretSealer
	store          driven.RunStore
	cachePublicKey bool
	timeout        time.Duration
	logger         *slog.Logger
}

// Apply loads configuration and the manifest, then runs it synchronously.
func Apply(ctx context.Context, out io.Writer, opts ApplyOptions) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(opts.ManifestPath)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	req, err := application.ParseManifest(data)
	if err != nil {
		return err
	}
	req.Params.Token = opts.Token

	level := max(cfg.SlogLevel(), slog.LevelWarn)
	deps := applyDeps{
		clients:        githubadapter.NewClientFactory(cfg.GitHubAPIURL, cfg.GitHubTimeout),
		sealer:         sodiumadapter.NewSealer(),
		cachePublicKey: cfg.CachePublicKey,
		timeout:        cfg.RunTimeout,
		logger:         slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
	}

	if opts.SaveHistory {
		db, err := sqliteadapter.Open(ctx, cfg.DBPath)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		deps.store = sqliteadapter.NewRunRepo(db)
	}

	return apply(ctx, out, req, deps)
}

func apply(ctx context.Context, out io.Writer, req model.ProvisionRequest, deps applyDeps) error {
	svc := application.NewProvisionService(deps.clients, deps.sealer, deps.cachePublicKey, deps.logger)

	valid, err := svc.Validate(req)
	if err != nil {
		return err
	}

	fmt.Fprint(out, renderHeader(valid.Params, len(valid.Items)))

	run := application.NewRun(uuid.NewString(), valid.Params, application.WithEntryListener(func(e model.ResultEntry) {
		fmt.Fprintln(out, renderEntry(e))
	}))

	runCtx, cancel := context.WithTimeout(ctx, deps.timeout)
	defer cancel()
	svc.Execute(runCtx, valid, run)

	snap := run.Snapshot()
	fmt.Fprint(out, renderSummary(snap))

	if deps.store != nil {
		saveCtx, cancelSave := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancelSave()
		if err := deps.store.Save(saveCtx, snap); err != nil {
			deps.logger.Warn("failed to save run history", "run_id", snap.ID, "error", err)
		}
	}

	switch {
	case snap.Progress.Phase == model.RunPhaseFailed:
		return ErrRunFailed
	case snap.ErrorCount() > 0:
		return fmt.Errorf("%w: %d error(s)", ErrItemsFailed, snap.ErrorCount())
	}
	return nil
}
