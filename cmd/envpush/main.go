package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	githubadapter "github.com/ericfisherdev/envpush/internal/adapter/driven/github"
	sodiumadapter "github.com/ericfisherdev/envpush/internal/adapter/driven/sodium"
	sqliteadapter "github.com/ericfisherdev/envpush/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/envpush/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/envpush/internal/adapter/driving/web"
	"github.com/ericfisherdev/envpush/internal/application"
	"github.com/ericfisherdev/envpush/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Load configuration.
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"github_api_url", cfg.GitHubAPIURL,
		"run_timeout", cfg.RunTimeout,
		"cache_public_key", cfg.CachePublicKey,
	)

	// 3. Open database and apply migrations.
	db, err := sqliteadapter.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Wire adapters and services. Each run builds its own GitHub client
	// from the token it was submitted with.
	runStore := sqliteadapter.NewRunRepo(db)
	clients := githubadapter.NewClientFactory(cfg.GitHubAPIURL, cfg.GitHubTimeout)
	provisionSvc := application.NewProvisionService(clients, sodiumadapter.NewSealer(), cfg.CachePublicKey, slog.Default())

	// Runs derive from runCtx so shutdown cancels them between items.
	runCtx, cancelRuns := context.WithCancel(context.Background())
	defer cancelRuns()

	registry, err := application.NewRunRegistry(runCtx, provisionSvc, runStore, cfg.RunTimeout, cfg.RunRetention, slog.Default())
	if err != nil {
		return err
	}
	defer registry.Close()

	// 5. Register API and GUI routes.
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, httphandler.NewHandler(registry, runStore, cfg.HistoryLimit, slog.Default()))
	webhandler.RegisterRoutes(mux, webhandler.NewHandler(registry, runStore, cfg.HistoryLimit, slog.Default()))

	handler := httphandler.ApplyMiddleware(mux, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	slog.Info("envpush started", "listen_addr", cfg.ListenAddr)

	// 6. Wait for shutdown signal or a listener failure.
	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	// 7. Graceful shutdown: drain HTTP, then stop in-flight runs and wait
	// for their history to be written.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	cancelRuns()
	registry.Wait()

	slog.Info("shutdown complete")
	return nil
}
