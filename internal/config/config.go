// Package config loads application configuration from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds the application configuration loaded from ENVPUSH_ environment
// variables. No GitHub credential is configured here: every run brings its own
// token.
type Config struct {
	ListenAddr     string        `env:"LISTEN_ADDR, default=127.0.0.1:8080"`
	DBPath         string        `env:"DB_PATH, default=envpush.db"`
	GitHubAPIURL   string        `env:"GITHUB_API_URL, default=https://api.github.com/"`
	GitHubTimeout  time.Duration `env:"GITHUB_TIMEOUT, default=30s"`
	RunTimeout     time.Duration `env:"RUN_TIMEOUT, default=10m"`
	RunRetention   time.Duration `env:"RUN_RETENTION, default=1h"`
	CachePublicKey bool          `env:"CACHE_PUBLIC_KEY, default=false"`
	HistoryLimit   int           `env:"HISTORY_LIMIT, default=50"`
	LogLevel       string        `env:"LOG_LEVEL, default=info"`
}

type envelope struct {
	Config Config `env:", prefix=ENVPUSH_"`
}

// Load reads configuration from the process environment and validates it.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration through lookuper. Tests pass an
// envconfig.MapLookuper to avoid touching the process environment.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var env envelope
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &env,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	cfg := env.Config
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SlogLevel returns the configured log level. validate guarantees it parses.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	_ = level.UnmarshalText([]byte(c.LogLevel))
	return level
}

func (c *Config) validate() error {
	var errs []error
	if c.GitHubTimeout <= 0 {
		errs = append(errs, fmt.Errorf("ENVPUSH_GITHUB_TIMEOUT must be positive, got %s", c.GitHubTimeout))
	}
	if c.RunTimeout <= 0 {
		errs = append(errs, fmt.Errorf("ENVPUSH_RUN_TIMEOUT must be positive, got %s", c.RunTimeout))
	}
	if c.RunRetention <= c.RunTimeout {
		errs = append(errs, fmt.Errorf("ENVPUSH_RUN_RETENTION (%s) must be greater than ENVPUSH_RUN_TIMEOUT (%s)", c.RunRetention, c.RunTimeout))
	}
	if c.HistoryLimit <= 0 {
		errs = append(errs, fmt.Errorf("ENVPUSH_HISTORY_LIMIT must be positive, got %d", c.HistoryLimit))
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		errs = append(errs, fmt.Errorf("ENVPUSH_LOG_LEVEL has invalid value %q: %w", c.LogLevel, err))
	}
	return errors.Join(errs...)
}
