package config

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, env map[string]string) (*Config, error) {
	t.Helper()
	return LoadWith(context.Background(), envconfig.MapLookuper(env))
}

func TestLoad_Success(t *testing.T) {
	cfg, err := load(t, map[string]string{
		"ENVPUSH_LISTEN_ADDR":      "0.0.0.0:9090",
		"ENVPUSH_DB_PATH":          "/tmp/test.db",
		"ENVPUSH_GITHUB_API_URL":   "https://ghe.example.com/api/v3/",
		"ENVPUSH_GITHUB_TIMEOUT":   "5s",
		"ENVPUSH_RUN_TIMEOUT":      "2m",
		"ENVPUSH_RUN_RETENTION":    "30m",
		"ENVPUSH_CACHE_PUBLIC_KEY": "true",
		"ENVPUSH_HISTORY_LIMIT":    "10",
		"ENVPUSH_LOG_LEVEL":        "debug",
	})

	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, "https://ghe.example.com/api/v3/", cfg.GitHubAPIURL)
	assert.Equal(t, 5*time.Second, cfg.GitHubTimeout)
	assert.Equal(t, 2*time.Minute, cfg.RunTimeout)
	assert.Equal(t, 30*time.Minute, cfg.RunRetention)
	assert.True(t, cfg.CachePublicKey)
	assert.Equal(t, 10, cfg.HistoryLimit)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(t, map[string]string{})

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, "envpush.db", cfg.DBPath)
	assert.Equal(t, "https://api.github.com/", cfg.GitHubAPIURL)
	assert.Equal(t, 30*time.Second, cfg.GitHubTimeout)
	assert.Equal(t, 10*time.Minute, cfg.RunTimeout)
	assert.Equal(t, time.Hour, cfg.RunRetention)
	assert.False(t, cfg.CachePublicKey)
	assert.Equal(t, 50, cfg.HistoryLimit)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoad_InvalidDuration(t *testing.T) {
	_, err := load(t, map[string]string{"ENVPUSH_RUN_TIMEOUT": "soon"})

	require.Error(t, err)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "non-positive github timeout",
			env:  map[string]string{"ENVPUSH_GITHUB_TIMEOUT": "0s"},
			want: "ENVPUSH_GITHUB_TIMEOUT must be positive",
		},
		{
			name: "retention not above run timeout",
			env:  map[string]string{"ENVPUSH_RUN_TIMEOUT": "1h", "ENVPUSH_RUN_RETENTION": "1h"},
			want: "ENVPUSH_RUN_RETENTION (1h0m0s) must be greater than ENVPUSH_RUN_TIMEOUT (1h0m0s)",
		},
		{
			name: "bad log level",
			env:  map[string]string{"ENVPUSH_LOG_LEVEL": "verbose"},
			want: `ENVPUSH_LOG_LEVEL has invalid value "verbose"`,
		},
		{
			name: "zero history limit",
			env:  map[string]string{"ENVPUSH_HISTORY_LIMIT": "0"},
			want: "ENVPUSH_HISTORY_LIMIT must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(t, tt.env)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
