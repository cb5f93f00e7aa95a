package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "127.0.0.1:8080", cfg.AppURL)
	require.Equal(t, "sqlite", cfg.DatabaseDriver)
	require.Equal(t, 5, cfg.TxMaxRetries)
	require.Equal(t, 20, cfg.FeedPageSize)
	require.Equal(t, 60, cfg.RateLimit)
	require.False(t, cfg.RedisEnabled)
	require.False(t, cfg.IsProduction())
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "Postgres")
	t.Setenv("DATABASE_DSN", "postgres://localhost/assignmint")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("TX_MAX_RETRIES", "3")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "127.0.0.1:9090", cfg.AppURL)
	require.Equal(t, "postgres", cfg.DatabaseDriver)
	require.True(t, cfg.RedisEnabled)
	require.Equal(t, 3, cfg.TxMaxRetries)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("FEED_PAGE_SIZE", "500")
	t.Setenv("DATABASE_DRIVER", "mysql")
	t.Setenv("AUTH_JWT_SECRET", "short")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "FEED_PAGE_SIZE")
	require.Contains(t, err.Error(), "DATABASE_DRIVER")
	require.Contains(t, err.Error(), "AUTH_JWT_SECRET")
}

func TestLoadRejectsMalformedInteger(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_MINUTE", "lots")

	_, err := Load()
	require.EqualError(t, err, "invalid integer value for RATE_LIMIT_PER_MINUTE")
}
