package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("DB_DSN", "postgres://localhost/test")
		t.Setenv("JWT_SECRET", "secret")

		cfg, err := Load()
		require.NoError(t, err)
		assert.False(t, cfg.IsProduction)
		assert.Equal(t, ":8080", cfg.HTTPAddr)
		assert.Equal(t, BackendPostgres, cfg.RemoteBackend)
		assert.Equal(t, 8*time.Hour, cfg.JWTAccessTokenTTL)
		assert.Equal(t, 12, cfg.BcryptCost)
		assert.Equal(t, 30*time.Minute, cfg.SessionIdleTTL)
		assert.Equal(t, 50, cfg.NotificationBuffer)
		assert.Empty(t, cfg.RefetchCron)
	})

	t.Run("Memory backend needs no DSN", func(t *testing.T) {
		t.Setenv("REMOTE_BACKEND", BackendMemory)
		t.Setenv("DB_DSN", "")
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("REFETCH_CRON", "@every 5m")
		t.Setenv("SESSION_IDLE_TTL", "0")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "@every 5m", cfg.RefetchCron)
		assert.Equal(t, time.Duration(0), cfg.SessionIdleTTL)
	})

	t.Run("Invalid values", func(t *testing.T) {
		cases := map[string][2]string{
			"Missing DSN":        {"DB_DSN", ""},
			"Unknown backend":    {"REMOTE_BACKEND", "mongo"},
			"Bad TTL":            {"JWT_ACCESS_TOKEN_TTL", "forever"},
			"Bad buffer":         {"NOTIFICATION_BUFFER", "lots"},
			"Missing JWT secret": {"JWT_SECRET", ""},
			"Bad idle TTL":       {"SESSION_IDLE_TTL", "soon"},
		}
		for name, kv := range cases {
			t.Run(name, func(t *testing.T) {
				t.Setenv("DB_DSN", "postgres://localhost/test")
				t.Setenv("JWT_SECRET", "secret")
				t.Setenv(kv[0], kv[1])

				_, err := Load()
				assert.Error(t, err)
			})
		}
	})
}
