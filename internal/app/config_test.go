package app

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"BACKEND_URL", "APP_ENV", "SESSION_TTL", "SESSION_COOKIE", "EXPIRY_SCAN_CRON"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:8000/api", cfg.BackendURL)
	require.Equal(t, 12*time.Hour, cfg.SessionTTL)
	require.Equal(t, "pharmaflow_session", cfg.SessionCookie)
	require.Equal(t, "0 6 * * *", cfg.ExpiryScanCron)
	require.False(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("BACKEND_URL", "https://supply.example.org/api")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "10")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.True(t, cfg.IsProduction())
	require.Equal(t, "https://supply.example.org/api", cfg.BackendURL)
	require.Equal(t, 30*time.Minute, cfg.SessionTTL)
	require.Equal(t, 10, cfg.RateLimitPerMinute)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("BACKEND_URL", "   ")
	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv("BACKEND_URL", "http://localhost/api")
	t.Setenv("SESSION_TTL", "0s")
	_, err = LoadConfig()
	require.Error(t, err)
}
