package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-api-client/config"
)

func TestDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	require.Equal(t, "http://localhost:8080/api/v1", cfg.API.BaseAddress)
	require.Equal(t, 30*time.Second, cfg.Timeout())
	require.Equal(t, 5*time.Minute, cfg.StaleAfter())
	require.Equal(t, 30*time.Minute, cfg.Retention())
	require.Equal(t, "file", cfg.Session.Driver)
	require.NotEmpty(t, cfg.Session.StorePath)
	require.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := `
api:
  base_address: https://dashboard.example.com/api
  timeout_ms: 5000
  default_headers:
    X-Client: dashctl
cache:
  stale_after_ms: 60000
session:
  driver: sqlite
  store_path: /tmp/dash.db
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.Equal(t, "https://dashboard.example.com/api", cfg.API.BaseAddress)
	require.Equal(t, 5*time.Second, cfg.Timeout())
	require.Equal(t, map[string]string{"X-Client": "dashctl"}, cfg.API.DefaultHeaders)
	require.Equal(t, time.Minute, cfg.StaleAfter())
	require.Equal(t, 30*time.Minute, cfg.Retention()) // Unset keeps the default
	require.Equal(t, "sqlite", cfg.Session.Driver)
	require.Equal(t, "/tmp/dash.db", cfg.Session.StorePath)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestEnvOverridesBeatFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  base_address: https://from-file\n"), 0o600))

	t.Setenv("DASHCTL_BASE_ADDRESS", "https://from-env")
	t.Setenv("DASHCTL_TIMEOUT_MS", "1500")
	t.Setenv("DASHCTL_SESSION_DRIVER", "sqlite")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.Equal(t, "https://from-env", cfg.API.BaseAddress)
	require.Equal(t, 1500*time.Millisecond, cfg.Timeout())
	require.Equal(t, "sqlite", cfg.Session.Driver)
}

func TestMalformedFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [not a mapping"), 0o600))

	_, err := config.Load(path)
	require.Error(t, err)
}
