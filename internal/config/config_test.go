package config

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp runs the test from an empty directory so no config.yaml or .env is picked up.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel())
	assert.Empty(t, cfg.Auth.APIKeys)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "https://waba.360dialog.io", cfg.Dialog360.BaseURL)
	assert.Equal(t, "https://api.clickup.com/api/v2", cfg.ClickUp.BaseURL)
	assert.Equal(t, "accessToken", cfg.ClickUp.Authentication)
	assert.Equal(t, 30*time.Second, cfg.HTTPClient.Timeout())
	assert.Equal(t, 3, cfg.RecipientRateLimit.MaxPerHour)
	assert.Equal(t, 600, cfg.Reaper.StaleThresholdSec)
}

func TestLoad_Env(t *testing.T) {
	chdirTemp(t)
	t.Setenv("NODEBRIDGE_SERVER_PORT", "9090")
	t.Setenv("NODEBRIDGE_LOG_LEVEL", "debug")
	t.Setenv("NODEBRIDGE_AUTH_API_KEYS", "one, two ,")
	t.Setenv("NODEBRIDGE_DIALOG360_API_KEY", "d360-key")
	t.Setenv("NODEBRIDGE_CLICKUP_TOKEN", "pk_1")
	t.Setenv("NODEBRIDGE_CLICKUP_AUTHENTICATION", "oAuth2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())
	assert.Equal(t, []string{"one", "two"}, cfg.Auth.APIKeys)
	assert.Equal(t, "d360-key", cfg.Dialog360.APIKey)
	assert.Equal(t, "pk_1", cfg.ClickUp.Token)
	assert.Equal(t, "oAuth2", cfg.ClickUp.Authentication)
}

func TestLoad_File(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(dir+"/config.yaml", []byte(`
server:
  port: 7000
auth:
  api_keys:
    - from-file
dialog360:
  catalog_dir: ./templates
`), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, []string{"from-file"}, cfg.Auth.APIKeys)
	assert.Equal(t, "./templates", cfg.Dialog360.CatalogDir)
}

func TestLogLevel_Invalid(t *testing.T) {
	cfg := &Config{Log: LogConfig{Level: "loud"}}
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel())
}
