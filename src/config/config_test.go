package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const minimalYAML = `
name: stock-watch
host: 127.0.0.1
port: 8000
storage:
  db_type: sqlite
  db_path: test.db
upstream:
  api_key: demo
`

// -----------------------------------------------------------------------------

func TestDefaultsFillPolicyTable(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.RateLimit.MaxCalls)
	assert.Equal(t, 60, cfg.RateLimit.WindowSeconds)
	assert.Equal(t, 60, cfg.TTL.QuoteSeconds)
	assert.Equal(t, 3600, cfg.TTL.SearchSeconds)
	assert.Equal(t, 1800, cfg.TTL.ChartSeconds)
	assert.Equal(t, 300, cfg.TTL.OverviewSeconds)
	assert.Equal(t, 50, cfg.Watchlist.MaxSize)
	assert.Equal(t, "memory", cfg.FastStore.Type)
	assert.Equal(t, "https://www.alphavantage.co/query", cfg.Upstream.BaseURL)
}

// -----------------------------------------------------------------------------

func TestExplicitValuesWin(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, minimalYAML+`
rate_limit:
  max_calls: 10
  window_seconds: 120
ttl:
  quote_seconds: 30
`))
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.RateLimit.MaxCalls)
	assert.Equal(t, 120, cfg.RateLimit.WindowSeconds)
	assert.Equal(t, 30, cfg.TTL.QuoteSeconds)
	assert.Equal(t, 3600, cfg.TTL.SearchSeconds, "untouched fields still default")
}

// -----------------------------------------------------------------------------

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ALPHA_VANTAGE_API_KEY", "secret-key")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := NewConfig(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "secret-key", cfg.Upstream.APIKey)
	assert.Equal(t, "redis", cfg.FastStore.Type)
	assert.Equal(t, "redis:6379", cfg.FastStore.RedisAddr)
}

// -----------------------------------------------------------------------------

func TestValidationRejectsMissingAPIKey(t *testing.T) {
	t.Setenv("ALPHA_VANTAGE_API_KEY", "")

	_, err := NewConfig(writeConfig(t, `
name: stock-watch
host: 127.0.0.1
port: 8000
storage:
  db_type: sqlite
  db_path: test.db
`))
	assert.Error(t, err)
}

// -----------------------------------------------------------------------------

func TestValidationRejectsBadPort(t *testing.T) {
	_, err := NewConfig(writeConfig(t, `
name: stock-watch
host: 127.0.0.1
port: 80
storage:
  db_type: sqlite
  db_path: test.db
upstream:
  api_key: demo
`))
	assert.Error(t, err)
}

// -----------------------------------------------------------------------------

func TestMissingFileFails(t *testing.T) {
	_, err := NewConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
