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

func clearEnv(t *testing.T) {
	for _, k := range []string{"DRINK_REC_DB", "DRINK_REC_CATALOG", "MCP_PROXY_URL", "MCP_PROXY_API_KEY", "OPENROUTER_MODEL"} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 8012, cfg.Port)
	assert.Equal(t, "/data/drink-rec.db", cfg.DBPath)
	assert.Empty(t, cfg.CatalogPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "http://mcp-compose-http-proxy:9876", cfg.Gateway.URL)
	assert.Equal(t, "anthropic/claude-3.5-sonnet", cfg.Gateway.Model)
	assert.Equal(t, 60, cfg.Gateway.TimeoutSecs)
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
host: 127.0.0.1
port: 9000
db_path: /tmp/drinks.db
catalog_path: ./starbucks.csv
log_level: debug
gateway:
  url: http://localhost:9876
  model: openai/gpt-4o-mini
  timeout_secs: 5
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "/tmp/drinks.db", cfg.DBPath)
	assert.Equal(t, "./starbucks.csv", cfg.CatalogPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "http://localhost:9876", cfg.Gateway.URL)
	assert.Equal(t, "openai/gpt-4o-mini", cfg.Gateway.Model)
	assert.Equal(t, 5, cfg.Gateway.TimeoutSecs)
	assert.Equal(t, "myapikey", cfg.Gateway.APIKey)
}

func TestEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DRINK_REC_DB", "/env/drinks.db")
	t.Setenv("DRINK_REC_CATALOG", "/env/starbucks.csv")
	t.Setenv("MCP_PROXY_URL", "http://proxy")
	t.Setenv("MCP_PROXY_API_KEY", "secret")
	t.Setenv("OPENROUTER_MODEL", "some/model")

	cfg, err := Load(writeConfig(t, "db_path: /file/drinks.db\n"))
	require.NoError(t, err)

	assert.Equal(t, "/env/drinks.db", cfg.DBPath)
	assert.Equal(t, "/env/starbucks.csv", cfg.CatalogPath)
	assert.Equal(t, "http://proxy", cfg.Gateway.URL)
	assert.Equal(t, "secret", cfg.Gateway.APIKey)
	assert.Equal(t, "some/model", cfg.Gateway.Model)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "port: [1, 2"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "port: 70000\n"))
	assert.ErrorContains(t, err, "port")

	_, err = Load(writeConfig(t, "log_level: verbose\n"))
	assert.ErrorContains(t, err, "log_level")
}
