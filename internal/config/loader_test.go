package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfigFile points HOME at a temp dir and writes a config file into
// the allowed location with safe permissions.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "apptd")
	require.NoError(t, os.MkdirAll(dir, 0700))

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("APPTD_EXTRACTOR_API_KEY", "env-key")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "googleai", cfg.Extractor.Provider)
	assert.Equal(t, "Asia/Kolkata", cfg.Pipeline.Timezone)
	assert.Equal(t, 10*time.Minute, cfg.Pipeline.CacheTTL.Duration())
}

func TestLoad_FromYAMLFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9000
  shutdown_timeout: 5s
extractor:
  provider: openai
  model: gpt-4o-mini
  api_key: file-key
  timeout: 30s
pipeline:
  timezone: UTC
  cache_ttl: 2m
  cache_max_entries: 50
logging:
  level: debug
  format: console
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, "openai", cfg.Extractor.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Extractor.Model)
	assert.Equal(t, "file-key", cfg.Extractor.APIKey.Value())
	assert.Equal(t, 30*time.Second, cfg.Extractor.Timeout.Duration())
	assert.Equal(t, "UTC", cfg.Pipeline.Timezone)
	assert.Equal(t, 2*time.Minute, cfg.Pipeline.CacheTTL.Duration())
	assert.Equal(t, 50, cfg.Pipeline.CacheMaxEntries)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9000
extractor:
  api_key: file-key
`)
	t.Setenv("APPTD_SERVER_PORT", "9100")
	t.Setenv("APPTD_EXTRACTOR_API_KEY", "env-key")
	t.Setenv("APPTD_PIPELINE_CACHE_TTL", "30s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port, "env beats file")
	assert.Equal(t, "env-key", cfg.Extractor.APIKey.Value())
	assert.Equal(t, 30*time.Second, cfg.Pipeline.CacheTTL.Duration())
}

func TestLoad_ValidationFailureSurfaces(t *testing.T) {
	path := writeConfigFile(t, `
extractor:
  provider: cohere
  api_key: some-key
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown extractor provider")
}

func TestLoad_RejectsInsecurePermissions(t *testing.T) {
	path := writeConfigFile(t, "server:\n  port: 9000\n")
	require.NoError(t, os.Chmod(path, 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insecure config file permissions")
}

func TestLoad_RejectsPathOutsideAllowedDirs(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	outside := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(outside, []byte("server:\n  port: 9000\n"), 0600))

	_, err := Load(outside)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file must be in")
}

func TestLoad_RejectsOversizedFile(t *testing.T) {
	big := make([]byte, maxConfigFileSize+1)
	for i := range big {
		big[i] = '#'
	}
	path := writeConfigFile(t, string(big))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file too large")
}
