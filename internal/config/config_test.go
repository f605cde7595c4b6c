package config

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Extractor.APIKey = "test-key"
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, "googleai", cfg.Extractor.Provider)
	assert.Equal(t, 60*time.Second, cfg.Extractor.Timeout.Duration())
	assert.Equal(t, 3, cfg.Extractor.MaxRetries)
	assert.Equal(t, "Asia/Kolkata", cfg.Pipeline.Timezone)
	assert.Equal(t, 10*time.Minute, cfg.Pipeline.CacheTTL.Duration())
	assert.Equal(t, 1000, cfg.Pipeline.CacheMaxEntries)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "apptd", cfg.Observability.ServiceName)
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 9999
	cfg.Pipeline.Timezone = "UTC"
	applyDefaults(cfg)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "UTC", cfg.Pipeline.Timezone)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"disabled provider needs no key", func(c *Config) {
			c.Extractor.Provider = "disabled"
			c.Extractor.APIKey = ""
		}, ""},
		{"port too low", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "invalid server port"},
		{"negative shutdown timeout", func(c *Config) {
			c.Server.ShutdownTimeout = Duration(-time.Second)
		}, "shutdown timeout"},
		{"unknown provider", func(c *Config) { c.Extractor.Provider = "cohere" }, "unknown extractor provider"},
		{"missing api key", func(c *Config) { c.Extractor.APIKey = "" }, "api_key required"},
		{"zero cache ttl", func(c *Config) { c.Pipeline.CacheTTL = 0 }, "cache TTL"},
		{"floor above one", func(c *Config) { c.Pipeline.EntityFloor = 1.5 }, "guardrail floor"},
		{"negative floor", func(c *Config) { c.Pipeline.NormalizePostFloor = -0.1 }, "guardrail floor"},
		{"unknown log level", func(c *Config) { c.Logging.Level = "trace" }, "unknown log level"},
		{"unknown log format", func(c *Config) { c.Logging.Format = "logfmt" }, "unknown log format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestSecret_Redaction(t *testing.T) {
	s := Secret("super-secret-key")

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%s", s))
	assert.Equal(t, "Secret([REDACTED])", fmt.Sprintf("%#v", s))
	assert.Equal(t, "super-secret-key", s.Value())
	assert.True(t, s.IsSet())

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `"[REDACTED]"`, string(data))

	var empty Secret
	assert.Equal(t, "", empty.String())
	assert.False(t, empty.IsSet())
}

func TestSecret_UnmarshalKeepsRawValue(t *testing.T) {
	var s Secret
	require.NoError(t, json.Unmarshal([]byte(`"raw-key"`), &s))
	assert.Equal(t, "raw-key", s.Value())
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Duration())

	assert.Error(t, d.UnmarshalText([]byte("not-a-duration")))
	assert.Error(t, d.UnmarshalText([]byte("-5s")), "negative durations rejected")
}

func TestDuration_Marshal(t *testing.T) {
	d := Duration(10 * time.Minute)

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "10m0s", string(text))

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `"10m0s"`, string(data))
}
