// Package config provides configuration loading for apptd.
//
// Configuration is loaded from a YAML file, then overridden with environment
// variables, with hardcoded defaults filling the gaps.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the complete apptd configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Extractor     ExtractorConfig     `koanf:"extractor"`
	Pipeline      PipelineConfig      `koanf:"pipeline"`
	Logging       LoggingConfig       `koanf:"logging"`
	Observability ObservabilityConfig `koanf:"observability"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// ExtractorConfig holds extraction service client configuration.
type ExtractorConfig struct {
	Provider   string   `koanf:"provider"` // "googleai", "openai", "disabled"
	Model      string   `koanf:"model"`
	APIKey     Secret   `koanf:"api_key"`
	BaseURL    string   `koanf:"base_url"`
	Timeout    Duration `koanf:"timeout"`
	MaxRetries int      `koanf:"max_retries"`
	RateLimit  float64  `koanf:"rate_limit"` // requests per second
	Burst      int      `koanf:"burst"`
}

// PipelineConfig holds pipeline and cache configuration.
type PipelineConfig struct {
	Timezone        string   `koanf:"timezone"`
	CacheTTL        Duration `koanf:"cache_ttl"`
	CacheMaxEntries int      `koanf:"cache_max_entries"`

	// Guardrail floors. Zero values fall back to the pipeline defaults.
	EntityFloor        float64 `koanf:"entity_floor"`
	NormalizePreFloor  float64 `koanf:"normalize_pre_floor"`
	NormalizePostFloor float64 `koanf:"normalize_post_floor"`
}

// LoggingConfig holds structured logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // json, console
}

// ObservabilityConfig holds metrics configuration.
type ObservabilityConfig struct {
	Enabled     bool   `koanf:"enabled"`
	ServiceName string `koanf:"service_name"`
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if cfg.Extractor.Provider == "" {
		cfg.Extractor.Provider = "googleai"
	}
	if cfg.Extractor.Timeout == 0 {
		cfg.Extractor.Timeout = Duration(60 * time.Second)
	}
	if cfg.Extractor.MaxRetries == 0 {
		cfg.Extractor.MaxRetries = 3
	}

	if cfg.Pipeline.Timezone == "" {
		cfg.Pipeline.Timezone = "Asia/Kolkata"
	}
	if cfg.Pipeline.CacheTTL == 0 {
		cfg.Pipeline.CacheTTL = Duration(10 * time.Minute)
	}
	if cfg.Pipeline.CacheMaxEntries == 0 {
		cfg.Pipeline.CacheMaxEntries = 1000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "apptd"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	switch c.Extractor.Provider {
	case "googleai", "openai", "disabled":
	default:
		return fmt.Errorf("unknown extractor provider: %q", c.Extractor.Provider)
	}
	if c.Extractor.Provider != "disabled" && !c.Extractor.APIKey.IsSet() {
		return fmt.Errorf("extractor api_key required for provider %q", c.Extractor.Provider)
	}

	if c.Pipeline.CacheTTL <= 0 {
		return errors.New("cache TTL must be positive")
	}
	for _, floor := range []float64{
		c.Pipeline.EntityFloor,
		c.Pipeline.NormalizePreFloor,
		c.Pipeline.NormalizePostFloor,
	} {
		if floor < 0 || floor > 1 {
			return fmt.Errorf("guardrail floor out of range: %v (must be 0-1)", floor)
		}
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format: %q", c.Logging.Format)
	}

	if c.Observability.Enabled && c.Observability.ServiceName == "" {
		return errors.New("service name required when observability is enabled")
	}

	return nil
}
