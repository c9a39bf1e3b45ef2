// Package config handles application configuration from environment variables
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration
type Config struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	AdminToken      string        `env:"ADMIN_TOKEN"`

	Log      LogConfig
	Cache    CacheConfig
	Stream   StreamConfig
	Upstream UpstreamConfig
}

// LogConfig controls zerolog output
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"` // json or console
}

// CacheConfig sizes the two result caches
type CacheConfig struct {
	// StreamTTL is how long a direct URL validation is reused
	StreamTTL time.Duration `env:"STREAM_CACHE_TTL" envDefault:"5m"`
	// LookupSize is the entry cap of the id and manifest lookup cache
	LookupSize int `env:"LOOKUP_CACHE_SIZE" envDefault:"500"`
}

// StreamConfig controls direct URL probes
type StreamConfig struct {
	HeaderParam  string        `env:"HEADER_PARAM" envDefault:"_headers"`
	ProbeTimeout time.Duration `env:"PROBE_TIMEOUT" envDefault:"10s"`
}

// UpstreamConfig controls the video platform client
type UpstreamConfig struct {
	BaseURL string        `env:"UPSTREAM_BASE_URL" envDefault:"https://www.youtube.com"`
	Timeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"20s"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values a running server depends on
func (c *Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	if c.Cache.StreamTTL <= 0 {
		errs = append(errs, fmt.Errorf("STREAM_CACHE_TTL must be positive, got %s", c.Cache.StreamTTL))
	}
	if c.Cache.LookupSize <= 0 {
		errs = append(errs, fmt.Errorf("LOOKUP_CACHE_SIZE must be positive, got %d", c.Cache.LookupSize))
	}
	if c.Stream.HeaderParam == "" {
		errs = append(errs, errors.New("HEADER_PARAM must not be empty"))
	}
	if c.Stream.ProbeTimeout <= 0 {
		errs = append(errs, fmt.Errorf("PROBE_TIMEOUT must be positive, got %s", c.Stream.ProbeTimeout))
	}
	if c.Upstream.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("UPSTREAM_TIMEOUT must be positive, got %s", c.Upstream.Timeout))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// HasAdminToken returns true if cache administration requires a token
func (c *Config) HasAdminToken() bool {
	return c.AdminToken != ""
}
