// Package config handles loading and validating the classmart client
// configuration from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultRequestTimeout bounds every backend request.
const DefaultRequestTimeout = 10 * time.Second

// Config is the top-level client configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Host    HostConfig    `yaml:"host"`
	Cache   CacheConfig   `yaml:"cache"`
	Feed    FeedConfig    `yaml:"feed"`
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig defines how the client reaches the marketplace backend.
type APIConfig struct {
	BaseURL   string          `yaml:"base_url"`
	Timeout   time.Duration   `yaml:"timeout"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig defines the optional client-side request throttle.
// A zero PerSecond disables it.
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// Enabled reports whether a throttle is configured.
func (r *RateLimitConfig) Enabled() bool {
	return r.PerSecond > 0
}

// HostConfig carries the launch parameters of the embedding host.
type HostConfig struct {
	// InitData is the raw init data string the host hands to the Mini App.
	// Empty means the client runs outside the host.
	InitData string `yaml:"init_data"`
	// BotToken is only used by the mock backend to verify init data.
	BotToken string `yaml:"bot_token"`
}

// CacheConfig defines listing cache behavior.
type CacheConfig struct {
	// StaleTime is how long a fetched collection may be served without a
	// refetch. Zero refetches on every read.
	StaleTime time.Duration `yaml:"stale_time"`
}

// FeedConfig defines the periodic refresh used by `cmart listings watch`.
type FeedConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML config content, expanding ${VAR} references, applying
// defaults and validating the result.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	return Finalize(cfg)
}

// Finalize applies defaults to cfg and validates it. Used for configs that
// were assembled from flags rather than a file.
func Finalize(cfg *Config) (*Config, error) {
	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applyAPIDefaults(&cfg.API)
	applyFeedDefaults(&cfg.Feed)
	applyLoggingDefaults(&cfg.Logging)
}

func applyAPIDefaults(a *APIConfig) {
	if a.BaseURL == "" {
		a.BaseURL = "http://localhost:8000/api/v1"
	}
	if a.Timeout == 0 {
		a.Timeout = DefaultRequestTimeout
	}
	if a.RateLimit.PerSecond > 0 && a.RateLimit.Burst == 0 {
		a.RateLimit.Burst = 1
	}
}

func applyFeedDefaults(f *FeedConfig) {
	if f.RefreshInterval == 0 {
		f.RefreshInterval = 30 * time.Second
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	if u, err := url.Parse(cfg.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("api.base_url must be an absolute URL (got %q)", cfg.API.BaseURL))
	}
	if cfg.API.Timeout < 0 {
		errs = append(errs, fmt.Errorf("api.timeout must not be negative"))
	}
	if cfg.API.RateLimit.PerSecond < 0 {
		errs = append(errs, fmt.Errorf("api.rate_limit.per_second must not be negative"))
	}
	if cfg.Cache.StaleTime < 0 {
		errs = append(errs, fmt.Errorf("cache.stale_time must not be negative"))
	}
	if cfg.Feed.RefreshInterval < time.Second {
		errs = append(errs, fmt.Errorf("feed.refresh_interval must be at least 1s"))
	}

	switch cfg.Logging.Format {
	case "text", "json":
	default:
		errs = append(
			errs,
			fmt.Errorf("logging.format must be one of: text, json (got %q)", cfg.Logging.Format),
		)
	}

	return errors.Join(errs...)
}
