package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		envVars   map[string]string
		wantErr   string
		checkFunc func(t *testing.T, cfg *Config)
	}{
		{
			name: "empty config gets defaults",
			yaml: ``,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "http://localhost:8000/api/v1", cfg.API.BaseURL)
				assert.Equal(t, 10*time.Second, cfg.API.Timeout)
				assert.False(t, cfg.API.RateLimit.Enabled())
				assert.Equal(t, time.Duration(0), cfg.Cache.StaleTime)
				assert.Equal(t, 30*time.Second, cfg.Feed.RefreshInterval)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "text", cfg.Logging.Format)
				assert.Empty(t, cfg.Host.InitData)
			},
		},
		{
			name: "rate limit burst defaults to one",
			yaml: `
api:
  rate_limit:
    per_second: 2.5
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.True(t, cfg.API.RateLimit.Enabled())
				assert.Equal(t, 2.5, cfg.API.RateLimit.PerSecond)
				assert.Equal(t, 1, cfg.API.RateLimit.Burst)
			},
		},
		{
			name: "env var substitution",
			yaml: `
host:
  init_data: "${TEST_CLASSMART_INIT_DATA}"
`,
			envVars: map[string]string{
				"TEST_CLASSMART_INIT_DATA": "user=%7B%22id%22%3A1%7D&hash=abc",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "user=%7B%22id%22%3A1%7D&hash=abc", cfg.Host.InitData)
			},
		},
		{
			name: "relative base url rejected",
			yaml: `
api:
  base_url: /api/v1
`,
			wantErr: `api.base_url must be an absolute URL (got "/api/v1")`,
		},
		{
			name: "negative stale time rejected",
			yaml: `
cache:
  stale_time: -1s
`,
			wantErr: "cache.stale_time must not be negative",
		},
		{
			name: "refresh interval below one second rejected",
			yaml: `
feed:
  refresh_interval: 100ms
`,
			wantErr: "feed.refresh_interval must be at least 1s",
		},
		{
			name: "invalid log format",
			yaml: `
logging:
  format: xml
`,
			wantErr: `logging.format must be one of: text, json (got "xml")`,
		},
		{
			name:    "invalid YAML",
			yaml:    `{{{not valid yaml`,
			wantErr: "parsing config YAML",
		},
		{
			name: "full config with overrides",
			yaml: `
api:
  base_url: https://market.example.com/api/v1
  timeout: 5s
  rate_limit:
    per_second: 4
    burst: 8
host:
  init_data: query_id=1&hash=ff
  bot_token: "123:abc"
cache:
  stale_time: 1m
feed:
  refresh_interval: 2m
logging:
  level: debug
  format: json
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "https://market.example.com/api/v1", cfg.API.BaseURL)
				assert.Equal(t, 5*time.Second, cfg.API.Timeout)
				assert.Equal(t, 4.0, cfg.API.RateLimit.PerSecond)
				assert.Equal(t, 8, cfg.API.RateLimit.Burst)
				assert.Equal(t, "query_id=1&hash=ff", cfg.Host.InitData)
				assert.Equal(t, "123:abc", cfg.Host.BotToken)
				assert.Equal(t, time.Minute, cfg.Cache.StaleTime)
				assert.Equal(t, 2*time.Minute, cfg.Feed.RefreshInterval)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Only parallelize tests that don't modify env vars.
			if len(tt.envVars) == 0 {
				t.Parallel()
			}

			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))

			cfg, err := Load(path)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.checkFunc != nil {
				tt.checkFunc(t, cfg)
			}
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := Load("/nonexistent/path/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestFinalize_CollectsAllErrors(t *testing.T) {
	t.Parallel()

	_, err := Finalize(&Config{
		API:     APIConfig{BaseURL: "not a url", Timeout: -time.Second},
		Logging: LoggingConfig{Format: "xml"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.base_url")
	assert.Contains(t, err.Error(), "api.timeout must not be negative")
	assert.Contains(t, err.Error(), "logging.format")
}
