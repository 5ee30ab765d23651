package main

import "errors"

// KnownMetrics is the set of metric names exported by classmart plus
// recording rule names referenced in dashboards and alerts.
var KnownMetrics = map[string]bool{
	// Mock backend HTTP metrics.
	"classmart_http_request_duration_seconds": true,
	"classmart_http_requests_total":           true,
	"classmart_healthz_up":                    true,

	// Client backend calls.
	"classmart_api_requests_total":           true,
	"classmart_api_request_duration_seconds": true,

	// Query cache and feed.
	"classmart_query_cache_hits_total":          true,
	"classmart_query_cache_misses_total":        true,
	"classmart_query_cache_shared_total":        true,
	"classmart_query_cache_invalidations_total": true,
	"classmart_feed_discarded_total":            true,
	"classmart_feed_scheduled_refreshes_total":  true,
	"classmart_identity_handshakes_total":       true,

	// Recording rules.
	"classmart:http_requests:rate5m":         true,
	"classmart:http_errors:rate5m":           true,
	"classmart:api_requests:rate5m":          true,
	"classmart:api_errors:rate5m":            true,
	"classmart:query_cache_hit_ratio:rate1h": true,

	// Standard Prometheus metrics referenced in dashboards.
	"up":                         true,
	"process_start_time_seconds": true,
}

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
}

// DefaultConfig returns a Config that generates all artifacts into ../../deploy
// (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	return nil
}
