// Package metrics defines Prometheus metrics for classmart: the client's
// backend calls, its query cache and identity handshake, and the HTTP
// surface of the mock backend.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "classmart"

// API client metrics. Status is the HTTP status code, or "error" when no
// response was received.
var (
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_requests_total",
		Help:      "Total number of backend requests issued by the client.",
	}, []string{"method", "route", "status"})

	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_request_duration_seconds",
		Help:      "Duration of backend requests issued by the client in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// Query cache and feed metrics.
var (
	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "query_cache_hits_total",
		Help:      "Cached query reads served without a request.",
	})

	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "query_cache_misses_total",
		Help:      "Cached query reads that started a request.",
	})

	CacheSharedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "query_cache_shared_total",
		Help:      "Cached query reads that joined an in-flight request.",
	})

	CacheInvalidationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "query_cache_invalidations_total",
		Help:      "Query cache invalidations triggered by mutations.",
	})

	FeedDiscardedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feed_discarded_total",
		Help:      "Feed results dropped because a newer search superseded them.",
	})

	FeedRefreshesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feed_scheduled_refreshes_total",
		Help:      "Feed refreshes started by the refresh scheduler.",
	})
)

// Identity metrics.
var (
	HandshakesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "identity_handshakes_total",
		Help:      "Init-token handshakes with the backend by result.",
	}, []string{"result"}) // success, failure, skipped, canceled
)

// Mock backend HTTP metrics.
var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests served by the mock backend in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests served by the mock backend.",
	}, []string{"method", "path", "status"})

	HealthzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "healthz_up",
		Help:      "1 when the last /healthz probe succeeded.",
	})
)
