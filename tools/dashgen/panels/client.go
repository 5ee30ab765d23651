package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// APICallsRate charts client backend calls per route and status.
func APICallsRate() *timeseries.PanelBuilder {
	return series("Backend Calls", "Requests the client sent to the backend, by route and status",
		target{`classmart:api_requests:rate5m`, "{{route}} {{status}}"}).
		Unit("reqps").
		Legend(tableLegend("mean", "max"))
}

// APILatency charts client-observed backend latency.
func APILatency() *timeseries.PanelBuilder {
	const h = "classmart_api_request_duration_seconds"
	return series("Backend Latency", "Client-observed backend request duration percentiles",
		target{quantile(0.50, h, ClientJob), "p50"},
		target{quantile(0.99, h, ClientJob), "p99"}).
		Unit("s")
}

// CacheActivity charts cache hits, misses, shared in-flight reads and
// invalidations.
func CacheActivity() *timeseries.PanelBuilder {
	rate := func(m string) string { return `rate(` + sel(m, ClientJob) + `[5m])` }
	return series("Query Cache", "Listing cache reads and invalidations per second",
		target{rate("classmart_query_cache_hits_total"), "hits"},
		target{rate("classmart_query_cache_misses_total"), "misses"},
		target{rate("classmart_query_cache_shared_total"), "shared"},
		target{rate("classmart_query_cache_invalidations_total"), "invalidations"}).
		Unit("ops").
		Legend(tableLegend("mean", "max"))
}

// FeedActivity charts scheduled refreshes and superseded responses the feed
// dropped.
func FeedActivity() *timeseries.PanelBuilder {
	increase := func(m string) string { return `increase(` + sel(m, ClientJob) + `[5m])` }
	return series("Feed", "Scheduled refreshes and superseded responses discarded",
		target{increase("classmart_feed_scheduled_refreshes_total"), "refreshes"},
		target{increase("classmart_feed_discarded_total"), "discarded"}).
		DrawStyle(common.GraphDrawStyleBars)
}
