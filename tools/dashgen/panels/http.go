package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// RequestRate charts mock backend requests per route.
func RequestRate() *timeseries.PanelBuilder {
	return series("Request Rate", "Mock backend HTTP requests per second by route",
		target{`classmart:http_requests:rate5m`, "{{path}}"}).
		Unit("reqps").
		Legend(tableLegend("mean", "max"))
}

// LatencyPercentiles charts p50, p95 and p99 mock backend latency.
func LatencyPercentiles() *timeseries.PanelBuilder {
	const h = "classmart_http_request_duration_seconds"
	return series("Latency Percentiles", "Mock backend request duration percentiles",
		target{quantile(0.50, h, BackendJob), "p50"},
		target{quantile(0.95, h, BackendJob), "p95"},
		target{quantile(0.99, h, BackendJob), "p99"}).
		Unit("s").
		Legend(tableLegend("mean", "max"))
}

// ErrorRate charts the mock backend 5xx share of all requests.
func ErrorRate() *timeseries.PanelBuilder {
	return series("Error Rate %", "HTTP 5xx error rate as percentage of total requests",
		target{`sum(classmart:http_errors:rate5m) / sum(classmart:http_requests:rate5m) * 100`, "error %"}).
		Unit("percent").
		Thresholds(steps(
			step{color: "green"},
			step{from: at(1), color: "yellow"},
			step{from: at(5), color: "red"},
		))
}

// RejectedRate charts 4xx responses by status, which is where rejected init
// data and invalid listings show up.
func RejectedRate() *timeseries.PanelBuilder {
	return series("Rejected Requests", "HTTP 4xx responses per second by status",
		target{`sum by (status) (rate(` + sel("classmart_http_requests_total", BackendJob, `status=~"4.."`) + `[5m]))`, "{{status}}"}).
		Unit("reqps")
}
