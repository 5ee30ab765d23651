package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
)

// HealthzStat shows whether the mock backend's last health probe passed.
func HealthzStat() *stat.PanelBuilder {
	return single("Healthz", "Health check status (1 = ok, 0 = failing)",
		sel("classmart_healthz_up", BackendJob)).
		Thresholds(steps(step{color: "red"}, step{from: at(1), color: "green"})).
		ColorMode(common.BigValueColorModeBackground).
		TextMode(common.BigValueTextModeValue)
}

// UptimeStat shows time since the mock backend started.
func UptimeStat() *stat.PanelBuilder {
	return single("Uptime", "Time since the mock backend started",
		`time() - `+sel("process_start_time_seconds", BackendJob)).
		Unit("s").
		Thresholds(steps(step{color: "green"}))
}

// HandshakeSuccessStat shows the share of attempted identity handshakes the
// backend accepted.
func HandshakeSuccessStat() *stat.PanelBuilder {
	ok := `sum(increase(` + sel("classmart_identity_handshakes_total", ClientJob, `result="success"`) + `[1h]))`
	tried := `sum(increase(` + sel("classmart_identity_handshakes_total", ClientJob, `result=~"success|failure"`) + `[1h]))`
	return single("Handshake Success %", "Accepted init-token handshakes as percentage of attempts (1h)",
		ok+" / "+tried+" * 100").
		Unit("percent").
		Thresholds(steps(step{color: "red"}, step{from: at(90), color: "green"})).
		ColorMode(common.BigValueColorModeBackground)
}

// CacheHitStat shows the client's query cache hit ratio.
func CacheHitStat() *stat.PanelBuilder {
	return single("Cache Hit %", "Listing reads served from the query cache (1h)",
		`classmart:query_cache_hit_ratio:rate1h * 100`).
		Unit("percent").
		Thresholds(steps(step{color: "green"}))
}
