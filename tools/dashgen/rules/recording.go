package rules

// RecordingRules returns a PrometheusRule CR containing pre-computed rate
// expressions used by dashboards and alert rules.
func RecordingRules() PrometheusRule {
	return newRule("classmart-recording-rules", RuleGroup{
		Name: "classmart-recording",
		Rules: []Rule{
			{
				Record: "classmart:http_requests:rate5m",
				Expr:   `sum by (path) (rate(classmart_http_requests_total[5m]))`,
			},
			{
				Record: "classmart:http_errors:rate5m",
				Expr:   `sum by (path) (rate(classmart_http_requests_total{status=~"5.."}[5m]))`,
			},
			{
				Record: "classmart:api_requests:rate5m",
				Expr:   `sum by (route, status) (rate(classmart_api_requests_total[5m]))`,
			},
			{
				Record: "classmart:api_errors:rate5m",
				Expr:   `sum(rate(classmart_api_requests_total{status=~"5..|error"}[5m]))`,
			},
			{
				Record: "classmart:query_cache_hit_ratio:rate1h",
				Expr:   `sum(rate(classmart_query_cache_hits_total[1h])) / (sum(rate(classmart_query_cache_hits_total[1h])) + sum(rate(classmart_query_cache_misses_total[1h])))`,
			},
		},
	})
}
