package rules

// AlertRules returns a PrometheusRule CR containing alert rules for the
// mock backend and long-running clients.
func AlertRules() PrometheusRule {
	return newRule("classmart-alerts", RuleGroup{
		Name: "classmart-alerts",
		Rules: []Rule{
			{
				Alert:  "ClassmartBackendDown",
				Expr:   `absent(up{job="classmart-mock"})`,
				For:    "2m",
				Labels: map[string]string{"severity": "critical"},
				Annotations: map[string]string{
					"summary":     "Classmart mock backend is down",
					"description": "The classmart-mock job has been absent for more than 2 minutes.",
				},
			},
			{
				Alert:  "ClassmartHealthzFailing",
				Expr:   `classmart_healthz_up == 0`,
				For:    "2m",
				Labels: map[string]string{"severity": "critical"},
				Annotations: map[string]string{
					"summary":     "Classmart health check is failing",
					"description": "The /healthz probe has been failing for more than 2 minutes.",
				},
			},
			{
				Alert:  "ClassmartHighErrorRate",
				Expr:   `sum(classmart:http_errors:rate5m) / sum(classmart:http_requests:rate5m) > 0.05`,
				For:    "5m",
				Labels: map[string]string{"severity": "warning"},
				Annotations: map[string]string{
					"summary":     "High HTTP error rate on the mock backend",
					"description": "More than 5% of requests are returning 5xx errors over the last 5 minutes.",
				},
			},
			{
				Alert:  "ClassmartClientBackendErrors",
				Expr:   `classmart:api_errors:rate5m > 0`,
				For:    "5m",
				Labels: map[string]string{"severity": "warning"},
				Annotations: map[string]string{
					"summary":     "Client cannot reach the backend",
					"description": "A long-running client has seen 5xx responses or transport errors for more than 5 minutes.",
				},
			},
			{
				Alert:  "ClassmartHandshakeFailures",
				Expr:   `increase(classmart_identity_handshakes_total{result="failure"}[15m]) > 0`,
				For:    "0m",
				Labels: map[string]string{"severity": "warning"},
				Annotations: map[string]string{
					"summary":     "Init data handshakes are being rejected",
					"description": "The backend rejected at least one init-token handshake in the last 15 minutes. Check the configured bot token.",
				},
			},
		},
	})
}
