// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/donaldgifford/classmart/tools/dashgen/panels"
)

// BuildOverview constructs the classmart overview dashboard.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("Classmart Overview").
		Uid("classmart-overview").
		Tags([]string{"classmart"}).
		Refresh("30s").
		Time("now-6h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	b.WithRow(dashboard.NewRowBuilder("Overview").
		WithPanel(panels.HealthzStat()).
		WithPanel(panels.UptimeStat()).
		WithPanel(panels.HandshakeSuccessStat()).
		WithPanel(panels.CacheHitStat()))

	b.WithRow(dashboard.NewRowBuilder("Mock Backend").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.LatencyPercentiles()).
		WithPanel(panels.ErrorRate()).
		WithPanel(panels.RejectedRate()))

	b.WithRow(dashboard.NewRowBuilder("Client").
		WithPanel(panels.APICallsRate()).
		WithPanel(panels.APILatency()).
		WithPanel(panels.CacheActivity()).
		WithPanel(panels.FeedActivity()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}
