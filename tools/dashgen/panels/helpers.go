// Package panels provides Grafana dashboard panel builders for classmart
// metrics: the mock backend's HTTP surface and the client's backend calls,
// query cache, feed and identity handshake.
package panels

import (
	"fmt"

	"github.com/grafana/grafana-foundation-sdk/go/cog"
	"github.com/grafana/grafana-foundation-sdk/go/cog/variants"
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"
	"github.com/grafana/grafana-foundation-sdk/go/prometheus"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// Scrape job names.
const (
	BackendJob = "classmart-mock"
	ClientJob  = "cmart"
)

// Grid sizes on Grafana's 24-column layout. Four stats or two time series
// fill a row.
const (
	statSpan   = 6
	statHeight = 4
	tsSpan     = 12
	tsHeight   = 8
)

// target is one query of a panel.
type target struct {
	expr   string
	legend string
}

func queries(targets []target) []cog.Builder[variants.Dataquery] {
	out := make([]cog.Builder[variants.Dataquery], 0, len(targets))
	for i, t := range targets {
		out = append(out, prometheus.NewDataqueryBuilder().
			Expr(t.expr).
			LegendFormat(t.legend).
			RefId(string(rune('A'+i))))
	}
	return out
}

func datasource() dashboard.DataSourceRef {
	return dashboard.DataSourceRef{
		Type: cog.ToPtr("prometheus"),
		Uid:  cog.ToPtr("${datasource}"),
	}
}

// series starts a line chart with the shared styling; callers add unit,
// legend and thresholds.
func series(title, description string, targets ...target) *timeseries.PanelBuilder {
	b := timeseries.NewPanelBuilder().
		Title(title).
		Description(description).
		Datasource(datasource()).
		Height(tsHeight).
		Span(tsSpan).
		FillOpacity(10).
		LineWidth(2).
		Tooltip(common.NewVizTooltipOptionsBuilder().
			Mode(common.TooltipDisplayModeMulti).
			Sort(common.SortOrderDescending)).
		ColorScheme(dashboard.NewFieldColorBuilder().
			Mode(dashboard.FieldColorModeIdPaletteClassic)).
		Thresholds(steps(step{color: "green"})).
		DrawStyle(common.GraphDrawStyleLine)
	for _, q := range queries(targets) {
		b.WithTarget(q)
	}
	return b
}

// single starts a single-value stat panel colored by its thresholds.
func single(title, description, expr string) *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title(title).
		Description(description).
		Datasource(datasource()).
		Height(statHeight).
		Span(statSpan).
		WithTarget(queries([]target{{expr: expr}})[0]).
		ColorScheme(dashboard.NewFieldColorBuilder().
			Mode(dashboard.FieldColorModeIdThresholds)).
		GraphMode(common.BigValueGraphModeNone)
}

// step is one threshold boundary. The first step has no value and colors
// everything below the next one.
type step struct {
	from  *float64
	color string
}

func at(v float64) *float64 { return &v }

func steps(s ...step) cog.Builder[dashboard.ThresholdsConfig] {
	out := make([]dashboard.Threshold, 0, len(s))
	for _, st := range s {
		out = append(out, dashboard.Threshold{Value: st.from, Color: st.color})
	}
	return dashboard.NewThresholdsConfigBuilder().
		Mode(dashboard.ThresholdsModeAbsolute).
		Steps(out)
}

func tableLegend(calcs ...string) *common.VizLegendOptionsBuilder {
	return common.NewVizLegendOptionsBuilder().
		DisplayMode(common.LegendDisplayModeTable).
		Placement(common.LegendPlacementBottom).
		Calcs(calcs)
}

func sel(metric, job string, matchers ...string) string {
	m := fmt.Sprintf(`job="%s"`, job)
	for _, x := range matchers {
		m += "," + x
	}
	return fmt.Sprintf("%s{%s}", metric, m)
}

func quantile(q float64, histogram, job string) string {
	return fmt.Sprintf(
		`histogram_quantile(%.2f, sum(rate(%s[5m])) by (le))`,
		q, sel(histogram+"_bucket", job),
	)
}
