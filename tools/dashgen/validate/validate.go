// Package validate checks generated dashboards and rules: every PromQL
// expression must parse and may only reference known metrics.
package validate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/prometheus/prometheus/promql/parser"
)

// Result collects validation problems. Errors fail generation; warnings
// are reported but tolerated.
type Result struct {
	Errors   []string
	Warnings []string
}

// Ok reports whether there are no errors.
func (r *Result) Ok() bool {
	return len(r.Errors) == 0
}

func (r *Result) merge(o Result) {
	r.Errors = append(r.Errors, o.Errors...)
	r.Warnings = append(r.Warnings, o.Warnings...)
}

// histogramSuffixes are the series a histogram exposes besides its name.
var histogramSuffixes = []string{"_bucket", "_sum", "_count"}

// Expr parses expr and checks every metric it selects against known.
func Expr(expr string, known map[string]bool) Result {
	var res Result

	node, err := parser.ParseExpr(expr)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("parsing %q: %v", expr, err))
		return res
	}

	parser.Inspect(node, func(n parser.Node, _ []parser.Node) error {
		vs, ok := n.(*parser.VectorSelector)
		if !ok {
			return nil
		}
		if vs.Name == "" {
			res.Warnings = append(res.Warnings, fmt.Sprintf("selector without metric name in %q", expr))
			return nil
		}
		if !isKnown(vs.Name, known) {
			res.Errors = append(res.Errors, fmt.Sprintf("unknown metric %q in %q", vs.Name, expr))
		}
		return nil
	})

	return res
}

func isKnown(name string, known map[string]bool) bool {
	if known[name] {
		return true
	}
	for _, suffix := range histogramSuffixes {
		if base, ok := strings.CutSuffix(name, suffix); ok && known[base] {
			return true
		}
	}
	return false
}

// Exprs validates a list of expressions, e.g. the rules of a rule file.
func Exprs(exprs []string, known map[string]bool) Result {
	var res Result
	for _, e := range exprs {
		if strings.TrimSpace(e) == "" {
			res.Errors = append(res.Errors, "empty expression")
			continue
		}
		res.merge(Expr(e, known))
	}
	return res
}

type panelJSON struct {
	Title   string `json:"title"`
	Type    string `json:"type"`
	Targets []struct {
		Expr string `json:"expr"`
	} `json:"targets"`
	Panels []panelJSON `json:"panels"`
}

// Dashboard validates every panel target of a built dashboard. dash is
// anything that marshals to Grafana dashboard JSON.
func Dashboard(dash any, known map[string]bool) Result {
	var res Result

	data, err := json.Marshal(dash)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("encoding dashboard: %v", err))
		return res
	}

	var doc struct {
		Panels []panelJSON `json:"panels"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("decoding dashboard: %v", err))
		return res
	}

	for i := range doc.Panels {
		res.merge(checkPanel(&doc.Panels[i], known))
	}
	return res
}

func checkPanel(p *panelJSON, known map[string]bool) Result {
	var res Result

	if p.Type == "row" {
		for i := range p.Panels {
			res.merge(checkPanel(&p.Panels[i], known))
		}
		return res
	}

	if len(p.Targets) == 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("panel %q has no targets", p.Title))
		return res
	}
	for _, t := range p.Targets {
		if t.Expr == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("panel %q has an empty expression", p.Title))
			continue
		}
		res.merge(Expr(t.Expr, known))
	}
	return res
}
