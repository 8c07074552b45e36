package chart

import (
	"sort"
	"strings"

	"github.com/go-echarts/go-echarts/v2/components"

	"github.com/arifinrio95/auto-dashboard/internal/table"
)

// renderer is the registry entry for one chart kind.
type renderer struct {
	// needsY rejects single-column specs.
	needsY bool
	// build computes chart data from the (possibly aggregated) table.
	build func(t *table.Table, x, y string) (*Chart, error)
	// render draws built data.
	render func(c *Chart) components.Charter
}

var registry = map[Kind]renderer{}

// register adds a chart kind to the registry.
//
// Panics:
//   - if kind is empty, build or render is nil, or kind is already registered
func register(kind Kind, r renderer) {
	if kind == "" {
		panic("chart: register with empty kind")
	}
	if r.build == nil || r.render == nil {
		panic("chart: register " + string(kind) + " with nil func")
	}
	if _, dup := registry[kind]; dup {
		panic("chart: register called twice for kind " + string(kind))
	}
	registry[kind] = r
}

func init() {
	register(KindBar, renderer{build: buildBar, render: renderBar})
	register(KindLine, renderer{build: buildLine, render: renderLine})
	register(KindArea, renderer{build: buildLine, render: renderArea})
	register(KindScatter, renderer{needsY: true, build: buildScatter, render: renderScatter})
	register(KindHistogram, renderer{build: buildHistogram, render: renderBar})
	register(KindBox, renderer{build: buildBox, render: renderBox})
	register(KindPie, renderer{build: buildPie, render: renderPie})
}

var kindAliases = map[string]Kind{
	"hist":    KindHistogram,
	"column":  KindBar,
	"boxes":   KindBox,
	"whisker": KindBox,
	"donut":   KindPie,
}

// Lookup resolves a chart type name from model output to a registered kind.
//
// Matching is case-insensitive, treats spaces and hyphens as underscores and
// ignores a trailing "chart", "plot" or "graph", so "Scatter Plot",
// "bar_chart" and "boxplot" all resolve.
func Lookup(name string) (Kind, bool) {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	for _, suffix := range []string{"_chart", "_plot", "_graph", "chart", "plot", "graph"} {
		if trimmed := strings.TrimSuffix(s, suffix); trimmed != s && trimmed != "" {
			s = trimmed
			break
		}
	}
	if k, ok := kindAliases[s]; ok {
		return k, true
	}
	k := Kind(s)
	_, ok := registry[k]
	return k, ok
}

// Kinds returns the registered kinds, sorted.
func Kinds() []Kind {
	out := make([]Kind, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
