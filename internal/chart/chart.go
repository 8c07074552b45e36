// Package chart maps a validated chart suggestion onto a concrete chart.
//
// Chart kinds come from a fixed registry; a kind name from model output is
// only ever used as a lookup key. Build computes the chart's data (with any
// requested aggregation applied first) and Render turns it into a
// go-echarts chart.
package chart

import (
	"fmt"
	"strings"

	"github.com/arifinrio95/auto-dashboard/internal/plan"
	"github.com/arifinrio95/auto-dashboard/internal/table"
)

// Kind is a registered chart kind.
type Kind string

const (
	KindBar       Kind = "bar"
	KindLine      Kind = "line"
	KindScatter   Kind = "scatter"
	KindHistogram Kind = "histogram"
	KindBox       Kind = "box"
	KindPie       Kind = "pie"
	KindArea      Kind = "area"
)

// Point is one plotted value. X keeps the typed cell so numeric axes can
// stay numeric.
type Point struct {
	X table.Value
	Y float64
}

// Label is the display string of the point's X value.
func (p Point) Label() string { return table.FormatValue(p.X) }

// Box is the five-number summary of one box.
type Box struct {
	Label string
	N     int

	Min, Q1, Median, Q3, Max float64
}

// Chart is a built chart, ready to render.
type Chart struct {
	Kind        Kind
	Title       string
	XName       string
	YName       string
	Aggregation string
	// XNumeric reports a numeric x axis (scatter only).
	XNumeric bool

	Points []Point
	Boxes  []Box
}

// Build validates spec against t and computes the chart.
//
// Only the first two columns are used: columns[0] is the x/category axis and
// columns[1], when present, the y/value axis. With an aggregation, t is
// first grouped by columns[0] (first-seen group order) and columns[1] is
// aggregated, and the chart is drawn from that result.
//
// Errors:
//   - an unknown chart type, a column missing from t, too few columns for the
//     kind, or a non-numeric value column returns *UnsupportedChartError
func Build(t *table.Table, spec plan.ChartSpec) (*Chart, error) {
	kind, ok := Lookup(spec.ChartType)
	if !ok {
		return nil, &UnsupportedChartError{ChartType: spec.ChartType, Reason: "unknown chart type"}
	}
	r := registry[kind]

	if t == nil {
		return nil, &UnsupportedChartError{ChartType: spec.ChartType, Reason: "no table"}
	}
	if len(spec.Columns) == 0 {
		return nil, &UnsupportedChartError{ChartType: spec.ChartType, Reason: "no columns"}
	}
	for _, c := range spec.Columns {
		if !t.Has(c) {
			return nil, &UnsupportedChartError{
				ChartType: spec.ChartType,
				Reason:    fmt.Sprintf("column %q not in table", c),
			}
		}
	}

	x := spec.Columns[0]
	y := ""
	if len(spec.Columns) > 1 {
		y = spec.Columns[1]
	}
	if r.needsY && y == "" {
		return nil, &UnsupportedChartError{ChartType: spec.ChartType, Reason: "needs two columns"}
	}

	src := t
	agg, ok := plan.NormalizeAggregation(spec.Aggregation)
	if !ok {
		return nil, &UnsupportedChartError{
			ChartType: spec.ChartType,
			Reason:    fmt.Sprintf("unsupported aggregation %q", spec.Aggregation),
		}
	}
	if agg != "" {
		var err error
		src, err = Aggregate(t, x, y, agg)
		if err != nil {
			return nil, unsupported(spec.ChartType, err)
		}
		y = src.Names()[1]
	}

	c, err := r.build(src, x, y)
	if err != nil {
		return nil, unsupported(spec.ChartType, err)
	}
	c.Kind = kind
	c.Aggregation = agg
	c.Title = strings.TrimSpace(spec.Explanation)
	if c.Title == "" {
		c.Title = fmt.Sprintf("%s of %s", kind, strings.Join(spec.Columns, ", "))
	}
	return c, nil
}

func unsupported(chartType string, err error) error {
	if _, ok := err.(*UnsupportedChartError); ok {
		return err
	}
	return &UnsupportedChartError{ChartType: chartType, Reason: err.Error(), Err: err}
}

// Subtitle describes what the chart plots, e.g. "sum of units by region".
func (c *Chart) Subtitle() string {
	switch {
	case c.Aggregation != "" && c.YName != "":
		return fmt.Sprintf("%s of %s by %s", c.Aggregation, c.YName, c.XName)
	case c.YName != "":
		return fmt.Sprintf("%s by %s", c.YName, c.XName)
	default:
		return c.XName
	}
}

// Labels returns the point labels in point order.
func (c *Chart) Labels() []string {
	out := make([]string, len(c.Points))
	for i, p := range c.Points {
		out[i] = p.Label()
	}
	return out
}
