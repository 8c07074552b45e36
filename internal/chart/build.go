package chart

import (
	"fmt"
	"math"
	"strconv"

	"github.com/arifinrio95/auto-dashboard/internal/table"
)

func numericColumn(t *table.Table, name string) (table.Column, error) {
	c, _ := t.Column(name)
	if c.Kind != table.KindNumeric {
		return c, fmt.Errorf("column %q is %s, want numeric", name, c.Kind)
	}
	return c, nil
}

// rowPoints pairs x and y per row, skipping rows where either is missing.
func rowPoints(t *table.Table, x, y string) ([]Point, error) {
	xcol, _ := t.Column(x)
	ycol, err := numericColumn(t, y)
	if err != nil {
		return nil, err
	}
	var pts []Point
	for r := range xcol.Values {
		xv, yv := xcol.Values[r], ycol.Values[r]
		if table.IsMissing(xv) || table.IsMissing(yv) {
			continue
		}
		f, _ := table.Float(yv)
		pts = append(pts, Point{X: xv, Y: f})
	}
	return pts, nil
}

// countPoints counts rows per distinct x in first-seen order.
func countPoints(t *table.Table, x string) []Point {
	agg, _ := Aggregate(t, x, "", "count")
	return tablePoints(agg)
}

// sumPoints sums y per distinct x in first-seen order.
func sumPoints(t *table.Table, x, y string) ([]Point, error) {
	agg, err := Aggregate(t, x, y, "sum")
	if err != nil {
		return nil, err
	}
	return tablePoints(agg), nil
}

func tablePoints(t *table.Table) []Point {
	cols := t.Columns()
	pts := make([]Point, 0, t.NumRows())
	for r := 0; r < t.NumRows(); r++ {
		f, ok := table.Float(cols[1].Values[r])
		if !ok {
			continue
		}
		pts = append(pts, Point{X: cols[0].Values[r], Y: f})
	}
	return pts
}

// buildBar plots y per row, or counts rows per x when y is absent.
func buildBar(t *table.Table, x, y string) (*Chart, error) {
	c := &Chart{XName: x, YName: y}
	if y == "" {
		c.YName = "count"
		c.Points = countPoints(t, x)
		return c, nil
	}
	pts, err := rowPoints(t, x, y)
	if err != nil {
		return nil, err
	}
	c.Points = pts
	return c, nil
}

// buildLine plots y against x in row order. With one column, the column's
// values are plotted against the row number.
func buildLine(t *table.Table, x, y string) (*Chart, error) {
	if y != "" {
		pts, err := rowPoints(t, x, y)
		if err != nil {
			return nil, err
		}
		return &Chart{XName: x, YName: y, Points: pts}, nil
	}

	col, err := numericColumn(t, x)
	if err != nil {
		return nil, err
	}
	c := &Chart{XName: "row", YName: x}
	for r, v := range col.Values {
		if f, ok := table.Float(v); ok {
			c.Points = append(c.Points, Point{X: float64(r + 1), Y: f})
		}
	}
	return c, nil
}

func buildScatter(t *table.Table, x, y string) (*Chart, error) {
	pts, err := rowPoints(t, x, y)
	if err != nil {
		return nil, err
	}
	xcol, _ := t.Column(x)
	return &Chart{XName: x, YName: y, Points: pts, XNumeric: xcol.Kind == table.KindNumeric}, nil
}

func buildPie(t *table.Table, x, y string) (*Chart, error) {
	c := &Chart{XName: x, YName: y}
	if y == "" {
		c.YName = "count"
		c.Points = countPoints(t, x)
		return c, nil
	}
	pts, err := sumPoints(t, x, y)
	if err != nil {
		return nil, err
	}
	c.Points = pts
	return c, nil
}

// buildHistogram bins a numeric x with Sturges' rule, or counts categories
// for any other kind. With a numeric y, each bin holds the sum of y instead
// of a row count.
func buildHistogram(t *table.Table, x, y string) (*Chart, error) {
	xcol, _ := t.Column(x)
	c := &Chart{XName: x, YName: "count"}

	var ycol table.Column
	if y != "" {
		var err error
		if ycol, err = numericColumn(t, y); err != nil {
			return nil, err
		}
		c.YName = y
	}

	if xcol.Kind != table.KindNumeric {
		if y == "" {
			c.Points = countPoints(t, x)
			return c, nil
		}
		pts, err := sumPoints(t, x, y)
		if err != nil {
			return nil, err
		}
		c.Points = pts
		return c, nil
	}

	var xs, ws []float64
	for r, v := range xcol.Values {
		f, ok := table.Float(v)
		if !ok {
			continue
		}
		w := 1.0
		if y != "" {
			if w, ok = table.Float(ycol.Values[r]); !ok {
				continue
			}
		}
		xs = append(xs, f)
		ws = append(ws, w)
	}
	if len(xs) == 0 {
		return c, nil
	}

	lo, hi := xs[0], xs[0]
	for _, v := range xs[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if lo == hi {
		total := 0.0
		for _, w := range ws {
			total += w
		}
		c.Points = []Point{{X: formatEdge(lo), Y: total}}
		return c, nil
	}

	bins := sturges(len(xs))
	width := (hi - lo) / float64(bins)
	sums := make([]float64, bins)
	for i, v := range xs {
		b := int((v - lo) / width)
		if b >= bins {
			b = bins - 1
		}
		sums[b] += ws[i]
	}
	for b := 0; b < bins; b++ {
		from := lo + float64(b)*width
		to := from + width
		closer := ")"
		if b == bins-1 {
			to = hi
			closer = "]"
		}
		label := "[" + formatEdge(from) + ", " + formatEdge(to) + closer
		c.Points = append(c.Points, Point{X: label, Y: sums[b]})
	}
	return c, nil
}

func sturges(n int) int {
	if n <= 1 {
		return 1
	}
	return int(math.Ceil(math.Log2(float64(n)))) + 1
}

func formatEdge(v float64) string {
	return strconv.FormatFloat(v, 'g', 4, 64)
}

// buildBox summarizes a numeric column as one box, or y per x category.
func buildBox(t *table.Table, x, y string) (*Chart, error) {
	if y == "" {
		col, err := numericColumn(t, x)
		if err != nil {
			return nil, err
		}
		var vals []float64
		for _, v := range col.Values {
			if f, ok := table.Float(v); ok {
				vals = append(vals, f)
			}
		}
		c := &Chart{XName: x, YName: x}
		if len(vals) > 0 {
			c.Boxes = []Box{summarize(x, vals)}
		}
		return c, nil
	}

	xcol, _ := t.Column(x)
	ycol, err := numericColumn(t, y)
	if err != nil {
		return nil, err
	}
	index := map[string]int{}
	var labels []string
	var groups [][]float64
	for r, xv := range xcol.Values {
		f, ok := table.Float(ycol.Values[r])
		if table.IsMissing(xv) || !ok {
			continue
		}
		k := table.Key(xv)
		g, seen := index[k]
		if !seen {
			g = len(labels)
			index[k] = g
			labels = append(labels, table.FormatValue(xv))
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], f)
	}

	c := &Chart{XName: x, YName: y}
	for g, label := range labels {
		c.Boxes = append(c.Boxes, summarize(label, groups[g]))
	}
	return c, nil
}

func summarize(label string, vals []float64) Box {
	s := sorted(vals)
	return Box{
		Label:  label,
		N:      len(s),
		Min:    s[0],
		Q1:     quantile(s, 0.25),
		Median: quantile(s, 0.5),
		Q3:     quantile(s, 0.75),
		Max:    s[len(s)-1],
	}
}
