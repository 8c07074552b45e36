package chart

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/arifinrio95/auto-dashboard/internal/table"
)

// Aggregate groups t by column x and aggregates column y with agg, one row
// per distinct non-missing x value in first-seen order.
//
// The result has two columns: x (same kind as the input) and the numeric
// value column, named after y. "count" may omit y, in which case it counts
// rows and the value column is named "count". Sums and means are computed in
// decimal arithmetic so grouping order never changes the result.
//
// Edge cases:
//   - rows with a missing x are dropped (they form no group)
//   - missing y cells are skipped; a group with no y values gets 0 for sum
//     and count and a missing value otherwise
//
// Errors:
//   - agg other than count without y, or with a non-numeric y column
func Aggregate(t *table.Table, x, y, agg string) (*table.Table, error) {
	xcol, ok := t.Column(x)
	if !ok {
		return nil, fmt.Errorf("column %q not in table", x)
	}

	var ycol table.Column
	if y != "" {
		ycol, ok = t.Column(y)
		if !ok {
			return nil, fmt.Errorf("column %q not in table", y)
		}
	}
	switch {
	case agg == "count":
	case y == "":
		return nil, fmt.Errorf("aggregation %q needs a value column", agg)
	case ycol.Kind != table.KindNumeric:
		return nil, fmt.Errorf("aggregation %q needs a numeric column, %q is %s", agg, y, ycol.Kind)
	}

	index := map[string]int{}
	var keys []table.Value
	var counts []int
	var vals [][]float64
	for r, xv := range xcol.Values {
		if table.IsMissing(xv) {
			continue
		}
		k := table.Key(xv)
		g, seen := index[k]
		if !seen {
			g = len(keys)
			index[k] = g
			keys = append(keys, xv)
			counts = append(counts, 0)
			vals = append(vals, nil)
		}

		if y == "" {
			counts[g]++
			continue
		}
		yv := ycol.Values[r]
		if table.IsMissing(yv) {
			continue
		}
		counts[g]++
		if f, ok := table.Float(yv); ok {
			vals[g] = append(vals[g], f)
		}
	}

	out := make([]table.Value, len(keys))
	for g := range keys {
		out[g] = reduce(agg, counts[g], vals[g])
	}

	name := y
	if name == "" {
		name = "count"
	}
	if name == x {
		name = agg + "_" + name
	}
	return table.New([]table.Column{
		{Name: x, Kind: xcol.Kind, Layout: xcol.Layout, Values: keys},
		{Name: name, Kind: table.KindNumeric, Values: out},
	})
}

func reduce(agg string, count int, vals []float64) table.Value {
	switch agg {
	case "count":
		return float64(count)
	case "sum":
		return sumDecimal(vals).InexactFloat64()
	}

	if len(vals) == 0 {
		return nil
	}
	switch agg {
	case "mean":
		return sumDecimal(vals).Div(decimal.NewFromInt(int64(len(vals)))).InexactFloat64()
	case "min":
		m := vals[0]
		for _, v := range vals[1:] {
			m = min(m, v)
		}
		return m
	case "max":
		m := vals[0]
		for _, v := range vals[1:] {
			m = max(m, v)
		}
		return m
	case "median":
		return quantile(sorted(vals), 0.5)
	}
	return nil
}

func sumDecimal(vals []float64) decimal.Decimal {
	sum := decimal.Zero
	for _, v := range vals {
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	return sum
}

func sorted(vals []float64) []float64 {
	s := append([]float64(nil), vals...)
	sort.Float64s(s)
	return s
}

// quantile uses linear interpolation between closest ranks. s must be
// sorted and non-empty.
func quantile(s []float64, p float64) float64 {
	if len(s) == 1 {
		return s[0]
	}
	pos := p * float64(len(s)-1)
	lo := int(pos)
	if lo >= len(s)-1 {
		return s[len(s)-1]
	}
	frac := decimal.NewFromFloat(pos - float64(lo))
	a := decimal.NewFromFloat(s[lo])
	b := decimal.NewFromFloat(s[lo+1])
	return a.Add(b.Sub(a).Mul(frac)).InexactFloat64()
}
