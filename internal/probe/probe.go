// Package probe profiles an in-memory table column by column.
//
// The profile drives two later stages: the model prompt (names and types) and
// the filter controls (low-cardinality columns with their enumerated values).
// Both depend on value order, so every ordering produced here is first-seen
// order and therefore stable for identical input.
package probe

import (
	"fmt"
	"sort"
	"strings"

	"github.com/arifinrio95/auto-dashboard/internal/table"
)

// DType is the profiled scalar type of a column.
type DType string

const (
	DTypeNumeric DType = "numeric"
	DTypeText    DType = "text"
	DTypeBoolean DType = "boolean"
	DTypeDate    DType = "date"
	DTypeOther   DType = "other"
)

// LowCardinality is the distinct-count bound below which a column's values
// are enumerated.
const LowCardinality = 10

// distinctCapPerColumn bounds distinct tracking per column. Columns that reach
// it report the cap as their distinct count.
const distinctCapPerColumn = 10000

// ColumnProfile is the summary of one column.
type ColumnProfile struct {
	Name          string
	DType         DType
	DistinctCount int
	// Values holds the distinct non-missing values in first-seen order. It is
	// non-nil iff DistinctCount < LowCardinality.
	Values []table.Value

	// Rows is the number of rows with a non-missing value.
	Rows int
	// Missing is the number of nil or blank cells.
	Missing int
	// Capped reports that distinct counting stopped at the per-column cap.
	Capped bool
}

// LowCardinality reports whether the column's values are enumerated.
func (p ColumnProfile) LowCardinality() bool {
	return p.DistinctCount < LowCardinality
}

// Profile computes one ColumnProfile per column of t, in column order.
//
// When to use:
//   - once per upload, before the plan request and filter controls
//
// Edge cases:
//   - a zero-row table is legal: every profile has DistinctCount 0 and an
//     empty, non-nil Values slice
//   - nil and blank cells never count as distinct values
//   - columns with no values at all profile as DTypeOther
//
// Errors:
//   - a nil or zero-column table returns *table.InvalidTableError
func Profile(t *table.Table) ([]ColumnProfile, error) {
	if t == nil || t.NumCols() == 0 {
		return nil, &table.InvalidTableError{Reason: "table has no columns"}
	}

	cols := t.Columns()
	out := make([]ColumnProfile, len(cols))
	for i, c := range cols {
		out[i] = profileColumn(c)
	}
	return out, nil
}

func profileColumn(c table.Column) ColumnProfile {
	p := ColumnProfile{Name: c.Name, DType: dtypeOf(c.Kind)}

	seen := make(map[string]struct{})
	var first []table.Value
	for _, v := range c.Values {
		if table.IsMissing(v) {
			p.Missing++
			continue
		}
		p.Rows++

		if p.Capped {
			continue
		}
		k := table.Key(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		if len(first) < LowCardinality {
			first = append(first, v)
		}
		if len(seen) >= distinctCapPerColumn {
			p.Capped = true
			seen = nil
		}
	}

	if p.Capped {
		p.DistinctCount = distinctCapPerColumn
	} else {
		p.DistinctCount = len(seen)
	}
	if p.DistinctCount < LowCardinality {
		p.Values = append(make([]table.Value, 0, len(first)), first...)
	}
	return p
}

func dtypeOf(k table.Kind) DType {
	switch k {
	case table.KindNumeric:
		return DTypeNumeric
	case table.KindText:
		return DTypeText
	case table.KindBoolean:
		return DTypeBoolean
	case table.KindDate:
		return DTypeDate
	default:
		return DTypeOther
	}
}

// FormatReport renders the uniqueness report printed by the profile command.
//
// Columns are ordered by uniqueness ratio ascending (distinct / non-missing
// rows), ties by name, so low-cardinality filter candidates come first.
// Columns without any value are listed last with an empty ratio.
func FormatReport(profiles []ColumnProfile, rows int) string {
	if rows <= 0 {
		return "uniqueness: no rows sampled"
	}

	type line struct {
		p     ColumnProfile
		ratio float64
	}
	lines := make([]line, 0, len(profiles))
	var empty []ColumnProfile
	for _, p := range profiles {
		if p.Rows <= 0 {
			empty = append(empty, p)
			continue
		}
		lines = append(lines, line{p: p, ratio: float64(p.DistinctCount) / float64(p.Rows)})
	}

	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].ratio == lines[j].ratio {
			return lines[i].p.Name < lines[j].p.Name
		}
		return lines[i].ratio < lines[j].ratio
	})

	var b strings.Builder
	fmt.Fprintf(&b, "uniqueness report:\trows=%d\n", rows)
	fmt.Fprintf(&b, "%-15s\t%-8s\t%-7s\t%-7s\tratio\tcapped\tvalues\n", "col", "type", "unique", "rows")
	for _, l := range lines {
		fmt.Fprintf(
			&b,
			"%-15s\t%-8s\t%-7d\t%-7d\t%.1f%%\t%t\t%s\n",
			l.p.Name,
			l.p.DType,
			l.p.DistinctCount,
			l.p.Rows,
			l.ratio*100,
			l.p.Capped,
			formatValues(l.p.Values),
		)
	}
	for _, p := range empty {
		fmt.Fprintf(&b, "%-15s\t%-8s\t%-7d\t%-7d\t-\tfalse\t\n", p.Name, p.DType, 0, 0)
	}

	return strings.TrimRight(b.String(), "\n")
}

func formatValues(vals []table.Value) string {
	if vals == nil {
		return ""
	}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = table.FormatValue(v)
	}
	return strings.Join(parts, "|")
}
