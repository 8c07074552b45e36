// Package table holds the in-memory typed table every other stage works on.
//
// A Table is an ordered set of named columns. Each column carries a single
// Kind and a value slice of the same length as every other column. Missing
// cells are nil.
//
// Tables are immutable once built: Select, Head and the other derivation
// helpers always return a new Table and never touch the receiver's slices.
// Callers must treat the slices returned by Column and Columns as read-only.
package table

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind is the inferred scalar type of a column.
type Kind int

const (
	// KindUnknown is used for columns without a single non-missing value.
	KindUnknown Kind = iota
	KindText
	KindNumeric
	KindBoolean
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumeric:
		return "numeric"
	case KindBoolean:
		return "boolean"
	case KindDate:
		return "date"
	default:
		return "unknown"
	}
}

// Value is one cell: nil, float64 (numeric), string (text), bool (boolean)
// or time.Time (date).
type Value = any

// Column is one named, uniformly typed column.
type Column struct {
	Name string
	Kind Kind
	// Layout is the time layout the column was parsed with (date columns only).
	Layout string
	Values []Value
}

// Table is an ordered collection of equal-length columns.
type Table struct {
	cols  []Column
	index map[string]int
	rows  int
}

// New builds a Table from columns.
//
// Errors:
//   - zero columns, duplicate names or ragged value slices return
//     *InvalidTableError.
func New(cols []Column) (*Table, error) {
	if len(cols) == 0 {
		return nil, &InvalidTableError{Reason: "table has no columns"}
	}

	t := &Table{
		cols:  make([]Column, len(cols)),
		index: make(map[string]int, len(cols)),
		rows:  len(cols[0].Values),
	}
	for i, c := range cols {
		if _, dup := t.index[c.Name]; dup {
			return nil, &InvalidTableError{Reason: fmt.Sprintf("duplicate column name %q", c.Name)}
		}
		if len(c.Values) != t.rows {
			return nil, &InvalidTableError{
				Reason: fmt.Sprintf("column %q has %d values, want %d", c.Name, len(c.Values), t.rows),
			}
		}
		t.index[c.Name] = i
		t.cols[i] = c
	}
	return t, nil
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return t.rows }

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.cols) }

// Names returns the column names in table order.
func (t *Table) Names() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name
	}
	return out
}

// Columns returns the columns in table order.
func (t *Table) Columns() []Column {
	return append([]Column(nil), t.cols...)
}

// Column returns the named column.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.cols[i], true
}

// Has reports whether the table has a column with the given name.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Row returns a copy of row i in column order.
func (t *Table) Row(i int) []Value {
	out := make([]Value, len(t.cols))
	for c := range t.cols {
		out[c] = t.cols[c].Values[i]
	}
	return out
}

// Record returns row i keyed by column name.
func (t *Table) Record(i int) map[string]Value {
	out := make(map[string]Value, len(t.cols))
	for _, c := range t.cols {
		out[c.Name] = c.Values[i]
	}
	return out
}

// Select returns a new table holding only the rows where keep is true, in
// their original order. len(keep) must equal NumRows.
func (t *Table) Select(keep []bool) *Table {
	n := 0
	for _, k := range keep {
		if k {
			n++
		}
	}

	out := &Table{
		cols:  make([]Column, len(t.cols)),
		index: t.index,
		rows:  n,
	}
	for ci, c := range t.cols {
		vals := make([]Value, 0, n)
		for r, k := range keep {
			if k {
				vals = append(vals, c.Values[r])
			}
		}
		out.cols[ci] = Column{Name: c.Name, Kind: c.Kind, Layout: c.Layout, Values: vals}
	}
	return out
}

// Head returns the first n rows (all rows when n >= NumRows).
func (t *Table) Head(n int) *Table {
	if n < 0 {
		n = 0
	}
	if n > t.rows {
		n = t.rows
	}
	keep := make([]bool, t.rows)
	for i := 0; i < n; i++ {
		keep[i] = true
	}
	return t.Select(keep)
}

// FormatValue renders a cell for display, prompts and form round-trips.
// Missing cells render as "".
func FormatValue(v Value) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "true"
		}
		return "false"
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(x)
	}
}

// Key is the canonical identity of a cell, used for distinct counting,
// grouping and filter membership. Missing cells and blank text share the
// empty key.
func Key(v Value) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return FormatValue(v)
}

// IsMissing reports whether v counts as a missing cell.
func IsMissing(v Value) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// Float returns v as a float64 when the cell is numeric.
func Float(v Value) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}
