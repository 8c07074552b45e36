// Package filter builds inclusion filters from column profiles and applies a
// selection to a table.
//
// Filtering is always recomputed from the unfiltered table: Apply never
// chains onto an earlier result and never mutates its input.
package filter

import (
	"errors"
	"strings"

	"github.com/arifinrio95/auto-dashboard/internal/probe"
	"github.com/arifinrio95/auto-dashboard/internal/table"
)

// MissingLabel is the display string of the option standing for nil and
// blank cells.
const MissingLabel = "(missing)"

// Control describes one filter widget.
type Control struct {
	Column string
	// Options are the column's enumerated values in profile order, followed
	// by a nil option when the column has missing cells.
	Options []table.Value
	// Selected is the default selection: every option.
	Selected []table.Value
}

// Selection maps a column name to its currently selected values. Columns
// absent from the map are unconstrained.
type Selection map[string][]table.Value

// Label is the display string of an option. Missing values read as
// MissingLabel.
func Label(v table.Value) string {
	if table.IsMissing(v) {
		return MissingLabel
	}
	return table.FormatValue(v)
}

// BuildControls returns one Control per low-cardinality profile, in profile
// order. Every option starts selected.
func BuildControls(profiles []probe.ColumnProfile) []Control {
	var out []Control
	for _, p := range profiles {
		if !p.LowCardinality() {
			continue
		}
		opts := append([]table.Value{}, p.Values...)
		if p.Missing > 0 {
			opts = append(opts, nil)
		}
		out = append(out, Control{
			Column:   p.Name,
			Options:  opts,
			Selected: append([]table.Value{}, opts...),
		})
	}
	return out
}

// DefaultSelection selects every option of every control.
func DefaultSelection(controls []Control) Selection {
	sel := make(Selection, len(controls))
	for _, c := range controls {
		sel[c.Column] = append([]table.Value{}, c.Selected...)
	}
	return sel
}

// Apply keeps a row iff, for every column named in sel, the row's value is in
// that column's selected set.
//
// Edge cases:
//   - nil and blank cells share one identity: they pass iff the selected set
//     holds a missing value (the nil option), so the default selection keeps
//     every row
//   - selection entries for columns the table does not have are ignored
//   - an empty selected set for a column removes every row with a value in
//     that column
//
// Errors:
//   - a nil table
func Apply(t *table.Table, sel Selection) (*table.Table, error) {
	if t == nil {
		return nil, errors.New("filter: nil table")
	}

	keep := make([]bool, t.NumRows())
	for i := range keep {
		keep[i] = true
	}

	for col, vals := range sel {
		c, ok := t.Column(col)
		if !ok {
			continue
		}
		allowed := make(map[string]struct{}, len(vals))
		for _, v := range vals {
			allowed[table.Key(v)] = struct{}{}
		}
		for r, v := range c.Values {
			if !keep[r] {
				continue
			}
			if _, ok := allowed[table.Key(v)]; !ok {
				keep[r] = false
			}
		}
	}

	return t.Select(keep), nil
}

// ParseSelection maps submitted string values back onto typed options.
//
// form is keyed by column name. A control whose column is present in form
// (even with no values) gets exactly the options whose Label was submitted;
// MissingLabel matching is case-insensitive and unknown strings are ignored. Controls absent from form are left
// out of the selection and so stay unconstrained.
func ParseSelection(controls []Control, form map[string][]string) Selection {
	sel := make(Selection, len(controls))
	for _, c := range controls {
		submitted, ok := form[c.Column]
		if !ok {
			continue
		}
		want := make(map[string]struct{}, len(submitted))
		for _, s := range submitted {
			if strings.EqualFold(strings.TrimSpace(s), MissingLabel) {
				s = MissingLabel
			}
			want[s] = struct{}{}
		}
		picked := []table.Value{}
		for _, o := range c.Options {
			if _, ok := want[Label(o)]; ok {
				picked = append(picked, o)
			}
		}
		sel[c.Column] = picked
	}
	return sel
}
