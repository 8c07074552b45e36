package filter

import (
	"fmt"
	"strings"
)

// ParseAssignments reads command-line filters of the form "column=v1,v2"
// into the form shape ParseSelection expects. Repeating a column appends to
// its values; "column=" selects nothing for that column.
func ParseAssignments(args []string) (map[string][]string, error) {
	out := make(map[string][]string, len(args))
	for _, a := range args {
		col, vals, ok := strings.Cut(a, "=")
		col = strings.TrimSpace(col)
		if !ok || col == "" {
			return nil, fmt.Errorf("filter %q: want column=value[,value...]", a)
		}
		if _, seen := out[col]; !seen {
			out[col] = []string{}
		}
		for _, v := range strings.Split(vals, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out[col] = append(out[col], v)
			}
		}
	}
	return out, nil
}
