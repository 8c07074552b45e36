package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-bexpr"

	"github.com/arifinrio95/auto-dashboard/internal/table"
)

// Where is a compiled row predicate such as `region == "EU" and units != 0`.
type Where struct {
	expr      string
	evaluator *bexpr.Evaluator
}

// CompileWhere parses a boolean row expression. Selectors are column names;
// date cells compare as "2006-01-02" strings.
func CompileWhere(expr string) (*Where, error) {
	expr = strings.TrimSpace(expr)
	evaluator, err := bexpr.CreateEvaluator(expr)
	if err != nil {
		return nil, fmt.Errorf("error parsing expression '%s': %w", expr, err)
	}
	return &Where{expr: expr, evaluator: evaluator}, nil
}

// String returns the source expression.
func (w *Where) String() string { return w.expr }

// Apply keeps the rows the expression holds for.
//
// Missing cells are absent from the row's variables, so any comparison on
// them fails to evaluate and the row is dropped. When evaluation fails for
// every row, the first error is returned so a misspelled column name is
// reported instead of silently producing an empty table.
func (w *Where) Apply(t *table.Table) (*table.Table, error) {
	keep := make([]bool, t.NumRows())
	var firstErr error
	failed := 0
	for r := range keep {
		ok, err := w.evaluator.Evaluate(rowVars(t, r))
		if err != nil {
			failed++
			if firstErr == nil {
				firstErr = fmt.Errorf("error evaluating expression '%s' on row %d: %w", w.expr, r+1, err)
			}
			continue
		}
		keep[r] = ok
	}
	if failed > 0 && failed == len(keep) {
		return nil, firstErr
	}
	return t.Select(keep), nil
}

func rowVars(t *table.Table, r int) map[string]any {
	rec := t.Record(r)
	vars := make(map[string]any, len(rec))
	for k, v := range rec {
		if table.IsMissing(v) {
			continue
		}
		if ts, ok := v.(time.Time); ok {
			vars[k] = table.FormatValue(ts)
			continue
		}
		vars[k] = v
	}
	return vars
}
