package plan

import (
	"errors"
	"reflect"
	"testing"
)

// TestParse_NoSpan verifies that output without a bracketed list fails the
// whole call with *ParseError.
func TestParse_NoSpan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{"plain prose", "I could not think of any charts for this data."},
		{"empty", ""},
		{"only opening", "here you go: [ {\"chart_type\": \"bar\"}"},
		{"reversed", "oops ] then [ nothing"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(tt.raw)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Parse(%q) err = %v, want *ParseError", tt.raw, err)
			}
		})
	}
}

// TestParse_UnparseableSpan verifies a span that is neither JSON nor a
// literal list fails with *ParseError, as does a span that is not a list.
func TestParse_UnparseableSpan(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		`x [ {"a": ] y`,
		`['unterminated]`,
		`see [[["bar"], {]`,
	} {
		_, err := Parse(raw)
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("Parse(%q) err = %v, want *ParseError", raw, err)
		}
	}
}

// TestParse_EmptyList verifies that an empty list is a legal, empty plan.
func TestParse_EmptyList(t *testing.T) {
	t.Parallel()

	res, err := Parse("noise [ ] more noise")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(res.Plan) != 0 {
		t.Fatalf("len(Plan) = %d, want 0", len(res.Plan))
	}
	if res.Commentary != "noise" {
		t.Fatalf("Commentary = %q, want %q", res.Commentary, "noise")
	}
}

// TestParse_DropsRecordMissingChartType verifies per-record isolation: one
// well-formed record and one without chart_type yields exactly the former.
func TestParse_DropsRecordMissingChartType(t *testing.T) {
	t.Parallel()

	raw := `Here are my suggestions:
[
  {"chart_type": "bar", "columns": ["region", "units"], "aggregation": "sum", "explanation": "Units by region"},
  {"columns": ["region"], "explanation": "Missing type"}
]
Hope this helps!`

	res, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := Plan{{
		ChartType:   "bar",
		Columns:     []string{"region", "units"},
		Aggregation: "sum",
		Explanation: "Units by region",
	}}
	if !reflect.DeepEqual(res.Plan, want) {
		t.Fatalf("Plan = %+v, want %+v", res.Plan, want)
	}
	if len(res.Rejected) != 1 || res.Rejected[0].Index != 1 {
		t.Fatalf("Rejected = %+v, want one rejection at index 1", res.Rejected)
	}
}

// TestParse_PythonLiteral verifies single-quoted, Python-style output is
// read as data, including None/True/False words.
func TestParse_PythonLiteral(t *testing.T) {
	t.Parallel()

	raw := `[
    {'chart_type': 'histogram', 'columns': ['price'], 'aggregation': None, 'explanation': 'Price distribution'},
    {'chart_type': 'line', 'columns': ['day', 'sales'], 'aggregation': 'Average', 'explanation': "Sales trend", 'stacked': True}
]`
	res, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(res.Plan) != 2 {
		t.Fatalf("len(Plan) = %d, want 2 (rejected: %+v)", len(res.Plan), res.Rejected)
	}
	if res.Plan[0].Aggregation != "" {
		t.Fatalf("Plan[0].Aggregation = %q, want unset", res.Plan[0].Aggregation)
	}
	if res.Plan[1].Aggregation != "mean" {
		t.Fatalf("Plan[1].Aggregation = %q, want mean", res.Plan[1].Aggregation)
	}
}

// TestParse_PythonEscapesAndTuples verifies backslash-escaped quotes and
// tuple column lists in Python-style output.
func TestParse_PythonEscapesAndTuples(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		columns []string
		explain string
	}{
		{
			name:    "escaped apostrophe",
			raw:     `[{'chart_type': 'bar', 'columns': ['region', 'sales'], 'explanation': 'Region\'s sales'}]`,
			columns: []string{"region", "sales"},
			explain: "Region's sales",
		},
		{
			name:    "tuple columns",
			raw:     `Try this: [{'chart_type': 'scatter', 'columns': ('r', 's'), 'explanation': 'R vs S (raw)'}]`,
			columns: []string{"r", "s"},
			explain: "R vs S (raw)",
		},
		{
			name:    "single tuple and escapes",
			raw:     `[{"chart_type": "pie", "columns": ('share',), "explanation": "Tab\tand \"quote\""}]`,
			columns: []string{"share"},
			explain: "Tab\tand \"quote\"",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := Parse(tt.raw)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if len(res.Plan) != 1 {
				t.Fatalf("len(Plan) = %d, want 1 (rejected: %+v)", len(res.Plan), res.Rejected)
			}
			if got := res.Plan[0].Columns; !reflect.DeepEqual(got, tt.columns) {
				t.Fatalf("Columns = %q, want %q", got, tt.columns)
			}
			if got := res.Plan[0].Explanation; got != tt.explain {
				t.Fatalf("Explanation = %q, want %q", got, tt.explain)
			}
		})
	}
}

// TestParse_RecordValidation verifies each per-record rejection rule.
func TestParse_RecordValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		record string
	}{
		{"not an object", `"bar"`},
		{"empty chart type", `{"chart_type": " ", "columns": ["a"], "explanation": "x"}`},
		{"chart type not string", `{"chart_type": 3, "columns": ["a"], "explanation": "x"}`},
		{"columns missing", `{"chart_type": "bar", "explanation": "x"}`},
		{"columns empty", `{"chart_type": "bar", "columns": [], "explanation": "x"}`},
		{"columns not a list", `{"chart_type": "bar", "columns": "a", "explanation": "x"}`},
		{"column not a string", `{"chart_type": "bar", "columns": ["a", 2], "explanation": "x"}`},
		{"explanation missing", `{"chart_type": "bar", "columns": ["a"]}`},
		{"explanation null", `{"chart_type": "bar", "columns": ["a"], "explanation": null}`},
		{"aggregation not allowed", `{"chart_type": "bar", "columns": ["a", "b"], "aggregation": "stddev", "explanation": "x"}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := Parse("[" + tt.record + "]")
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if len(res.Plan) != 0 || len(res.Rejected) != 1 {
				t.Fatalf("Plan = %+v, Rejected = %+v; want record rejected", res.Plan, res.Rejected)
			}
		})
	}
}

// TestNormalizeAggregation verifies aliases and the allow-list.
func TestNormalizeAggregation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"", "", true},
		{"SUM", "sum", true},
		{" avg ", "mean", true},
		{"median", "median", true},
		{"none", "", true},
		{"variance", "variance", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeAggregation(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("NormalizeAggregation(%q) = (%q,%v), want (%q,%v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
