package filter

import (
	"reflect"
	"strings"
	"testing"

	"github.com/arifinrio95/auto-dashboard/internal/probe"
	"github.com/arifinrio95/auto-dashboard/internal/table"
)

const salesCSV = `region,units,channel,day
EU,3,web,2024-01-01
US,5,store,2024-01-02
EU,,web,2024-01-03
APAC,7,store,2024-01-04
US,2,,2024-01-05
EU,9,web,2024-01-06
`

func setup(t *testing.T) (*table.Table, []Control) {
	t.Helper()
	tbl, err := table.ReadCSV(strings.NewReader(salesCSV), table.ReadOptions{})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	profiles, err := probe.Profile(tbl)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	return tbl, BuildControls(profiles)
}

func column(t *testing.T, tbl *table.Table, name string) []table.Value {
	t.Helper()
	c, ok := tbl.Column(name)
	if !ok {
		t.Fatalf("column %q missing", name)
	}
	return c.Values
}

// TestBuildControls verifies that only low-cardinality columns get controls,
// in profile order, with every option selected.
func TestBuildControls(t *testing.T) {
	t.Parallel()

	_, controls := setup(t)

	var cols []string
	for _, c := range controls {
		cols = append(cols, c.Column)
		if !reflect.DeepEqual(c.Options, c.Selected) {
			t.Fatalf("control %q: Selected = %v, want all options %v", c.Column, c.Selected, c.Options)
		}
	}
	// Six rows: every column is low-cardinality here.
	if want := []string{"region", "units", "channel", "day"}; !reflect.DeepEqual(cols, want) {
		t.Fatalf("control columns = %q, want %q", cols, want)
	}
	if want := []table.Value{"EU", "US", "APAC"}; !reflect.DeepEqual(controls[0].Options, want) {
		t.Fatalf("region options = %v, want %v", controls[0].Options, want)
	}
}

// TestBuildControls_SkipsHighCardinality verifies the distinct-count bound.
func TestBuildControls_SkipsHighCardinality(t *testing.T) {
	t.Parallel()

	profiles := []probe.ColumnProfile{
		{Name: "id", DistinctCount: 10},
		{Name: "flag", DistinctCount: 2, Values: []table.Value{true, false}},
	}
	controls := BuildControls(profiles)
	if len(controls) != 1 || controls[0].Column != "flag" {
		t.Fatalf("controls = %+v, want only flag", controls)
	}
}

// TestApply_DefaultIsIdentity verifies that the all-selected default keeps
// every row in its original order.
func TestApply_DefaultIsIdentity(t *testing.T) {
	t.Parallel()

	tbl, controls := setup(t)
	got, err := Apply(tbl, DefaultSelection(controls))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got.NumRows() != tbl.NumRows() {
		t.Fatalf("NumRows() = %d, want %d", got.NumRows(), tbl.NumRows())
	}
	for _, name := range tbl.Names() {
		if !reflect.DeepEqual(column(t, got, name), column(t, tbl, name)) {
			t.Fatalf("column %q changed under default selection", name)
		}
	}
}

// TestApply_Idempotent verifies that applying a fixed selection to the
// unfiltered table twice yields the same result as applying it once.
func TestApply_Idempotent(t *testing.T) {
	t.Parallel()

	tbl, _ := setup(t)
	sel := Selection{"region": {"EU", "APAC"}}

	once, err := Apply(tbl, sel)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	twice, err := Apply(tbl, sel)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !reflect.DeepEqual(once.Columns(), twice.Columns()) {
		t.Fatalf("Apply is not repeatable")
	}
	again, err := Apply(once, sel)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !reflect.DeepEqual(again.Columns(), once.Columns()) {
		t.Fatalf("Apply(Apply(t)) != Apply(t)")
	}
	if want := []table.Value{"EU", "EU", "APAC", "EU"}; !reflect.DeepEqual(column(t, once, "region"), want) {
		t.Fatalf("region = %v, want %v", column(t, once, "region"), want)
	}
	if tbl.NumRows() != 6 {
		t.Fatalf("input mutated: NumRows() = %d", tbl.NumRows())
	}
}

// TestApply_Conjunction verifies that every filtered column must match and
// that selections for unknown columns are ignored.
func TestApply_Conjunction(t *testing.T) {
	t.Parallel()

	tbl, _ := setup(t)
	got, err := Apply(tbl, Selection{
		"region":  {"US"},
		"channel": {"store"},
		"unknown": {"x"},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	// Row 2 (US, store) only; row 5 has no channel.
	if want := []table.Value{5.0}; !reflect.DeepEqual(column(t, got, "units"), want) {
		t.Fatalf("units = %v, want %v", column(t, got, "units"), want)
	}
}

// TestApply_MissingOption verifies that missing cells are an option of their
// own: offered only for columns that have them, kept by default, and
// excluded when deselected.
func TestApply_MissingOption(t *testing.T) {
	t.Parallel()

	tbl, controls := setup(t)
	byColumn := map[string]Control{}
	for _, c := range controls {
		byColumn[c.Column] = c
	}
	if want := []table.Value{"web", "store", nil}; !reflect.DeepEqual(byColumn["channel"].Options, want) {
		t.Fatalf("channel options = %v, want %v", byColumn["channel"].Options, want)
	}
	if opts := byColumn["region"].Options; len(opts) != 3 {
		t.Fatalf("region options = %v, want no missing option", opts)
	}

	tests := []struct {
		name  string
		form  map[string][]string
		units []table.Value
	}{
		{"missing only", map[string][]string{"channel": {MissingLabel}}, []table.Value{2.0}},
		{"missing label any case", map[string][]string{"channel": {" (Missing) "}}, []table.Value{2.0}},
		{"values without missing", map[string][]string{"channel": {"web", "store"}}, []table.Value{3.0, 5.0, nil, 7.0, 9.0}},
		{"value plus missing", map[string][]string{"units": {"3", MissingLabel}}, []table.Value{3.0, nil}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Apply(tbl, ParseSelection(controls, tt.form))
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if units := column(t, got, "units"); !reflect.DeepEqual(units, tt.units) {
				t.Fatalf("units = %v, want %v", units, tt.units)
			}
		})
	}

	if got := Label(nil); got != MissingLabel {
		t.Fatalf("Label(nil) = %q, want %q", got, MissingLabel)
	}
	if got := Label(2.5); got != "2.5" {
		t.Fatalf("Label(2.5) = %q, want %q", got, "2.5")
	}
}

// TestParseSelection verifies string round-trips onto typed options.
func TestParseSelection(t *testing.T) {
	t.Parallel()

	_, controls := setup(t)
	sel := ParseSelection(controls, map[string][]string{
		"region": {"US", "nowhere"},
		"units":  {"5"},
		"day":    {},
	})

	if want := []table.Value{"US"}; !reflect.DeepEqual(sel["region"], want) {
		t.Fatalf("region = %v, want %v", sel["region"], want)
	}
	if want := []table.Value{5.0}; !reflect.DeepEqual(sel["units"], want) {
		t.Fatalf("units = %v, want %v", sel["units"], want)
	}
	if got, ok := sel["day"]; !ok || len(got) != 0 {
		t.Fatalf("day = %v (present %v), want present and empty", got, ok)
	}
	if _, ok := sel["channel"]; ok {
		t.Fatalf("channel should be unconstrained")
	}
}

// TestParseAssignments verifies the command-line filter syntax.
func TestParseAssignments(t *testing.T) {
	t.Parallel()

	got, err := ParseAssignments([]string{"region=EU, US", "region=APAC", "day="})
	if err != nil {
		t.Fatalf("ParseAssignments: %v", err)
	}
	want := map[string][]string{
		"region": {"EU", "US", "APAC"},
		"day":    {},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseAssignments = %v, want %v", got, want)
	}

	if _, err := ParseAssignments([]string{"noequals"}); err == nil {
		t.Fatalf("ParseAssignments(noequals) err = nil, want error")
	}
}

// TestWhere verifies expression filtering over typed rows.
func TestWhere(t *testing.T) {
	t.Parallel()

	tbl, _ := setup(t)

	tests := []struct {
		name string
		expr string
		want []table.Value
	}{
		{"string equality", `region == "EU"`, []table.Value{"EU", "EU", "EU"}},
		{"numeric equality", `units == 7`, []table.Value{"APAC"}},
		{"conjunction", `region == "US" and units != 2`, []table.Value{"US"}},
		{"negation", `not (channel == "web")`, []table.Value{"US", "APAC"}},
		{"date as string", `day == "2024-01-04"`, []table.Value{"APAC"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w, err := CompileWhere(tt.expr)
			if err != nil {
				t.Fatalf("CompileWhere(%q): %v", tt.expr, err)
			}
			got, err := w.Apply(tbl)
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if !reflect.DeepEqual(column(t, got, "region"), tt.want) {
				t.Fatalf("region = %v, want %v", column(t, got, "region"), tt.want)
			}
		})
	}
}

// TestWhere_Errors verifies compile errors and an expression that fails on
// every row.
func TestWhere_Errors(t *testing.T) {
	t.Parallel()

	if _, err := CompileWhere(`region ==`); err == nil {
		t.Fatalf("CompileWhere(bad) err = nil, want error")
	}

	tbl, _ := setup(t)
	w, err := CompileWhere(`nosuchcolumn == "x"`)
	if err != nil {
		t.Fatalf("CompileWhere: %v", err)
	}
	if _, err := w.Apply(tbl); err == nil {
		t.Fatalf("Apply err = nil, want error for unknown selector")
	}
}
