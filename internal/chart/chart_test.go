package chart

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/go-echarts/go-echarts/v2/charts"

	"github.com/arifinrio95/auto-dashboard/internal/plan"
	"github.com/arifinrio95/auto-dashboard/internal/table"
)

func mustTable(t *testing.T, csv string) *table.Table {
	t.Helper()
	tbl, err := table.ReadCSV(strings.NewReader(csv), table.ReadOptions{})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	return tbl
}

const shopCSV = `cat,val,price,day
A,1,2.5,2024-01-01
A,3,4.0,2024-01-02
B,2,1.5,2024-01-03
`

// TestBuild_UnknownKind verifies that an unregistered chart type fails with
// *UnsupportedChartError.
func TestBuild_UnknownKind(t *testing.T) {
	t.Parallel()

	_, err := Build(mustTable(t, shopCSV), plan.ChartSpec{
		ChartType:   "not_a_real_chart",
		Columns:     []string{"cat", "val"},
		Explanation: "x",
	})
	var uce *UnsupportedChartError
	if !errors.As(err, &uce) {
		t.Fatalf("Build err = %v, want *UnsupportedChartError", err)
	}
}

// TestBuild_EveryRegisteredKind verifies that no registered kind fails given
// valid matching columns, and that every built chart renders.
func TestBuild_EveryRegisteredKind(t *testing.T) {
	t.Parallel()

	tbl := mustTable(t, shopCSV)
	for _, k := range Kinds() {
		k := k
		t.Run(string(k), func(t *testing.T) {
			t.Parallel()
			c, err := Build(tbl, plan.ChartSpec{
				ChartType:   string(k),
				Columns:     []string{"cat", "val"},
				Explanation: "Value by category",
			})
			if err != nil {
				t.Fatalf("Build(%s): %v", k, err)
			}
			if c.Title != "Value by category" {
				t.Fatalf("Title = %q", c.Title)
			}
			if c.Render() == nil {
				t.Fatalf("Render(%s) = nil", k)
			}
		})
	}
}

// TestRender_AreaFill verifies area charts get a translucent fill and plain
// line charts none.
func TestRender_AreaFill(t *testing.T) {
	t.Parallel()

	tbl := mustTable(t, shopCSV)
	tests := []struct {
		kind    Kind
		opacity float32
	}{
		{KindArea, 0.3},
		{KindLine, 0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.kind), func(t *testing.T) {
			t.Parallel()
			c, err := Build(tbl, plan.ChartSpec{
				ChartType:   string(tt.kind),
				Columns:     []string{"cat", "val"},
				Explanation: "Value by category",
			})
			if err != nil {
				t.Fatalf("Build(%s): %v", tt.kind, err)
			}
			line, ok := c.Render().(*charts.Line)
			if !ok {
				t.Fatalf("Render(%s) = %T, want *charts.Line", tt.kind, c.Render())
			}
			if len(line.MultiSeries) != 1 {
				t.Fatalf("series = %d, want 1", len(line.MultiSeries))
			}
			style := line.MultiSeries[0].AreaStyle
			var got float32
			if style != nil {
				got = style.Opacity
			}
			if got != tt.opacity {
				t.Fatalf("area opacity = %v, want %v", got, tt.opacity)
			}
		})
	}
}

// TestBuild_MissingColumn verifies column validation.
func TestBuild_MissingColumn(t *testing.T) {
	t.Parallel()

	_, err := Build(mustTable(t, shopCSV), plan.ChartSpec{
		ChartType: "bar",
		Columns:   []string{"cat", "nope"},
	})
	var uce *UnsupportedChartError
	if !errors.As(err, &uce) || !strings.Contains(uce.Reason, "nope") {
		t.Fatalf("Build err = %v, want *UnsupportedChartError naming the column", err)
	}
}

// TestBuild_AggregatedSum verifies grouping by columns[0] and summing
// columns[1]: one row per category.
func TestBuild_AggregatedSum(t *testing.T) {
	t.Parallel()

	c, err := Build(mustTable(t, shopCSV), plan.ChartSpec{
		ChartType:   "bar",
		Columns:     []string{"cat", "val"},
		Aggregation: "sum",
		Explanation: "Total by category",
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []Point{{X: "A", Y: 4}, {X: "B", Y: 2}}
	if !reflect.DeepEqual(c.Points, want) {
		t.Fatalf("Points = %v, want %v", c.Points, want)
	}
	if c.Subtitle() != "sum of val by cat" {
		t.Fatalf("Subtitle() = %q", c.Subtitle())
	}
}

// TestAggregate verifies every allow-listed function, including exact
// decimal sums.
func TestAggregate(t *testing.T) {
	t.Parallel()

	tbl := mustTable(t, "g,v\nx,0.1\nx,0.2\ny,5\nx,0.6\ny,\n,9\n")

	tests := []struct {
		agg  string
		want []table.Value
	}{
		{"sum", []table.Value{0.9, 5.0}},
		{"mean", []table.Value{0.3, 5.0}},
		{"count", []table.Value{3.0, 1.0}},
		{"min", []table.Value{0.1, 5.0}},
		{"max", []table.Value{0.6, 5.0}},
		{"median", []table.Value{0.2, 5.0}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.agg, func(t *testing.T) {
			t.Parallel()
			got, err := Aggregate(tbl, "g", "v", tt.agg)
			if err != nil {
				t.Fatalf("Aggregate: %v", err)
			}
			keys, _ := got.Column("g")
			if !reflect.DeepEqual(keys.Values, []table.Value{"x", "y"}) {
				t.Fatalf("groups = %v, want [x y]", keys.Values)
			}
			vals, _ := got.Column("v")
			if !reflect.DeepEqual(vals.Values, tt.want) {
				t.Fatalf("%s = %v, want %v", tt.agg, vals.Values, tt.want)
			}
		})
	}
}

// TestAggregate_Errors verifies value-column requirements.
func TestAggregate_Errors(t *testing.T) {
	t.Parallel()

	tbl := mustTable(t, shopCSV)
	if _, err := Aggregate(tbl, "cat", "", "sum"); err == nil {
		t.Fatalf("sum without value column: err = nil")
	}
	if _, err := Aggregate(tbl, "val", "cat", "mean"); err == nil {
		t.Fatalf("mean of text column: err = nil")
	}
	got, err := Aggregate(tbl, "cat", "", "count")
	if err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if got.Names()[1] != "count" {
		t.Fatalf("count column = %q", got.Names()[1])
	}
}

// TestBuild_NonNumericValue verifies that plotting a text column on a value
// axis is rejected for that chart only.
func TestBuild_NonNumericValue(t *testing.T) {
	t.Parallel()

	_, err := Build(mustTable(t, shopCSV), plan.ChartSpec{
		ChartType: "line",
		Columns:   []string{"day", "cat"},
	})
	var uce *UnsupportedChartError
	if !errors.As(err, &uce) {
		t.Fatalf("Build err = %v, want *UnsupportedChartError", err)
	}
}

// TestLookup verifies kind normalization from free-text names.
func TestLookup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{"bar", KindBar, true},
		{"Bar Chart", KindBar, true},
		{"scatter_plot", KindScatter, true},
		{"boxplot", KindBox, true},
		{"PieChart", KindPie, true},
		{"area-chart", KindArea, true},
		{"hist", KindHistogram, true},
		{"sunburst", "", false},
		{"plot", "", false},
	}
	for _, tt := range tests {
		got, ok := Lookup(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Fatalf("Lookup(%q) = (%q,%v), want (%q,%v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

// TestBuild_Histogram verifies Sturges binning of a numeric column.
func TestBuild_Histogram(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString("v\n")
	for i := 0; i < 8; i++ {
		b.WriteString("1\n")
	}
	b.WriteString("9\n")

	c, err := Build(mustTable(t, b.String()), plan.ChartSpec{ChartType: "histogram", Columns: []string{"v"}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	// n=9 -> ceil(log2 9)+1 = 5 bins.
	if len(c.Points) != 5 {
		t.Fatalf("bins = %d, want 5", len(c.Points))
	}
	if c.Points[0].Y != 8 || c.Points[4].Y != 1 {
		t.Fatalf("bin counts = %v", c.Points)
	}
	if got := c.Points[4].Label(); got != "[7.4, 9]" {
		t.Fatalf("last bin label = %q, want [7.4, 9]", got)
	}
}

// TestBuild_Box verifies per-category five-number summaries.
func TestBuild_Box(t *testing.T) {
	t.Parallel()

	c, err := Build(mustTable(t, "g,v\na,1\na,2\na,3\na,4\nb,10\n"), plan.ChartSpec{
		ChartType: "box",
		Columns:   []string{"g", "v"},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []Box{
		{Label: "a", N: 4, Min: 1, Q1: 1.75, Median: 2.5, Q3: 3.25, Max: 4},
		{Label: "b", N: 1, Min: 10, Q1: 10, Median: 10, Q3: 10, Max: 10},
	}
	if !reflect.DeepEqual(c.Boxes, want) {
		t.Fatalf("Boxes = %+v, want %+v", c.Boxes, want)
	}
}
