package llm

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/arifinrio95/auto-dashboard/internal/chart"
	"github.com/arifinrio95/auto-dashboard/internal/probe"
	"github.com/arifinrio95/auto-dashboard/internal/table"
)

// BuildPrompt renders the plan request: the column name/type list, the
// sample rows as an aligned text table, and the expected reply format.
func BuildPrompt(profiles []probe.ColumnProfile, sample *table.Table) string {
	var b strings.Builder

	b.WriteString("Given the following table information:\n\n")
	b.WriteString("Columns and data types:\n")
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	for _, p := range profiles {
		fmt.Fprintf(tw, "%s\t%s\t%d distinct\n", p.Name, p.DType, p.DistinctCount)
	}
	tw.Flush()

	b.WriteString("\nSample data:\n")
	if sample == nil || sample.NumRows() == 0 {
		b.WriteString("(no rows)\n")
	} else {
		writeSample(&b, sample)
	}

	kinds := chart.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}

	fmt.Fprintf(&b, `
Suggest 5-10 insightful visualizations for this data. For each visualization, provide:
1. chart_type: one of %s
2. columns: the columns to use, first the x/category column, then the y/value column if any
3. aggregation: one of sum, mean, count, min, max, median, or null if no aggregation is needed
4. explanation: a brief explanation of the insight it might provide

Format your response as a JSON list of objects, where each object represents a visualization suggestion and has the keys chart_type, columns, aggregation and explanation.
`, strings.Join(names, ", "))

	return b.String()
}

func writeSample(b *strings.Builder, t *table.Table) {
	tw := tabwriter.NewWriter(b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Names(), "\t"))
	for r := 0; r < t.NumRows(); r++ {
		row := t.Row(r)
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = table.FormatValue(v)
			if cells[i] == "" {
				cells[i] = "NaN"
			}
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	tw.Flush()
}
