// Package report is the static dashboard.Surface used by the CLI and by the
// server's chart frame. It collects everything the pipeline shows and writes
// it out as one self-contained HTML page (go-echarts) or as a plain-text
// summary.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/go-echarts/go-echarts/v2/components"

	"github.com/arifinrio95/auto-dashboard/internal/chart"
	"github.com/arifinrio95/auto-dashboard/internal/dashboard"
	"github.com/arifinrio95/auto-dashboard/internal/filter"
)

// Item is one info label/value pair.
type Item struct {
	Label string
	Value string
}

// Failure is the top-level error shown instead of charts.
type Failure struct {
	Message string
	Hint    string
}

// Report records one rendering.
//
// The filter selection is fixed at construction: a static page has no
// widgets to change it afterwards.
type Report struct {
	Title string

	form      map[string][]string
	items     []Item
	controls  []filter.Control
	selection filter.Selection
	charts    []*chart.Chart
	failure   *Failure
}

var _ dashboard.Surface = (*Report)(nil)

// New returns an empty report. form maps column names to the submitted
// option strings (see filter.ParseAssignments); a nil form keeps the
// default selection.
func New(title string, form map[string][]string) *Report {
	if title == "" {
		title = "Auto dashboard"
	}
	return &Report{Title: title, form: form}
}

func (r *Report) Info(label, value string) {
	r.items = append(r.items, Item{Label: label, Value: value})
}

// Filters records the controls and returns the selection parsed from the
// form, or nil when no form was given.
func (r *Report) Filters(controls []filter.Control) filter.Selection {
	r.controls = controls
	if r.form == nil {
		r.selection = filter.DefaultSelection(controls)
		return nil
	}
	r.selection = filter.ParseSelection(controls, r.form)
	return r.selection
}

func (r *Report) Chart(c *chart.Chart) {
	r.charts = append(r.charts, c)
}

func (r *Report) Error(message, hint string) {
	if r.failure != nil {
		return
	}
	r.failure = &Failure{Message: message, Hint: hint}
}

func (r *Report) Items() []Item { return r.items }

func (r *Report) Charts() []*chart.Chart { return r.charts }

func (r *Report) Controls() []filter.Control { return r.controls }

// Failure returns the recorded error, or nil.
func (r *Report) Failure() *Failure { return r.failure }

// UnknownFilters lists form columns that matched no filter control, sorted.
// They are ignored by the selection.
func (r *Report) UnknownFilters() []string {
	known := make(map[string]struct{}, len(r.controls))
	for _, c := range r.controls {
		known[c.Column] = struct{}{}
	}
	var out []string
	for col := range r.form {
		if _, ok := known[col]; !ok {
			out = append(out, col)
		}
	}
	sort.Strings(out)
	return out
}

type filterView struct {
	Column   string
	Selected string
	All      bool
}

func (r *Report) filterViews() []filterView {
	out := make([]filterView, 0, len(r.controls))
	for _, c := range r.controls {
		sel, ok := r.selection[c.Column]
		if !ok {
			sel = c.Selected
		}
		labels := make([]string, len(sel))
		for i, v := range sel {
			labels[i] = filter.Label(v)
		}
		out = append(out, filterView{
			Column:   c.Column,
			Selected: strings.Join(labels, ", "),
			All:      len(sel) == len(c.Options),
		})
	}
	return out
}

var headerTmpl = template.Must(template.New("header").Parse(`
<section class="autodash-summary" style="font-family:sans-serif;margin:16px 24px">
  <h1 style="font-size:22px">{{.Title}}</h1>
  {{with .Failure}}
  <div class="autodash-error" style="border:1px solid #c0392b;padding:8px 12px;color:#c0392b">
    <strong>{{.Message}}</strong>
    <p>{{.Hint}}</p>
  </div>
  {{end}}
  {{if .Items}}
  <dl class="autodash-info">
    {{range .Items}}<dt style="font-weight:bold">{{.Label}}</dt><dd>{{.Value}}</dd>
    {{end}}
  </dl>
  {{end}}
  {{if .Filters}}
  <h2 style="font-size:16px">Filters</h2>
  <ul class="autodash-filters">
    {{range .Filters}}<li><strong>{{.Column}}</strong>: {{if .All}}all{{else if .Selected}}{{.Selected}}{{else}}none{{end}}</li>
    {{end}}
  </ul>
  {{end}}
</section>
`))

// WriteHTML writes a standalone page: the summary section followed by one
// go-echarts chart per recorded chart, in order.
func (r *Report) WriteHTML(w io.Writer) error {
	page := components.NewPage()
	page.PageTitle = r.Title
	page.SetLayout(components.PageFlexLayout)
	for _, c := range r.charts {
		if ch := c.Render(); ch != nil {
			page.AddCharts(ch)
		}
	}

	var body bytes.Buffer
	if err := page.Render(&body); err != nil {
		return fmt.Errorf("render charts: %w", err)
	}

	var head bytes.Buffer
	err := headerTmpl.Execute(&head, map[string]any{
		"Title":   r.Title,
		"Failure": r.failure,
		"Items":   r.items,
		"Filters": r.filterViews(),
	})
	if err != nil {
		return fmt.Errorf("render summary: %w", err)
	}

	if _, err := w.Write(insertAfterBody(body.Bytes(), head.Bytes())); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// insertAfterBody places head right after the opening body tag of page, or
// in front of page when it has none.
func insertAfterBody(page, head []byte) []byte {
	i := bytes.Index(page, []byte("<body"))
	if i < 0 {
		return append(append([]byte{}, head...), page...)
	}
	j := bytes.IndexByte(page[i:], '>')
	if j < 0 {
		return append(append([]byte{}, head...), page...)
	}
	at := i + j + 1
	out := make([]byte, 0, len(page)+len(head))
	out = append(out, page[:at]...)
	out = append(out, head...)
	return append(out, page[at:]...)
}

// WriteText writes a plain summary: info pairs, filters, then one line per
// chart, or the failure.
func (r *Report) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\n", r.Title)
	if f := r.failure; f != nil {
		fmt.Fprintf(tw, "error:\t%s\n", f.Message)
		fmt.Fprintf(tw, "\t%s\n", f.Hint)
	}
	for _, it := range r.items {
		fmt.Fprintf(tw, "%s:\t%s\n", it.Label, oneLine(it.Value))
	}
	for _, f := range r.filterViews() {
		sel := f.Selected
		switch {
		case f.All:
			sel = "all"
		case sel == "":
			sel = "none"
		}
		fmt.Fprintf(tw, "filter %s:\t%s\n", f.Column, sel)
	}
	for i, c := range r.charts {
		n := len(c.Points)
		if c.Kind == chart.KindBox {
			n = len(c.Boxes)
		}
		fmt.Fprintf(tw, "chart %d:\t%s\t%s\t%d\n", i+1, c.Kind, c.Title, n)
	}
	return tw.Flush()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
