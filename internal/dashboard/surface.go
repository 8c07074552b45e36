// Package dashboard sequences one auto-dashboard run: profile the table,
// ask the model for a plan, parse it, then render filter controls and charts
// onto a Surface.
package dashboard

import (
	"github.com/arifinrio95/auto-dashboard/internal/chart"
	"github.com/arifinrio95/auto-dashboard/internal/filter"
)

// Guidance is shown under every top-level error.
const Guidance = "Please make sure you've uploaded a valid CSV file."

// Info labels.
const (
	LabelRows       = "Number of rows"
	LabelColumns    = "Number of columns"
	LabelFiltered   = "Rows after filters"
	LabelCommentary = "Model commentary"
	LabelSkipped    = "Suggestions skipped"
)

// Surface is the display the pipeline renders onto.
//
// The pipeline only produces descriptors and reads back selections; the
// surface owns its own lifecycle.
type Surface interface {
	// Info shows one informational label/value pair.
	Info(label, value string)
	// Filters shows the filter controls and returns the current selection.
	// A nil result means the default selection.
	Filters(controls []filter.Control) filter.Selection
	// Chart shows one chart. Charts arrive in plan order.
	Chart(c *chart.Chart)
	// Error shows a top-level failure. It is called at most once per run and
	// never after a chart.
	Error(message, hint string)
}
