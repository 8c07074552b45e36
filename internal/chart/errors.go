package chart

import "fmt"

// UnsupportedChartError reports a chart suggestion that cannot be drawn. It
// only ever affects that one chart.
type UnsupportedChartError struct {
	ChartType string
	Reason    string
	Err       error
}

func (e *UnsupportedChartError) Error() string {
	return fmt.Sprintf("unsupported chart %q: %s", e.ChartType, e.Reason)
}

func (e *UnsupportedChartError) Unwrap() error {
	return e.Err
}
