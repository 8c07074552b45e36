package table

import "fmt"

// InvalidTableError reports an upload that cannot become a usable table:
// unparseable input, a missing header row, or zero columns.
type InvalidTableError struct {
	Reason string
	Err    error
}

func (e *InvalidTableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid table: %s: %v", e.Reason, e.Err)
	}
	return "invalid table: " + e.Reason
}

func (e *InvalidTableError) Unwrap() error {
	return e.Err
}
