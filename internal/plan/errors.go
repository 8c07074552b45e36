package plan

import "fmt"

// ParseError reports model output that holds no usable list at all. It is
// fatal to a run; per-record problems are reported as Rejections instead.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse plan: %s: %v", e.Reason, e.Err)
	}
	return "parse plan: " + e.Reason
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
