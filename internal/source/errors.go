package source

import "fmt"

// LoadError reports a failure to produce the input table.
type LoadError struct {
	Kind string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("load source: %v", e.Err)
	}
	return fmt.Sprintf("load %s source: %v", e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
