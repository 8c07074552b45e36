package llm

import "fmt"

// ModelUnavailableError reports a failed model request: transport failure,
// timeout, rejected credentials or any non-success response. It is never
// retried.
type ModelUnavailableError struct {
	// StatusCode is the HTTP status when the endpoint answered, else 0.
	StatusCode int
	Err        error
}

func (e *ModelUnavailableError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("model unavailable (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("model unavailable: %v", e.Err)
}

func (e *ModelUnavailableError) Unwrap() error {
	return e.Err
}
