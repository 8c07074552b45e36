package server

import "fmt"

// UserVisibleError is an error whose message is safe to show and which
// carries the HTTP status to answer with.
type UserVisibleError struct {
	HTTPCode int
	Message  string
}

func (e *UserVisibleError) Error() string {
	return fmt.Sprintf("Error %d: %s", e.HTTPCode, e.Message)
}

func NewUserVisibleError(httpCode int, message string) *UserVisibleError {
	return &UserVisibleError{HTTPCode: httpCode, Message: message}
}
