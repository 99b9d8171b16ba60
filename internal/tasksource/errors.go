package tasksource

import (
	"errors"
	"fmt"
)

var (
	// ErrTaskNotFound is returned when a task cannot be found.
	ErrTaskNotFound = errors.New("task not found")

	// ErrInvalidConfig is returned when source configuration is invalid.
	ErrInvalidConfig = errors.New("invalid source configuration")

	// ErrReadOnly is returned when attempting to modify a read-only source.
	ErrReadOnly = errors.New("source is read-only")

	// ErrNotSupported is returned when the store rejects an operation.
	ErrNotSupported = errors.New("operation not supported by source")

	// ErrUnsupportedSource is returned for an unknown source type.
	ErrUnsupportedSource = errors.New("unsupported source type")
)

// APIError is a non-success response from the remote store.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("task store returned status %d for %s %s: %s", e.StatusCode, e.Method, e.Path, e.Body)
}
