package task

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound means no task exists with the given id.
	ErrNotFound = errors.New("task not found")
	// ErrUnavailable means the backing store could not be reached. Callers
	// own retry policy; the store does not retry.
	ErrUnavailable = errors.New("task store unavailable")
)

// TransitionError reports a status update that is not a lifecycle edge.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s -> %s", e.From, e.To)
}

// StateError reports an operation forbidden in the task's current status,
// such as deleting a task that is already underway.
type StateError struct {
	Status Status
	Op     string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s task in status %s", e.Op, e.Status)
}

// FieldError is one failed constraint on one input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every failed constraint on an input, not just the
// first one encountered.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
