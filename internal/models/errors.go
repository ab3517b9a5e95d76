package models

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

// NotFoundError wraps ErrNotFound with the entity that failed to resolve.
func NotFoundError(entity string, id int64) error {
	return fmt.Errorf("%s %d %w", entity, id, ErrNotFound)
}

// PermissionError is returned when a capability check fails. Message is
// safe to show to the user.
type PermissionError struct {
	Capability Capability
	Message    string
}

func (e *PermissionError) Error() string {
	return e.Message
}

// ValidationError is returned when input does not match the declared shape.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
