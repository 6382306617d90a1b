package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExportNotFound    = errors.New("export not found")
	ErrExportExists      = errors.New("export reference id already exists")
	ErrInvalidParameters = errors.New("invalid export parameters")
	ErrCannotCancel      = errors.New("export cannot be cancelled")
	ErrStatusConflict    = errors.New("export status changed concurrently")
	ErrInvalidTransition = errors.New("invalid export status transition")
	ErrQueueFull         = errors.New("export queue is full")
	ErrRecordNotFound    = errors.New("record not found")
	ErrUnsupportedFormat = errors.New("unsupported export type")
)

// FieldError describes one rejected request field.
type FieldError struct {
	Field  string
	Reason string
}

// ValidationError is returned when submission parameters are malformed.
// It unwraps to ErrInvalidParameters.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidParameters, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidParameters
}

// CancelConflictError reports the status that prevented a cancellation.
type CancelConflictError struct {
	Status ExportStatus
}

func (e *CancelConflictError) Error() string {
	return fmt.Sprintf("Cannot cancel export in %s status", e.Status)
}

func (e *CancelConflictError) Unwrap() error {
	return ErrCannotCancel
}
