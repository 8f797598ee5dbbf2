package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrDecisionTerminal    = fmt.Errorf("%w: decision is closed or cancelled", ErrValidation)
	ErrVotingClosed        = fmt.Errorf("%w: voting window has elapsed", ErrValidation)
	ErrNotFound            = errors.New("not found")
	ErrDecisionNotFound    = fmt.Errorf("decision %w", ErrNotFound)
	ErrBuildingNotFound    = fmt.Errorf("building %w", ErrNotFound)
	ErrIdempotencyConflict = errors.New("idempotency key conflict")
	ErrConflict            = errors.New("decision conflict")
	ErrPersistence         = errors.New("persistence failure")
)

// ValidationError lists the rejected input fields.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

func (e *ValidationError) Add(field string, message string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, exists := e.Fields[field]; exists {
		return
	}
	e.Fields[field] = message
}

// OrNil returns nil when no field was rejected.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+e.Fields[key])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
