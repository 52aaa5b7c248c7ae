package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound               = errors.New("not found")
	ErrAlreadyExists          = errors.New("already exists")
	ErrValidation             = errors.New("validation error")
	ErrOutOfRange             = errors.New("index out of range")
	ErrMembershipMismatch     = errors.New("partition membership mismatch")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrInvariantViolation     = errors.New("ordering invariant violated")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

// OutOfRangeError reports a target index outside the allowed range.
// Max is inclusive.
type OutOfRangeError struct {
	Index int
	Max   int
}

func (e *OutOfRangeError) Error() string {
	if e.Max < 0 {
		return fmt.Sprintf("target index %d out of range: partition is empty", e.Index)
	}
	return fmt.Sprintf("target index %d out of range [0, %d]", e.Index, e.Max)
}

func (e *OutOfRangeError) Unwrap() error { return ErrOutOfRange }

// PartitionMembershipMismatchError is returned by bulk reorders when the
// supplied ID list is not exactly the current alive membership.
// Missing and Unexpected together form the symmetric difference.
type PartitionMembershipMismatchError struct {
	Missing    []uuid.UUID
	Unexpected []uuid.UUID
	Duplicates []uuid.UUID
}

func (e *PartitionMembershipMismatchError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+joinIDs(e.Missing))
	}
	if len(e.Unexpected) > 0 {
		parts = append(parts, "unexpected "+joinIDs(e.Unexpected))
	}
	if len(e.Duplicates) > 0 {
		parts = append(parts, "duplicated "+joinIDs(e.Duplicates))
	}
	return "membership mismatch: " + strings.Join(parts, "; ")
}

func (e *PartitionMembershipMismatchError) Unwrap() error { return ErrMembershipMismatch }

// ConcurrentModificationError wraps a lock timeout, deadlock abort or
// serialization failure. The operation is safe to retry.
type ConcurrentModificationError struct {
	Op  string
	Err error
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("%s: concurrent modification: %v", e.Op, e.Err)
}

func (e *ConcurrentModificationError) Unwrap() []error {
	return []error{ErrConcurrentModification, e.Err}
}

// ContiguityViolationError means a partition's alive positions are not
// exactly 0..N-1. This is a bug, never an expected runtime condition.
type ContiguityViolationError struct {
	Scope     string
	Positions []int
}

func (e *ContiguityViolationError) Error() string {
	return fmt.Sprintf("contiguity violated in %s: positions %v", e.Scope, e.Positions)
}

func (e *ContiguityViolationError) Unwrap() error { return ErrInvariantViolation }

func joinIDs(ids []uuid.UUID) string {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = id.String()
	}
	return "[" + strings.Join(s, ", ") + "]"
}
