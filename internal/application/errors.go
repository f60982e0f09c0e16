package application

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when the requested resource does not exist or is not visible to the caller.
	ErrNotFound = errors.New("application: not found")
	// ErrConflict is returned when an operation is not allowed in the current timer state.
	ErrConflict = errors.New("application: conflict")
	// ErrAlreadyExists is returned when a resource with the same identity already exists.
	ErrAlreadyExists = errors.New("application: already exists")

	// ErrTimerAlreadyRunning is returned when starting a timer while another one runs.
	ErrTimerAlreadyRunning = fmt.Errorf("%w: timer already running", ErrConflict)
	// ErrNoActiveTimer is returned when stopping, patching or cancelling while idle.
	ErrNoActiveTimer = fmt.Errorf("%w: no active timer", ErrConflict)
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
	// MissingTagIDs lists requested tag ids that the user does not own, in request order.
	MissingTagIDs []string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && (len(v.FieldErrors) > 0 || len(v.MissingTagIDs) > 0)
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

func newValidationError(field, message string) *ValidationError {
	vErr := &ValidationError{}
	vErr.add(field, message)
	return vErr
}
