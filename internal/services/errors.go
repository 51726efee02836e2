package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound covers both an absent target and a target that is not in the
// expected source status for the requested transition. The two are conflated
// on purpose so state races do not leak the current status to callers.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller lacks the required role or
// ownership for the operation.
var ErrForbidden = errors.New("forbidden")

// ValidationError carries per-field problems with a request payload.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}

	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func newValidationError(field, problem string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: problem}}
}

// IsValidationError reports whether err is a ValidationError and returns it.
func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
