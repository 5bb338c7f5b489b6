package scene

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrValidation marks malformed or out-of-range input. No prompt is
	// produced for a request that fails validation.
	ErrValidation = errors.New("invalid scene input")

	// ErrUpstreamUnavailable marks a weather or POI provider failure.
	ErrUpstreamUnavailable = errors.New("upstream provider unavailable")
)

// ValidationError names the offending input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, format string, args ...interface{}) error {
	return errors.WithStack(&ValidationError{
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	})
}

// FieldOf returns the offending field name of a validation error, or "".
func FieldOf(err error) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Field
	}

	return ""
}
