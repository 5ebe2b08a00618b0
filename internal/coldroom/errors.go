package coldroom

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrInconsistentInput = errors.New("physically inconsistent input")
	ErrNonFinite         = errors.New("non-finite result")
	ErrUnknownInsulation = errors.New("unknown insulation type")
	ErrInvalidReference  = errors.New("invalid reference data")
)

// FieldError reports which logical field failed and why. It wraps one of the
// sentinel errors above so callers can branch with errors.Is.
type FieldError struct {
	Field  string
	Value  any
	Reason string
	Err    error
}

func (e *FieldError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("%v: %s: %s", e.Err, e.Field, e.Reason)
	}
	return fmt.Sprintf("%v: %s=%v: %s", e.Err, e.Field, e.Value, e.Reason)
}

func (e *FieldError) Unwrap() error { return e.Err }

func invalid(field string, value any, reason string) error {
	return &FieldError{Field: field, Value: value, Reason: reason, Err: ErrInvalidInput}
}

func inconsistent(field string, value any, reason string) error {
	return &FieldError{Field: field, Value: value, Reason: reason, Err: ErrInconsistentInput}
}
