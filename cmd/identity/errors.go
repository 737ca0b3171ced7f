package identity

import (
	"errors"
	"fmt"
)

// Error kinds for principal store writes. Lookups never fail on a miss;
// they return a nil principal.
var (
	ErrInvalidInput = errors.New("invalid_input")
	ErrConflict     = errors.New("conflict")
)

// OpError tags a failure with the operation that produced it and its kind.
// Msg names the offending field or value and never carries a password.
type OpError struct {
	Op   string
	Kind error
	Msg  string
}

func (e OpError) Error() string {
	if e.Msg == "" {
		return e.Op + ": " + e.Kind.Error()
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Msg)
}

func (e OpError) Unwrap() error { return e.Kind }

// ConflictError reports that a principal with the same id or email exists.
type ConflictError struct {
	Op    string
	Field string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("%s: %s already taken", e.Op, e.Field)
}

func (e ConflictError) Unwrap() error { return ErrConflict }

func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

func IsInvalidInput(err error) bool { return errors.Is(err, ErrInvalidInput) }
