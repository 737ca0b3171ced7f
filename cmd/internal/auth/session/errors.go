package session

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned by Store.Update when the row no longer exists.
	ErrSessionNotFound = errors.New("session not found")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)

// Kind classifies a flow failure. Values are stable and sent to clients.
type Kind string

const (
	KindPayload         Kind = "payload"
	KindTokenMissing    Kind = "token_missing"
	KindTokenInvalid    Kind = "token_invalid"
	KindUnauthorized    Kind = "unauthorized"
	KindTokenExpired    Kind = "token_expired"
	KindNotFound        Kind = "not_found"
	KindInactive        Kind = "inactive"
	KindInvalidPassword Kind = "invalid_password"
	KindInternal        Kind = "internal"
)

var defaultMessages = map[Kind]string{
	KindPayload:         "Missing payload",
	KindTokenMissing:    "Missing authorization header",
	KindTokenInvalid:    "Invalid authorization header",
	KindUnauthorized:    "Invalid token",
	KindTokenExpired:    "Expired token",
	KindNotFound:        "User not found",
	KindInactive:        "User is inactive",
	KindInvalidPassword: "Invalid password",
	KindInternal:        "Internal server error",
}

// Error is a flow failure. Msg is safe to show to clients; Err is the
// underlying cause and is for server-side logs only.
type Error struct {
	Op   string
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Message returns the client-facing message. Internal errors always use the
// generic message.
func (e *Error) Message() string {
	if e.Msg != "" && e.Kind != KindInternal {
		return e.Msg
	}
	return defaultMessages[e.Kind]
}

func fail(op string, kind Kind) *Error {
	return &Error{Op: op, Kind: kind}
}

func failMsg(op string, kind Kind, msg string) *Error {
	return &Error{Op: op, Kind: kind, Msg: msg}
}

func internal(op string, err error) *Error {
	return &Error{Op: op, Kind: KindInternal, Err: err}
}

// KindOf resolves err to a Kind. Anything that is not an *Error is internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the client-facing message for err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message()
	}
	return defaultMessages[KindInternal]
}

// TokenMissing and TokenInvalid are raised by transports while reading the
// Authorization header, before any session lookup.
func TokenMissing(op string) error { return fail(op, KindTokenMissing) }
func TokenInvalid(op string) error { return fail(op, KindTokenInvalid) }
