// Package apperr normalizes failures from the session and data layers into
// a small set of kinds callers can branch on.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	Unknown Kind = iota
	Validation
	Unauthorized
	NotFound
	Server
	Network
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Unauthorized:
		return "unauthorized"
	case NotFound:
		return "not_found"
	case Server:
		return "server_error"
	case Network:
		return "network_unreachable"
	default:
		return "unknown"
	}
}

// Error is the normalized error returned at component boundaries.
type Error struct {
	Kind    Kind
	Op      string
	Status  int // HTTP status when the failure came from a response
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind, so errors.Is(err, apperr.ErrNotFound) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrValidation   = &Error{Kind: Validation}
	ErrUnauthorized = &Error{Kind: Unauthorized}
	ErrNotFound     = &Error{Kind: NotFound}
	ErrServer       = &Error{Kind: Server}
	ErrNetwork      = &Error{Kind: Network}
)

func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Message: msg}
}

func Newf(kind Kind, op, format string, a ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, a...)}
}

// Wrap attaches a kind to err. An err that is already an *Error keeps its kind.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of err, Unknown for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

func IsValidation(err error) bool   { return KindOf(err) == Validation }
func IsUnauthorized(err error) bool { return KindOf(err) == Unauthorized }
func IsNotFound(err error) bool     { return KindOf(err) == NotFound }
func IsNetwork(err error) bool      { return KindOf(err) == Network }

// Message returns the human message carried by err without the op prefix.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Message != "" {
			return e.Message
		}
		if e.Err != nil {
			return e.Err.Error()
		}
		return e.Kind.String()
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
