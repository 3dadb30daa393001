package service

import "errors"

// Error kinds. Every failure returned by the services matches exactly one
// of these with errors.Is.
var (
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not_found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// Error is a classified failure. Message is safe to show to the caller;
// Err, when set, is the underlying cause and stays reachable through
// errors.Is / errors.As.
type Error struct {
	Kind    error
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func conflict(field, msg string) *Error {
	return &Error{Kind: ErrConflict, Field: field, Message: msg}
}

func notFound(msg string) *Error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

func unauthorized(msg string, cause error) *Error {
	return &Error{Kind: ErrUnauthorized, Message: msg, Err: cause}
}

func forbidden(msg string) *Error {
	return &Error{Kind: ErrForbidden, Message: msg}
}
