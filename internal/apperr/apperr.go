// Package apperr defines the error taxonomy shared by all services. Handlers
// map these to HTTP status codes at the boundary; everything below wraps with
// fmt.Errorf("%w", ...) so errors.As still finds the kind.
package apperr

import "fmt"

type Kind int

const (
	KindValidation Kind = iota // malformed or missing input
	KindNotFound               // referenced entity absent
	KindConflict               // invalid state transition
	KindParse                  // LLM reply missing the expected envelope
	KindUpstream               // LLM call failed
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Parse(msg string, err error) *Error {
	return &Error{Kind: KindParse, Message: msg, Err: err}
}

func Upstream(msg string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: msg, Err: err}
}
