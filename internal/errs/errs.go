// Package errs is the structured error type shared by the pipeline, the
// orchestrator and the HTTP layer. Message is safe to show to users; the
// wrapped cause is for logs only.
package errs

import (
	stderrs "errors"
	"fmt"
	"net/http"
)

// Code is a stable, machine-facing error code.
type Code string

const (
	UnsupportedFormat   Code = "UNSUPPORTED_FORMAT"
	EmptyResult         Code = "EMPTY_RESULT"
	InvalidState        Code = "INVALID_STATE"
	InsufficientCredits Code = "INSUFFICIENT_CREDITS"
	AIResponseMalformed Code = "AI_RESPONSE_MALFORMED"
	AIResponseInvalid   Code = "AI_RESPONSE_INVALID"
	StorageFailure      Code = "STORAGE_FAILURE"

	NotFound        Code = "NOT_FOUND"
	InvalidArgument Code = "INVALID_ARGUMENT"
	AIUnavailable   Code = "AI_UNAVAILABLE"
	Internal        Code = "INTERNAL"
)

// HTTPStatusCode maps a code onto an HTTP status.
func HTTPStatusCode(c Code) int {
	switch c {
	case UnsupportedFormat, EmptyResult, InvalidArgument:
		return http.StatusUnprocessableEntity
	case InvalidState:
		return http.StatusConflict
	case InsufficientCredits:
		return http.StatusPaymentRequired
	case NotFound:
		return http.StatusNotFound
	case AIResponseMalformed, AIResponseInvalid, AIUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a code, a user-presentable message, an optional field and
// the wrapped cause.
type Error struct {
	orig  error
	msg   string
	code  Code
	field string
}

// Wire is the JSON form returned by the API.
type Wire struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	s := string(e.code) + ": " + e.msg
	if e.orig != nil {
		s += ": " + e.orig.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.orig }

// Code returns the error code.
func (e *Error) Code() Code { return e.code }

// Message returns the user-presentable message without the cause.
func (e *Error) Message() string { return e.msg }

// Field returns the offending field, if any.
func (e *Error) Field() string { return e.field }

// ToWire converts the error to its API payload.
func (e *Error) ToWire() Wire { return Wire{Code: e.code, Message: e.msg, Field: e.field} }

// New builds an error with a code and message.
func New(code Code, msg string) *Error {
	return &Error{code: code, msg: msg}
}

// Newf builds an error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{code: code, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to a cause. A nil cause yields nil.
func Wrap(orig error, code Code, msg string) error {
	if orig == nil {
		return nil
	}
	return &Error{orig: orig, code: code, msg: msg}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(orig error, code Code, format string, args ...any) error {
	if orig == nil {
		return nil
	}
	return &Error{orig: orig, code: code, msg: fmt.Sprintf(format, args...)}
}

// WithField returns a copy of err carrying field. Foreign errors pass through.
func WithField(err error, field string) error {
	if e, ok := As(err); ok {
		c := *e
		c.field = field
		return &c
	}
	return err
}

// As unwraps err into an *Error.
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns the code of err, or Internal for foreign errors.
func CodeOf(err error) Code {
	if e, ok := As(err); ok {
		return e.code
	}
	return Internal
}

// IsCode reports whether err carries code.
func IsCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// HTTPStatus maps any error onto an HTTP status.
func HTTPStatus(err error) int { return HTTPStatusCode(CodeOf(err)) }

// WireFrom converts any error into its API payload. Foreign errors are
// reported generically so internal detail never leaks.
func WireFrom(err error) Wire {
	if err == nil {
		return Wire{}
	}
	if e, ok := As(err); ok {
		return e.ToWire()
	}
	return Wire{Code: Internal, Message: "internal error"}
}

// UserMessage returns the message safe to show to an end user.
func UserMessage(err error) string {
	return WireFrom(err).Message
}
