// Package apperrors carries the transport-agnostic error taxonomy shared by
// the services and HTTP layers.
package apperrors

import "errors"

// Code is a stable error category. Handlers map codes to HTTP status.
type Code string

const (
	CodeValidation             Code = "validation"
	CodeInvalidStateTransition Code = "invalid_state_transition"
	CodeNotFound               Code = "not_found"
	CodeUnauthorized           Code = "unauthorized"
	CodeForbidden              Code = "forbidden"
	CodeExpired                Code = "expired"
	CodeAlreadyUsed            Code = "already_used"
	CodeConflict               Code = "conflict"
	CodeInternal               Code = "internal"
)

type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code, so errors.Is(err, apperrors.NotFound(""))
// works regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code to err. An err that already carries a code keeps it.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

func Validation(msg string) error { return New(CodeValidation, msg) }

func InvalidStateTransition(msg string) error { return New(CodeInvalidStateTransition, msg) }

func NotFound(msg string) error { return New(CodeNotFound, msg) }

func Unauthorized(msg string) error { return New(CodeUnauthorized, msg) }

func Forbidden(msg string) error { return New(CodeForbidden, msg) }

func Expired(msg string) error { return New(CodeExpired, msg) }

func AlreadyUsed(msg string) error { return New(CodeAlreadyUsed, msg) }

func Conflict(msg string) error { return New(CodeConflict, msg) }
