package core

import (
	"errors"
	"fmt"
)

// CommandError is the structured error delivered to listeners.
type CommandError struct {
	// Code is an HTTP-style status code, 0 when unknown.
	Code    int
	Message string
	// Payload carries whatever the failing operation returned, if anything.
	Payload any
	// Err is the underlying cause, if any.
	Err error
}

// NewCommandError creates a CommandError with the given code, message and payload.
func NewCommandError(code int, message string, payload any) *CommandError {
	return &CommandError{Code: code, Message: message, Payload: payload}
}

// CommandErrorFromStatus builds a CommandError whose message is derived from
// an HTTP-style status code.
func CommandErrorFromStatus(code int, payload any) *CommandError {
	var msg string
	switch {
	case code == 400:
		msg = "bad request"
	case code == 401 || code == 403:
		msg = "unauthorized"
	case code == 404:
		msg = "not found"
	case code == 500:
		msg = "internal server error"
	case code == 503:
		msg = "service unavailable"
	default:
		msg = "unknown error"
	}
	return NewCommandError(code, msg, payload)
}

// NotSupported returns the error reported for operations a target cannot perform.
func NotSupported() *CommandError {
	return &CommandError{Code: 503, Message: "not supported", Err: ErrNotSupported}
}

// AsCommandError returns err as a *CommandError, wrapping it with code 0
// when it is not one already. A nil err yields nil.
func AsCommandError(err error) *CommandError {
	if err == nil {
		return nil
	}
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce
	}
	return &CommandError{Message: err.Error(), Err: err}
}

func (e *CommandError) Error() string {
	if e.Code == 0 {
		return e.Message
	}
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
