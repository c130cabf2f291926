package models

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindInvalidInput ErrorKind = "INVALID_INPUT"
	KindUnauthorized ErrorKind = "UNAUTHORIZED"
	KindForbidden    ErrorKind = "FORBIDDEN"
	KindNotFound     ErrorKind = "NOT_FOUND"
	KindConflict     ErrorKind = "CONFLICT"
	KindServerError  ErrorKind = "SERVER_ERROR"
)

// AppError is the only error shape that crosses the service boundary.
// Message is safe to show to clients; Err is kept for logs.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func InvalidInput(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(msg string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: msg}
}

func Forbidden(msg string) *AppError {
	return &AppError{Kind: KindForbidden, Message: msg}
}

func NotFound(msg string) *AppError {
	return &AppError{Kind: KindNotFound, Message: msg}
}

func Conflict(msg string, err error) *AppError {
	return &AppError{Kind: KindConflict, Message: msg, Err: err}
}

func ServerError(msg string, err error) *AppError {
	return &AppError{Kind: KindServerError, Message: msg, Err: err}
}

// KindOf reports the kind of err. Anything that is not an AppError is a
// server error.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindServerError
}

func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the client-safe message of err. Errors that are not an
// AppError, and server errors, never leak their text.
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Kind != KindServerError {
		return appErr.Message
	}
	return "internal server error"
}
