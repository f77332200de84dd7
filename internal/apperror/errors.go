package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound      = errors.New("resource not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrBadRequest    = errors.New("bad request")
	ErrConflict      = errors.New("conflict")
	ErrUnprocessable = errors.New("unprocessable")
	ErrInternal      = errors.New("internal server error")
	ErrValidation    = errors.New("validation error")
)

// AppError carries the HTTP status and the message shown to the client.
// Err is kept for logs and errors.Is checks.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
	Field      string
}

func (e *AppError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

func BadRequest(message string) *AppError {
	return &AppError{Err: ErrBadRequest, Message: message, StatusCode: http.StatusBadRequest}
}

// ValidationError rejects malformed input before it is persisted.
func ValidationError(field, message string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Field:      field,
	}
}

func Unauthorized(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return &AppError{Err: ErrUnauthorized, Message: message, StatusCode: http.StatusUnauthorized}
}

func Forbidden(message string) *AppError {
	if message == "" {
		message = "forbidden"
	}
	return &AppError{Err: ErrForbidden, Message: message, StatusCode: http.StatusForbidden}
}

func Conflict(message string) *AppError {
	return &AppError{Err: ErrConflict, Message: message, StatusCode: http.StatusConflict}
}

// Unprocessable is used for well-formed requests the current state refuses,
// such as running an inactive rule.
func Unprocessable(err error, message string) *AppError {
	if err == nil {
		err = ErrUnprocessable
	}
	return &AppError{Err: err, Message: message, StatusCode: http.StatusUnprocessableEntity}
}

func Internal(err error) *AppError {
	return &AppError{
		Err:        err,
		Message:    "an internal error occurred",
		StatusCode: http.StatusInternalServerError,
	}
}

func Wrap(err error, message string) *AppError {
	return &AppError{Err: err, Message: message, StatusCode: http.StatusInternalServerError}
}

// GetStatusCode extracts the HTTP status, defaulting to 500.
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnprocessable):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// GetMessage returns the client-facing message. Errors that are not
// AppErrors resolve to a generic message so internals do not leak.
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if GetStatusCode(err) == http.StatusInternalServerError {
		return "an internal error occurred"
	}
	return err.Error()
}

// GetField returns the offending field of a validation error, if any.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}
