package errors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound             = "NOT_FOUND"
	CodeValidation           = "VALIDATION_ERROR"
	CodeInvalidInput         = "INVALID_INPUT"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeConflict             = "CONFLICT"
	CodeDuplicate            = "DUPLICATE"
	CodeInvalidTransition    = "INVALID_TRANSITION"
	CodeChatClosed           = "CHAT_CLOSED"
	CodeRateLimited          = "RATE_LIMITED"
	CodeUnsupportedMediaType = "UNSUPPORTED_MEDIA_TYPE"
	CodeTimeout              = "TIMEOUT"
	CodeUnavailable          = "SERVICE_UNAVAILABLE"
	CodeInternal             = "INTERNAL_ERROR"
)

// statusByCode is the HTTP status each code maps to. Duplicate is a 400
// because clients treat a second review or acceptance as a bad request.
var statusByCode = map[string]int{
	CodeNotFound:             http.StatusNotFound,
	CodeValidation:           http.StatusUnprocessableEntity,
	CodeInvalidInput:         http.StatusBadRequest,
	CodeUnauthorized:         http.StatusUnauthorized,
	CodeForbidden:            http.StatusForbidden,
	CodeConflict:             http.StatusConflict,
	CodeDuplicate:            http.StatusBadRequest,
	CodeInvalidTransition:    http.StatusConflict,
	CodeChatClosed:           http.StatusConflict,
	CodeRateLimited:          http.StatusTooManyRequests,
	CodeUnsupportedMediaType: http.StatusUnsupportedMediaType,
	CodeTimeout:              http.StatusGatewayTimeout,
	CodeUnavailable:          http.StatusServiceUnavailable,
	CodeInternal:             http.StatusInternalServerError,
}

// AppError is the error every service returns to handlers. Err is kept for
// logs and never serialised.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

func (e *AppError) StatusCode() int { return e.HTTPStatus }

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus}
}

func Wrap(err error, code, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus, Err: err}
}

func coded(code, message string) *AppError {
	return New(code, message, statusByCode[code])
}

func NotFound(resource string) *AppError {
	return coded(CodeNotFound, resource+" not found")
}

func NotFoundWithID(resource, id string) *AppError {
	return NotFound(resource).WithDetails(map[string]any{"resource": resource, "id": id})
}

func Validation(message string, details map[string]any) *AppError {
	return coded(CodeValidation, message).WithDetails(details)
}

func InvalidInput(message string) *AppError { return coded(CodeInvalidInput, message) }

func Unauthorized(message string) *AppError { return coded(CodeUnauthorized, message) }

func Forbidden(message string) *AppError { return coded(CodeForbidden, message) }

func Conflict(message string) *AppError { return coded(CodeConflict, message) }

// Duplicate reports a second write of something allowed only once.
func Duplicate(message string) *AppError { return coded(CodeDuplicate, message) }

func InvalidTransition(from, to string) *AppError {
	msg := fmt.Sprintf("cannot move booking from %s to %s", from, to)
	return coded(CodeInvalidTransition, msg).WithDetails(map[string]any{"from": from, "to": to})
}

func ChatClosed(message string) *AppError { return coded(CodeChatClosed, message) }

func RateLimited(message string) *AppError { return coded(CodeRateLimited, message) }

func UnsupportedMediaType(message string) *AppError {
	return coded(CodeUnsupportedMediaType, message)
}

func Timeout(message string) *AppError { return coded(CodeTimeout, message) }

func Unavailable(service string) *AppError {
	return coded(CodeUnavailable, service+" is temporarily unavailable")
}

func Internal(message string, err error) *AppError {
	e := coded(CodeInternal, message)
	e.Err = err
	return e
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError unwraps err to an AppError, treating anything else as internal.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}
