// Package errors defines the AppError type the HTTP layer renders and the
// constructors the candidate service returns.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinels matched with errors.Is through AppError.Unwrap
var (
	ErrNotFound             = errors.New("resource not found")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrBadRequest           = errors.New("bad request")
	ErrConflict             = errors.New("resource conflict")
	ErrValidation           = errors.New("validation error")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrPayloadTooLarge      = errors.New("payload too large")
	ErrStorage              = errors.New("storage failure")
	ErrExtraction           = errors.New("extraction failure")
	ErrTokenExpired         = errors.New("token expired")
	ErrTokenInvalid         = errors.New("invalid token")
)

// AppError is an error with the HTTP status and code clients see
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	StatusCode int               `json:"status_code"`
	Details    map[string]string `json:"details,omitempty"`
	cause      error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap exposes both the sentinel and, when present, the underlying cause
func (e *AppError) Unwrap() []error {
	var errs []error
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.cause != nil {
		errs = append(errs, e.cause)
	}
	return errs
}

func newError(sentinel error, code, message string, status int) *AppError {
	return &AppError{Err: sentinel, Code: code, Message: message, StatusCode: status}
}

func NotFound(resource string) *AppError {
	return newError(ErrNotFound, "NOT_FOUND", resource+" not found", http.StatusNotFound)
}

func Unauthorized(message string) *AppError {
	return newError(ErrUnauthorized, "UNAUTHORIZED", message, http.StatusUnauthorized)
}

func BadRequest(message string) *AppError {
	return newError(ErrBadRequest, "BAD_REQUEST", message, http.StatusBadRequest)
}

func Conflict(message string) *AppError {
	return newError(ErrConflict, "CONFLICT", message, http.StatusConflict)
}

func Validation(details map[string]string) *AppError {
	e := newError(ErrValidation, "VALIDATION_ERROR", "validation failed", http.StatusBadRequest)
	e.Details = details
	return e
}

// UnsupportedFileType rejects an upload whose extension is not accepted.
// Resume clients expect a 400 here rather than 415.
func UnsupportedFileType(allowed []string) *AppError {
	return newError(ErrUnsupportedMediaType, "UNSUPPORTED_TYPE",
		"Unsupported type. Allowed: "+strings.Join(allowed, ", "), http.StatusBadRequest)
}

func PayloadTooLarge(limit int64) *AppError {
	return newError(ErrPayloadTooLarge, "PAYLOAD_TOO_LARGE",
		fmt.Sprintf("upload exceeds %d bytes", limit), http.StatusRequestEntityTooLarge)
}

// StorageFailed reports a file store error without leaking paths or bucket names
func StorageFailed(cause error, message string) *AppError {
	e := newError(ErrStorage, "STORAGE_ERROR", message, http.StatusInternalServerError)
	e.cause = cause
	return e
}

// ExtractionFailed reports a document that has a supported extension but
// could not be read
func ExtractionFailed(cause error) *AppError {
	e := newError(ErrExtraction, "EXTRACTION_FAILED", "failed to read document", http.StatusUnprocessableEntity)
	e.cause = cause
	return e
}

func TokenExpired() *AppError {
	return newError(ErrTokenExpired, "TOKEN_EXPIRED", "token has expired", http.StatusUnauthorized)
}

func TokenInvalid() *AppError {
	return newError(ErrTokenInvalid, "TOKEN_INVALID", "invalid token", http.StatusUnauthorized)
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}
