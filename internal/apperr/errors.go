package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of failure surfaced to callers.
type Code string

const (
	UnsupportedInput   Code = "UNSUPPORTED_INPUT"
	InvalidBoundingBox Code = "INVALID_BOUNDING_BOX"
	InvalidPage        Code = "INVALID_PAGE"
	NotFound           Code = "NOT_FOUND"
	RasterizeFailed    Code = "RASTERIZE_FAILED"
	OCRFailed          Code = "OCR_FAILED"
	StorageFailed      Code = "STORAGE_FAILED"
	Internal           Code = "INTERNAL"
)

// Error is a coded error. Message is safe to return to HTTP clients; Cause is
// only logged.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New returns an error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap returns an error with the given code and message caused by err.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Cause: err}
}

// CodeOf returns the code of the first *Error in err's chain, or Internal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return Internal
}

// MessageOf returns the client-facing message for err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal server error."
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// HTTPStatus maps a code to the response status used by the HTTP handlers.
func HTTPStatus(code Code) int {
	switch code {
	case UnsupportedInput, InvalidBoundingBox, InvalidPage:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
