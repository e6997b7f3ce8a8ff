package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code so clones compare equal to their template.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid username or password")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
	ErrSessionExpired     = New("SESSION_EXPIRED", http.StatusUnauthorized, "session expired")

	ErrUpstream           = New("UPSTREAM_FAILURE", http.StatusBadGateway, "review backend request failed")
	ErrUnknownCategory    = New("UNKNOWN_CATEGORY", http.StatusBadRequest, "unknown review category")
	ErrInvalidField       = New("INVALID_FIELD", http.StatusBadRequest, "unknown field")
	ErrInvalidFieldValue  = New("INVALID_FIELD_VALUE", http.StatusBadRequest, "value does not match field type")
	ErrIndexOutOfRange    = New("INDEX_OUT_OF_RANGE", http.StatusNotFound, "record index out of range")
	ErrRecordDeleted      = New("RECORD_DELETED", http.StatusConflict, "record is marked for deletion")
	ErrInvalidDisposition = New("INVALID_DISPOSITION", http.StatusBadRequest, "invalid disposition")
	ErrWorkspaceNotOpen   = New("WORKSPACE_NOT_OPEN", http.StatusNotFound, "review is not open")
	ErrSubmitInProgress   = New("SUBMIT_IN_PROGRESS", http.StatusConflict, "review is being submitted")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
