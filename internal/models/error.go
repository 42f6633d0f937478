package models

import (
	"errors"
	"net/http"
	"strings"
)

var (
	ErrNotFound       = errors.New("trial record not found")
	ErrConflict       = errors.New("trial record already exists")
	ErrMalformedInput = errors.New("malformed input")
)

// ValidationError carries every constraint violation found in a document.
type ValidationError struct {
	Errors []string
}

func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Errors: messages}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

func IsValidationError(err error) (*ValidationError, bool) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr, true
	}
	return nil, false
}

// StatusCode maps an error onto the HTTP status reported to callers.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}

	if _, ok := IsValidationError(err); ok {
		return http.StatusBadRequest
	}

	switch {
	case errors.Is(err, ErrMalformedInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ErrorMessages returns the caller-visible messages for err. Internal faults
// are reduced to a generic message.
func ErrorMessages(err error) []string {
	if err == nil {
		return nil
	}

	if validationErr, ok := IsValidationError(err); ok {
		return append([]string(nil), validationErr.Errors...)
	}

	if StatusCode(err) == http.StatusInternalServerError {
		return []string{"internal server error"}
	}

	return []string{err.Error()}
}
