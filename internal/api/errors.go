package api

import (
	"errors"
	"fmt"

	"github.com/skillhub/skillhub/internal/social"
)

// Error represents an API error
type Error struct {
	Code    int
	Message string
}

// NewError creates a new API error
func NewError(code int, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Code, e.Message)
}

// errorCode maps a handler error to a JSON-RPC code and message by kind
func errorCode(err error) (int, string) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code, apiErr.Message
	}
	var pe *paramsError
	if errors.As(err, &pe) {
		return ErrInvalidParams, "Invalid params"
	}

	switch social.KindOf(err) {
	case social.ErrValidation:
		return ErrInvalidParams, "Invalid params"
	case social.ErrNotFound:
		return ErrNotFound, "Not found"
	case social.ErrAlreadyExists:
		return ErrAlreadyExists, "Already exists"
	case social.ErrConflict:
		return ErrConflict, "Conflict"
	case social.ErrForbidden:
		return ErrForbidden, "Forbidden"
	case social.ErrUnavailable:
		return ErrUnavailable, "Service unavailable"
	}
	return ErrServerError, "Server error"
}
