package social

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Error kinds. Every error returned by this package matches exactly one of
// them under errors.Is.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrConflict      = errors.New("conflict")
	ErrForbidden     = errors.New("forbidden")
	ErrValidation    = errors.New("validation error")
	ErrUnavailable   = errors.New("unavailable")
)

// Error carries the kind, the operation that failed and an optional cause
type Error struct {
	Kind error
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func notFound(op, format string, args ...interface{}) error {
	return newError(ErrNotFound, op, format, args...)
}

func forbidden(op, format string, args ...interface{}) error {
	return newError(ErrForbidden, op, format, args...)
}

func invalid(op, format string, args ...interface{}) error {
	return newError(ErrValidation, op, format, args...)
}

// storageErr classifies an error from the store. Errors already produced by
// this package pass through untouched.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &Error{Kind: ErrAlreadyExists, Op: op, Msg: "duplicate record", Err: err}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return &Error{Kind: ErrNotFound, Op: op, Msg: "referenced record does not exist", Err: err}
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Kind: ErrNotFound, Op: op, Err: err}
	default:
		return &Error{Kind: ErrUnavailable, Op: op, Msg: "storage failure", Err: err}
	}
}

// KindOf returns the error kind of err, or nil when err is not one of ours
func KindOf(err error) error {
	for _, kind := range []error{ErrNotFound, ErrAlreadyExists, ErrConflict, ErrForbidden, ErrValidation, ErrUnavailable} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// IsClientError reports whether err was caused by the request rather than
// by a failing dependency. Nothing was changed when it returns true.
func IsClientError(err error) bool {
	switch KindOf(err) {
	case ErrNotFound, ErrAlreadyExists, ErrConflict, ErrForbidden, ErrValidation:
		return true
	}
	return false
}
