package model

import (
	"github.com/cockroachdb/errors"
)

// Error kinds shared by the store, the service and both surfaces.
// Concrete errors are marked with one of these so callers can match
// with errors.Is regardless of how much context was wrapped around them.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrStorage    = errors.New("storage failure")
)

// Error kind names as they appear in tool-call error results
const (
	KindValidation = "validation_error"
	KindNotFound   = "not_found"
	KindStorage    = "storage_failure"
	KindInternal   = "internal_error"
)

// NewValidationError creates an error marked as ErrValidation
func NewValidationError(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrValidation)
}

// NewNotFoundError creates an error marked as ErrNotFound
func NewNotFoundError(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrNotFound)
}

// WrapStorageError wraps an underlying persistence error and marks it as ErrStorage.
// A nil err yields nil.
func WrapStorageError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrap(err, msg), ErrStorage)
}

// ErrorKind classifies err into one of the Kind* names
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrStorage):
		return KindStorage
	default:
		return KindInternal
	}
}
