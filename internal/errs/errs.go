package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors for the store operations. Services classify failures into
// one of these; handlers map them onto HTTP status codes.
var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("validation failed")
	ErrStorage    = errors.New("storage failure")
)

func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

func Forbiddenf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrForbidden)...)
}

func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

// Storage wraps a lower-level persistence error so it is surfaced, never
// swallowed, while still matching ErrStorage.
func Storage(err error) error {
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

func IsNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
func IsForbidden(err error) bool  { return errors.Is(err, ErrForbidden) }
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
func IsStorage(err error) bool    { return errors.Is(err, ErrStorage) }
