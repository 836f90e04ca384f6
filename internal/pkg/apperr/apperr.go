package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrValidation       = errors.New("validation error")
	ErrDuplicateSlug    = errors.New("slug already exists")
)

// NotFound wraps ErrNotFound with the kind of record that was missing.
func NotFound(what string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, what)
}

// Validation wraps ErrValidation with a client-facing reason.
func Validation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Forbidden wraps ErrPermissionDenied with a client-facing reason.
func Forbidden(reason string) error {
	return fmt.Errorf("%w: %s", ErrPermissionDenied, reason)
}

// DuplicateSlug reports a slug collision for the given slug.
func DuplicateSlug(slug string) error {
	return fmt.Errorf("%w: %q", ErrDuplicateSlug, slug)
}

// IsClientError reports whether err belongs to the 4xx part of the taxonomy.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrPermissionDenied) ||
		errors.Is(err, ErrUnauthenticated) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrDuplicateSlug)
}
