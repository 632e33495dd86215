// Package services defines the business logic for recipes, the favorite /
// shopping-cart / follow relationships, the shopping-list aggregation and the
// ingredient and tag catalog. This file centralizes the service-level error
// kinds so that handlers can map them to HTTP results with errors.Is.
//
// Every error returned for a predictable case is a *FieldError wrapping one
// of the kinds below; the message is safe to show to API clients.
package services

import (
	"errors"

	"github.com/tbourn/go-foodgram-backend/internal/repo"
)

// Error kinds.
var (
	// ErrValidation marks input that breaks a business rule.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicate marks an attempt to create a relationship or record that
	// already exists.
	ErrDuplicate = errors.New("already exists")

	// ErrSelfFollow is returned when a user tries to follow themselves.
	ErrSelfFollow = errors.New("cannot follow yourself")

	// ErrNotFound marks a referenced entity that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden marks an operation the current user may not perform.
	ErrForbidden = errors.New("forbidden")
)

// FieldError carries a client-facing message and, for validation failures,
// the offending field. It unwraps to its Kind.
type FieldError struct {
	Kind    error
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Message }

// Unwrap exposes the error kind to errors.Is.
func (e *FieldError) Unwrap() error { return e.Kind }

func invalid(field, msg string) error {
	return &FieldError{Kind: ErrValidation, Field: field, Message: msg}
}

func duplicate(msg string) error {
	return &FieldError{Kind: ErrDuplicate, Message: msg}
}

func duplicateField(field, msg string) error {
	return &FieldError{Kind: ErrDuplicate, Field: field, Message: msg}
}

func notFound(field, msg string) error {
	return &FieldError{Kind: ErrNotFound, Field: field, Message: msg}
}

func forbidden(msg string) error {
	return &FieldError{Kind: ErrForbidden, Message: msg}
}

// isNotFound reports whether err is a repository not-found error.
func isNotFound(err error) bool {
	return errors.Is(err, repo.ErrNotFound)
}
