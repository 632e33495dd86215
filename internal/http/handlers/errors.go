// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// These codes give clients a stable, machine-readable error taxonomy next to
// the human-readable message. Codes are lowercase snake_case; generic codes
// mirror HTTP status semantics while the domain ones (validation_error,
// self_follow) name business rule failures that share a status with others.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "validation_error",
//	  "field": "cooking_time",
//	  "message": "cooking_time must be at least 1"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-foodgram-backend/internal/services"
)

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "rate_limited"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeValidation       = "validation_error"
	ErrCodeSelfFollow       = "self_follow"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)

// failService maps a service error onto the envelope. Unknown errors become
// a 500 without leaking their text.
func failService(c *gin.Context, err error) {
	var field string
	var fe *services.FieldError
	msg := err.Error()
	if errors.As(err, &fe) {
		field = fe.Field
		msg = fe.Message
	}

	switch {
	case errors.Is(err, services.ErrValidation):
		failField(c, http.StatusBadRequest, ErrCodeValidation, field, msg)
	case errors.Is(err, services.ErrSelfFollow):
		failField(c, http.StatusBadRequest, ErrCodeSelfFollow, field, msg)
	case errors.Is(err, services.ErrDuplicate):
		failField(c, http.StatusConflict, ErrCodeConflict, field, msg)
	case errors.Is(err, services.ErrNotFound):
		failField(c, http.StatusNotFound, ErrCodeNotFound, field, msg)
	case errors.Is(err, services.ErrForbidden):
		failField(c, http.StatusForbidden, ErrCodeForbidden, field, msg)
	default:
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}
