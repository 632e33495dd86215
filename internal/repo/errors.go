package repo

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound so callers can use either.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate is returned when an insert hits a unique index.
var ErrDuplicate = errors.New("duplicate")

// ErrCheck is returned when a row violates a CHECK constraint.
var ErrCheck = errors.New("check constraint violated")

// isUniqueViolation reports whether err came from a unique index. glebarez/sqlite
// returns plain-text errors, so the message is inspected as a fallback.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key")
}

// isCheckViolation reports whether err came from a CHECK constraint.
func isCheckViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "check constraint")
}
