// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import "strconv"

// AtoiDefault converts a string to an int using strconv.Atoi.
// If the string is empty or cannot be parsed as an integer,
// it returns the provided default value instead.
//
// Example:
//
//	n := utils.AtoiDefault("42", 0) // returns 42
//	n = utils.AtoiDefault("", 10)   // returns 10
//	n = utils.AtoiDefault("x", 5)   // returns 5
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// PageRequest is a 1-based page number and a page size.
type PageRequest struct {
	Page int
	Size int
}

// Offset is the number of rows to skip.
func (p PageRequest) Offset() int { return (p.Page - 1) * p.Size }

// ParsePage reads raw page/size values, falling back to page 1 and defSize.
// The size is clamped to [1, maxSize].
func ParsePage(page, size string, defSize, maxSize int) PageRequest {
	p := PageRequest{
		Page: AtoiDefault(page, 1),
		Size: AtoiDefault(size, defSize),
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Size < 1 {
		p.Size = 1
	}
	if maxSize > 0 && p.Size > maxSize {
		p.Size = maxSize
	}
	return p
}

// TotalPages returns how many pages of size hold total items.
func TotalPages(total int64, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}
