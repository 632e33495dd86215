// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all
// endpoints: the error envelope, success helpers, pagination metadata and the
// small parsers shared by handlers (path ids, page parameters, the current
// user).
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "recipe not found"
//	}
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-foodgram-backend/internal/http/middleware"
	"github.com/tbourn/go-foodgram-backend/internal/utils"
)

const (
	defaultPageSize = 6
	maxPageSize     = 100
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Input field the error refers to, when there is one
	Field string `json:"field,omitempty" example:"cooking_time"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"recipe not found"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func newPagination(p utils.PageRequest, total int64) Pagination {
	pages := utils.TotalPages(total, p.Size)
	return Pagination{
		Page:       p.Page,
		PageSize:   p.Size,
		Total:      total,
		TotalPages: pages,
		HasNext:    p.Page < pages,
	}
}

// fail aborts the request with a structured error. Server errors (>=500) are
// logged with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	failField(c, status, code, "", msg)
}

func failField(c *gin.Context, status int, code, field, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Field:     field,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for the router's fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// pageParams reads page and limit (or page_size) from the query string.
func pageParams(c *gin.Context) utils.PageRequest {
	size := c.Query("limit")
	if size == "" {
		size = c.Query("page_size")
	}
	return utils.ParsePage(c.Query("page"), size, defaultPageSize, maxPageSize)
}

// pathID parses a positive integer path parameter, answering 400 otherwise.
func pathID(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, name+" must be a positive integer")
		return 0, false
	}
	return uint(n), true
}

// viewer returns the authenticated user id or 0 for anonymous requests.
func viewer(c *gin.Context) uint {
	uid, _ := middleware.UserID(c)
	return uid
}

// currentUser returns the authenticated user id, answering 401 when the
// request is anonymous.
func currentUser(c *gin.Context) (uint, bool) {
	uid, authed := middleware.UserID(c)
	if !authed {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication credentials were not provided")
		return 0, false
	}
	return uid, true
}

// queryFlag interprets "1" and "true" as set.
func queryFlag(c *gin.Context, name string) bool {
	switch c.Query(name) {
	case "1", "true", "True":
		return true
	}
	return false
}
