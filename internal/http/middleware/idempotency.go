// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency support for resource creation (POST
// /recipes/). It validates the Idempotency-Key header, looks up a previously
// completed request for the same (user, route, key) and annotates the context
// so the handler can answer a retry with the resource it already created
// instead of creating a second one:
//   - GetIdempotencyKey returns the validated key
//   - ReplayResourceID returns the id created by the first request
//   - replays bypass the rate limiter
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header carrying the idempotency key.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay" // uint: resource id of the stored result
	ctxKeyRateBypass = "rate.bypass"
)

var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the validated key, if the request carried one.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// ReplayResourceID returns the resource created by an earlier request with
// the same key. ok is false when this is not a replay.
func ReplayResourceID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return 0, false
	}
	id, _ := v.(uint)
	return id, id != 0
}

// IsReplay reports whether the request repeats a completed one.
func IsReplay(c *gin.Context) bool {
	_, ok := ReplayResourceID(c)
	return ok
}

// IdempotencyOptions configures header validation.
type IdempotencyOptions struct {
	// MaxLen caps the key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters; nil uses ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
}

// IdempotencyLookup returns the resource id stored for (userID, scope, key)
// if it has not expired. found=false with a nil error means no record.
// Scope is the matched route, e.g. "/api/recipes/".
type IdempotencyLookup func(ctx context.Context, userID uint, scope, key string, now time.Time) (resourceID uint, found bool, err error)

// IdempotencyValidator validates Idempotency-Key on unsafe methods and marks
// replays. Requests without the header, safe methods and anonymous callers
// pass through untouched. Lookup failures are ignored; the request is then
// processed normally.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultKeyPattern
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" || !unsafeMethod(c.Request.Method) {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		uid, ok := UserID(c)
		if lookup != nil && ok {
			id, found, err := lookup(c.Request.Context(), uid, c.FullPath(), key, time.Now().UTC())
			if err == nil && found && id != 0 {
				c.Set(ctxKeyIdemReplay, id)
				c.Set(ctxKeyRateBypass, true)
			}
		}
		c.Next()
	}
}

func unsafeMethod(m string) bool {
	switch m {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
