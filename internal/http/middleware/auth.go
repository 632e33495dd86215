// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the caller's identity. Tokens are issued elsewhere; the
// API only verifies them:
//
//	Authorization: Bearer <HS256 JWT with a numeric "user_id" claim>
//
// When no bearer token is sent, an X-User-ID header is accepted as a trusted
// identity (gateway or local development setups). Requests without either are
// anonymous and may still use the read-only endpoints.
package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// ctxKeyUserID holds the authenticated user id (uint).
	ctxKeyUserID = "userID"
	// HeaderUserID carries a trusted user id when no token is present.
	HeaderUserID = "X-User-ID"
)

// Claims are the JWT claims the API understands.
type Claims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

var errNoUser = errors.New("token has no user_id")

// AuthOptions configures Auth.
type AuthOptions struct {
	// Secret verifies HS256 tokens. Empty disables bearer tokens.
	Secret string
	// TrustHeader accepts X-User-ID when no bearer token is sent.
	TrustHeader bool
}

// Auth resolves the caller from a bearer token or X-User-ID and stores the id
// in the Gin context. A present but invalid credential is rejected with 401;
// a missing one leaves the request anonymous.
func Auth(opts AuthOptions) gin.HandlerFunc {
	secret := []byte(opts.Secret)
	return func(c *gin.Context) {
		if raw := bearerToken(c.GetHeader("Authorization")); raw != "" {
			if len(secret) == 0 {
				unauthorized(c, "bearer tokens are not accepted")
				return
			}
			uid, err := parseToken(raw, secret)
			if err != nil {
				unauthorized(c, "invalid or expired token")
				return
			}
			c.Set(ctxKeyUserID, uid)
			c.Next()
			return
		}

		if v := strings.TrimSpace(c.GetHeader(HeaderUserID)); v != "" && opts.TrustHeader {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil || n == 0 {
				unauthorized(c, "invalid X-User-ID")
				return
			}
			c.Set(ctxKeyUserID, uint(n))
		}
		c.Next()
	}
}

// RequireAuth aborts anonymous requests with 401.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := UserID(c); !ok {
			unauthorized(c, "authentication credentials were not provided")
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user id, if any.
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ctxKeyUserID)
	if !ok {
		return 0, false
	}
	id, _ := v.(uint)
	return id, id != 0
}

func bearerToken(h string) string {
	scheme, tok, ok := strings.Cut(strings.TrimSpace(h), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(tok)
}

func parseToken(raw string, secret []byte) (uint, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, err
	}
	if claims.UserID == 0 {
		return 0, errNoUser
	}
	return claims.UserID, nil
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       "unauthorized",
		"message":    msg,
	})
}
