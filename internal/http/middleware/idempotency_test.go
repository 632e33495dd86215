package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type lookupCall struct {
	userID     uint
	scope, key string
}

func idemRouter(opts IdempotencyOptions, lookup IdempotencyLookup) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Auth(AuthOptions{TrustHeader: true}), IdempotencyValidator(opts, lookup))
	handler := func(c *gin.Context) {
		key, _ := GetIdempotencyKey(c)
		id, replay := ReplayResourceID(c)
		c.JSON(http.StatusOK, gin.H{"key": key, "replay": replay, "id": id, "bypass": IsRateBypass(c)})
	}
	r.POST("/api/recipes/", handler)
	r.GET("/api/recipes/", handler)
	return r
}

func doIdem(r *gin.Engine, method, key, user string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, "/api/recipes/", nil)
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	if user != "" {
		req.Header.Set(HeaderUserID, user)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotencyValidator_ReplayMarksContext(t *testing.T) {
	var calls []lookupCall
	lookup := func(_ context.Context, uid uint, scope, key string, _ time.Time) (uint, bool, error) {
		calls = append(calls, lookupCall{uid, scope, key})
		if key == "seen" {
			return 41, true, nil
		}
		return 0, false, nil
	}
	r := idemRouter(IdempotencyOptions{}, lookup)

	w := doIdem(r, http.MethodPost, "seen", "5")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"replay":true`) ||
		!strings.Contains(w.Body.String(), `"id":41`) || !strings.Contains(w.Body.String(), `"bypass":true`) {
		t.Fatalf("replay not marked: %d %s", w.Code, w.Body.String())
	}
	if len(calls) != 1 || calls[0] != (lookupCall{5, "/api/recipes/", "seen"}) {
		t.Fatalf("lookup args: %+v", calls)
	}

	w = doIdem(r, http.MethodPost, "fresh", "5")
	if !strings.Contains(w.Body.String(), `"key":"fresh"`) || !strings.Contains(w.Body.String(), `"replay":false`) {
		t.Fatalf("fresh key: %s", w.Body.String())
	}
}

func TestIdempotencyValidator_PassThrough(t *testing.T) {
	called := false
	lookup := func(context.Context, uint, string, string, time.Time) (uint, bool, error) {
		called = true
		return 1, true, nil
	}
	r := idemRouter(IdempotencyOptions{}, lookup)

	// No header.
	if w := doIdem(r, http.MethodPost, "", "5"); !strings.Contains(w.Body.String(), `"key":""`) {
		t.Fatalf("no header: %s", w.Body.String())
	}
	// Safe methods ignore the header.
	if w := doIdem(r, http.MethodGet, "abc", "5"); !strings.Contains(w.Body.String(), `"key":""`) {
		t.Fatalf("GET: %s", w.Body.String())
	}
	// Anonymous callers keep the key but are never replayed.
	if w := doIdem(r, http.MethodPost, "abc", ""); !strings.Contains(w.Body.String(), `"replay":false`) {
		t.Fatalf("anonymous: %s", w.Body.String())
	}
	if called {
		t.Fatal("lookup must not run in these cases")
	}
}

func TestIdempotencyValidator_LookupErrorIgnored(t *testing.T) {
	lookup := func(context.Context, uint, string, string, time.Time) (uint, bool, error) {
		return 9, true, context.DeadlineExceeded
	}
	r := idemRouter(IdempotencyOptions{}, lookup)
	if w := doIdem(r, http.MethodPost, "k", "1"); !strings.Contains(w.Body.String(), `"replay":false`) {
		t.Fatalf("lookup error must not mark replay: %s", w.Body.String())
	}
}

func TestIdempotencyValidator_RejectsBadKeys(t *testing.T) {
	r := idemRouter(IdempotencyOptions{MaxLen: 8, Pattern: regexp.MustCompile(`^[a-z]+$`)}, nil)

	for _, key := range []string{"toolongkey", "UPPER", "with space"} {
		w := doIdem(r, http.MethodPost, key, "1")
		if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "bad_idempotency_key") {
			t.Fatalf("%q: want 400, got %d %s", key, w.Code, w.Body.String())
		}
	}
	if w := doIdem(r, http.MethodPost, "okay", "1"); w.Code != http.StatusOK {
		t.Fatalf("valid key rejected: %d", w.Code)
	}

	def := idemRouter(IdempotencyOptions{}, nil)
	if w := doIdem(def, http.MethodPost, strings.Repeat("a", 201), "1"); w.Code != http.StatusBadRequest {
		t.Fatalf("default max length not applied: %d", w.Code)
	}
}
