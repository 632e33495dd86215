package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/tbourn/go-foodgram-backend/internal/services"
)

func TestFavorites(t *testing.T) {
	e := newEnv(t)
	id := e.mkRecipe(e.alice.ID, "Omelette")
	path := "/api/recipes/" + itoa(id) + "/favorite/"

	w := e.do(http.MethodPost, path, e.bob.ID, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("add: %d %s", w.Code, w.Body.String())
	}
	var s services.RecipeSummary
	decode(t, w, &s)
	if s.ID != id || s.Name != "Omelette" || s.CookingTime != 10 {
		t.Fatalf("summary: %+v", s)
	}

	resp := wantError(t, e.do(http.MethodPost, path, e.bob.ID, nil), http.StatusConflict, ErrCodeConflict)
	if resp.Message != "recipe already in favorites" {
		t.Fatalf("message: %q", resp.Message)
	}
	if w := e.do(http.MethodDelete, path, e.bob.ID, nil); w.Code != http.StatusNoContent {
		t.Fatalf("remove: %d", w.Code)
	}
	wantError(t, e.do(http.MethodDelete, path, e.bob.ID, nil), http.StatusNotFound, ErrCodeNotFound)

	// re-adding after removal works
	if w := e.do(http.MethodPost, path, e.bob.ID, nil); w.Code != http.StatusCreated {
		t.Fatalf("re-add: %d", w.Code)
	}

	wantError(t, e.do(http.MethodPost, "/api/recipes/999/favorite/", e.bob.ID, nil), http.StatusNotFound, ErrCodeNotFound)
	wantError(t, e.do(http.MethodPost, path, 0, nil), http.StatusUnauthorized, ErrCodeUnauthorized)
}

func TestCart_ListAndDownload(t *testing.T) {
	e := newEnv(t)
	r1 := e.mkRecipe(e.alice.ID, "Bread", 5, 100)
	r2 := e.mkRecipe(e.alice.ID, "Cake", 3, 250)

	for _, id := range []uint{r1, r2} {
		if w := e.do(http.MethodPost, "/api/recipes/"+itoa(id)+"/shopping_cart/", e.bob.ID, nil); w.Code != http.StatusCreated {
			t.Fatalf("add %d: %d", id, w.Code)
		}
	}
	wantError(t, e.do(http.MethodPost, "/api/recipes/"+itoa(r1)+"/shopping_cart/", e.bob.ID, nil), http.StatusConflict, ErrCodeConflict)

	var cart RecipeSummaryListResponse
	decode(t, e.do(http.MethodGet, "/api/recipes/shopping_cart/?page_size=1", e.bob.ID, nil), &cart)
	if cart.Pagination.Total != 2 || len(cart.Results) != 1 || cart.Results[0].ID != r2 {
		t.Fatalf("cart page: %+v", cart)
	}

	w := e.do(http.MethodGet, "/api/recipes/download_shopping_cart/", e.bob.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("download: %d %s", w.Code, w.Body.String())
	}
	want := "Shopping list\n\n1. salt (g) - 8\n2. sugar (g) - 350\n"
	if w.Body.String() != want {
		t.Fatalf("body:\n%q\nwant:\n%q", w.Body.String(), want)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain") ||
		w.Header().Get("Content-Disposition") != `attachment; filename="shopping_list.txt"` {
		t.Fatalf("headers: %v", w.Header())
	}

	etag := w.Header().Get("ETag")
	if !strings.HasPrefix(etag, `W/"cart:`) {
		t.Fatalf("etag: %q", etag)
	}
	if w := e.do(http.MethodGet, "/api/recipes/download_shopping_cart/", e.bob.ID, nil, "If-None-Match", etag); w.Code != http.StatusNotModified {
		t.Fatalf("conditional: %d", w.Code)
	}

	w = e.do(http.MethodGet, "/api/recipes/download_shopping_cart/?format=json", e.bob.ID, nil, "If-None-Match", etag)
	if w.Code != http.StatusOK {
		t.Fatalf("json download: %d", w.Code)
	}
	var lines []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &lines); err != nil || len(lines) != 2 || lines[1]["amount"] != float64(350) {
		t.Fatalf("json lines: %v %v", lines, err)
	}

	wantError(t, e.do(http.MethodGet, "/api/recipes/download_shopping_cart/?format=pdf", e.bob.ID, nil), http.StatusBadRequest, ErrCodeValidation, "format")
	wantError(t, e.do(http.MethodGet, "/api/recipes/download_shopping_cart/", 0, nil), http.StatusUnauthorized, ErrCodeUnauthorized)

	// Changing the cart changes the ETag.
	e.do(http.MethodDelete, "/api/recipes/"+itoa(r1)+"/shopping_cart/", e.bob.ID, nil)
	w = e.do(http.MethodGet, "/api/recipes/download_shopping_cart/", e.bob.ID, nil, "If-None-Match", etag)
	if w.Code != http.StatusOK || w.Header().Get("ETag") == etag {
		t.Fatalf("etag should change: %d %q", w.Code, w.Header().Get("ETag"))
	}
}

func TestDownloadShoppingCart_Empty(t *testing.T) {
	e := newEnv(t)
	w := e.do(http.MethodGet, "/api/recipes/download_shopping_cart/?format=csv", e.alice.ID, nil)
	if w.Code != http.StatusOK || w.Body.String() != "name,measurement_unit,amount\n" {
		t.Fatalf("empty csv: %d %q", w.Code, w.Body.String())
	}
}
