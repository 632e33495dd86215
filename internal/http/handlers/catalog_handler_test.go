package handlers

import (
	"net/http"
	"testing"

	"github.com/tbourn/go-foodgram-backend/internal/domain"
)

func TestTags(t *testing.T) {
	e := newEnv(t)

	var tags []domain.Tag
	decode(t, e.do(http.MethodGet, "/api/tags/", 0, nil), &tags)
	if len(tags) != 2 || tags[0].Slug != "breakfast" || tags[1].Color != "#49B64E" {
		t.Fatalf("tags: %+v", tags)
	}

	var tag domain.Tag
	decode(t, e.do(http.MethodGet, "/api/tags/"+itoa(e.dinner.ID)+"/", 0, nil), &tag)
	if tag.Name != "Dinner" {
		t.Fatalf("tag: %+v", tag)
	}
	wantError(t, e.do(http.MethodGet, "/api/tags/999/", 0, nil), http.StatusNotFound, ErrCodeNotFound)
	wantError(t, e.do(http.MethodGet, "/api/tags/0/", 0, nil), http.StatusBadRequest, ErrCodeBadRequest)
}

func TestIngredients(t *testing.T) {
	e := newEnv(t)

	var items []domain.Ingredient
	decode(t, e.do(http.MethodGet, "/api/ingredients/?name=SA", 0, nil), &items)
	if len(items) != 1 || items[0].Name != "salt" || items[0].MeasurementUnit != "g" {
		t.Fatalf("search: %+v", items)
	}

	decode(t, e.do(http.MethodGet, "/api/ingredients/", 0, nil), &items)
	if len(items) != 2 {
		t.Fatalf("all: %+v", items)
	}

	decode(t, e.do(http.MethodGet, "/api/ingredients/?name=zzz", 0, nil), &items)
	if len(items) != 0 {
		t.Fatalf("no match: %+v", items)
	}

	var ing domain.Ingredient
	decode(t, e.do(http.MethodGet, "/api/ingredients/"+itoa(e.sugar.ID)+"/", 0, nil), &ing)
	if ing.Name != "sugar" {
		t.Fatalf("ingredient: %+v", ing)
	}
	wantError(t, e.do(http.MethodGet, "/api/ingredients/999/", 0, nil), http.StatusNotFound, ErrCodeNotFound)
}
