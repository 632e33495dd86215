package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-foodgram-backend/internal/domain"
)

func TestRecipe_CreateGetReplace(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := mkUser(t, db, "chef")
	salt := mkIngredient(t, db, "salt", "g")
	egg := mkIngredient(t, db, "egg", "pcs")
	breakfast := mkTag(t, db, "Breakfast", "#E26C2D", "breakfast")
	lunch := mkTag(t, db, "Lunch", "#49B64E", "lunch")

	r := mkRecipe(t, db, u, "Omelette", []*domain.Tag{breakfast}, line{egg, 3}, line{salt, 2})

	got, err := GetRecipe(ctx, db, r.ID)
	if err != nil {
		t.Fatalf("GetRecipe: %v", err)
	}
	if got.Author.ID != u.ID || len(got.Tags) != 1 || got.Tags[0].Slug != "breakfast" {
		t.Fatalf("unexpected associations: %+v", got)
	}
	if len(got.Ingredients) != 2 || got.Ingredients[0].Ingredient.Name != "egg" || got.Ingredients[0].Amount != 3 {
		t.Fatalf("unexpected lines: %+v", got.Ingredients)
	}

	// Full replacement of both sets.
	if err := ReplaceRecipeTags(ctx, db, r.ID, []uint{lunch.ID}); err != nil {
		t.Fatalf("ReplaceRecipeTags: %v", err)
	}
	if err := ReplaceRecipeIngredients(ctx, db, r.ID, []domain.RecipeIngredient{{IngredientID: salt.ID, Amount: 7}}); err != nil {
		t.Fatalf("ReplaceRecipeIngredients: %v", err)
	}
	got, _ = GetRecipe(ctx, db, r.ID)
	if len(got.Tags) != 1 || got.Tags[0].ID != lunch.ID {
		t.Fatalf("tags not replaced: %+v", got.Tags)
	}
	if len(got.Ingredients) != 1 || got.Ingredients[0].IngredientID != salt.ID || got.Ingredients[0].Amount != 7 {
		t.Fatalf("lines not replaced: %+v", got.Ingredients)
	}

	// Duplicate ingredient within one recipe is rejected by the unique index.
	err = ReplaceRecipeIngredients(ctx, db, r.ID, []domain.RecipeIngredient{
		{IngredientID: egg.ID, Amount: 1}, {IngredientID: egg.ID, Amount: 2},
	})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate lines: want ErrDuplicate, got %v", err)
	}

	if _, err := GetRecipe(ctx, db, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing recipe: want ErrNotFound, got %v", err)
	}
}

func TestRecipe_NameUniquePerAuthor(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	a := mkUser(t, db, "a1")
	b := mkUser(t, db, "b1")
	r := mkRecipe(t, db, a, "Pie", nil)
	mkRecipe(t, db, b, "Pie", nil) // other author, same name: fine

	now := time.Now().UTC()
	dup := &domain.Recipe{AuthorID: a.ID, Name: "Pie", Image: "i", Text: "t", CookingTime: 1, CreatedAt: now, UpdatedAt: now}
	if err := CreateRecipe(ctx, db, dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("want ErrDuplicate, got %v", err)
	}
	if taken, err := RecipeNameTaken(ctx, db, a.ID, "Pie", 0); err != nil || !taken {
		t.Fatalf("RecipeNameTaken: taken=%v err=%v", taken, err)
	}
	if taken, _ := RecipeNameTaken(ctx, db, a.ID, "Pie", r.ID); taken {
		t.Fatalf("own recipe must be excluded")
	}
}

func TestRecipe_UpdateFields(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := mkUser(t, db, "upd")
	r := mkRecipe(t, db, u, "Old", nil)

	r.Name, r.Text, r.CookingTime, r.UpdatedAt = "New", "better", 42, time.Now().UTC()
	if err := UpdateRecipeFields(ctx, db, r); err != nil {
		t.Fatalf("UpdateRecipeFields: %v", err)
	}
	got, _ := GetRecipeRow(ctx, db, r.ID)
	if got.Name != "New" || got.Text != "better" || got.CookingTime != 42 {
		t.Fatalf("fields not updated: %+v", got)
	}
	if err := UpdateRecipeFields(ctx, db, &domain.Recipe{ID: 777, Name: "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing recipe: want ErrNotFound, got %v", err)
	}
}

func TestRecipe_ListFilters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	a := mkUser(t, db, "author")
	v := mkUser(t, db, "viewer")
	t1 := mkTag(t, db, "Breakfast", "#111111", "breakfast")
	t2 := mkTag(t, db, "Dinner", "#222222", "dinner")
	t3 := mkTag(t, db, "Dessert", "#333333", "dessert")

	r1 := mkRecipe(t, db, a, "R1", []*domain.Tag{t1})
	r2 := mkRecipe(t, db, a, "R2", []*domain.Tag{t1, t2})
	r3 := mkRecipe(t, db, v, "R3", []*domain.Tag{t3})

	_, _ = AddFavorite(ctx, db, v.ID, r1.ID)
	_, _ = AddToCart(ctx, db, v.ID, r2.ID)
	_, _ = AddToCart(ctx, db, v.ID, r3.ID)

	ids := func(f RecipeFilter) []uint {
		t.Helper()
		rs, err := ListRecipesPage(ctx, db, f, 0, 50)
		if err != nil {
			t.Fatalf("ListRecipesPage(%+v): %v", f, err)
		}
		n, err := CountRecipes(ctx, db, f)
		if err != nil || int(n) != len(rs) {
			t.Fatalf("CountRecipes(%+v)=%d err=%v; page len %d", f, n, err, len(rs))
		}
		out := make([]uint, 0, len(rs))
		for _, r := range rs {
			out = append(out, r.ID)
		}
		return out
	}
	eq := func(got []uint, want ...uint) bool {
		if len(got) != len(want) {
			return false
		}
		for i := range got {
			if got[i] != want[i] {
				return false
			}
		}
		return true
	}

	if got := ids(RecipeFilter{}); !eq(got, r3.ID, r2.ID, r1.ID) {
		t.Fatalf("all, newest first: %v", got)
	}
	// Any of the slugs; r2 matches both but appears once.
	if got := ids(RecipeFilter{TagSlugs: []string{"breakfast", "dinner"}}); !eq(got, r2.ID, r1.ID) {
		t.Fatalf("tag filter: %v", got)
	}
	if got := ids(RecipeFilter{AuthorID: v.ID}); !eq(got, r3.ID) {
		t.Fatalf("author filter: %v", got)
	}
	if got := ids(RecipeFilter{FavoritedBy: v.ID}); !eq(got, r1.ID) {
		t.Fatalf("favorited filter: %v", got)
	}
	if got := ids(RecipeFilter{InCartOf: v.ID, TagSlugs: []string{"dessert"}}); !eq(got, r3.ID) {
		t.Fatalf("cart+tag filter: %v", got)
	}
	if got := ids(RecipeFilter{TagSlugs: []string{"nope"}}); len(got) != 0 {
		t.Fatalf("unknown slug should match nothing: %v", got)
	}
}

func TestDeleteRecipe_CascadesDependents(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := mkUser(t, db, "del")
	ing := mkIngredient(t, db, "flour", "g")
	tag := mkTag(t, db, "Bake", "#444444", "bake")
	r := mkRecipe(t, db, u, "Bread", []*domain.Tag{tag}, line{ing, 500})
	_, _ = AddFavorite(ctx, db, u.ID, r.ID)
	_, _ = AddToCart(ctx, db, u.ID, r.ID)

	if err := DeleteRecipe(ctx, db, r.ID); err != nil {
		t.Fatalf("DeleteRecipe: %v", err)
	}
	for _, tbl := range []string{"recipe_tags", "recipe_ingredients", "favorites", "carts", "recipes"} {
		var n int64
		db.Table(tbl).Count(&n)
		if n != 0 {
			t.Fatalf("table %s still has %d rows", tbl, n)
		}
	}
	// Catalog rows are untouched.
	if _, err := GetIngredient(ctx, db, ing.ID); err != nil {
		t.Fatalf("ingredient removed: %v", err)
	}
	if err := DeleteRecipe(ctx, db, r.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: want ErrNotFound, got %v", err)
	}
}

func TestAuthorRecipes_LimitAndCounts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	a := mkUser(t, db, "many")
	b := mkUser(t, db, "none")
	var last *domain.Recipe
	for _, n := range []string{"r1", "r2", "r3"} {
		last = mkRecipe(t, db, a, n, nil)
	}

	all, err := ListAuthorRecipes(ctx, db, a.ID, 0)
	if err != nil || len(all) != 3 || all[0].ID != last.ID {
		t.Fatalf("ListAuthorRecipes(0): len=%d err=%v", len(all), err)
	}
	two, _ := ListAuthorRecipes(ctx, db, a.ID, 2)
	if len(two) != 2 || two[0].ID != last.ID {
		t.Fatalf("ListAuthorRecipes(2): %+v", two)
	}
	counts, err := CountAuthorRecipes(ctx, db, []uint{a.ID, b.ID})
	if err != nil || counts[a.ID] != 3 || counts[b.ID] != 0 {
		t.Fatalf("CountAuthorRecipes: %v err=%v", counts, err)
	}
}
