package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-foodgram-backend/internal/domain"
	"github.com/tbourn/go-foodgram-backend/internal/repo"
)

// pngURI is a 1x1 transparent PNG.
const pngURI = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// fixture is a small catalog with two users.
type fixture struct {
	db         *gorm.DB
	alice, bob *domain.User
	salt       *domain.Ingredient
	sugar      *domain.Ingredient
	flour      *domain.Ingredient
	breakfast  *domain.Tag
	dinner     *domain.Tag
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	f := &fixture{db: db}
	f.alice = mkUser(t, db, "alice")
	f.bob = mkUser(t, db, "bob")
	f.salt = mkIngredient(t, db, "salt", "g")
	f.sugar = mkIngredient(t, db, "sugar", "g")
	f.flour = mkIngredient(t, db, "flour", "g")
	f.breakfast = mkTag(t, db, "Breakfast", "#E26C2D", "breakfast")
	f.dinner = mkTag(t, db, "Dinner", "#49B64E", "dinner")
	return f
}

func mkUser(t *testing.T, db *gorm.DB, name string) *domain.User {
	t.Helper()
	u := &domain.User{Email: name + "@example.com", Username: name, FirstName: name, LastName: "Test"}
	if err := repo.CreateUser(context.Background(), db, u); err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func mkIngredient(t *testing.T, db *gorm.DB, name, unit string) *domain.Ingredient {
	t.Helper()
	i := &domain.Ingredient{Name: name, MeasurementUnit: unit}
	if err := db.Create(i).Error; err != nil {
		t.Fatalf("create ingredient %s: %v", name, err)
	}
	return i
}

func mkTag(t *testing.T, db *gorm.DB, name, color, slug string) *domain.Tag {
	t.Helper()
	tag := &domain.Tag{Name: name, Color: color, Slug: slug}
	if err := db.Create(tag).Error; err != nil {
		t.Fatalf("create tag %s: %v", name, err)
	}
	return tag
}

func amt(i *domain.Ingredient, n int) IngredientAmount {
	return IngredientAmount{ID: i.ID, Amount: n}
}

// input returns a valid RecipeInput for the fixture.
func (f *fixture) input(name string, lines ...IngredientAmount) RecipeInput {
	if len(lines) == 0 {
		lines = []IngredientAmount{amt(f.salt, 5)}
	}
	return RecipeInput{
		Name:        name,
		Text:        "Mix and cook.",
		CookingTime: 15,
		Image:       pngURI,
		Tags:        []uint{f.breakfast.ID},
		Ingredients: lines,
	}
}

func (f *fixture) recipes() *RecipeService {
	return NewRecipeService(f.db, nil, 1, 1)
}

func (f *fixture) mkRecipe(t *testing.T, author *domain.User, name string, lines ...IngredientAmount) *domain.Recipe {
	t.Helper()
	r, err := f.recipes().Create(context.Background(), author.ID, f.input(name, lines...))
	if err != nil {
		t.Fatalf("create recipe %s: %v", name, err)
	}
	return r
}

func countRows(t *testing.T, db *gorm.DB, model any, where string, args ...any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Where(where, args...).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

// fakeImages records saved and deleted image URLs.
type fakeImages struct {
	mu      sync.Mutex
	n       int
	saved   []string
	deleted []string
}

func (f *fakeImages) Save(_ context.Context, key string, _ []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	u := fmt.Sprintf("/media/%d-%s", f.n, key)
	f.saved = append(f.saved, u)
	return u, nil
}

func (f *fakeImages) Delete(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, url)
	return nil
}

// assertKind fails unless err wraps kind and, when msg is set, carries it.
func assertKind(t *testing.T, err, kind error, msg string) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("want %v, got %v", kind, err)
	}
	if msg != "" && err.Error() != msg {
		t.Fatalf("message: want %q, got %q", msg, err.Error())
	}
}
