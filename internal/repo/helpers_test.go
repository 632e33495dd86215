package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-foodgram-backend/internal/domain"
)

// newTestDB opens a private in-memory database. With no models given it
// migrates the full schema.
func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	// Unique DB per test to avoid schema leaking across tests.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
		return db
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func mkUser(t *testing.T, db *gorm.DB, name string) *domain.User {
	t.Helper()
	u := &domain.User{Email: name + "@example.com", Username: name, FirstName: name, LastName: "Test"}
	if err := CreateUser(context.Background(), db, u); err != nil {
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

type line struct {
	ing    *domain.Ingredient
	amount int
}

func mkRecipe(t *testing.T, db *gorm.DB, author *domain.User, name string, tags []*domain.Tag, lines ...line) *domain.Recipe {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	r := &domain.Recipe{AuthorID: author.ID, Name: name, Image: "img.png", Text: "text", CookingTime: 10, CreatedAt: now, UpdatedAt: now}
	if err := CreateRecipe(ctx, db, r); err != nil {
		t.Fatalf("create recipe %s: %v", name, err)
	}
	tagIDs := make([]uint, 0, len(tags))
	for _, tg := range tags {
		tagIDs = append(tagIDs, tg.ID)
	}
	if err := ReplaceRecipeTags(ctx, db, r.ID, tagIDs); err != nil {
		t.Fatalf("tags %s: %v", name, err)
	}
	rows := make([]domain.RecipeIngredient, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, domain.RecipeIngredient{IngredientID: l.ing.ID, Amount: l.amount})
	}
	if err := ReplaceRecipeIngredients(ctx, db, r.ID, rows); err != nil {
		t.Fatalf("lines %s: %v", name, err)
	}
	return r
}
