// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides read-mostly access to the ingredient and
// tag catalog plus idempotent upserts used by the catalog loader.
package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-foodgram-backend/internal/domain"
)

// ListTags returns every tag ordered by id.
func ListTags(ctx context.Context, db *gorm.DB) ([]domain.Tag, error) {
	var out []domain.Tag
	err := db.WithContext(ctx).Order("id asc").Find(&out).Error
	return out, err
}

// GetTag fetches one tag, or ErrNotFound.
func GetTag(ctx context.Context, db *gorm.DB, id uint) (*domain.Tag, error) {
	var t domain.Tag
	if err := db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// TagsByIDs returns the tags among ids that exist, ordered by id.
func TagsByIDs(ctx context.Context, db *gorm.DB, ids []uint) ([]domain.Tag, error) {
	var out []domain.Tag
	if len(ids) == 0 {
		return out, nil
	}
	err := db.WithContext(ctx).Where("id IN ?", ids).Order("id asc").Find(&out).Error
	return out, err
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// SearchIngredients returns ingredients whose lower-cased name starts with
// prefix, ordered by lower-cased name. An empty prefix returns the whole catalog.
func SearchIngredients(ctx context.Context, db *gorm.DB, prefix string) ([]domain.Ingredient, error) {
	var out []domain.Ingredient
	q := db.WithContext(ctx).Model(&domain.Ingredient{})
	if key := domain.SearchKey(prefix); key != "" {
		q = q.Where(`search_name LIKE ? ESCAPE '\'`, escapeLike(key)+"%")
	}
	err := q.Order("search_name asc").Order("id asc").Find(&out).Error
	return out, err
}

// GetIngredient fetches one ingredient, or ErrNotFound.
func GetIngredient(ctx context.Context, db *gorm.DB, id uint) (*domain.Ingredient, error) {
	var i domain.Ingredient
	if err := db.WithContext(ctx).First(&i, id).Error; err != nil {
		return nil, err
	}
	return &i, nil
}

// IngredientsByIDs returns the ingredients among ids that exist.
func IngredientsByIDs(ctx context.Context, db *gorm.DB, ids []uint) ([]domain.Ingredient, error) {
	var out []domain.Ingredient
	if len(ids) == 0 {
		return out, nil
	}
	err := db.WithContext(ctx).Where("id IN ?", ids).Order("id asc").Find(&out).Error
	return out, err
}

// UpsertIngredients inserts ingredients, skipping any (name, unit) pair that
// already exists. It returns the number of rows actually inserted.
func UpsertIngredients(ctx context.Context, db *gorm.DB, items []domain.Ingredient) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&items, 500)
	return res.RowsAffected, res.Error
}

// UpsertTags inserts tags, skipping rows that collide on name, color or slug.
// It returns the number of rows actually inserted.
func UpsertTags(ctx context.Context, db *gorm.DB, items []domain.Tag) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&items)
	return res.RowsAffected, res.Error
}
