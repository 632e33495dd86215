// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for recipes, their
// tag links and their ingredient lines.
//
// Multi-row writes (create, replace, delete) are expected to run inside a
// transaction opened by the service layer; these helpers take whatever
// *gorm.DB they are given and never open one themselves, except DeleteRecipe.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-foodgram-backend/internal/domain"
)

// RecipeFilter narrows recipe listings. Zero values mean "no constraint".
type RecipeFilter struct {
	TagSlugs    []string // any of the slugs (OR)
	Name        string   // exact name
	AuthorID    uint
	FavoritedBy uint // only recipes favorited by this user
	InCartOf    uint // only recipes in this user's cart
}

func applyRecipeFilter(q *gorm.DB, f RecipeFilter) *gorm.DB {
	if len(f.TagSlugs) > 0 {
		sub := q.Session(&gorm.Session{NewDB: true}).
			Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", f.TagSlugs)
		q = q.Where("recipes.id IN (?)", sub)
	}
	if f.Name != "" {
		q = q.Where("recipes.name = ?", f.Name)
	}
	if f.AuthorID != 0 {
		q = q.Where("recipes.author_id = ?", f.AuthorID)
	}
	if f.FavoritedBy != 0 {
		sub := q.Session(&gorm.Session{NewDB: true}).
			Model(&domain.Favorite{}).Select("recipe_id").Where("user_id = ?", f.FavoritedBy)
		q = q.Where("recipes.id IN (?)", sub)
	}
	if f.InCartOf != 0 {
		sub := q.Session(&gorm.Session{NewDB: true}).
			Model(&domain.Cart{}).Select("recipe_id").Where("user_id = ?", f.InCartOf)
		q = q.Where("recipes.id IN (?)", sub)
	}
	return q
}

// preloadRecipe loads everything a full recipe view needs.
func preloadRecipe(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id asc") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_ingredients.id asc") }).
		Preload("Ingredients.Ingredient")
}

// CountRecipes returns the number of recipes matching f.
func CountRecipes(ctx context.Context, db *gorm.DB, f RecipeFilter) (int64, error) {
	var total int64
	q := applyRecipeFilter(db.WithContext(ctx).Model(&domain.Recipe{}), f)
	err := q.Count(&total).Error
	return total, err
}

// ListRecipesPage returns a page of recipes matching f, newest first, with
// author, tags and ingredient lines preloaded.
func ListRecipesPage(ctx context.Context, db *gorm.DB, f RecipeFilter, offset, limit int) ([]domain.Recipe, error) {
	var out []domain.Recipe
	q := applyRecipeFilter(db.WithContext(ctx).Model(&domain.Recipe{}), f)
	err := preloadRecipe(q).
		Order("recipes.id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetRecipe fetches one recipe with its associations, or ErrNotFound.
func GetRecipe(ctx context.Context, db *gorm.DB, id uint) (*domain.Recipe, error) {
	var r domain.Recipe
	if err := preloadRecipe(db.WithContext(ctx)).First(&r, id).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// GetRecipeRow fetches the bare recipe row (no associations), or ErrNotFound.
func GetRecipeRow(ctx context.Context, db *gorm.DB, id uint) (*domain.Recipe, error) {
	var r domain.Recipe
	if err := db.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// RecipeExists reports whether a recipe with id exists.
func RecipeExists(ctx context.Context, db *gorm.DB, id uint) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Recipe{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// RecipeNameTaken reports whether authorID already has a recipe called name,
// ignoring exceptID (use 0 on create).
func RecipeNameTaken(ctx context.Context, db *gorm.DB, authorID uint, name string, exceptID uint) (bool, error) {
	var n int64
	q := db.WithContext(ctx).Model(&domain.Recipe{}).
		Where("author_id = ? AND name = ?", authorID, name)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	err := q.Count(&n).Error
	return n > 0, err
}

// CreateRecipe inserts the recipe row only. Tags and ingredient lines are
// written separately with ReplaceRecipeTags/ReplaceRecipeIngredients.
func CreateRecipe(ctx context.Context, db *gorm.DB, r *domain.Recipe) error {
	err := db.WithContext(ctx).Omit(clause.Associations).Create(r).Error
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// UpdateRecipeFields writes the scalar columns of r.
func UpdateRecipeFields(ctx context.Context, db *gorm.DB, r *domain.Recipe) error {
	res := db.WithContext(ctx).
		Model(&domain.Recipe{}).
		Where("id = ?", r.ID).
		Updates(map[string]any{
			"name":         r.Name,
			"image":        r.Image,
			"text":         r.Text,
			"cooking_time": r.CookingTime,
			"updated_at":   r.UpdatedAt,
		})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return ErrDuplicate
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceRecipeTags sets the recipe's tag links to exactly tagIDs.
func ReplaceRecipeTags(ctx context.Context, db *gorm.DB, recipeID uint, tagIDs []uint) error {
	tx := db.WithContext(ctx)
	if err := tx.Exec("DELETE FROM recipe_tags WHERE recipe_id = ?", recipeID).Error; err != nil {
		return err
	}
	if len(tagIDs) == 0 {
		return nil
	}
	rows := make([]map[string]any, 0, len(tagIDs))
	for _, id := range tagIDs {
		rows = append(rows, map[string]any{"recipe_id": recipeID, "tag_id": id})
	}
	return tx.Table("recipe_tags").Create(rows).Error
}

// ReplaceRecipeIngredients deletes every ingredient line of the recipe and
// inserts lines in their place.
func ReplaceRecipeIngredients(ctx context.Context, db *gorm.DB, recipeID uint, lines []domain.RecipeIngredient) error {
	tx := db.WithContext(ctx)
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&domain.RecipeIngredient{}).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	for i := range lines {
		lines[i].ID = 0
		lines[i].RecipeID = recipeID
	}
	err := tx.Omit(clause.Associations).Create(&lines).Error
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// DeleteRecipe removes a recipe together with its tag links, ingredient
// lines, favorites and cart rows in one transaction. Returns ErrNotFound when
// the recipe does not exist.
func DeleteRecipe(ctx context.Context, db *gorm.DB, id uint) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM recipe_tags WHERE recipe_id = ?", id).Error; err != nil {
			return err
		}
		for _, m := range []any{&domain.RecipeIngredient{}, &domain.Favorite{}, &domain.Cart{}} {
			if err := tx.Where("recipe_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&domain.Recipe{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ListAuthorRecipes returns an author's recipes newest first. limit <= 0
// means no limit.
func ListAuthorRecipes(ctx context.Context, db *gorm.DB, authorID uint, limit int) ([]domain.Recipe, error) {
	var out []domain.Recipe
	q := db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// CountAuthorRecipes returns how many recipes each of authorIDs has.
// Authors without recipes are absent from the map.
func CountAuthorRecipes(ctx context.Context, db *gorm.DB, authorIDs []uint) (map[uint]int64, error) {
	out := make(map[uint]int64, len(authorIDs))
	if len(authorIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		AuthorID uint
		N        int64
	}
	err := db.WithContext(ctx).
		Model(&domain.Recipe{}).
		Select("author_id, COUNT(*) AS n").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.AuthorID] = r.N
	}
	return out, nil
}
