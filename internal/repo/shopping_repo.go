// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file holds the shopping-cart aggregation query.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-foodgram-backend/internal/domain"
)

// AggregateCart sums ingredient amounts over every recipe in userID's cart,
// grouped by (ingredient name, measurement unit) and ordered by name then
// unit. An empty cart yields an empty, non-nil slice.
func AggregateCart(ctx context.Context, db *gorm.DB, userID uint) ([]domain.ShoppingLine, error) {
	out := []domain.ShoppingLine{}
	err := db.WithContext(ctx).
		Table("recipe_ingredients AS ri").
		Select("i.name AS name, i.measurement_unit AS measurement_unit, SUM(ri.amount) AS amount").
		Joins("JOIN carts c ON c.recipe_id = ri.recipe_id").
		Joins("JOIN ingredients i ON i.id = ri.ingredient_id").
		Where("c.user_id = ?", userID).
		Group("i.name, i.measurement_unit").
		Order("i.name asc, i.measurement_unit asc").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListCartPage returns the recipes in userID's cart, most recently added
// first.
func ListCartPage(ctx context.Context, db *gorm.DB, userID uint, offset, limit int) ([]domain.Recipe, error) {
	var out []domain.Recipe
	err := db.WithContext(ctx).
		Model(&domain.Recipe{}).
		Joins("JOIN carts ON carts.recipe_id = recipes.id").
		Where("carts.user_id = ?", userID).
		Order("carts.id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountCart returns how many recipes are in userID's cart.
func CountCart(ctx context.Context, db *gorm.DB, userID uint) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Cart{}).Where("user_id = ?", userID).Count(&total).Error
	return total, err
}
