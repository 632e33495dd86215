// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// for conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-foodgram-backend/internal/domain"
)

// CartStats returns metadata that changes whenever the user's shopping list
// could change: the number of cart rows and the latest of the cart rows'
// CreatedAt and the carted recipes' UpdatedAt.
//
// When the cart is empty, count is 0 and latest is nil.
func CartStats(ctx context.Context, db *gorm.DB, userID uint) (count int64, latest *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Cart{}).Where("user_id = ?", userID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Order+Limit instead of MAX(), which comes back as TEXT in SQLite.
	var added struct{ CreatedAt time.Time }
	if err = q.Select("created_at").Order("created_at DESC").Limit(1).Scan(&added).Error; err != nil {
		return 0, nil, err
	}
	var edited struct{ UpdatedAt time.Time }
	err = db.WithContext(ctx).
		Model(&domain.Recipe{}).
		Select("recipes.updated_at").
		Joins("JOIN carts ON carts.recipe_id = recipes.id").
		Where("carts.user_id = ?", userID).
		Order("recipes.updated_at DESC").
		Limit(1).
		Scan(&edited).Error
	if err != nil {
		return 0, nil, err
	}

	ts := added.CreatedAt
	if edited.UpdatedAt.After(ts) {
		ts = edited.UpdatedAt
	}
	return count, &ts, nil
}
