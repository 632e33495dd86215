// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the pairwise
// relationship tables: favorites, carts and follows.
//
// Every table carries a unique index over its pair, which is the final
// arbiter for concurrent inserts. Callers check existence first for a clean
// error, and a lost race surfaces here as ErrDuplicate.
//
// Error semantics:
//   - Add* returns ErrDuplicate when the pair already exists and ErrCheck
//     when a CHECK constraint (self-follow) rejects the row.
//   - Remove* returns ErrNotFound when no row matched the exact pair.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-foodgram-backend/internal/domain"
)

func addPair(ctx context.Context, db *gorm.DB, row any) error {
	if err := db.WithContext(ctx).Create(row).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		if isCheckViolation(err) {
			return ErrCheck
		}
		return err
	}
	return nil
}

func removePair(ctx context.Context, db *gorm.DB, model any, subjectCol, objectCol string, subject, object uint) error {
	res := db.WithContext(ctx).
		Where(subjectCol+" = ? AND "+objectCol+" = ?", subject, object).
		Delete(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func pairExists(ctx context.Context, db *gorm.DB, model any, subjectCol, objectCol string, subject, object uint) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(model).
		Where(subjectCol+" = ? AND "+objectCol+" = ?", subject, object).
		Count(&n).Error
	return n > 0, err
}

// idSet loads a single uint column into a set.
func idSet(q *gorm.DB, col string) (map[uint]bool, error) {
	var ids []uint
	if err := q.Pluck(col, &ids).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// ---- favorites ----

// AddFavorite marks recipeID as a favorite of userID.
func AddFavorite(ctx context.Context, db *gorm.DB, userID, recipeID uint) (*domain.Favorite, error) {
	f := &domain.Favorite{UserID: userID, RecipeID: recipeID, CreatedAt: time.Now().UTC()}
	if err := addPair(ctx, db, f); err != nil {
		return nil, err
	}
	return f, nil
}

// RemoveFavorite deletes the exact (userID, recipeID) favorite.
func RemoveFavorite(ctx context.Context, db *gorm.DB, userID, recipeID uint) error {
	return removePair(ctx, db, &domain.Favorite{}, "user_id", "recipe_id", userID, recipeID)
}

// FavoriteExists reports whether userID has favorited recipeID.
func FavoriteExists(ctx context.Context, db *gorm.DB, userID, recipeID uint) (bool, error) {
	return pairExists(ctx, db, &domain.Favorite{}, "user_id", "recipe_id", userID, recipeID)
}

// FavoritedRecipeIDs returns which of recipeIDs userID has favorited.
func FavoritedRecipeIDs(ctx context.Context, db *gorm.DB, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	if len(recipeIDs) == 0 {
		return map[uint]bool{}, nil
	}
	q := db.WithContext(ctx).Model(&domain.Favorite{}).
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs)
	return idSet(q, "recipe_id")
}

// ---- shopping cart ----

// AddToCart puts recipeID into userID's shopping cart.
func AddToCart(ctx context.Context, db *gorm.DB, userID, recipeID uint) (*domain.Cart, error) {
	c := &domain.Cart{UserID: userID, RecipeID: recipeID, CreatedAt: time.Now().UTC()}
	if err := addPair(ctx, db, c); err != nil {
		return nil, err
	}
	return c, nil
}

// RemoveFromCart deletes the exact (userID, recipeID) cart row.
func RemoveFromCart(ctx context.Context, db *gorm.DB, userID, recipeID uint) error {
	return removePair(ctx, db, &domain.Cart{}, "user_id", "recipe_id", userID, recipeID)
}

// CartExists reports whether recipeID is in userID's cart.
func CartExists(ctx context.Context, db *gorm.DB, userID, recipeID uint) (bool, error) {
	return pairExists(ctx, db, &domain.Cart{}, "user_id", "recipe_id", userID, recipeID)
}

// CartRecipeIDs returns which of recipeIDs are in userID's cart.
func CartRecipeIDs(ctx context.Context, db *gorm.DB, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	if len(recipeIDs) == 0 {
		return map[uint]bool{}, nil
	}
	q := db.WithContext(ctx).Model(&domain.Cart{}).
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs)
	return idSet(q, "recipe_id")
}

// ---- follows ----

// AddFollow subscribes userID to authorID. Self-follows are rejected by the
// table's CHECK constraint with ErrCheck.
func AddFollow(ctx context.Context, db *gorm.DB, userID, authorID uint) (*domain.Follow, error) {
	f := &domain.Follow{UserID: userID, AuthorID: authorID, CreatedAt: time.Now().UTC()}
	if err := addPair(ctx, db, f); err != nil {
		return nil, err
	}
	return f, nil
}

// RemoveFollow deletes the exact (userID, authorID) follow.
func RemoveFollow(ctx context.Context, db *gorm.DB, userID, authorID uint) error {
	return removePair(ctx, db, &domain.Follow{}, "user_id", "author_id", userID, authorID)
}

// FollowExists reports whether userID follows authorID.
func FollowExists(ctx context.Context, db *gorm.DB, userID, authorID uint) (bool, error) {
	return pairExists(ctx, db, &domain.Follow{}, "user_id", "author_id", userID, authorID)
}

// FollowedAuthorIDs returns which of authorIDs userID follows.
func FollowedAuthorIDs(ctx context.Context, db *gorm.DB, userID uint, authorIDs []uint) (map[uint]bool, error) {
	if len(authorIDs) == 0 {
		return map[uint]bool{}, nil
	}
	q := db.WithContext(ctx).Model(&domain.Follow{}).
		Where("user_id = ? AND author_id IN ?", userID, authorIDs)
	return idSet(q, "author_id")
}

// CountFollows returns how many authors userID follows.
func CountFollows(ctx context.Context, db *gorm.DB, userID uint) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Follow{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListFollowsPage returns userID's follows with the Author preloaded, most
// recent first.
func ListFollowsPage(ctx context.Context, db *gorm.DB, userID uint, offset, limit int) ([]domain.Follow, error) {
	var out []domain.Follow
	err := db.WithContext(ctx).
		Preload("Author").
		Where("user_id = ?", userID).
		Order("id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
