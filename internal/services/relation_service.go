// Package services – RelationService
//
// This file implements the favorite and shopping-cart relationships between
// a user and a recipe. Both follow the same rules: the recipe must exist, a
// pair is stored at most once (the unique index decides races) and removal
// targets the exact pair.
package services

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-foodgram-backend/internal/domain"
	"github.com/tbourn/go-foodgram-backend/internal/observability"
	"github.com/tbourn/go-foodgram-backend/internal/repo"
)

// relation describes one user→recipe relationship table.
type relation struct {
	kind      string
	duplicate string
	exists    func(context.Context, *gorm.DB, uint, uint) (bool, error)
	add       func(context.Context, *gorm.DB, uint, uint) error
	remove    func(context.Context, *gorm.DB, uint, uint) error
	absent    string
}

var (
	favoriteRel = relation{
		kind:      "favorite",
		duplicate: "recipe already in favorites",
		absent:    "recipe is not in favorites",
		exists:    repo.FavoriteExists,
		add: func(ctx context.Context, db *gorm.DB, u, r uint) error {
			_, err := repo.AddFavorite(ctx, db, u, r)
			return err
		},
		remove: repo.RemoveFavorite,
	}
	cartRel = relation{
		kind:      "cart",
		duplicate: "recipe already in shopping cart",
		absent:    "recipe is not in shopping cart",
		exists:    repo.CartExists,
		add: func(ctx context.Context, db *gorm.DB, u, r uint) error {
			_, err := repo.AddToCart(ctx, db, u, r)
			return err
		},
		remove: repo.RemoveFromCart,
	}
)

// RelationService manages favorites and the shopping cart.
type RelationService struct {
	DB *gorm.DB
}

func (s *RelationService) tracer() trace.Tracer { return otel.Tracer("services/RelationService") }

// AddFavorite marks recipeID as a favorite of userID and returns its summary.
func (s *RelationService) AddFavorite(ctx context.Context, userID, recipeID uint) (*RecipeSummary, error) {
	return s.add(ctx, favoriteRel, userID, recipeID)
}

// RemoveFavorite removes the favorite pair.
func (s *RelationService) RemoveFavorite(ctx context.Context, userID, recipeID uint) error {
	return s.remove(ctx, favoriteRel, userID, recipeID)
}

// AddToCart puts recipeID into userID's shopping cart and returns its summary.
func (s *RelationService) AddToCart(ctx context.Context, userID, recipeID uint) (*RecipeSummary, error) {
	return s.add(ctx, cartRel, userID, recipeID)
}

// RemoveFromCart removes recipeID from userID's shopping cart.
func (s *RelationService) RemoveFromCart(ctx context.Context, userID, recipeID uint) error {
	return s.remove(ctx, cartRel, userID, recipeID)
}

// ListCart returns a page of the recipes in userID's cart, most recently
// added first, plus the total.
func (s *RelationService) ListCart(ctx context.Context, userID uint, page, pageSize int) ([]RecipeSummary, int64, error) {
	ctx, span := s.tracer().Start(ctx, "ListCart", trace.WithAttributes(
		attribute.Int64("user.id", int64(userID)),
		attribute.Int("page", page),
		attribute.Int("page_size", pageSize),
	))
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 6
	}
	total, err := repo.CountCart(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []RecipeSummary{}, 0, nil
	}
	items, err := repo.ListCartPage(ctx, s.DB, userID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}
	out := make([]RecipeSummary, 0, len(items))
	for _, r := range items {
		out = append(out, ToSummary(r))
	}
	return out, total, nil
}

func (s *RelationService) add(ctx context.Context, rel relation, userID, recipeID uint) (*RecipeSummary, error) {
	ctx, span := s.tracer().Start(ctx, "add."+rel.kind, trace.WithAttributes(
		attribute.Int64("user.id", int64(userID)),
		attribute.Int64("recipe.id", int64(recipeID)),
	))
	defer span.End()

	var recipe *domain.Recipe
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := repo.GetRecipeRow(ctx, tx, recipeID)
		if err != nil {
			if isNotFound(err) {
				return notFound("recipe", "recipe not found")
			}
			return err
		}
		recipe = r

		ok, err := rel.exists(ctx, tx, userID, recipeID)
		if err != nil {
			return err
		}
		if ok {
			return duplicate(rel.duplicate)
		}
		if err := rel.add(ctx, tx, userID, recipeID); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return duplicate(rel.duplicate)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.RelationChanges.WithLabelValues(rel.kind, "add").Inc()
	sum := ToSummary(*recipe)
	return &sum, nil
}

func (s *RelationService) remove(ctx context.Context, rel relation, userID, recipeID uint) error {
	ctx, span := s.tracer().Start(ctx, "remove."+rel.kind, trace.WithAttributes(
		attribute.Int64("user.id", int64(userID)),
		attribute.Int64("recipe.id", int64(recipeID)),
	))
	defer span.End()

	ok, err := repo.RecipeExists(ctx, s.DB, recipeID)
	if err != nil {
		return err
	}
	if !ok {
		return notFound("recipe", "recipe not found")
	}
	if err := rel.remove(ctx, s.DB, userID, recipeID); err != nil {
		if isNotFound(err) {
			return notFound("", rel.absent)
		}
		return err
	}
	observability.RelationChanges.WithLabelValues(rel.kind, "remove").Inc()
	return nil
}
