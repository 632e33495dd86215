// Package handlers wires HTTP endpoints to the application services.
//
// Handlers are transport-thin: they parse paths, queries and bodies, call the
// services with the current user passed explicitly, and translate results and
// service errors into HTTP responses.
package handlers

import (
	"context"
	"time"

	"github.com/tbourn/go-foodgram-backend/internal/domain"
	"github.com/tbourn/go-foodgram-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// RecipeService defines recipe CRUD consumed by the handlers.
type RecipeService interface {
	Create(ctx context.Context, authorID uint, in services.RecipeInput) (*domain.Recipe, error)
	Update(ctx context.Context, userID, recipeID uint, in services.RecipeInput) (*domain.Recipe, error)
	Delete(ctx context.Context, userID, recipeID uint) error
	Get(ctx context.Context, viewerID, recipeID uint) (*services.RecipeView, error)
	List(ctx context.Context, viewerID uint, q services.RecipeQuery, page, pageSize int) ([]services.RecipeView, int64, error)
}

// RelationService defines the favorite and shopping-cart operations.
type RelationService interface {
	AddFavorite(ctx context.Context, userID, recipeID uint) (*services.RecipeSummary, error)
	RemoveFavorite(ctx context.Context, userID, recipeID uint) error
	AddToCart(ctx context.Context, userID, recipeID uint) (*services.RecipeSummary, error)
	RemoveFromCart(ctx context.Context, userID, recipeID uint) error
	ListCart(ctx context.Context, userID uint, page, pageSize int) ([]services.RecipeSummary, int64, error)
}

// ShoppingService renders the aggregated shopping list.
type ShoppingService interface {
	// Stats returns the cart size and latest change, used for the ETag.
	Stats(ctx context.Context, userID uint) (int64, *time.Time, error)
	Download(ctx context.Context, userID uint, format string) (*services.Document, error)
}

// CatalogService serves tags and ingredients.
type CatalogService interface {
	ListTags(ctx context.Context) ([]domain.Tag, error)
	GetTag(ctx context.Context, id uint) (*domain.Tag, error)
	SearchIngredients(ctx context.Context, prefix string) ([]domain.Ingredient, error)
	GetIngredient(ctx context.Context, id uint) (*domain.Ingredient, error)
}

// UserService registers and reads user profiles.
type UserService interface {
	Register(ctx context.Context, in services.UserInput) (*services.UserView, error)
	Get(ctx context.Context, viewerID, id uint) (*services.UserView, error)
	ListPage(ctx context.Context, viewerID uint, page, pageSize int) ([]services.UserView, int64, error)
}

// FollowService manages subscriptions.
type FollowService interface {
	Subscribe(ctx context.Context, userID, authorID uint, recipesLimit int) (*services.SubscriptionView, error)
	Unsubscribe(ctx context.Context, userID, authorID uint) error
	ListSubscriptions(ctx context.Context, userID uint, page, pageSize, recipesLimit int) ([]services.SubscriptionView, int64, error)
}

// IdempotencyStore records the resource created for an Idempotency-Key so a
// retried request can be answered with the same resource.
type IdempotencyStore interface {
	Save(ctx context.Context, userID uint, scope, key string, resourceID uint, status int) error
}

//
// Handler wiring
//

// Deps bundles the services the handlers depend on. Idem may be nil.
type Deps struct {
	Recipes   RecipeService
	Relations RelationService
	Shopping  ShoppingService
	Catalog   CatalogService
	Users     UserService
	Follows   FollowService
	Idem      IdempotencyStore
}

// Handlers groups the HTTP endpoints of the API.
type Handlers struct {
	recipes   RecipeService
	relations RelationService
	shopping  ShoppingService
	catalog   CatalogService
	users     UserService
	follows   FollowService
	idem      IdempotencyStore
}

// New constructs Handlers bound to the given services.
func New(d Deps) *Handlers {
	return &Handlers{
		recipes:   d.Recipes,
		relations: d.Relations,
		shopping:  d.Shopping,
		catalog:   d.Catalog,
		users:     d.Users,
		follows:   d.Follows,
		idem:      d.Idem,
	}
}
