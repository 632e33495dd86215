package services

import (
	"strconv"
	"strings"

	"github.com/tbourn/go-foodgram-backend/internal/domain"
)

// UserView is the public representation of a user as seen by a viewer.
type UserView struct {
	ID           uint   `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

// IngredientAmountView is one ingredient line of a recipe.
type IngredientAmountView struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// RecipeView is the full representation of a recipe for a viewer.
type RecipeView struct {
	ID               uint                   `json:"id"`
	Tags             []domain.Tag           `json:"tags"`
	Author           UserView               `json:"author"`
	Ingredients      []IngredientAmountView `json:"ingredients"`
	IsFavorited      bool                   `json:"is_favorited"`
	IsInShoppingCart bool                   `json:"is_in_shopping_cart"`
	Name             string                 `json:"name"`
	Image            string                 `json:"image"`
	Text             string                 `json:"text"`
	CookingTime      int                    `json:"cooking_time"`
}

// RecipeSummary is the short form used in favorite/cart responses and
// subscription listings.
type RecipeSummary struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// SubscriptionView is a followed author with a preview of their recipes.
type SubscriptionView struct {
	UserView
	Recipes      []RecipeSummary `json:"recipes"`
	RecipesCount int64           `json:"recipes_count"`
}

// ToSummary projects a recipe onto its short form.
func ToSummary(r domain.Recipe) RecipeSummary {
	return RecipeSummary{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime}
}

// ToUserView projects a user as seen by a viewer.
func ToUserView(u domain.User, subscribed bool) UserView {
	return UserView{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

// ToSubscriptionView builds the view of a followed author. recipes must be
// ordered newest first; a positive limit truncates the list while
// recipesCount always reports the author's true total.
func ToSubscriptionView(author domain.User, recipes []domain.Recipe, recipesCount int64, limit int) SubscriptionView {
	if limit > 0 && len(recipes) > limit {
		recipes = recipes[:limit]
	}
	out := SubscriptionView{
		UserView:     ToUserView(author, true),
		Recipes:      make([]RecipeSummary, 0, len(recipes)),
		RecipesCount: recipesCount,
	}
	for _, r := range recipes {
		out.Recipes = append(out.Recipes, ToSummary(r))
	}
	return out
}

// ParseRecipesLimit parses the recipes_limit query value. Anything that is
// not a positive integer means no truncation (0).
func ParseRecipesLimit(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

func toRecipeView(r domain.Recipe, authorSubscribed, favorited, inCart bool) RecipeView {
	tags := r.Tags
	if tags == nil {
		tags = []domain.Tag{}
	}
	lines := make([]IngredientAmountView, 0, len(r.Ingredients))
	for _, ri := range r.Ingredients {
		lines = append(lines, IngredientAmountView{
			ID:              ri.IngredientID,
			Name:            ri.Ingredient.Name,
			MeasurementUnit: ri.Ingredient.MeasurementUnit,
			Amount:          ri.Amount,
		})
	}
	return RecipeView{
		ID:               r.ID,
		Tags:             tags,
		Author:           ToUserView(r.Author, authorSubscribed),
		Ingredients:      lines,
		IsFavorited:      favorited,
		IsInShoppingCart: inCart,
		Name:             r.Name,
		Image:            r.Image,
		Text:             r.Text,
		CookingTime:      r.CookingTime,
	}
}
