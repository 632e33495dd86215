package domain

import "time"

// Recipe is owned exclusively by its author. Only the author may update or
// delete it; everyone else has read access.
//
// Fields:
//   - AuthorID: owning user; (AuthorID, Name) is unique.
//   - Image: URL or media path of the stored image.
//   - CookingTime: minutes, never below the configured minimum (>= 1).
//   - Tags: many-to-many through recipe_tags.
//   - Ingredients: quantified lines, replaced wholesale on update.
type Recipe struct {
	ID          uint      `json:"id"           gorm:"primaryKey"`
	AuthorID    uint      `json:"author_id"    gorm:"not null;index;uniqueIndex:ux_recipe_author_name,priority:1"`
	Name        string    `json:"name"         gorm:"type:varchar(200);not null;uniqueIndex:ux_recipe_author_name,priority:2"`
	Image       string    `json:"image"        gorm:"type:varchar(512);not null"`
	Text        string    `json:"text"         gorm:"type:text;not null"`
	CookingTime int       `json:"cooking_time" gorm:"not null;check:chk_recipes_cooking_time,cooking_time >= 1"`
	CreatedAt   time.Time `json:"created_at"   gorm:"index"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Author is the owning user. Recipes are cascade-deleted with their author.
	Author User `json:"-" gorm:"foreignKey:AuthorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	Tags        []Tag              `json:"tags"        gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE"`
	Ingredients []RecipeIngredient `json:"ingredients" gorm:"foreignKey:RecipeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Recipe.
func (Recipe) TableName() string { return "recipes" }

// RecipeIngredient is the amount of one ingredient used by one recipe.
// A recipe lists each ingredient at most once.
type RecipeIngredient struct {
	ID           uint `json:"id"            gorm:"primaryKey"`
	RecipeID     uint `json:"recipe_id"     gorm:"not null;index;uniqueIndex:ux_recipe_ingredient,priority:1"`
	IngredientID uint `json:"ingredient_id" gorm:"not null;index;uniqueIndex:ux_recipe_ingredient,priority:2"`
	Amount       int  `json:"amount"        gorm:"not null;check:chk_recipe_ingredients_amount,amount >= 1 AND amount <= 32000"`

	Ingredient Ingredient `json:"ingredient" gorm:"foreignKey:IngredientID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for RecipeIngredient.
func (RecipeIngredient) TableName() string { return "recipe_ingredients" }
