package domain

import "time"

// Favorite marks a recipe as a favorite of a user. The (user, recipe) pair is
// unique; the row disappears with either side.
type Favorite struct {
	ID        uint      `json:"id"         gorm:"primaryKey"`
	UserID    uint      `json:"user_id"    gorm:"not null;index;uniqueIndex:ux_favorite_user_recipe,priority:1"`
	RecipeID  uint      `json:"recipe_id"  gorm:"not null;index;uniqueIndex:ux_favorite_user_recipe,priority:2"`
	CreatedAt time.Time `json:"created_at"`

	User   User   `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Recipe Recipe `json:"-" gorm:"foreignKey:RecipeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Favorite.
func (Favorite) TableName() string { return "favorites" }

// Cart puts a recipe into a user's shopping cart. Same uniqueness and
// lifecycle rules as Favorite.
type Cart struct {
	ID        uint      `json:"id"         gorm:"primaryKey"`
	UserID    uint      `json:"user_id"    gorm:"not null;index;uniqueIndex:ux_cart_user_recipe,priority:1"`
	RecipeID  uint      `json:"recipe_id"  gorm:"not null;index;uniqueIndex:ux_cart_user_recipe,priority:2"`
	CreatedAt time.Time `json:"created_at"`

	User   User   `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Recipe Recipe `json:"-" gorm:"foreignKey:RecipeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Cart.
func (Cart) TableName() string { return "carts" }

// Follow is a directed subscription of UserID (follower) to AuthorID.
// The pair is unique and a user can never follow themselves.
type Follow struct {
	ID        uint      `json:"id"         gorm:"primaryKey"`
	UserID    uint      `json:"user_id"    gorm:"not null;index;uniqueIndex:ux_follow_user_author,priority:1;check:chk_follows_not_self,user_id <> author_id"`
	AuthorID  uint      `json:"author_id"  gorm:"not null;index;uniqueIndex:ux_follow_user_author,priority:2"`
	CreatedAt time.Time `json:"created_at"`

	User   User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Author User `json:"-" gorm:"foreignKey:AuthorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Follow.
func (Follow) TableName() string { return "follows" }

// ShoppingLine is one row of an aggregated shopping list: the total amount of
// an ingredient (in its unit) across every recipe in a user's cart.
type ShoppingLine struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int64  `json:"amount"`
}
