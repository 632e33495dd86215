// Package domain defines the persistence models for the recipe catalog,
// recipes, users, and the user↔recipe / user↔author relationships. These
// types are mapped with GORM and form the core data layer of the service.
package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

// Ingredient is immutable reference data loaded at startup (or by an
// operator). Recipes reference ingredients through RecipeIngredient rows.
//
// Fields:
//   - ID: auto-increment primary key.
//   - Name: display name (e.g. "flour").
//   - MeasurementUnit: unit used for every amount of this ingredient (e.g. "g").
//   - SearchName: lower-cased Name used for case-insensitive prefix search.
type Ingredient struct {
	ID              uint   `json:"id"               gorm:"primaryKey"`
	Name            string `json:"name"             gorm:"type:varchar(200);not null;index;uniqueIndex:ux_ingredient_name_unit,priority:1"`
	MeasurementUnit string `json:"measurement_unit" gorm:"type:varchar(200);not null;uniqueIndex:ux_ingredient_name_unit,priority:2"`
	SearchName      string `json:"-"                gorm:"type:varchar(200);not null;index:idx_ingredient_search"`
}

// TableName returns the database table name for Ingredient.
func (Ingredient) TableName() string { return "ingredients" }

// BeforeSave keeps SearchName in sync with Name.
func (i *Ingredient) BeforeSave(*gorm.DB) error {
	i.SearchName = SearchKey(i.Name)
	return nil
}

// Tag is reference data attached to recipes. Name, Color and Slug are each
// unique across all tags.
type Tag struct {
	ID    uint   `json:"id"    gorm:"primaryKey"`
	Name  string `json:"name"  gorm:"type:varchar(200);not null;uniqueIndex"`
	Color string `json:"color" gorm:"type:varchar(7);not null;uniqueIndex"`
	Slug  string `json:"slug"  gorm:"type:varchar(200);not null;uniqueIndex"`
}

// TableName returns the database table name for Tag.
func (Tag) TableName() string { return "tags" }

var lower = cases.Lower(language.Und)

// SearchKey folds a name into the form stored in Ingredient.SearchName.
// It is Unicode aware, so Cyrillic and accented names match regardless of case.
func SearchKey(s string) string {
	return lower.String(strings.TrimSpace(s))
}
