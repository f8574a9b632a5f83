package model

import (
	"github.com/google/uuid"
)

// IngredientUnit is the display unit an ingredient is purchased in.
// Recipe amounts are always recorded in grams; catty-denominated ingredients
// are converted for display (1 catty = 500 g).
type IngredientUnit string

const (
	UnitGram  IngredientUnit = "GRAM"
	UnitCatty IngredientUnit = "CATTY"
	UnitPiece IngredientUnit = "PIECE"
)

// SupplierCategory groups ingredients by the supplier they are bought from.
// Weekly-batch categories (staple grains, oils) are purchased once per week
// rather than daily.
type SupplierCategory struct {
	BaseModel
	Name        string `gorm:"type:varchar(100);column:name;not null;unique" json:"name"`
	WeeklyBatch bool   `gorm:"type:boolean;column:weekly_batch;not null;default:false" json:"weeklyBatch"`
}

func (c *SupplierCategory) TableName() string {
	return "supplier_categories"
}

// Ingredient is a purchasable food item.
type Ingredient struct {
	BaseModel
	Name               string         `gorm:"type:varchar(255);column:name;not null" json:"name"`
	Unit               IngredientUnit `gorm:"type:varchar(20);column:unit;not null;default:'GRAM'" json:"unit"`
	SupplierCategoryID uuid.UUID      `gorm:"type:uuid;column:supplier_category_id;not null;index" json:"supplierCategoryId"`

	// Relationships
	SupplierCategory *SupplierCategory `gorm:"foreignKey:SupplierCategoryID;references:ID" json:"-"`
}

func (i *Ingredient) TableName() string {
	return "ingredients"
}

// Dish is a menu item composed from ingredients.
type Dish struct {
	BaseModel
	Name        string `gorm:"type:varchar(255);column:name;not null" json:"name"`
	Description string `gorm:"type:text;column:description" json:"description,omitempty"`

	// Relationships
	Ingredients []DishIngredient `gorm:"foreignKey:DishID;references:ID" json:"ingredients,omitempty"`
}

func (d *Dish) TableName() string {
	return "dishes"
}

// DishIngredient is one recipe line: the per-serving base amount of an
// ingredient in a dish, in grams.
type DishIngredient struct {
	BaseModel
	DishID       uuid.UUID `gorm:"type:uuid;column:dish_id;not null;index" json:"dishId"`
	IngredientID uuid.UUID `gorm:"type:uuid;column:ingredient_id;not null;index" json:"ingredientId"`
	BaseGrams    float64   `gorm:"type:numeric;column:base_grams;not null" json:"baseGrams"` // Per-serving amount in grams
}

func (di *DishIngredient) TableName() string {
	return "dish_ingredients"
}
