package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OpenKinder/kinder/internal/apperr"
	"github.com/OpenKinder/kinder/internal/canteen/model"
)

// CatalogService reads the canteen catalog: supplier categories, ingredients,
// dishes with their recipes, and menus.
type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

func (s *CatalogService) GetMenuByID(ctx context.Context, menuID uuid.UUID) (*model.Menu, error) {
	var menu model.Menu
	err := s.db.WithContext(ctx).
		Preload("Slots").
		First(&menu, "id = ?", menuID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFoundf("menu %s not found", menuID)
	}
	if err != nil {
		return nil, err
	}
	return &menu, nil
}

// GetSlotsInRange returns the menu's slots whose date falls inside
// [start, end], inclusive on both ends.
func (s *CatalogService) GetSlotsInRange(ctx context.Context, menuID uuid.UUID, start, end time.Time) ([]model.MenuSlot, error) {
	var slots []model.MenuSlot
	err := s.db.WithContext(ctx).
		Where("menu_id = ? AND date >= ? AND date <= ?", menuID, start, end).
		Order("date ASC, meal ASC").
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

// GetRecipes loads the recipe lines of the given dishes, keyed by dish ID.
// Dishes with no recorded recipe simply have no entry.
func (s *CatalogService) GetRecipes(ctx context.Context, dishIDs []uuid.UUID) (map[uuid.UUID][]model.DishIngredient, error) {
	recipes := make(map[uuid.UUID][]model.DishIngredient)
	if len(dishIDs) == 0 {
		return recipes, nil
	}

	var lines []model.DishIngredient
	err := s.db.WithContext(ctx).
		Where("dish_id IN ?", dishIDs).
		Find(&lines).Error
	if err != nil {
		return nil, err
	}

	for _, line := range lines {
		recipes[line.DishID] = append(recipes[line.DishID], line)
	}
	return recipes, nil
}

// GetIngredients loads the referenced ingredients keyed by ID.
func (s *CatalogService) GetIngredients(ctx context.Context, ingredientIDs []uuid.UUID) (map[uuid.UUID]model.Ingredient, error) {
	ingredients := make(map[uuid.UUID]model.Ingredient)
	if len(ingredientIDs) == 0 {
		return ingredients, nil
	}

	var rows []model.Ingredient
	err := s.db.WithContext(ctx).
		Where("id IN ?", ingredientIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		ingredients[row.ID] = row
	}
	return ingredients, nil
}

// GetSupplierCategories loads all supplier categories keyed by ID.
func (s *CatalogService) GetSupplierCategories(ctx context.Context) (map[uuid.UUID]model.SupplierCategory, error) {
	var rows []model.SupplierCategory
	err := s.db.WithContext(ctx).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	categories := make(map[uuid.UUID]model.SupplierCategory, len(rows))
	for _, row := range rows {
		categories[row.ID] = row
	}
	return categories, nil
}
