package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OpenKinder/kinder/internal/apperr"
	"github.com/OpenKinder/kinder/internal/canteen/model"
	"github.com/OpenKinder/kinder/utils"
)

const dateLayout = "2006-01-02"

// PurchasePlanService computes and manages purchase plans. Computation is
// delegated to the pure aggregator; this service resolves the catalog and
// roster inputs and handles persistence.
type PurchasePlanService struct {
	db      *gorm.DB
	catalog *CatalogService
	roster  *RosterService
}

func NewPurchasePlanService(db *gorm.DB, catalog *CatalogService, roster *RosterService) *PurchasePlanService {
	return &PurchasePlanService{db: db, catalog: catalog, roster: roster}
}

// Preview runs the aggregation without persisting anything. The same input
// always yields the same output, so a preview followed by a create with
// unchanged data produces an identical plan.
func (s *PurchasePlanService) Preview(ctx context.Context, req *model.GeneratePlanDTO) (*model.PlanComputation, error) {
	_, _, headcount, groups, err := s.compute(ctx, req)
	if err != nil {
		return nil, err
	}

	return &model.PlanComputation{
		MenuID:    req.MenuID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		ClassIDs:  req.ClassIDs,
		Headcount: headcount.Snapshot(),
		Groups:    groups,
	}, nil
}

// CreatePlan computes the plan and persists it as a DRAFT with the headcount
// snapshot frozen at creation time.
func (s *PurchasePlanService) CreatePlan(ctx context.Context, req *model.GeneratePlanDTO, createdBy uuid.UUID) (*model.PurchasePlan, error) {
	menu, start, headcount, groups, err := s.compute(ctx, req)
	if err != nil {
		return nil, err
	}
	end, _ := time.Parse(dateLayout, req.EndDate)

	plan := &model.PurchasePlan{
		CampusID:          menu.CampusID,
		MenuID:            menu.ID,
		StartDate:         start,
		EndDate:           end,
		ClassIDs:          model.UUIDArray(req.ClassIDs),
		HeadcountSnapshot: headcount.Snapshot(),
		Groups:            groups,
		Status:            model.PlanStatusDraft,
		CreatedBy:         createdBy,
	}

	if err := s.db.WithContext(ctx).Create(plan).Error; err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *PurchasePlanService) GetPlanByID(ctx context.Context, planID uuid.UUID) (*model.PurchasePlan, error) {
	var plan model.PurchasePlan
	err := s.db.WithContext(ctx).First(&plan, "id = ?", planID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFoundf("purchase plan %s not found", planID)
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (s *PurchasePlanService) ListPlans(ctx context.Context, filter *model.PlanFilter) ([]model.PurchasePlan, error) {
	query := s.db.WithContext(ctx).Model(&model.PurchasePlan{})

	if filter.CampusID != nil {
		query = query.Where("campus_id = ?", *filter.CampusID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	page := utils.ResolvePage(filter.Offset, filter.Limit)

	var plans []model.PurchasePlan
	err := query.Order("created_at DESC").Offset(page.Offset).Limit(page.Limit).Find(&plans).Error
	if err != nil {
		return nil, err
	}
	return plans, nil
}

// UpdateStatus moves the plan one step forward in its lifecycle. Backward
// moves and step-skipping are rejected.
func (s *PurchasePlanService) UpdateStatus(ctx context.Context, planID uuid.UUID, target model.PurchasePlanStatus) (*model.PurchasePlan, error) {
	var plan model.PurchasePlan

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&plan, "id = ?", planID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("purchase plan %s not found", planID)
			}
			return err
		}

		if !model.CanTransition(plan.Status, target) {
			return apperr.Statef("cannot move purchase plan from %s to %s", plan.Status, target)
		}

		plan.Status = target
		return tx.Model(&plan).Update("status", target).Error
	})
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// DeletePlan removes a plan. Only drafts may be deleted.
func (s *PurchasePlanService) DeletePlan(ctx context.Context, planID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var plan model.PurchasePlan
		if err := tx.First(&plan, "id = ?", planID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("purchase plan %s not found", planID)
			}
			return err
		}

		if plan.Status != model.PlanStatusDraft {
			return apperr.Statef("only draft plans can be deleted, plan is %s", plan.Status)
		}

		return tx.Delete(&plan).Error
	})
}

// compute validates the request, resolves menu slots, recipes, ingredients,
// categories and roster headcount, and runs the aggregator.
func (s *PurchasePlanService) compute(ctx context.Context, req *model.GeneratePlanDTO) (*model.Menu, time.Time, Headcount, []model.SupplierGroup, error) {
	if len(req.ClassIDs) == 0 {
		return nil, time.Time{}, nil, nil, apperr.Validationf("at least one class is required")
	}

	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return nil, time.Time{}, nil, nil, apperr.Validationf("invalid start date %q", req.StartDate)
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return nil, time.Time{}, nil, nil, apperr.Validationf("invalid end date %q", req.EndDate)
	}
	if end.Before(start) {
		return nil, time.Time{}, nil, nil, apperr.Validationf("end date precedes start date")
	}

	menu, err := s.catalog.GetMenuByID(ctx, req.MenuID)
	if err != nil {
		return nil, time.Time{}, nil, nil, err
	}
	if start.Before(menu.StartDate) || end.After(menu.EndDate) {
		return nil, time.Time{}, nil, nil, apperr.Validationf("requested range is outside the menu's date range")
	}

	slots, err := s.catalog.GetSlotsInRange(ctx, menu.ID, start, end)
	if err != nil {
		return nil, time.Time{}, nil, nil, err
	}

	dishIDs := make([]uuid.UUID, 0, len(slots))
	seenDishes := make(map[uuid.UUID]bool)
	for _, slot := range slots {
		if !seenDishes[slot.DishID] {
			seenDishes[slot.DishID] = true
			dishIDs = append(dishIDs, slot.DishID)
		}
	}

	recipes, err := s.catalog.GetRecipes(ctx, dishIDs)
	if err != nil {
		return nil, time.Time{}, nil, nil, err
	}

	ingredientIDs := make([]uuid.UUID, 0)
	seenIngredients := make(map[uuid.UUID]bool)
	for _, lines := range recipes {
		for _, line := range lines {
			if !seenIngredients[line.IngredientID] {
				seenIngredients[line.IngredientID] = true
				ingredientIDs = append(ingredientIDs, line.IngredientID)
			}
		}
	}

	ingredients, err := s.catalog.GetIngredients(ctx, ingredientIDs)
	if err != nil {
		return nil, time.Time{}, nil, nil, err
	}
	categories, err := s.catalog.GetSupplierCategories(ctx)
	if err != nil {
		return nil, time.Time{}, nil, nil, err
	}

	students, err := s.roster.GetStudentsByClassIDs(ctx, req.ClassIDs)
	if err != nil {
		return nil, time.Time{}, nil, nil, err
	}
	headcount := HeadcountFromStudents(students, start)

	groups, err := Aggregate(AggregationInput{
		Slots:       slots,
		Recipes:     recipes,
		Ingredients: ingredients,
		Categories:  categories,
		Headcount:   headcount,
	})
	if err != nil {
		return nil, time.Time{}, nil, nil, apperr.Configf("%v", err)
	}

	return menu, start, headcount, groups, nil
}
