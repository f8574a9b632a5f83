package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/OpenKinder/kinder/internal/canteen/model"
)

// GramsPerCatty converts raw gram totals to catty-denominated display amounts.
const GramsPerCatty = 500.0

// ageCoefficients scales per-serving base amounts by the age of the child.
// Ages outside the table default to 1.0.
var ageCoefficients = map[int]float64{
	2: 0.8,
	3: 0.9,
	4: 1.0,
	5: 1.1,
	6: 1.2,
}

// AgeCoefficient returns the serving multiplier for an age in whole years.
func AgeCoefficient(age int) float64 {
	if coeff, ok := ageCoefficients[age]; ok {
		return coeff
	}
	return 1.0
}

// AgeInYears computes the integer age at the evaluation date.
func AgeInYears(birthdate, asOf time.Time) int {
	years := asOf.Year() - birthdate.Year()
	// Not yet had the birthday this year
	if asOf.Month() < birthdate.Month() ||
		(asOf.Month() == birthdate.Month() && asOf.Day() < birthdate.Day()) {
		years--
	}
	if years < 0 {
		years = 0
	}
	return years
}

// Headcount is a student count keyed by integer age in years.
type Headcount map[int]int

// HeadcountFromStudents groups students into integer age brackets at the
// evaluation date.
func HeadcountFromStudents(students []model.Student, asOf time.Time) Headcount {
	headcount := make(Headcount)
	for i := range students {
		headcount[AgeInYears(students[i].Birthdate, asOf)]++
	}
	return headcount
}

// WeightedServings is the age-adjusted serving count:
// the sum over age groups of headcount × coefficient.
func (h Headcount) WeightedServings() float64 {
	total := 0.0
	for age, count := range h {
		total += float64(count) * AgeCoefficient(age)
	}
	return total
}

// Snapshot renders the headcount with string keys for jsonb persistence.
func (h Headcount) Snapshot() map[string]int {
	snapshot := make(map[string]int, len(h))
	for age, count := range h {
		snapshot[fmt.Sprintf("%d", age)] = count
	}
	return snapshot
}

// AggregationInput carries everything the aggregator needs, pre-resolved.
// The computation itself is pure and side-effect free; recomputing with the
// same input yields the same result.
type AggregationInput struct {
	Slots       []model.MenuSlot                    // Menu slots within the requested date range
	Recipes     map[uuid.UUID][]model.DishIngredient // Dish ID -> recipe lines
	Ingredients map[uuid.UUID]model.Ingredient       // Ingredient ID -> catalog row
	Categories  map[uuid.UUID]model.SupplierCategory // Supplier category ID -> catalog row
	Headcount   Headcount
}

// Aggregate computes per-ingredient purchase requirements grouped by supplier
// category. For every (day, meal, dish) slot and every recipe line, the slot
// amount is base_grams × weighted servings; amounts are summed per ingredient
// per day and across the whole range, and the per-day breakdown is retained
// alongside the aggregate.
func Aggregate(in AggregationInput) ([]model.SupplierGroup, error) {
	weighted := in.Headcount.WeightedServings()

	type accumulator struct {
		ingredient model.Ingredient
		totalGrams float64
		perDay     map[string]float64
	}
	totals := make(map[uuid.UUID]*accumulator)

	for i := range in.Slots {
		slot := &in.Slots[i]
		day := slot.Date.Format("2006-01-02")

		// A dish with no recorded recipe contributes zero; not an error.
		for _, line := range in.Recipes[slot.DishID] {
			ingredient, ok := in.Ingredients[line.IngredientID]
			if !ok {
				return nil, fmt.Errorf("recipe of dish %s references unknown ingredient %s", slot.DishID, line.IngredientID)
			}

			grams := line.BaseGrams * weighted
			acc, exists := totals[ingredient.ID]
			if !exists {
				acc = &accumulator{ingredient: ingredient, perDay: make(map[string]float64)}
				totals[ingredient.ID] = acc
			}
			acc.totalGrams += grams
			acc.perDay[day] += grams
		}
	}

	// Group lines by supplier category.
	groupByCategory := make(map[uuid.UUID]*model.SupplierGroup)
	for _, acc := range totals {
		category, ok := in.Categories[acc.ingredient.SupplierCategoryID]
		if !ok {
			return nil, fmt.Errorf("ingredient %s references unknown supplier category %s", acc.ingredient.ID, acc.ingredient.SupplierCategoryID)
		}

		group, exists := groupByCategory[category.ID]
		if !exists {
			group = &model.SupplierGroup{
				CategoryID:   category.ID,
				CategoryName: category.Name,
				WeeklyBatch:  category.WeeklyBatch,
			}
			groupByCategory[category.ID] = group
		}

		group.Lines = append(group.Lines, model.PlanLine{
			IngredientID:   acc.ingredient.ID,
			IngredientName: acc.ingredient.Name,
			Unit:           acc.ingredient.Unit,
			TotalGrams:     acc.totalGrams,
			DisplayAmount:  displayAmount(acc.ingredient.Unit, acc.totalGrams),
			PerDayGrams:    acc.perDay,
		})
	}

	groups := make([]model.SupplierGroup, 0, len(groupByCategory))
	for _, group := range groupByCategory {
		sort.Slice(group.Lines, func(i, j int) bool {
			return group.Lines[i].IngredientName < group.Lines[j].IngredientName
		})
		groups = append(groups, *group)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].CategoryName < groups[j].CategoryName })

	return groups, nil
}

// displayAmount converts a gram total to the ingredient's purchase unit.
func displayAmount(unit model.IngredientUnit, grams float64) float64 {
	if unit == model.UnitCatty {
		return grams / GramsPerCatty
	}
	return grams
}
