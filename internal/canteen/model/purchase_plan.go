package model

import (
	"time"

	"github.com/google/uuid"
)

// PurchasePlanStatus is the lifecycle status of a purchase plan. Status only
// moves forward, one step at a time; regressions are rejected.
type PurchasePlanStatus string

const (
	PlanStatusDraft     PurchasePlanStatus = "DRAFT"
	PlanStatusConfirmed PurchasePlanStatus = "CONFIRMED"
	PlanStatusOrdered   PurchasePlanStatus = "ORDERED"
	PlanStatusCompleted PurchasePlanStatus = "COMPLETED"
)

// CanTransition reports whether a plan may move from one status to another.
func CanTransition(from, to PurchasePlanStatus) bool {
	switch from {
	case PlanStatusDraft:
		return to == PlanStatusConfirmed
	case PlanStatusConfirmed:
		return to == PlanStatusOrdered
	case PlanStatusOrdered:
		return to == PlanStatusCompleted
	default:
		return false
	}
}

// PlanLine is the computed requirement for one ingredient across the plan's
// date range. TotalGrams is the raw aggregate; DisplayAmount is the same
// quantity in the ingredient's purchase unit. PerDayGrams keeps the per-day
// breakdown for traceability.
type PlanLine struct {
	IngredientID   uuid.UUID          `json:"ingredientId"`
	IngredientName string             `json:"ingredientName"`
	Unit           IngredientUnit     `json:"unit"`
	TotalGrams     float64            `json:"totalGrams"`
	DisplayAmount  float64            `json:"displayAmount"`
	PerDayGrams    map[string]float64 `json:"perDayGrams"` // Keyed by date, formatted 2006-01-02
}

// SupplierGroup is the plan's line items for one supplier category.
type SupplierGroup struct {
	CategoryID   uuid.UUID  `json:"categoryId"`
	CategoryName string     `json:"categoryName"`
	WeeklyBatch  bool       `json:"weeklyBatch"` // Purchased once per range rather than daily
	Lines        []PlanLine `json:"lines"`
}

// PurchasePlan is the persisted result of a purchase quantity aggregation.
// The headcount snapshot and the line items are frozen at creation time;
// only the status moves afterwards.
type PurchasePlan struct {
	BaseModel
	CampusID          uuid.UUID          `gorm:"type:uuid;column:campus_id;not null;index" json:"campusId"`
	MenuID            uuid.UUID          `gorm:"type:uuid;column:menu_id;not null" json:"menuId"`
	StartDate         time.Time          `gorm:"type:date;column:start_date;not null" json:"startDate"`
	EndDate           time.Time          `gorm:"type:date;column:end_date;not null" json:"endDate"`
	ClassIDs          UUIDArray          `gorm:"type:jsonb;column:class_ids;not null;serializer:json" json:"classIds"`
	HeadcountSnapshot map[string]int     `gorm:"type:jsonb;column:headcount_snapshot;not null;serializer:json" json:"headcountSnapshot"` // Age in years -> student count at creation time
	Groups            []SupplierGroup    `gorm:"type:jsonb;column:groups;not null;serializer:json" json:"groups"`
	Status            PurchasePlanStatus `gorm:"type:varchar(20);column:status;not null" json:"status"`
	CreatedBy         uuid.UUID          `gorm:"type:uuid;column:created_by;not null" json:"createdBy"`
}

func (p *PurchasePlan) TableName() string {
	return "purchase_plans"
}
