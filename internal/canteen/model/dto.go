package model

import (
	"github.com/google/uuid"
)

// GeneratePlanDTO is the request body for computing a purchase plan.
type GeneratePlanDTO struct {
	MenuID    uuid.UUID   `json:"menuId"`
	StartDate string      `json:"startDate"` // 2006-01-02
	EndDate   string      `json:"endDate"`   // 2006-01-02
	ClassIDs  []uuid.UUID `json:"classIds"`
}

// PlanComputation is the outcome of running the aggregator without persisting.
type PlanComputation struct {
	MenuID    uuid.UUID       `json:"menuId"`
	StartDate string          `json:"startDate"`
	EndDate   string          `json:"endDate"`
	ClassIDs  []uuid.UUID     `json:"classIds"`
	Headcount map[string]int  `json:"headcount"` // Age in years -> student count
	Groups    []SupplierGroup `json:"groups"`
}

// UpdatePlanStatusDTO requests a status transition.
type UpdatePlanStatusDTO struct {
	Status PurchasePlanStatus `json:"status"`
}

// PlanFilter narrows purchase plan list queries.
type PlanFilter struct {
	CampusID *uuid.UUID          `json:"campusId,omitempty"`
	Status   *PurchasePlanStatus `json:"status,omitempty"`
	Offset   *int                `json:"offset,omitempty"`
	Limit    *int                `json:"limit,omitempty"`
}
