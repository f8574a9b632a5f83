package router

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/OpenKinder/kinder/internal/apperr"
	"github.com/OpenKinder/kinder/internal/auth"
	"github.com/OpenKinder/kinder/internal/canteen/model"
	"github.com/OpenKinder/kinder/internal/canteen/service"
)

type PurchasePlanRouter struct {
	ps *service.PurchasePlanService
}

func NewPurchasePlanRouter(ps *service.PurchasePlanService) *PurchasePlanRouter {
	return &PurchasePlanRouter{ps: ps}
}

// HandlePreviewPlan handles POST /api/v1/purchase-plans/preview
// Request body: GeneratePlanDTO
// Response: PlanComputation (nothing is persisted)
func (p *PurchasePlanRouter) HandlePreviewPlan(w http.ResponseWriter, r *http.Request) {
	var req model.GeneratePlanDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	computation, err := p.ps.Preview(r.Context(), &req)
	if err != nil {
		http.Error(w, "failed to compute plan: "+err.Error(), apperr.HTTPStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(computation); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
}

// HandleCreatePlan handles POST /api/v1/purchase-plans
// Request body: GeneratePlanDTO
// Response: PurchasePlan persisted as DRAFT
func (p *PurchasePlanRouter) HandleCreatePlan(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.GetAuthContext(r.Context())

	var req model.GeneratePlanDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	plan, err := p.ps.CreatePlan(r.Context(), &req, authCtx.UserID)
	if err != nil {
		http.Error(w, "failed to create plan: "+err.Error(), apperr.HTTPStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(plan); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
}

// HandleGetPlanByID handles GET /api/v1/purchase-plans/{id}
// Path param: id (required)
// Response: PurchasePlan
func (p *PurchasePlanRouter) HandleGetPlanByID(w http.ResponseWriter, r *http.Request) {
	planID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid plan ID format: "+err.Error(), http.StatusBadRequest)
		return
	}

	plan, err := p.ps.GetPlanByID(r.Context(), planID)
	if err != nil {
		http.Error(w, "failed to retrieve plan: "+err.Error(), apperr.HTTPStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(plan); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
}

// HandleListPlans handles GET /api/v1/purchase-plans
// Query params: campusId, status, offset, limit (all optional)
// Response: array of PurchasePlan
func (p *PurchasePlanRouter) HandleListPlans(w http.ResponseWriter, r *http.Request) {
	var filter model.PlanFilter
	query := r.URL.Query()

	if raw := query.Get("campusId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "invalid campusId format: "+err.Error(), http.StatusBadRequest)
			return
		}
		filter.CampusID = &id
	}
	if raw := query.Get("status"); raw != "" {
		status := model.PurchasePlanStatus(raw)
		filter.Status = &status
	}
	if raw := query.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid offset: "+err.Error(), http.StatusBadRequest)
			return
		}
		filter.Offset = &offset
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid limit: "+err.Error(), http.StatusBadRequest)
			return
		}
		filter.Limit = &limit
	}

	plans, err := p.ps.ListPlans(r.Context(), &filter)
	if err != nil {
		http.Error(w, "failed to list plans: "+err.Error(), apperr.HTTPStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(plans); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
}

// HandleUpdatePlanStatus handles PATCH /api/v1/purchase-plans/{id}/status
// Request body: UpdatePlanStatusDTO
// Response: PurchasePlan with the new status
func (p *PurchasePlanRouter) HandleUpdatePlanStatus(w http.ResponseWriter, r *http.Request) {
	planID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid plan ID format: "+err.Error(), http.StatusBadRequest)
		return
	}

	var req model.UpdatePlanStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	plan, err := p.ps.UpdateStatus(r.Context(), planID, req.Status)
	if err != nil {
		http.Error(w, "failed to update plan status: "+err.Error(), apperr.HTTPStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(plan); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
}

// HandleDeletePlan handles DELETE /api/v1/purchase-plans/{id}
// Path param: id (required)
func (p *PurchasePlanRouter) HandleDeletePlan(w http.ResponseWriter, r *http.Request) {
	planID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid plan ID format: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := p.ps.DeletePlan(r.Context(), planID); err != nil {
		http.Error(w, "failed to delete plan: "+err.Error(), apperr.HTTPStatus(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
