package exports

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/OpenKinder/kinder/internal/apperr"
	"github.com/OpenKinder/kinder/internal/canteen/model"
)

// PlanLookup fetches the plan to export; satisfied by the purchase plan service.
type PlanLookup interface {
	GetPlanByID(ctx context.Context, planID uuid.UUID) (*model.PurchasePlan, error)
}

type HTTPHandler struct {
	Service *ExportService
	Plans   PlanLookup
}

func NewHTTPHandler(service *ExportService, plans PlanLookup) *HTTPHandler {
	return &HTTPHandler{Service: service, Plans: plans}
}

// HandleExportPlan handles POST /api/v1/purchase-plans/{id}/export
// Path param: id (required)
// Response: ExportMetadata with the download key and URL
func (h *HTTPHandler) HandleExportPlan(w http.ResponseWriter, r *http.Request) {
	planID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid plan ID format: "+err.Error(), http.StatusBadRequest)
		return
	}

	plan, err := h.Plans.GetPlanByID(r.Context(), planID)
	if err != nil {
		http.Error(w, "failed to retrieve plan: "+err.Error(), apperr.HTTPStatus(err))
		return
	}

	metadata, err := h.Service.ExportPlan(r.Context(), plan)
	if err != nil {
		slog.ErrorContext(r.Context(), "Plan export failed", "plan_id", planID, "error", err)
		http.Error(w, "failed to export plan", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(metadata); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
}

// HandleDownload handles GET /api/v1/exports/{key}
// Path param: key (required)
func (h *HTTPHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		http.Error(w, "export key is required", http.StatusBadRequest)
		return
	}

	reader, contentType, err := h.Service.Download(r.Context(), key)
	if err != nil {
		http.Error(w, "export not found", http.StatusNotFound)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", contentType)
	if _, err := io.Copy(w, reader); err != nil {
		slog.WarnContext(r.Context(), "failed to stream export", "key", key, "error", err)
	}
}
