package router

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/OpenKinder/kinder/internal/apperr"
	"github.com/OpenKinder/kinder/internal/approval/model"
	"github.com/OpenKinder/kinder/internal/approval/service"
)

type FlowRouter struct {
	fs *service.FlowService
}

func NewFlowRouter(fs *service.FlowService) *FlowRouter {
	return &FlowRouter{fs: fs}
}

// HandleCreateFlow handles POST /api/v1/flows
// Request body: CreateFlowDTO
// Response: ApprovalFlow
func (f *FlowRouter) HandleCreateFlow(w http.ResponseWriter, r *http.Request) {
	var req model.CreateFlowDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	flow, err := f.fs.CreateFlow(r.Context(), &req)
	if err != nil {
		http.Error(w, "failed to create flow: "+err.Error(), apperr.HTTPStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(flow); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
}

// HandleGetFlowByID handles GET /api/v1/flows/{id}
// Path param: id (required)
// Response: ApprovalFlow with nodes
func (f *FlowRouter) HandleGetFlowByID(w http.ResponseWriter, r *http.Request) {
	flowID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid flow ID format: "+err.Error(), http.StatusBadRequest)
		return
	}

	flow, err := f.fs.GetFlowByID(r.Context(), flowID)
	if err != nil {
		http.Error(w, "failed to retrieve flow: "+err.Error(), apperr.HTTPStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(flow); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
}

// HandleListFlows handles GET /api/v1/flows?campusId={campusId}
// Query params: campusId (required)
// Response: array of ApprovalFlow
func (f *FlowRouter) HandleListFlows(w http.ResponseWriter, r *http.Request) {
	campusID, err := uuid.Parse(r.URL.Query().Get("campusId"))
	if err != nil {
		http.Error(w, "campusId query parameter is required: "+err.Error(), http.StatusBadRequest)
		return
	}

	flows, err := f.fs.ListFlows(r.Context(), campusID)
	if err != nil {
		http.Error(w, "failed to list flows: "+err.Error(), apperr.HTTPStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(flows); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
}

// HandleUpdateFlow handles PATCH /api/v1/flows/{id}
// Request body: UpdateFlowDTO (omitted fields are left unchanged)
// Response: ApprovalFlow with nodes
func (f *FlowRouter) HandleUpdateFlow(w http.ResponseWriter, r *http.Request) {
	flowID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid flow ID format: "+err.Error(), http.StatusBadRequest)
		return
	}

	var req model.UpdateFlowDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	flow, err := f.fs.UpdateFlow(r.Context(), flowID, &req)
	if err != nil {
		http.Error(w, "failed to update flow: "+err.Error(), apperr.HTTPStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(flow); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
}

// HandleDeleteFlow handles DELETE /api/v1/flows/{id}
// Path param: id (required)
// Response: 204 No Content
func (f *FlowRouter) HandleDeleteFlow(w http.ResponseWriter, r *http.Request) {
	flowID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid flow ID format: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := f.fs.DeleteFlow(r.Context(), flowID); err != nil {
		http.Error(w, "failed to delete flow: "+err.Error(), apperr.HTTPStatus(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleInsertNode handles POST /api/v1/flows/{id}/nodes
// Request body: InsertNodeDTO
// Response: ApprovalFlow with renumbered nodes
func (f *FlowRouter) HandleInsertNode(w http.ResponseWriter, r *http.Request) {
	flowID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid flow ID format: "+err.Error(), http.StatusBadRequest)
		return
	}

	var req model.InsertNodeDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	flow, err := f.fs.InsertNode(r.Context(), flowID, &req)
	if err != nil {
		http.Error(w, "failed to insert node: "+err.Error(), apperr.HTTPStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(flow); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
}

// HandleDeleteNode handles DELETE /api/v1/flows/{id}/nodes/{seq}
// Path params: id, seq (required)
// Response: ApprovalFlow with renumbered nodes
func (f *FlowRouter) HandleDeleteNode(w http.ResponseWriter, r *http.Request) {
	flowID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid flow ID format: "+err.Error(), http.StatusBadRequest)
		return
	}

	seq, err := strconv.Atoi(r.PathValue("seq"))
	if err != nil {
		http.Error(w, "invalid node sequence: "+err.Error(), http.StatusBadRequest)
		return
	}

	flow, err := f.fs.DeleteNode(r.Context(), flowID, seq)
	if err != nil {
		http.Error(w, "failed to delete node: "+err.Error(), apperr.HTTPStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(flow); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
}

// HandleMoveNode handles POST /api/v1/flows/{id}/nodes/move
// Request body: MoveNodeDTO
// Response: ApprovalFlow with renumbered nodes
func (f *FlowRouter) HandleMoveNode(w http.ResponseWriter, r *http.Request) {
	flowID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid flow ID format: "+err.Error(), http.StatusBadRequest)
		return
	}

	var req model.MoveNodeDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	flow, err := f.fs.MoveNode(r.Context(), flowID, &req)
	if err != nil {
		http.Error(w, "failed to move node: "+err.Error(), apperr.HTTPStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(flow); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
}
