package router

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/OpenKinder/kinder/internal/apperr"
	"github.com/OpenKinder/kinder/internal/approval/model"
	"github.com/OpenKinder/kinder/internal/approval/service"
	"github.com/OpenKinder/kinder/internal/auth"
)

type SubmissionRouter struct {
	ss *service.SubmissionService
	rs *service.RecordService
}

func NewSubmissionRouter(ss *service.SubmissionService, rs *service.RecordService) *SubmissionRouter {
	return &SubmissionRouter{ss: ss, rs: rs}
}

// HandleCreateSubmission handles POST /api/v1/submissions
// Request body: CreateSubmissionDTO
// Response: Submission
func (s *SubmissionRouter) HandleCreateSubmission(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.GetAuthContext(r.Context())

	var req model.CreateSubmissionDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	submission, err := s.ss.CreateSubmission(r.Context(), authCtx.UserID, authCtx.CampusID, &req)
	if err != nil {
		http.Error(w, "failed to create submission: "+err.Error(), apperr.HTTPStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(submission); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
}

// HandleGetSubmissionByID handles GET /api/v1/submissions/{id}
// Path param: id (required)
// Response: Submission with approval records
func (s *SubmissionRouter) HandleGetSubmissionByID(w http.ResponseWriter, r *http.Request) {
	submissionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid submission ID format: "+err.Error(), http.StatusBadRequest)
		return
	}

	submission, err := s.ss.GetSubmissionByID(r.Context(), submissionID)
	if err != nil {
		http.Error(w, "failed to retrieve submission: "+err.Error(), apperr.HTTPStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(submission); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
}

// HandleListSubmissions handles GET /api/v1/submissions
// Query params: submitterId, flowId, status, offset, limit (all optional)
// Response: array of Submission
func (s *SubmissionRouter) HandleListSubmissions(w http.ResponseWriter, r *http.Request) {
	filter, err := submissionFilterFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	submissions, err := s.ss.ListSubmissions(r.Context(), filter)
	if err != nil {
		http.Error(w, "failed to list submissions: "+err.Error(), apperr.HTTPStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(submissions); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
}

// HandleApplyAction handles POST /api/v1/submissions/{id}/actions
// Request body: ApprovalActionDTO
// Response: ActionResult
func (s *SubmissionRouter) HandleApplyAction(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.GetAuthContext(r.Context())

	submissionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid submission ID format: "+err.Error(), http.StatusBadRequest)
		return
	}

	var req model.ApprovalActionDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	result, err := s.ss.ApplyAction(r.Context(), submissionID, authCtx.UserID, &req)
	if err != nil {
		http.Error(w, "failed to apply action: "+err.Error(), apperr.HTTPStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
}

// HandleListPendingApprovals handles GET /api/v1/approvals/pending
// Response: array of PendingApprovalDTO for the authenticated user
func (s *SubmissionRouter) HandleListPendingApprovals(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.GetAuthContext(r.Context())

	pending, err := s.ss.ListPendingForUser(r.Context(), authCtx.UserID)
	if err != nil {
		http.Error(w, "failed to list pending approvals: "+err.Error(), apperr.HTTPStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(pending); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
}

// HandleGetSubmissionRecords handles GET /api/v1/submissions/{id}/records
// Path param: id (required)
// Response: full approval record history across all passes
func (s *SubmissionRouter) HandleGetSubmissionRecords(w http.ResponseWriter, r *http.Request) {
	submissionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid submission ID format: "+err.Error(), http.StatusBadRequest)
		return
	}

	records, err := s.rs.GetRecordsBySubmissionID(r.Context(), submissionID)
	if err != nil {
		http.Error(w, "failed to retrieve approval records: "+err.Error(), apperr.HTTPStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(records); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
}

func submissionFilterFromQuery(r *http.Request) (model.SubmissionFilter, error) {
	var filter model.SubmissionFilter
	query := r.URL.Query()

	if raw := query.Get("submitterId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, err
		}
		filter.SubmitterID = &id
	}
	if raw := query.Get("flowId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, err
		}
		filter.FlowID = &id
	}
	if raw := query.Get("status"); raw != "" {
		status := model.SubmissionStatus(raw)
		filter.Status = &status
	}
	if raw := query.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			return filter, err
		}
		filter.Offset = &offset
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return filter, err
		}
		filter.Limit = &limit
	}

	return filter, nil
}
