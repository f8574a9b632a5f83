package router

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/OpenKinder/kinder/internal/apperr"
	"github.com/OpenKinder/kinder/internal/form/model"
	"github.com/OpenKinder/kinder/internal/form/service"
)

type FormRouter struct {
	fs *service.FormService
}

func NewFormRouter(fs *service.FormService) *FormRouter {
	return &FormRouter{fs: fs}
}

// HandleCreateFormTemplate handles POST /api/v1/form-templates
// Request body: FormTemplate
// Response: FormTemplate
func (f *FormRouter) HandleCreateFormTemplate(w http.ResponseWriter, r *http.Request) {
	var template model.FormTemplate
	if err := json.NewDecoder(r.Body).Decode(&template); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	created, err := f.fs.CreateFormTemplate(r.Context(), &template)
	if err != nil {
		http.Error(w, "failed to create form template: "+err.Error(), apperr.HTTPStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(created); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
}

// HandleListFormTemplates handles GET /api/v1/form-templates
// Response: array of FormTemplate
func (f *FormRouter) HandleListFormTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := f.fs.ListFormTemplates(r.Context())
	if err != nil {
		http.Error(w, "failed to list form templates: "+err.Error(), apperr.HTTPStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(templates); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
}

// HandleGetFormTemplateByID handles GET /api/v1/form-templates/{id}
// Path param: id (required)
// Response: FormTemplate
func (f *FormRouter) HandleGetFormTemplateByID(w http.ResponseWriter, r *http.Request) {
	templateID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid form template ID format: "+err.Error(), http.StatusBadRequest)
		return
	}

	template, err := f.fs.GetFormTemplateByID(r.Context(), templateID)
	if err != nil {
		http.Error(w, "failed to retrieve form template: "+err.Error(), apperr.HTTPStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(template); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
}
