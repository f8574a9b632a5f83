package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OpenKinder/kinder/internal/apperr"
	"github.com/OpenKinder/kinder/internal/form"
	"github.com/OpenKinder/kinder/internal/form/model"
)

// FormService manages form template definitions.
type FormService struct {
	db       *gorm.DB
	registry *form.Registry
}

func NewFormService(db *gorm.DB, registry *form.Registry) *FormService {
	return &FormService{db: db, registry: registry}
}

func (s *FormService) GetFormTemplateByID(ctx context.Context, templateID uuid.UUID) (*model.FormTemplate, error) {
	var template model.FormTemplate
	err := s.db.WithContext(ctx).First(&template, "id = ?", templateID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFoundf("form template %s not found", templateID)
	}
	if err != nil {
		return nil, err
	}
	return &template, nil
}

// ListFormTemplates returns the active templates, newest first.
func (s *FormService) ListFormTemplates(ctx context.Context) ([]model.FormTemplate, error) {
	var templates []model.FormTemplate
	err := s.db.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at DESC").
		Find(&templates).Error
	if err != nil {
		return nil, err
	}
	return templates, nil
}

// CreateFormTemplate stores a new template. The entity type must be known to
// the field registry so that submissions against the template can be
// validated.
func (s *FormService) CreateFormTemplate(ctx context.Context, template *model.FormTemplate) (*model.FormTemplate, error) {
	if template.Name == "" {
		return nil, apperr.Validationf("form template name is required")
	}
	if _, ok := s.registry.Fields(template.EntityType); !ok {
		return nil, apperr.Validationf("unknown entity type %q", template.EntityType)
	}

	if err := s.db.WithContext(ctx).Create(template).Error; err != nil {
		return nil, err
	}
	return template, nil
}
