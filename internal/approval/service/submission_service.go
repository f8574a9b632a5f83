package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OpenKinder/kinder/internal/apperr"
	"github.com/OpenKinder/kinder/internal/approval/model"
	"github.com/OpenKinder/kinder/internal/form"
	formmodel "github.com/OpenKinder/kinder/internal/form/model"
	"github.com/OpenKinder/kinder/utils"
)

// SubmissionService creates submissions and applies approval actions to them.
type SubmissionService struct {
	db        *gorm.DB
	flows     *FlowService
	evaluator *Evaluator
	resolver  ApproverResolver
	registry  *form.Registry
}

func NewSubmissionService(db *gorm.DB, flows *FlowService, evaluator *Evaluator, resolver ApproverResolver, registry *form.Registry) *SubmissionService {
	return &SubmissionService{
		db:        db,
		flows:     flows,
		evaluator: evaluator,
		resolver:  resolver,
		registry:  registry,
	}
}

// CreateSubmission creates a submission positioned at node 1 with status PENDING.
func (s *SubmissionService) CreateSubmission(ctx context.Context, submitterID, campusID uuid.UUID, req *model.CreateSubmissionDTO) (*model.Submission, error) {
	if req == nil {
		return nil, apperr.Validationf("create request is required")
	}
	if req.FlowID == uuid.Nil {
		return nil, apperr.Validationf("flow ID is required")
	}
	if req.Values == nil {
		return nil, apperr.Validationf("form values are required")
	}

	flow, err := s.flows.GetFlowByID(ctx, req.FlowID)
	if err != nil {
		return nil, err
	}
	if !flow.Active {
		return nil, apperr.Statef("approval flow %s is inactive", flow.ID)
	}
	if len(flow.Nodes) == 0 {
		return nil, apperr.Configf("approval flow %s has no nodes", flow.ID)
	}

	// Validate values against the form template's entity schema.
	var template formmodel.FormTemplate
	if err := s.db.WithContext(ctx).First(&template, "id = ?", flow.FormTemplateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Configf("form template %s not found for flow %s", flow.FormTemplateID, flow.ID)
		}
		return nil, fmt.Errorf("failed to retrieve form template: %w", err)
	}
	if err := s.registry.Validate(template.EntityType, req.Values); err != nil {
		return nil, err
	}

	submission := &model.Submission{
		FlowID:         flow.ID,
		FormTemplateID: flow.FormTemplateID,
		SubmitterID:    submitterID,
		CampusID:       campusID,
		Values:         req.Values,
		DetailRows:     req.DetailRows,
		CurrentSeq:     1,
		Status:         model.SubmissionStatusPending,
		Pass:           1,
		NodeStates:     model.NodeStateMap{"1": model.NodeStatePending},
		Version:        1,
	}

	if err := s.db.WithContext(ctx).Create(submission).Error; err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}
	return submission, nil
}

// GetSubmissionByID retrieves a submission with its audit records.
func (s *SubmissionService) GetSubmissionByID(ctx context.Context, submissionID uuid.UUID) (*model.Submission, error) {
	if submissionID == uuid.Nil {
		return nil, apperr.Validationf("submission ID cannot be nil")
	}

	var submission model.Submission
	result := s.db.WithContext(ctx).
		Preload("Records", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&submission, "id = ?", submissionID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("submission %s not found", submissionID)
		}
		return nil, fmt.Errorf("failed to retrieve submission: %w", result.Error)
	}
	return &submission, nil
}

// ListSubmissions returns submissions matching the filter, newest first.
func (s *SubmissionService) ListSubmissions(ctx context.Context, filter model.SubmissionFilter) ([]model.Submission, error) {
	page := utils.ResolvePage(filter.Offset, filter.Limit)

	query := s.db.WithContext(ctx).Model(&model.Submission{})
	if filter.SubmitterID != nil {
		query = query.Where("submitter_id = ?", *filter.SubmitterID)
	}
	if filter.FlowID != nil {
		query = query.Where("flow_id = ?", *filter.FlowID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var submissions []model.Submission
	result := query.Order("created_at DESC").Offset(page.Offset).Limit(page.Limit).Find(&submissions)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", result.Error)
	}
	return submissions, nil
}

// ApplyAction applies one approval action inside a transaction, persisting
// the mutated submission with a compare-and-swap on its version. Concurrent
// actions against the same submission surface as a state error instead of
// silently double-satisfying a node.
func (s *SubmissionService) ApplyAction(ctx context.Context, submissionID, actorID uuid.UUID, req *model.ApprovalActionDTO) (*model.ActionResult, error) {
	if submissionID == uuid.Nil {
		return nil, apperr.Validationf("submission ID cannot be nil")
	}
	if actorID == uuid.Nil {
		return nil, apperr.Authorizationf("an authenticated actor is required")
	}

	var result *model.ActionResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var submission model.Submission
		if err := tx.First(&submission, "id = ?", submissionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("submission %s not found", submissionID)
			}
			return fmt.Errorf("failed to retrieve submission: %w", err)
		}

		expectedVersion := submission.Version
		if req != nil && req.ExpectedVersion != nil && *req.ExpectedVersion != expectedVersion {
			return apperr.Statef("submission %s changed since it was read (version %d, expected %d)", submissionID, expectedVersion, *req.ExpectedVersion)
		}

		flow, err := s.flows.GetFlowByIDInTx(ctx, tx, submission.FlowID)
		if err != nil {
			return err
		}

		applied, err := s.evaluator.ApplyAction(ctx, tx, &submission, flow, actorID, req)
		if err != nil {
			return err
		}

		// Compare-and-swap: the update only lands if nobody else advanced the
		// submission since we read it.
		update := tx.Model(&model.Submission{}).
			Where("id = ? AND version = ?", submission.ID, expectedVersion).
			Select("current_seq", "status", "pass", "node_states", "transfers", "version", "updated_at").
			Updates(&model.Submission{
				CurrentSeq: submission.CurrentSeq,
				Status:     submission.Status,
				Pass:       submission.Pass,
				NodeStates: submission.NodeStates,
				Transfers:  submission.Transfers,
				Version:    expectedVersion + 1,
				BaseModel:  model.BaseModel{UpdatedAt: time.Now().UTC()},
			})
		if update.Error != nil {
			return fmt.Errorf("failed to persist submission: %w", update.Error)
		}
		if update.RowsAffected == 0 {
			return apperr.Statef("submission %s was modified concurrently; retry the action", submission.ID)
		}
		submission.Version = expectedVersion + 1

		result = applied
		result.Submission = &submission
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListPendingForUser returns the submissions whose current node's resolved
// approver set includes the user.
func (s *SubmissionService) ListPendingForUser(ctx context.Context, userID uuid.UUID) ([]model.PendingApprovalDTO, error) {
	if userID == uuid.Nil {
		return nil, apperr.Validationf("user ID cannot be nil")
	}

	var submissions []model.Submission
	result := s.db.WithContext(ctx).
		Where("status = ?", model.SubmissionStatusPending).
		Order("created_at ASC").
		Find(&submissions)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list pending submissions: %w", result.Error)
	}

	pending := make([]model.PendingApprovalDTO, 0)
	for i := range submissions {
		submission := &submissions[i]
		flow, err := s.flows.GetFlowByID(ctx, submission.FlowID)
		if err != nil {
			return nil, err
		}
		node := flow.NodeAt(submission.CurrentSeq)
		if node == nil {
			continue
		}

		approvers, err := s.resolver.Resolve(ctx, node, submission)
		if err != nil {
			// A misconfigured node must not hide the rest of the list.
			if apperr.IsKind(err, apperr.KindConfig) {
				continue
			}
			return nil, err
		}
		if !containsID(approvers, userID) {
			continue
		}

		pending = append(pending, model.PendingApprovalDTO{
			SubmissionID: submission.ID,
			FlowID:       flow.ID,
			FlowName:     flow.Name,
			NodeSeq:      node.Seq,
			NodeName:     node.Name,
			SubmitterID:  submission.SubmitterID,
			SubmittedAt:  submission.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return pending, nil
}
