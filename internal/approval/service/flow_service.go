package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OpenKinder/kinder/internal/apperr"
	"github.com/OpenKinder/kinder/internal/approval/model"
)

// FlowService manages approval flows and their node ordering.
// Node sequence values are unique and contiguous starting at 1; every
// insert, delete, and move renumbers the nodes to keep that invariant.
type FlowService struct {
	db *gorm.DB
}

func NewFlowService(db *gorm.DB) *FlowService {
	return &FlowService{db: db}
}

// CreateFlow creates a flow with its nodes, sequenced in request order.
func (s *FlowService) CreateFlow(ctx context.Context, req *model.CreateFlowDTO) (*model.ApprovalFlow, error) {
	if req == nil {
		return nil, apperr.Validationf("create request is required")
	}
	if req.Name == "" {
		return nil, apperr.Validationf("flow name is required")
	}
	if len(req.Nodes) == 0 {
		return nil, apperr.Validationf("flow must have at least one node")
	}

	nodes := make([]model.ApprovalNode, 0, len(req.Nodes))
	for i, nodeReq := range req.Nodes {
		node, err := nodeFromDTO(&nodeReq)
		if err != nil {
			return nil, err
		}
		node.Seq = i + 1
		nodes = append(nodes, *node)
	}

	flow := &model.ApprovalFlow{
		Name:           req.Name,
		Description:    req.Description,
		FormTemplateID: req.FormTemplateID,
		CampusID:       req.CampusID,
		Active:         true,
		Nodes:          nodes,
	}

	if err := s.db.WithContext(ctx).Create(flow).Error; err != nil {
		return nil, fmt.Errorf("failed to create approval flow: %w", err)
	}
	return flow, nil
}

// GetFlowByID retrieves a flow with its nodes ordered by sequence.
func (s *FlowService) GetFlowByID(ctx context.Context, flowID uuid.UUID) (*model.ApprovalFlow, error) {
	return s.getFlowByID(ctx, s.db, flowID)
}

// GetFlowByIDInTx retrieves a flow with its nodes inside an existing transaction.
func (s *FlowService) GetFlowByIDInTx(ctx context.Context, tx *gorm.DB, flowID uuid.UUID) (*model.ApprovalFlow, error) {
	return s.getFlowByID(ctx, tx, flowID)
}

func (s *FlowService) getFlowByID(ctx context.Context, db *gorm.DB, flowID uuid.UUID) (*model.ApprovalFlow, error) {
	if flowID == uuid.Nil {
		return nil, apperr.Validationf("flow ID cannot be nil")
	}

	var flow model.ApprovalFlow
	result := db.WithContext(ctx).
		Preload("Nodes", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		First(&flow, "id = ?", flowID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("approval flow %s not found", flowID)
		}
		return nil, fmt.Errorf("failed to retrieve approval flow: %w", result.Error)
	}
	return &flow, nil
}

// ListFlows returns the flows of a campus.
func (s *FlowService) ListFlows(ctx context.Context, campusID uuid.UUID) ([]model.ApprovalFlow, error) {
	var flows []model.ApprovalFlow
	query := s.db.WithContext(ctx).
		Preload("Nodes", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") })
	if campusID != uuid.Nil {
		query = query.Where("campus_id = ?", campusID)
	}
	if err := query.Find(&flows).Error; err != nil {
		return nil, fmt.Errorf("failed to list approval flows: %w", err)
	}
	return flows, nil
}

// UpdateFlow patches a flow's metadata and active state. Node changes go
// through the node operations so that sequence renumbering always applies.
func (s *FlowService) UpdateFlow(ctx context.Context, flowID uuid.UUID, req *model.UpdateFlowDTO) (*model.ApprovalFlow, error) {
	if req == nil {
		return nil, apperr.Validationf("update request is required")
	}
	if req.Name != nil && *req.Name == "" {
		return nil, apperr.Validationf("flow name cannot be empty")
	}

	var flow *model.ApprovalFlow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loaded, err := s.getFlowByID(ctx, tx, flowID)
		if err != nil {
			return err
		}

		if req.Name != nil {
			loaded.Name = *req.Name
		}
		if req.Description != nil {
			loaded.Description = *req.Description
		}
		if req.Active != nil {
			loaded.Active = *req.Active
		}

		// Select lists the columns explicitly so clearing Active lands.
		update := tx.Model(&model.ApprovalFlow{}).
			Where("id = ?", loaded.ID).
			Select("name", "description", "active", "updated_at").
			Updates(&model.ApprovalFlow{
				Name:        loaded.Name,
				Description: loaded.Description,
				Active:      loaded.Active,
				BaseModel:   model.BaseModel{UpdatedAt: time.Now().UTC()},
			})
		if update.Error != nil {
			return fmt.Errorf("failed to update approval flow: %w", update.Error)
		}

		flow = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return flow, nil
}

// DeleteFlow removes a flow and its nodes. A flow that has received
// submissions keeps its audit trail resolvable, so it can only be
// deactivated, never deleted.
func (s *FlowService) DeleteFlow(ctx context.Context, flowID uuid.UUID) error {
	if flowID == uuid.Nil {
		return apperr.Validationf("flow ID cannot be nil")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Submission{}).Where("flow_id = ?", flowID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count submissions for flow: %w", err)
		}
		if count > 0 {
			return apperr.Statef("flow %s has submissions; deactivate it instead of deleting", flowID)
		}

		if err := tx.Delete(&model.ApprovalNode{}, "flow_id = ?", flowID).Error; err != nil {
			return fmt.Errorf("failed to delete approval nodes: %w", err)
		}

		result := tx.Delete(&model.ApprovalFlow{}, "id = ?", flowID)
		if result.Error != nil {
			return fmt.Errorf("failed to delete approval flow: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperr.NotFoundf("approval flow %s not found", flowID)
		}
		return nil
	})
}

// InsertNode inserts a node at the requested position and renumbers the flow.
func (s *FlowService) InsertNode(ctx context.Context, flowID uuid.UUID, req *model.InsertNodeDTO) (*model.ApprovalFlow, error) {
	if req == nil {
		return nil, apperr.Validationf("insert request is required")
	}
	node, err := nodeFromDTO(&req.Node)
	if err != nil {
		return nil, err
	}

	return s.mutateNodes(ctx, flowID, func(nodes []model.ApprovalNode) ([]model.ApprovalNode, error) {
		node.FlowID = flowID
		return InsertNodeAt(nodes, *node, req.At), nil
	})
}

// DeleteNode removes the node at the given sequence and renumbers the flow.
func (s *FlowService) DeleteNode(ctx context.Context, flowID uuid.UUID, seq int) (*model.ApprovalFlow, error) {
	var removed *model.ApprovalNode
	flow, err := s.mutateNodes(ctx, flowID, func(nodes []model.ApprovalNode) ([]model.ApprovalNode, error) {
		if len(nodes) <= 1 {
			return nil, apperr.Statef("cannot delete the last node of a flow")
		}
		remaining, deleted := RemoveNodeAt(nodes, seq)
		if deleted == nil {
			return nil, apperr.NotFoundf("flow has no node at sequence %d", seq)
		}
		removed = deleted
		return remaining, nil
	})
	if err != nil {
		return nil, err
	}

	if removed != nil {
		if err := s.db.WithContext(ctx).Delete(&model.ApprovalNode{}, "id = ?", removed.ID).Error; err != nil {
			return nil, fmt.Errorf("failed to delete approval node: %w", err)
		}
	}
	return flow, nil
}

// MoveNode moves a node between sequence positions and renumbers the flow.
func (s *FlowService) MoveNode(ctx context.Context, flowID uuid.UUID, req *model.MoveNodeDTO) (*model.ApprovalFlow, error) {
	if req == nil {
		return nil, apperr.Validationf("move request is required")
	}
	return s.mutateNodes(ctx, flowID, func(nodes []model.ApprovalNode) ([]model.ApprovalNode, error) {
		moved, ok := MoveNode(nodes, req.From, req.To)
		if !ok {
			return nil, apperr.NotFoundf("flow has no node at sequence %d", req.From)
		}
		return moved, nil
	})
}

// mutateNodes loads the flow, applies the mutation, renumbers, and persists
// the node set in one transaction.
func (s *FlowService) mutateNodes(ctx context.Context, flowID uuid.UUID, mutate func([]model.ApprovalNode) ([]model.ApprovalNode, error)) (*model.ApprovalFlow, error) {
	var flow *model.ApprovalFlow

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loaded, err := s.getFlowByID(ctx, tx, flowID)
		if err != nil {
			return err
		}

		nodes, err := mutate(loaded.Nodes)
		if err != nil {
			return err
		}
		nodes = NormalizeSequence(nodes)

		for i := range nodes {
			if err := tx.Save(&nodes[i]).Error; err != nil {
				return fmt.Errorf("failed to persist approval node: %w", err)
			}
		}

		loaded.Nodes = nodes
		flow = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return flow, nil
}

// NormalizeSequence sorts nodes by their current sequence and reassigns
// contiguous 1-based sequence values.
func NormalizeSequence(nodes []model.ApprovalNode) []model.ApprovalNode {
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Seq < nodes[j].Seq })
	for i := range nodes {
		nodes[i].Seq = i + 1
	}
	return nodes
}

// InsertNodeAt inserts a node at the 1-based position, shifting later nodes
// down. Position 0 or a position past the end appends.
func InsertNodeAt(nodes []model.ApprovalNode, node model.ApprovalNode, at int) []model.ApprovalNode {
	nodes = NormalizeSequence(nodes)
	if at < 1 || at > len(nodes) {
		node.Seq = len(nodes) + 1
		return append(nodes, node)
	}

	for i := range nodes {
		if nodes[i].Seq >= at {
			nodes[i].Seq++
		}
	}
	node.Seq = at
	return NormalizeSequence(append(nodes, node))
}

// RemoveNodeAt removes the node at the given sequence, returning the
// remaining nodes renumbered and the removed node (nil if not found).
func RemoveNodeAt(nodes []model.ApprovalNode, seq int) ([]model.ApprovalNode, *model.ApprovalNode) {
	nodes = NormalizeSequence(nodes)
	var removed *model.ApprovalNode
	remaining := make([]model.ApprovalNode, 0, len(nodes))
	for i := range nodes {
		if nodes[i].Seq == seq && removed == nil {
			node := nodes[i]
			removed = &node
			continue
		}
		remaining = append(remaining, nodes[i])
	}
	return NormalizeSequence(remaining), removed
}

// MoveNode moves the node at sequence from to sequence to, clamping to the
// valid range. Returns false when there is no node at from.
func MoveNode(nodes []model.ApprovalNode, from, to int) ([]model.ApprovalNode, bool) {
	nodes = NormalizeSequence(nodes)
	if from < 1 || from > len(nodes) {
		return nodes, false
	}
	if to < 1 {
		to = 1
	}
	if to > len(nodes) {
		to = len(nodes)
	}

	moved := nodes[from-1]
	rest := append(append([]model.ApprovalNode{}, nodes[:from-1]...), nodes[from:]...)
	result := append(append([]model.ApprovalNode{}, rest[:to-1]...), moved)
	result = append(result, rest[to-1:]...)
	for i := range result {
		result[i].Seq = i + 1
	}
	return result, true
}

// nodeFromDTO validates a node spec and converts it to a model node.
func nodeFromDTO(req *model.CreateNodeDTO) (*model.ApprovalNode, error) {
	if req.Name == "" {
		return nil, apperr.Validationf("node name is required")
	}

	switch req.Mode {
	case model.NodeModeSerial:
	case model.NodeModeParallel:
		if req.ParallelPolicy != model.ParallelPolicyAnd && req.ParallelPolicy != model.ParallelPolicyOr {
			return nil, apperr.Validationf("parallel node %q requires policy AND or OR", req.Name)
		}
	default:
		return nil, apperr.Validationf("node %q has unknown mode %q", req.Name, req.Mode)
	}

	switch req.ApproverType {
	case model.ApproverTypeFixed:
		if len(req.ApproverIDs) == 0 {
			return nil, apperr.Validationf("node %q with fixed approvers requires a user list", req.Name)
		}
	case model.ApproverTypeRole:
		if req.RoleID == nil {
			return nil, apperr.Validationf("node %q with role approvers requires a role", req.Name)
		}
	case model.ApproverTypePosition:
		if req.PositionID == nil {
			return nil, apperr.Validationf("node %q with position approvers requires a position", req.Name)
		}
	case model.ApproverTypeSuperior:
	default:
		return nil, apperr.Validationf("node %q has unknown approver type %q", req.Name, req.ApproverType)
	}

	switch req.RejectBehavior {
	case model.RejectBehaviorEnd, model.RejectBehaviorReturnToStart, model.RejectBehaviorReturnPrevious:
	default:
		return nil, apperr.Validationf("node %q has unknown reject behavior %q", req.Name, req.RejectBehavior)
	}

	return &model.ApprovalNode{
		Name:           req.Name,
		Mode:           req.Mode,
		ParallelPolicy: req.ParallelPolicy,
		ApproverType:   req.ApproverType,
		ApproverIDs:    req.ApproverIDs,
		RoleID:         req.RoleID,
		PositionID:     req.PositionID,
		RejectBehavior: req.RejectBehavior,
		CanReject:      req.CanReject,
		CanReturn:      req.CanReturn,
		CanTransfer:    req.CanTransfer,
		TimeoutSeconds: req.TimeoutSeconds,
	}, nil
}
