package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OpenKinder/kinder/internal/apperr"
	"github.com/OpenKinder/kinder/internal/approval/model"
)

// RecordRepository persists and queries approval records.
type RecordRepository interface {
	CreateRecordInTx(ctx context.Context, tx *gorm.DB, record *model.ApprovalRecord) error
	GetRecordsForNodePassInTx(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID, nodeSeq, pass int) ([]model.ApprovalRecord, error)
}

// Evaluator applies approval actions to a submission's workflow position.
// It mutates the submission in memory; the caller persists it (with the
// optimistic concurrency check) inside the same transaction.
type Evaluator struct {
	records  RecordRepository
	resolver ApproverResolver
}

func NewEvaluator(records RecordRepository, resolver ApproverResolver) *Evaluator {
	return &Evaluator{records: records, resolver: resolver}
}

// ApplyAction validates and applies one approval action against the
// submission's current node. The approval record is persisted before any
// position mutation, so the audit trail survives independent of the outcome.
func (e *Evaluator) ApplyAction(ctx context.Context, tx *gorm.DB, submission *model.Submission, flow *model.ApprovalFlow, actorID uuid.UUID, req *model.ApprovalActionDTO) (*model.ActionResult, error) {
	if submission == nil || flow == nil {
		return nil, fmt.Errorf("submission and flow cannot be nil")
	}
	if req == nil {
		return nil, apperr.Validationf("action request is required")
	}

	// Actions against a terminal submission are state errors, not no-ops.
	if submission.Status.IsTerminal() {
		return nil, apperr.Statef("submission %s is already %s", submission.ID, submission.Status)
	}

	node := flow.NodeAt(submission.CurrentSeq)
	if node == nil {
		return nil, apperr.Configf("flow %s has no node at sequence %d", flow.ID, submission.CurrentSeq)
	}

	approvers, err := e.resolver.Resolve(ctx, node, submission)
	if err != nil {
		return nil, err
	}
	if !containsID(approvers, actorID) {
		return nil, apperr.Authorizationf("user %s is not an eligible approver for node %d", actorID, node.Seq)
	}

	if err := validateAction(node, req); err != nil {
		return nil, err
	}

	records, err := e.records.GetRecordsForNodePassInTx(ctx, tx, submission.ID, node.Seq, submission.Pass)
	if err != nil {
		return nil, fmt.Errorf("failed to load approval records: %w", err)
	}
	if req.Action == model.ActionApprove && hasApprovalFrom(records, actorID) {
		return nil, apperr.Statef("user %s has already approved node %d in this pass", actorID, node.Seq)
	}

	// Audit first: the record is written before the position mutates.
	record := &model.ApprovalRecord{
		SubmissionID: submission.ID,
		NodeSeq:      node.Seq,
		Pass:         submission.Pass,
		ApproverID:   actorID,
		Action:       req.Action,
		Comment:      req.Comment,
		TransferToID: req.TransferToID,
	}
	if err := e.records.CreateRecordInTx(ctx, tx, record); err != nil {
		return nil, fmt.Errorf("failed to persist approval record: %w", err)
	}

	result := &model.ActionResult{Submission: submission}

	switch req.Action {
	case model.ActionApprove:
		e.applyApprove(submission, flow, node, approvers, records, actorID, result)
	case model.ActionReject:
		e.applyReject(submission, node, result)
	case model.ActionReturn:
		submission.ResetPass(1)
		result.Advanced = true
	case model.ActionTransfer:
		submission.RecordTransfer(node.Seq, actorID, *req.TransferToID)
	}

	return result, nil
}

// applyApprove advances the workflow position when the node becomes satisfied:
// any one approval satisfies a SERIAL or PARALLEL/OR node, a PARALLEL/AND node
// needs every resolved approver's approval within the current pass.
func (e *Evaluator) applyApprove(submission *model.Submission, flow *model.ApprovalFlow, node *model.ApprovalNode, approvers []uuid.UUID, priorRecords []model.ApprovalRecord, actorID uuid.UUID, result *model.ActionResult) {
	satisfied := true
	if node.Mode == model.NodeModeParallel && node.ParallelPolicy == model.ParallelPolicyAnd {
		approved := map[uuid.UUID]struct{}{actorID: {}}
		for _, r := range priorRecords {
			if r.Action == model.ActionApprove {
				approved[r.ApproverID] = struct{}{}
			}
		}
		for _, id := range approvers {
			if _, ok := approved[id]; !ok {
				satisfied = false
				break
			}
		}
	}

	if !satisfied {
		// Partial AND approval: retained in the records, position unchanged.
		return
	}

	result.NodeSatisfied = true
	submission.SetNodeState(node.Seq, model.NodeStateSatisfied)
	if node.Seq >= flow.MaxSeq() {
		submission.Status = model.SubmissionStatusApproved
	} else {
		submission.CurrentSeq = node.Seq + 1
		submission.SetNodeState(submission.CurrentSeq, model.NodeStatePending)
	}
	result.Advanced = true
}

// applyReject applies the node's configured reject behavior.
func (e *Evaluator) applyReject(submission *model.Submission, node *model.ApprovalNode, result *model.ActionResult) {
	behavior := node.RejectBehavior
	if behavior == model.RejectBehaviorReturnPrevious && node.Seq <= 1 {
		// Node 1 has no previous node; treat as END.
		behavior = model.RejectBehaviorEnd
	}

	switch behavior {
	case model.RejectBehaviorEnd:
		submission.SetNodeState(node.Seq, model.NodeStateRejected)
		submission.Status = model.SubmissionStatusRejected
	case model.RejectBehaviorReturnToStart:
		submission.ResetPass(1)
		result.Advanced = true
	case model.RejectBehaviorReturnPrevious:
		submission.ResetPass(node.Seq - 1)
		result.Advanced = true
	}
}

// validateAction checks the action against the node's capability flags.
func validateAction(node *model.ApprovalNode, req *model.ApprovalActionDTO) error {
	switch req.Action {
	case model.ActionApprove:
		return nil
	case model.ActionReject:
		if !node.CanReject {
			return apperr.Validationf("node %d does not allow rejection", node.Seq)
		}
	case model.ActionReturn:
		if !node.CanReturn {
			return apperr.Validationf("node %d does not allow returning the submission", node.Seq)
		}
	case model.ActionTransfer:
		if !node.CanTransfer {
			return apperr.Validationf("node %d does not allow transfers", node.Seq)
		}
		if req.TransferToID == nil || *req.TransferToID == uuid.Nil {
			return apperr.Validationf("transfer requires a target user")
		}
	default:
		return apperr.Validationf("unknown action %q", req.Action)
	}
	return nil
}

func hasApprovalFrom(records []model.ApprovalRecord, approverID uuid.UUID) bool {
	for _, r := range records {
		if r.Action == model.ActionApprove && r.ApproverID == approverID {
			return true
		}
	}
	return false
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
