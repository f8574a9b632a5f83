package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/OpenKinder/kinder/internal/apperr"
	"github.com/OpenKinder/kinder/internal/approval/model"
)

// MockRecordRepository is a mock implementation of RecordRepository
type MockRecordRepository struct {
	mock.Mock
}

func (m *MockRecordRepository) CreateRecordInTx(ctx context.Context, tx *gorm.DB, record *model.ApprovalRecord) error {
	args := m.Called(ctx, tx, record)
	return args.Error(0)
}

func (m *MockRecordRepository) GetRecordsForNodePassInTx(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID, nodeSeq, pass int) ([]model.ApprovalRecord, error) {
	args := m.Called(ctx, tx, submissionID, nodeSeq, pass)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ApprovalRecord), args.Error(1)
}

// MockApproverResolver is a mock implementation of ApproverResolver
type MockApproverResolver struct {
	mock.Mock
}

func (m *MockApproverResolver) Resolve(ctx context.Context, node *model.ApprovalNode, submission *model.Submission) ([]uuid.UUID, error) {
	args := m.Called(ctx, node, submission)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func newTestFlow(nodes ...model.ApprovalNode) *model.ApprovalFlow {
	flow := &model.ApprovalFlow{
		BaseModel: model.BaseModel{ID: uuid.New()},
		Name:      "expense approval",
		Active:    true,
		Nodes:     nodes,
	}
	for i := range flow.Nodes {
		flow.Nodes[i].FlowID = flow.ID
	}
	return flow
}

func newTestSubmission(flow *model.ApprovalFlow) *model.Submission {
	return &model.Submission{
		BaseModel:  model.BaseModel{ID: uuid.New()},
		FlowID:     flow.ID,
		Status:     model.SubmissionStatusPending,
		CurrentSeq: 1,
		Pass:       1,
		NodeStates: model.NodeStateMap{"1": model.NodeStatePending},
		Version:    1,
	}
}

func serialNode(seq int) model.ApprovalNode {
	return model.ApprovalNode{
		BaseModel:      model.BaseModel{ID: uuid.New()},
		Seq:            seq,
		Name:           "review",
		Mode:           model.NodeModeSerial,
		ApproverType:   model.ApproverTypeFixed,
		RejectBehavior: model.RejectBehaviorEnd,
		CanReject:      true,
	}
}

func TestApplyActionApprove(t *testing.T) {
	ctx := context.Background()
	approver := uuid.New()

	t.Run("Serial Node Advances", func(t *testing.T) {
		mockRecords := new(MockRecordRepository)
		mockResolver := new(MockApproverResolver)
		evaluator := NewEvaluator(mockRecords, mockResolver)

		flow := newTestFlow(serialNode(1), serialNode(2))
		submission := newTestSubmission(flow)

		mockResolver.On("Resolve", ctx, mock.Anything, submission).Return([]uuid.UUID{approver}, nil)
		mockRecords.On("GetRecordsForNodePassInTx", ctx, mock.Anything, submission.ID, 1, 1).Return([]model.ApprovalRecord{}, nil)
		mockRecords.On("CreateRecordInTx", ctx, mock.Anything, mock.Anything).Return(nil)

		result, err := evaluator.ApplyAction(ctx, nil, submission, flow, approver, &model.ApprovalActionDTO{Action: model.ActionApprove})
		assert.NoError(t, err)
		assert.True(t, result.NodeSatisfied)
		assert.True(t, result.Advanced)
		assert.Equal(t, 2, submission.CurrentSeq)
		assert.Equal(t, model.SubmissionStatusPending, submission.Status)
		assert.Equal(t, model.NodeStateSatisfied, submission.NodeState(1))
		assert.Equal(t, model.NodeStatePending, submission.NodeState(2))
		mockRecords.AssertExpectations(t)
	})

	t.Run("Last Node Approval Terminates", func(t *testing.T) {
		mockRecords := new(MockRecordRepository)
		mockResolver := new(MockApproverResolver)
		evaluator := NewEvaluator(mockRecords, mockResolver)

		flow := newTestFlow(serialNode(1))
		submission := newTestSubmission(flow)

		mockResolver.On("Resolve", ctx, mock.Anything, submission).Return([]uuid.UUID{approver}, nil)
		mockRecords.On("GetRecordsForNodePassInTx", ctx, mock.Anything, submission.ID, 1, 1).Return([]model.ApprovalRecord{}, nil)
		mockRecords.On("CreateRecordInTx", ctx, mock.Anything, mock.Anything).Return(nil)

		result, err := evaluator.ApplyAction(ctx, nil, submission, flow, approver, &model.ApprovalActionDTO{Action: model.ActionApprove})
		assert.NoError(t, err)
		assert.True(t, result.NodeSatisfied)
		assert.Equal(t, model.SubmissionStatusApproved, submission.Status)
	})

	t.Run("Parallel AND Partial Approval Holds Position", func(t *testing.T) {
		mockRecords := new(MockRecordRepository)
		mockResolver := new(MockApproverResolver)
		evaluator := NewEvaluator(mockRecords, mockResolver)

		second := uuid.New()
		node := serialNode(1)
		node.Mode = model.NodeModeParallel
		node.ParallelPolicy = model.ParallelPolicyAnd
		flow := newTestFlow(node, serialNode(2))
		submission := newTestSubmission(flow)

		mockResolver.On("Resolve", ctx, mock.Anything, submission).Return([]uuid.UUID{approver, second}, nil)
		mockRecords.On("GetRecordsForNodePassInTx", ctx, mock.Anything, submission.ID, 1, 1).Return([]model.ApprovalRecord{}, nil)
		mockRecords.On("CreateRecordInTx", ctx, mock.Anything, mock.Anything).Return(nil)

		result, err := evaluator.ApplyAction(ctx, nil, submission, flow, approver, &model.ApprovalActionDTO{Action: model.ActionApprove})
		assert.NoError(t, err)
		assert.False(t, result.NodeSatisfied)
		assert.False(t, result.Advanced)
		assert.Equal(t, 1, submission.CurrentSeq)
		assert.Equal(t, model.NodeStatePending, submission.NodeState(1))
	})

	t.Run("Parallel AND Final Approval Advances", func(t *testing.T) {
		mockRecords := new(MockRecordRepository)
		mockResolver := new(MockApproverResolver)
		evaluator := NewEvaluator(mockRecords, mockResolver)

		first := uuid.New()
		node := serialNode(1)
		node.Mode = model.NodeModeParallel
		node.ParallelPolicy = model.ParallelPolicyAnd
		flow := newTestFlow(node, serialNode(2))
		submission := newTestSubmission(flow)

		prior := []model.ApprovalRecord{
			{SubmissionID: submission.ID, NodeSeq: 1, Pass: 1, ApproverID: first, Action: model.ActionApprove},
		}
		mockResolver.On("Resolve", ctx, mock.Anything, submission).Return([]uuid.UUID{first, approver}, nil)
		mockRecords.On("GetRecordsForNodePassInTx", ctx, mock.Anything, submission.ID, 1, 1).Return(prior, nil)
		mockRecords.On("CreateRecordInTx", ctx, mock.Anything, mock.Anything).Return(nil)

		result, err := evaluator.ApplyAction(ctx, nil, submission, flow, approver, &model.ApprovalActionDTO{Action: model.ActionApprove})
		assert.NoError(t, err)
		assert.True(t, result.NodeSatisfied)
		assert.Equal(t, 2, submission.CurrentSeq)
	})

	t.Run("Parallel OR First Approval Advances", func(t *testing.T) {
		mockRecords := new(MockRecordRepository)
		mockResolver := new(MockApproverResolver)
		evaluator := NewEvaluator(mockRecords, mockResolver)

		node := serialNode(1)
		node.Mode = model.NodeModeParallel
		node.ParallelPolicy = model.ParallelPolicyOr
		flow := newTestFlow(node, serialNode(2))
		submission := newTestSubmission(flow)

		mockResolver.On("Resolve", ctx, mock.Anything, submission).Return([]uuid.UUID{approver, uuid.New()}, nil)
		mockRecords.On("GetRecordsForNodePassInTx", ctx, mock.Anything, submission.ID, 1, 1).Return([]model.ApprovalRecord{}, nil)
		mockRecords.On("CreateRecordInTx", ctx, mock.Anything, mock.Anything).Return(nil)

		result, err := evaluator.ApplyAction(ctx, nil, submission, flow, approver, &model.ApprovalActionDTO{Action: model.ActionApprove})
		assert.NoError(t, err)
		assert.True(t, result.NodeSatisfied)
		assert.Equal(t, 2, submission.CurrentSeq)
	})

	t.Run("Parallel OR Late Co-Approval Rejected", func(t *testing.T) {
		mockRecords := new(MockRecordRepository)
		mockResolver := new(MockApproverResolver)
		evaluator := NewEvaluator(mockRecords, mockResolver)

		coApprover := uuid.New()
		node := serialNode(1)
		node.Mode = model.NodeModeParallel
		node.ParallelPolicy = model.ParallelPolicyOr
		flow := newTestFlow(node, serialNode(2))
		submission := newTestSubmission(flow)

		mockResolver.On("Resolve", ctx, mock.Anything, submission).Return([]uuid.UUID{approver, coApprover}, nil).Once()
		mockRecords.On("GetRecordsForNodePassInTx", ctx, mock.Anything, submission.ID, 1, 1).Return([]model.ApprovalRecord{}, nil)
		mockRecords.On("CreateRecordInTx", ctx, mock.Anything, mock.Anything).Return(nil).Once()

		_, err := evaluator.ApplyAction(ctx, nil, submission, flow, approver, &model.ApprovalActionDTO{Action: model.ActionApprove})
		assert.NoError(t, err)
		assert.Equal(t, 2, submission.CurrentSeq)
		assert.Equal(t, model.NodeStateSatisfied, submission.NodeState(1))

		// The co-approver arrives after the OR node is already satisfied;
		// the position moved on, so they are no longer an eligible actor.
		mockResolver.On("Resolve", ctx, mock.Anything, submission).Return([]uuid.UUID{uuid.New()}, nil).Once()

		_, err = evaluator.ApplyAction(ctx, nil, submission, flow, coApprover, &model.ApprovalActionDTO{Action: model.ActionApprove})
		assert.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindAuthorization))
		mockRecords.AssertNumberOfCalls(t, "CreateRecordInTx", 1)
	})

	t.Run("Duplicate Approval Rejected", func(t *testing.T) {
		mockRecords := new(MockRecordRepository)
		mockResolver := new(MockApproverResolver)
		evaluator := NewEvaluator(mockRecords, mockResolver)

		node := serialNode(1)
		node.Mode = model.NodeModeParallel
		node.ParallelPolicy = model.ParallelPolicyAnd
		flow := newTestFlow(node)
		submission := newTestSubmission(flow)

		prior := []model.ApprovalRecord{
			{SubmissionID: submission.ID, NodeSeq: 1, Pass: 1, ApproverID: approver, Action: model.ActionApprove},
		}
		mockResolver.On("Resolve", ctx, mock.Anything, submission).Return([]uuid.UUID{approver, uuid.New()}, nil)
		mockRecords.On("GetRecordsForNodePassInTx", ctx, mock.Anything, submission.ID, 1, 1).Return(prior, nil)

		_, err := evaluator.ApplyAction(ctx, nil, submission, flow, approver, &model.ApprovalActionDTO{Action: model.ActionApprove})
		assert.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindState))
		mockRecords.AssertNotCalled(t, "CreateRecordInTx", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestApplyActionReject(t *testing.T) {
	ctx := context.Background()
	approver := uuid.New()

	setup := func(flow *model.ApprovalFlow, submission *model.Submission) *Evaluator {
		mockRecords := new(MockRecordRepository)
		mockResolver := new(MockApproverResolver)
		mockResolver.On("Resolve", ctx, mock.Anything, submission).Return([]uuid.UUID{approver}, nil)
		mockRecords.On("GetRecordsForNodePassInTx", ctx, mock.Anything, submission.ID, mock.Anything, mock.Anything).Return([]model.ApprovalRecord{}, nil)
		mockRecords.On("CreateRecordInTx", ctx, mock.Anything, mock.Anything).Return(nil)
		return NewEvaluator(mockRecords, mockResolver)
	}

	t.Run("Reject With END Terminates", func(t *testing.T) {
		flow := newTestFlow(serialNode(1), serialNode(2))
		submission := newTestSubmission(flow)
		evaluator := setup(flow, submission)

		_, err := evaluator.ApplyAction(ctx, nil, submission, flow, approver, &model.ApprovalActionDTO{Action: model.ActionReject})
		assert.NoError(t, err)
		assert.Equal(t, model.SubmissionStatusRejected, submission.Status)
		assert.Equal(t, model.NodeStateRejected, submission.NodeState(1))
	})

	t.Run("Reject With RETURN_TO_START Starts New Pass", func(t *testing.T) {
		node1 := serialNode(1)
		node2 := serialNode(2)
		node2.RejectBehavior = model.RejectBehaviorReturnToStart
		flow := newTestFlow(node1, node2)
		submission := newTestSubmission(flow)
		submission.CurrentSeq = 2
		submission.NodeStates = model.NodeStateMap{"1": model.NodeStateSatisfied, "2": model.NodeStatePending}
		evaluator := setup(flow, submission)

		result, err := evaluator.ApplyAction(ctx, nil, submission, flow, approver, &model.ApprovalActionDTO{Action: model.ActionReject})
		assert.NoError(t, err)
		assert.True(t, result.Advanced)
		assert.Equal(t, 1, submission.CurrentSeq)
		assert.Equal(t, 2, submission.Pass)
		assert.Equal(t, model.SubmissionStatusPending, submission.Status)
		assert.Equal(t, model.NodeStatePending, submission.NodeState(1))
	})

	t.Run("Reject With RETURN_TO_PREVIOUS Steps Back", func(t *testing.T) {
		node1 := serialNode(1)
		node2 := serialNode(2)
		node3 := serialNode(3)
		node3.RejectBehavior = model.RejectBehaviorReturnPrevious
		flow := newTestFlow(node1, node2, node3)
		submission := newTestSubmission(flow)
		submission.CurrentSeq = 3
		evaluator := setup(flow, submission)

		_, err := evaluator.ApplyAction(ctx, nil, submission, flow, approver, &model.ApprovalActionDTO{Action: model.ActionReject})
		assert.NoError(t, err)
		assert.Equal(t, 2, submission.CurrentSeq)
		assert.Equal(t, 2, submission.Pass)
		assert.Equal(t, model.SubmissionStatusPending, submission.Status)
	})

	t.Run("RETURN_TO_PREVIOUS At First Node Terminates", func(t *testing.T) {
		node1 := serialNode(1)
		node1.RejectBehavior = model.RejectBehaviorReturnPrevious
		flow := newTestFlow(node1, serialNode(2))
		submission := newTestSubmission(flow)
		evaluator := setup(flow, submission)

		_, err := evaluator.ApplyAction(ctx, nil, submission, flow, approver, &model.ApprovalActionDTO{Action: model.ActionReject})
		assert.NoError(t, err)
		assert.Equal(t, model.SubmissionStatusRejected, submission.Status)
	})

	t.Run("Reject Not Allowed By Node", func(t *testing.T) {
		node1 := serialNode(1)
		node1.CanReject = false
		flow := newTestFlow(node1)
		submission := newTestSubmission(flow)
		evaluator := setup(flow, submission)

		_, err := evaluator.ApplyAction(ctx, nil, submission, flow, approver, &model.ApprovalActionDTO{Action: model.ActionReject})
		assert.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	})
}

func TestApplyActionReturnAndTransfer(t *testing.T) {
	ctx := context.Background()
	approver := uuid.New()

	t.Run("Return Restarts From Node One", func(t *testing.T) {
		mockRecords := new(MockRecordRepository)
		mockResolver := new(MockApproverResolver)
		evaluator := NewEvaluator(mockRecords, mockResolver)

		node2 := serialNode(2)
		node2.CanReturn = true
		flow := newTestFlow(serialNode(1), node2)
		submission := newTestSubmission(flow)
		submission.CurrentSeq = 2
		submission.NodeStates = model.NodeStateMap{"1": model.NodeStateSatisfied, "2": model.NodeStatePending}

		mockResolver.On("Resolve", ctx, mock.Anything, submission).Return([]uuid.UUID{approver}, nil)
		mockRecords.On("GetRecordsForNodePassInTx", ctx, mock.Anything, submission.ID, 2, 1).Return([]model.ApprovalRecord{}, nil)
		mockRecords.On("CreateRecordInTx", ctx, mock.Anything, mock.Anything).Return(nil)

		result, err := evaluator.ApplyAction(ctx, nil, submission, flow, approver, &model.ApprovalActionDTO{Action: model.ActionReturn})
		assert.NoError(t, err)
		assert.True(t, result.Advanced)
		assert.Equal(t, 1, submission.CurrentSeq)
		assert.Equal(t, 2, submission.Pass)
	})

	t.Run("Transfer Reassigns Approver Slot", func(t *testing.T) {
		mockRecords := new(MockRecordRepository)
		mockResolver := new(MockApproverResolver)
		evaluator := NewEvaluator(mockRecords, mockResolver)

		target := uuid.New()
		node := serialNode(1)
		node.CanTransfer = true
		flow := newTestFlow(node, serialNode(2))
		submission := newTestSubmission(flow)

		mockResolver.On("Resolve", ctx, mock.Anything, submission).Return([]uuid.UUID{approver}, nil)
		mockRecords.On("GetRecordsForNodePassInTx", ctx, mock.Anything, submission.ID, 1, 1).Return([]model.ApprovalRecord{}, nil)
		mockRecords.On("CreateRecordInTx", ctx, mock.Anything, mock.Anything).Return(nil)

		result, err := evaluator.ApplyAction(ctx, nil, submission, flow, approver, &model.ApprovalActionDTO{
			Action:       model.ActionTransfer,
			TransferToID: &target,
		})
		assert.NoError(t, err)
		assert.False(t, result.Advanced)
		assert.Equal(t, 1, submission.CurrentSeq)
		assert.Equal(t, target, submission.TransferredApprover(1, approver))
	})

	t.Run("Transfer Requires Target", func(t *testing.T) {
		mockRecords := new(MockRecordRepository)
		mockResolver := new(MockApproverResolver)
		evaluator := NewEvaluator(mockRecords, mockResolver)

		node := serialNode(1)
		node.CanTransfer = true
		flow := newTestFlow(node)
		submission := newTestSubmission(flow)

		mockResolver.On("Resolve", ctx, mock.Anything, submission).Return([]uuid.UUID{approver}, nil)

		_, err := evaluator.ApplyAction(ctx, nil, submission, flow, approver, &model.ApprovalActionDTO{Action: model.ActionTransfer})
		assert.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	})
}

func TestApplyActionGuards(t *testing.T) {
	ctx := context.Background()
	approver := uuid.New()

	t.Run("Terminal Submission Rejects Actions", func(t *testing.T) {
		mockRecords := new(MockRecordRepository)
		mockResolver := new(MockApproverResolver)
		evaluator := NewEvaluator(mockRecords, mockResolver)

		flow := newTestFlow(serialNode(1))
		submission := newTestSubmission(flow)
		submission.Status = model.SubmissionStatusApproved

		_, err := evaluator.ApplyAction(ctx, nil, submission, flow, approver, &model.ApprovalActionDTO{Action: model.ActionApprove})
		assert.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindState))
	})

	t.Run("Non Approver Denied", func(t *testing.T) {
		mockRecords := new(MockRecordRepository)
		mockResolver := new(MockApproverResolver)
		evaluator := NewEvaluator(mockRecords, mockResolver)

		flow := newTestFlow(serialNode(1))
		submission := newTestSubmission(flow)

		mockResolver.On("Resolve", ctx, mock.Anything, submission).Return([]uuid.UUID{uuid.New()}, nil)

		_, err := evaluator.ApplyAction(ctx, nil, submission, flow, approver, &model.ApprovalActionDTO{Action: model.ActionApprove})
		assert.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindAuthorization))
	})

	t.Run("Missing Node Is Config Error", func(t *testing.T) {
		mockRecords := new(MockRecordRepository)
		mockResolver := new(MockApproverResolver)
		evaluator := NewEvaluator(mockRecords, mockResolver)

		flow := newTestFlow()
		submission := newTestSubmission(flow)

		_, err := evaluator.ApplyAction(ctx, nil, submission, flow, approver, &model.ApprovalActionDTO{Action: model.ActionApprove})
		assert.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindConfig))
	})
}
