package service

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/OpenKinder/kinder/internal/apperr"
	"github.com/OpenKinder/kinder/internal/approval/model"
)

func TestSubmissionService_ApplyAction_Guards(t *testing.T) {
	db, _ := setupTestDB(t)
	service := NewSubmissionService(db, nil, nil, nil, nil)
	ctx := context.Background()

	t.Run("Nil Submission ID", func(t *testing.T) {
		_, err := service.ApplyAction(ctx, uuid.Nil, uuid.New(), &model.ApprovalActionDTO{Action: model.ActionApprove})
		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	})

	t.Run("Nil Actor", func(t *testing.T) {
		_, err := service.ApplyAction(ctx, uuid.New(), uuid.Nil, &model.ApprovalActionDTO{Action: model.ActionApprove})
		assert.True(t, apperr.IsKind(err, apperr.KindAuthorization))
	})
}

func TestSubmissionService_ApplyAction_StaleVersion(t *testing.T) {
	db, sqlMock := setupTestDB(t)
	service := NewSubmissionService(db, nil, nil, nil, nil)
	ctx := context.Background()

	submissionID := uuid.New()
	rows := sqlmock.NewRows([]string{"id", "flow_id", "current_seq", "status", "pass", "version"}).
		AddRow(submissionID, uuid.New(), 2, string(model.SubmissionStatusPending), 1, 3)

	sqlMock.ExpectBegin()
	sqlMock.ExpectQuery(`SELECT \* FROM "submissions" WHERE id = \$1`).
		WithArgs(submissionID, 1).
		WillReturnRows(rows)
	sqlMock.ExpectRollback()

	// Caller read version 2, but the row is at version 3.
	stale := int64(2)
	_, err := service.ApplyAction(ctx, submissionID, uuid.New(), &model.ApprovalActionDTO{
		Action:          model.ActionApprove,
		ExpectedVersion: &stale,
	})
	assert.True(t, apperr.IsKind(err, apperr.KindState))
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestSubmissionService_ApplyAction_NotFound(t *testing.T) {
	db, sqlMock := setupTestDB(t)
	service := NewSubmissionService(db, nil, nil, nil, nil)
	ctx := context.Background()

	submissionID := uuid.New()
	sqlMock.ExpectBegin()
	sqlMock.ExpectQuery(`SELECT \* FROM "submissions" WHERE id = \$1`).
		WithArgs(submissionID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	sqlMock.ExpectRollback()

	_, err := service.ApplyAction(ctx, submissionID, uuid.New(), &model.ApprovalActionDTO{Action: model.ActionApprove})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestSubmissionService_CreateSubmission_InactiveFlow(t *testing.T) {
	db, sqlMock := setupTestDB(t)
	service := NewSubmissionService(db, NewFlowService(db), nil, nil, nil)
	ctx := context.Background()

	flowID := uuid.New()
	sqlMock.ExpectQuery(`SELECT \* FROM "approval_flows" WHERE id = \$1`).
		WithArgs(flowID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "active"}).
			AddRow(flowID, "expense approval", false))
	sqlMock.ExpectQuery(`SELECT \* FROM "approval_nodes"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "flow_id", "seq"}).
			AddRow(uuid.New(), flowID, 1))

	_, err := service.CreateSubmission(ctx, uuid.New(), uuid.New(), &model.CreateSubmissionDTO{
		FlowID: flowID,
		Values: map[string]any{"title": "chairs"},
	})
	assert.True(t, apperr.IsKind(err, apperr.KindState))
	assert.Contains(t, err.Error(), "inactive")
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

// A concurrent writer bumps the version between our read and our update:
// the conditional update matches zero rows and the action must fail rather
// than silently overwrite.
func TestSubmissionService_ApplyAction_ConcurrentUpdateConflict(t *testing.T) {
	db, sqlMock := setupTestDB(t)

	actor := uuid.New()
	mockRecords := new(MockRecordRepository)
	mockResolver := new(MockApproverResolver)
	mockResolver.On("Resolve", mock.Anything, mock.Anything, mock.Anything).Return([]uuid.UUID{actor}, nil)
	mockRecords.On("GetRecordsForNodePassInTx", mock.Anything, mock.Anything, mock.Anything, 1, 1).Return([]model.ApprovalRecord{}, nil)
	mockRecords.On("CreateRecordInTx", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	evaluator := NewEvaluator(mockRecords, mockResolver)
	service := NewSubmissionService(db, NewFlowService(db), evaluator, mockResolver, nil)
	ctx := context.Background()

	submissionID := uuid.New()
	flowID := uuid.New()

	sqlMock.ExpectBegin()
	sqlMock.ExpectQuery(`SELECT \* FROM "submissions" WHERE id = \$1`).
		WithArgs(submissionID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "flow_id", "current_seq", "status", "pass", "node_states", "version"}).
			AddRow(submissionID, flowID, 1, string(model.SubmissionStatusPending), 1, []byte(`{"1":"PENDING"}`), 1))
	sqlMock.ExpectQuery(`SELECT \* FROM "approval_flows" WHERE id = \$1`).
		WithArgs(flowID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "active"}).
			AddRow(flowID, "expense approval", true))
	sqlMock.ExpectQuery(`SELECT \* FROM "approval_nodes"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "flow_id", "seq", "mode", "approver_type", "reject_behavior"}).
			AddRow(uuid.New(), flowID, 1, string(model.NodeModeSerial), string(model.ApproverTypeFixed), string(model.RejectBehaviorEnd)))
	// WHERE id = ? AND version = ? matches nothing: someone else moved it
	sqlMock.ExpectExec(`UPDATE "submissions"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	sqlMock.ExpectRollback()

	_, err := service.ApplyAction(ctx, submissionID, actor, &model.ApprovalActionDTO{Action: model.ActionApprove})
	assert.True(t, apperr.IsKind(err, apperr.KindState))
	assert.Contains(t, err.Error(), "modified concurrently")
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}
