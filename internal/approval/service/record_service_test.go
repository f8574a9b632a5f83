package service

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/OpenKinder/kinder/internal/approval/model"
)

func setupTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, sqlMock
}

func TestRecordService_CreateRecordInTx(t *testing.T) {
	db, sqlMock := setupTestDB(t)
	service := NewRecordService(db)
	ctx := context.Background()

	sqlMock.ExpectBegin()
	tx := db.Begin()

	record := &model.ApprovalRecord{
		BaseModel:    model.BaseModel{ID: uuid.New()},
		SubmissionID: uuid.New(),
		NodeSeq:      1,
		Pass:         1,
		ApproverID:   uuid.New(),
		Action:       model.ActionApprove,
	}

	sqlMock.ExpectExec(`INSERT INTO "approval_records"`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := service.CreateRecordInTx(ctx, tx, record)
	assert.NoError(t, err)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestRecordService_CreateRecordInTx_NilRecord(t *testing.T) {
	db, _ := setupTestDB(t)
	service := NewRecordService(db)

	err := service.CreateRecordInTx(context.Background(), db, nil)
	assert.Error(t, err)
}

func TestRecordService_GetRecordsForNodePassInTx(t *testing.T) {
	db, sqlMock := setupTestDB(t)
	service := NewRecordService(db)
	ctx := context.Background()

	sqlMock.ExpectBegin()
	tx := db.Begin()

	submissionID := uuid.New()
	recordID := uuid.New()

	sqlMock.ExpectQuery(`SELECT \* FROM "approval_records" WHERE submission_id = \$1 AND node_seq = \$2 AND pass = \$3 ORDER BY created_at ASC`).
		WithArgs(submissionID, 2, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "submission_id", "node_seq", "pass", "action"}).
			AddRow(recordID, submissionID, 2, 1, "APPROVE"))

	records, err := service.GetRecordsForNodePassInTx(ctx, tx, submissionID, 2, 1)
	assert.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, recordID, records[0].ID)
	assert.Equal(t, model.ActionApprove, records[0].Action)
}

func TestRecordService_GetRecordsBySubmissionID(t *testing.T) {
	db, sqlMock := setupTestDB(t)
	service := NewRecordService(db)
	ctx := context.Background()

	submissionID := uuid.New()

	sqlMock.ExpectQuery(`SELECT \* FROM "approval_records" WHERE submission_id = \$1 ORDER BY created_at ASC`).
		WithArgs(submissionID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "submission_id", "pass", "action"}).
			AddRow(uuid.New(), submissionID, 1, "REJECT").
			AddRow(uuid.New(), submissionID, 2, "APPROVE"))

	records, err := service.GetRecordsBySubmissionID(ctx, submissionID)
	assert.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestRecordService_GetRecordsBySubmissionID_NilID(t *testing.T) {
	db, _ := setupTestDB(t)
	service := NewRecordService(db)

	_, err := service.GetRecordsBySubmissionID(context.Background(), uuid.Nil)
	assert.Error(t, err)
}
