package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OpenKinder/kinder/internal/approval/model"
)

// RecordService is the gorm-backed RecordRepository.
type RecordService struct {
	db *gorm.DB
}

func NewRecordService(db *gorm.DB) *RecordService {
	return &RecordService{db: db}
}

// CreateRecordInTx persists an approval record inside an existing transaction.
func (s *RecordService) CreateRecordInTx(ctx context.Context, tx *gorm.DB, record *model.ApprovalRecord) error {
	if record == nil {
		return fmt.Errorf("record cannot be nil")
	}
	if err := tx.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create approval record: %w", err)
	}
	return nil
}

// GetRecordsForNodePassInTx returns the records written against a node within
// a specific workflow pass.
func (s *RecordService) GetRecordsForNodePassInTx(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID, nodeSeq, pass int) ([]model.ApprovalRecord, error) {
	var records []model.ApprovalRecord
	result := tx.WithContext(ctx).
		Where("submission_id = ? AND node_seq = ? AND pass = ?", submissionID, nodeSeq, pass).
		Order("created_at ASC").
		Find(&records)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to retrieve approval records: %w", result.Error)
	}
	return records, nil
}

// GetRecordsBySubmissionID returns the full audit trail of a submission,
// including records from superseded passes.
func (s *RecordService) GetRecordsBySubmissionID(ctx context.Context, submissionID uuid.UUID) ([]model.ApprovalRecord, error) {
	if submissionID == uuid.Nil {
		return nil, fmt.Errorf("submission ID cannot be nil")
	}

	var records []model.ApprovalRecord
	result := s.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("created_at ASC").
		Find(&records)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to retrieve approval records: %w", result.Error)
	}
	return records, nil
}
