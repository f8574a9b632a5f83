package service

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OpenKinder/kinder/internal/canteen/model"
)

// RosterService reads classes and their enrolled students.
type RosterService struct {
	db *gorm.DB
}

func NewRosterService(db *gorm.DB) *RosterService {
	return &RosterService{db: db}
}

// GetStudentsByClassIDs returns all students enrolled in any of the given
// classes.
func (s *RosterService) GetStudentsByClassIDs(ctx context.Context, classIDs []uuid.UUID) ([]model.Student, error) {
	if len(classIDs) == 0 {
		return nil, nil
	}

	var students []model.Student
	err := s.db.WithContext(ctx).
		Where("class_id IN ?", classIDs).
		Find(&students).Error
	if err != nil {
		return nil, err
	}
	return students, nil
}

// GetClassesByCampus returns the classes of a campus.
func (s *RosterService) GetClassesByCampus(ctx context.Context, campusID uuid.UUID) ([]model.Class, error) {
	var classes []model.Class
	err := s.db.WithContext(ctx).
		Where("campus_id = ?", campusID).
		Order("name ASC").
		Find(&classes).Error
	if err != nil {
		return nil, err
	}
	return classes, nil
}
