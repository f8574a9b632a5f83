package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OpenKinder/kinder/internal/apperr"
	"github.com/OpenKinder/kinder/internal/directory/model"
)

// DirectoryService provides read access to the live user directory.
// Approver resolution always queries current membership rather than a
// snapshot taken at flow-design time, so role and position changes take
// effect on the next evaluation.
type DirectoryService struct {
	db *gorm.DB
}

func NewDirectoryService(db *gorm.DB) *DirectoryService {
	return &DirectoryService{db: db}
}

// GetUserByID retrieves a user by its ID.
func (s *DirectoryService) GetUserByID(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user ID cannot be nil")
	}

	var user model.User
	result := s.db.WithContext(ctx).First(&user, "id = ?", userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("user %s not found", userID)
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", result.Error)
	}
	return &user, nil
}

// GetActiveUserIDsByRole returns the IDs of active users currently holding the role.
func (s *DirectoryService) GetActiveUserIDsByRole(ctx context.Context, roleID uuid.UUID) ([]uuid.UUID, error) {
	if roleID == uuid.Nil {
		return nil, fmt.Errorf("role ID cannot be nil")
	}

	var userIDs []uuid.UUID
	result := s.db.WithContext(ctx).
		Model(&model.UserRole{}).
		Joins("JOIN users ON users.id = user_roles.user_id AND users.active = ?", true).
		Where("user_roles.role_id = ?", roleID).
		Pluck("user_roles.user_id", &userIDs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to retrieve users for role %s: %w", roleID, result.Error)
	}
	return userIDs, nil
}

// GetActiveUserIDsByPosition returns the IDs of active users currently holding the position.
func (s *DirectoryService) GetActiveUserIDsByPosition(ctx context.Context, positionID uuid.UUID) ([]uuid.UUID, error) {
	if positionID == uuid.Nil {
		return nil, fmt.Errorf("position ID cannot be nil")
	}

	var userIDs []uuid.UUID
	result := s.db.WithContext(ctx).
		Model(&model.UserPosition{}).
		Joins("JOIN users ON users.id = user_positions.user_id AND users.active = ?", true).
		Where("user_positions.position_id = ?", positionID).
		Pluck("user_positions.user_id", &userIDs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to retrieve users for position %s: %w", positionID, result.Error)
	}
	return userIDs, nil
}

// GetPositionByID retrieves a position by its ID.
func (s *DirectoryService) GetPositionByID(ctx context.Context, positionID uuid.UUID) (*model.Position, error) {
	if positionID == uuid.Nil {
		return nil, fmt.Errorf("position ID cannot be nil")
	}

	var position model.Position
	result := s.db.WithContext(ctx).First(&position, "id = ?", positionID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("position %s not found", positionID)
		}
		return nil, fmt.Errorf("failed to retrieve position: %w", result.Error)
	}
	return &position, nil
}

// GetPrimaryPositionOfUser returns the first position held by the user, or nil
// if the user holds none.
func (s *DirectoryService) GetPrimaryPositionOfUser(ctx context.Context, userID uuid.UUID) (*model.Position, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user ID cannot be nil")
	}

	var userPosition model.UserPosition
	result := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		First(&userPosition)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to retrieve position of user %s: %w", userID, result.Error)
	}

	return s.GetPositionByID(ctx, userPosition.PositionID)
}

// GetPositionsByCampus returns all positions of a campus ordered by level
// ascending (highest rank first).
func (s *DirectoryService) GetPositionsByCampus(ctx context.Context, campusID uuid.UUID) ([]model.Position, error) {
	if campusID == uuid.Nil {
		return nil, fmt.Errorf("campus ID cannot be nil")
	}

	var positions []model.Position
	result := s.db.WithContext(ctx).
		Where("campus_id = ?", campusID).
		Order("level ASC").
		Find(&positions)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to retrieve positions for campus %s: %w", campusID, result.Error)
	}
	return positions, nil
}
