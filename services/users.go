package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"progression-engine/models"
)

type UserService struct {
	Core
}

func NewUserService(core Core) *UserService {
	return &UserService{Core: core}
}

// CreateUser provisions the progression row at account creation.
func (s *UserService) CreateUser(ctx context.Context, userID, username string) (*models.User, error) {
	user := models.User{ID: userID, Username: username, Level: 1}
	result := s.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&user)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrUserExists
	}
	return &user, nil
}

// EnsureUser returns the user's row, creating an empty one if needed (idempotent).
func (s *UserService) EnsureUser(ctx context.Context, userID string) (*models.User, error) {
	user := models.User{ID: userID, Level: 1}
	if err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&user).Error; err != nil {
		return nil, err
	}
	return s.GetUser(ctx, userID)
}

func (s *UserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// lockUser reads the user row with a row lock held until tx ends. Every
// mutation of points, experience, level or the streak mirrors goes through
// it so concurrent requests for one user are serialized.
func lockUser(tx *gorm.DB, userID string) (*models.User, error) {
	var user models.User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("locking user %s: %w", userID, err)
	}
	return &user, nil
}
