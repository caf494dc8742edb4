package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"vision-webapi/internal/models"
	"vision-webapi/internal/repositories"
)

// ProfileService defines the interface for user profile operations
type ProfileService interface {
	GetProfile(ctx context.Context, userID int64) (*models.User, error)
}

type profileServiceImpl struct {
	userRepo   repositories.UserRepository
	fileLogger *zap.Logger
}

// NewProfileService creates a new ProfileService
func NewProfileService(userRepo repositories.UserRepository, fileLogger *zap.Logger) ProfileService {
	return &profileServiceImpl{
		userRepo:   userRepo,
		fileLogger: fileLogger,
	}
}

// GetProfile retrieves the profile for the given user ID
func (s *profileServiceImpl) GetProfile(ctx context.Context, userID int64) (*models.User, error) {
	s.fileLogger.Debug("Fetching profile for user", zap.Int64("userID", userID))

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		s.fileLogger.Error("Error fetching profile from repository", zap.Int64("userID", userID), zap.Error(err))
		return nil, fmt.Errorf("%w: could not retrieve profile: %v", ErrStorageFailure, err)
	}
	if user == nil {
		s.fileLogger.Warn("Profile requested for non-existent user ID", zap.Int64("userID", userID))
		return nil, ErrUserNotFound
	}

	s.fileLogger.Debug("Profile fetched successfully", zap.Int64("userID", userID), zap.String("username", user.Username))
	return user, nil
}
