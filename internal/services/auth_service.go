package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"vision-webapi/internal/models"
	"vision-webapi/internal/pkg/validation"
	"vision-webapi/internal/repositories"
	"vision-webapi/internal/utils"
)

// AuthService is the credential store: registration and password verification.
type AuthService interface {
	// Register validates the input, hashes the password and inserts exactly one user.
	Register(ctx context.Context, username, email, password string) (int64, error)
	// Authenticate is read-only and never writes an audit entry; callers record the outcome.
	Authenticate(ctx context.Context, username, password string) (int64, error)
}

// RegisterInput is validated before any storage access.
type RegisterInput struct {
	Username string `validate:"required,notblank,max=50"`
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,min=6,max=72"`
}

type authServiceImpl struct {
	userRepo repositories.UserRepository
	hasher   *utils.PasswordHasher
	logger   *zap.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo repositories.UserRepository, hasher *utils.PasswordHasher, logger *zap.Logger) AuthService {
	return &authServiceImpl{
		userRepo: userRepo,
		hasher:   hasher,
		logger:   logger,
	}
}

// Register handles new user registration
func (s *authServiceImpl) Register(ctx context.Context, username, email, password string) (int64, error) {
	in := RegisterInput{Username: username, Email: email, Password: password}
	if fieldErrs := validation.ValidateStruct(&in); fieldErrs != nil {
		s.logger.Debug("Registration input rejected", zap.String("username", username), zap.Int("failedFields", len(fieldErrs)))
		return 0, newValidationError(fieldErrs)
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidInput) {
			return 0, validationMessage("RegisterInput.Password", "The Password field must be at most 72 bytes.")
		}
		s.logger.Error("Failed to hash password during registration", zap.String("username", username), zap.Error(err))
		return 0, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	newUser := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
	}
	id, err := s.userRepo.CreateUser(ctx, newUser)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicateUsername):
			s.logger.Info("Registration rejected: username already exists", zap.String("username", username))
			return 0, ErrDuplicateUsername
		case errors.Is(err, repositories.ErrDuplicateEmail):
			s.logger.Info("Registration rejected: email already exists", zap.String("username", username))
			return 0, ErrDuplicateEmail
		case errors.Is(err, repositories.ErrDuplicateCredential):
			s.logger.Info("Registration rejected: duplicate credential", zap.String("username", username))
			return 0, ErrDuplicateCredential
		default:
			s.logger.Error("Failed to create user in database", zap.String("username", username), zap.Error(err))
			return 0, fmt.Errorf("%w: %v", ErrStorageFailure, err)
		}
	}

	s.logger.Info("User registered successfully", zap.String("username", username), zap.Int64("userID", id))
	return id, nil
}

// Authenticate resolves username and verifies password against the stored hash.
// Failures are *AuthFailure wrapping ErrUserNotFound or ErrInvalidCredentials.
func (s *authServiceImpl) Authenticate(ctx context.Context, username, password string) (int64, error) {
	if username == "" || password == "" {
		return 0, &AuthFailure{Err: ErrInvalidCredentials}
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		s.logger.Error("Error finding user during login", zap.String("username", username), zap.Error(err))
		return 0, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if user == nil {
		s.hasher.VerifyDummy(password)
		s.logger.Debug("Authentication failed: user not found", zap.String("username", username))
		return 0, &AuthFailure{Err: ErrUserNotFound}
	}

	uid := user.ID
	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		s.logger.Error("Stored password hash is malformed", zap.Int64("userID", uid), zap.Error(err))
		return 0, &AuthFailure{UserID: &uid, Err: ErrInvalidCredentials}
	}
	if !ok {
		s.logger.Debug("Authentication failed: invalid password", zap.Int64("userID", uid))
		return 0, &AuthFailure{UserID: &uid, Err: ErrInvalidCredentials}
	}

	s.logger.Debug("User authenticated", zap.Int64("userID", uid))
	return uid, nil
}
