package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"vision-webapi/internal/models"
	"vision-webapi/internal/pkg/validation"
	"vision-webapi/internal/repositories"
)

// UploadLedger records media submitted for detection and where its output landed.
type UploadLedger interface {
	RecordUpload(ctx context.Context, userID int64, fileName, filePath, fileType string) (int64, error)
	AttachResult(ctx context.Context, uploadID int64, resultPath string) error
	Get(ctx context.Context, uploadID int64) (*models.Upload, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Upload, error)
}

// UploadInput is validated before insert.
type UploadInput struct {
	UserID   int64  `validate:"required,gt=0"`
	FileName string `validate:"required,max=255"`
	FilePath string `validate:"required"`
	FileType string `validate:"required,oneof=image video webcam"`
}

type uploadLedgerImpl struct {
	repo   repositories.UploadRepository
	logger *zap.Logger
}

// NewUploadLedger creates a new UploadLedger
func NewUploadLedger(repo repositories.UploadRepository, logger *zap.Logger) UploadLedger {
	return &uploadLedgerImpl{repo: repo, logger: logger}
}

// RecordUpload inserts a new record with no result path.
func (l *uploadLedgerImpl) RecordUpload(ctx context.Context, userID int64, fileName, filePath, fileType string) (int64, error) {
	in := UploadInput{UserID: userID, FileName: fileName, FilePath: filePath, FileType: fileType}
	if fieldErrs := validation.ValidateStruct(&in); fieldErrs != nil {
		return 0, newValidationError(fieldErrs)
	}

	id, err := l.repo.Insert(ctx, &models.Upload{
		UserID:   userID,
		FileName: fileName,
		FilePath: filePath,
		FileType: fileType,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrUnknownUser) {
			return 0, ErrUserNotFound
		}
		l.logger.Error("Failed to record upload", zap.Int64("userID", userID), zap.String("file", fileName), zap.Error(err))
		return 0, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	l.logger.Info("Upload recorded", zap.Int64("uploadID", id), zap.Int64("userID", userID), zap.String("type", fileType))
	return id, nil
}

// AttachResult sets the detection output location. ErrUploadNotFound if uploadID is unknown.
func (l *uploadLedgerImpl) AttachResult(ctx context.Context, uploadID int64, resultPath string) error {
	if resultPath == "" {
		return validationMessage("ResultPath", "The ResultPath field is required.")
	}
	if err := l.repo.SetResultPath(ctx, uploadID, resultPath); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUploadNotFound
		}
		l.logger.Error("Failed to attach detection result", zap.Int64("uploadID", uploadID), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	l.logger.Info("Detection result attached", zap.Int64("uploadID", uploadID))
	return nil
}

func (l *uploadLedgerImpl) Get(ctx context.Context, uploadID int64) (*models.Upload, error) {
	upload, err := l.repo.FindByID(ctx, uploadID)
	if err != nil {
		l.logger.Error("Failed to load upload", zap.Int64("uploadID", uploadID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if upload == nil {
		return nil, ErrUploadNotFound
	}
	return upload, nil
}

// ListByUser returns the user's uploads ordered by upload time ascending.
func (l *uploadLedgerImpl) ListByUser(ctx context.Context, userID int64) ([]models.Upload, error) {
	uploads, err := l.repo.ListByUser(ctx, userID)
	if err != nil {
		l.logger.Error("Failed to list uploads", zap.Int64("userID", userID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return uploads, nil
}
