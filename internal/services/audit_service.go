package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"vision-webapi/internal/models"
	"vision-webapi/internal/repositories"
)

const auditWriteTimeout = 5 * time.Second

// LoginAuditor appends login attempts to the audit trail.
type LoginAuditor interface {
	// Record never fails the caller. userID is nil when the username did not resolve;
	// such attempts are stored with an absent user reference.
	Record(ctx context.Context, userID *int64, success bool, ipAddress string)
	History(ctx context.Context, userID int64) ([]models.LoginAttempt, error)
	// Failures counts Record calls whose write did not persist.
	Failures() int64
}

type loginAuditorImpl struct {
	repo         repositories.LoginAttemptRepository
	logger       *zap.Logger
	sqliteLogger *zap.Logger
	failures     atomic.Int64
}

// NewLoginAuditor creates a LoginAuditor. Persistence failures are reported on both loggers.
func NewLoginAuditor(repo repositories.LoginAttemptRepository, logger, sqliteLogger *zap.Logger) LoginAuditor {
	if sqliteLogger == nil {
		sqliteLogger = zap.NewNop()
	}
	return &loginAuditorImpl{repo: repo, logger: logger, sqliteLogger: sqliteLogger}
}

func (a *loginAuditorImpl) Record(ctx context.Context, userID *int64, success bool, ipAddress string) {
	// The attempt is written even if the request that produced it was cancelled.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditWriteTimeout)
	defer cancel()

	attempt := &models.LoginAttempt{
		UserID:    userID,
		IPAddress: ipAddress,
		Success:   success,
	}
	if _, err := a.repo.Insert(writeCtx, attempt); err != nil {
		a.failures.Add(1)
		fields := []zap.Field{zap.Bool("success", success), zap.String("ip", ipAddress), zap.Error(err)}
		if userID != nil {
			fields = append(fields, zap.Int64("userID", *userID))
		}
		a.logger.Error("Failed to persist login attempt", fields...)
		a.sqliteLogger.Error("Login audit write failed", fields...)
		return
	}
	a.logger.Debug("Login attempt recorded", zap.Int64("attemptID", attempt.ID), zap.Bool("success", success))
}

// History returns userID's login attempts, oldest first.
func (a *loginAuditorImpl) History(ctx context.Context, userID int64) ([]models.LoginAttempt, error) {
	attempts, err := a.repo.ListByUser(ctx, userID)
	if err != nil {
		a.logger.Error("Failed to load login history", zap.Int64("userID", userID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return attempts, nil
}

func (a *loginAuditorImpl) Failures() int64 {
	return a.failures.Load()
}
