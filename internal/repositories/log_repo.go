package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"vision-webapi/internal/models"
)

// ErrLogStoreUnavailable is returned while the log repository has no database handle.
var ErrLogStoreUnavailable = errors.New("log store unavailable")

// LogRepository defines the interface for the app_logs table written by the SQLite logger
type LogRepository interface {
	InsertLog(ctx context.Context, entry models.LogEntry) error
	RecentLogs(ctx context.Context, limit int) ([]models.LogEntry, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
	SetDB(db *sql.DB)
}

type logRepositoryImpl struct {
	db     *sql.DB
	logger *zap.Logger
	mu     sync.RWMutex
}

// NewLogRepository creates a new LogRepository. db may be nil until SetDB is called.
func NewLogRepository(db *sql.DB, logger *zap.Logger) LogRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &logRepositoryImpl{db: db, logger: logger}
}

func (r *logRepositoryImpl) handle() *sql.DB {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.db
}

// InsertLog must not log through a logger that writes back into this repository.
func (r *logRepositoryImpl) InsertLog(ctx context.Context, entry models.LogEntry) error {
	db := r.handle()
	if db == nil {
		return ErrLogStoreUnavailable
	}
	fieldsJSON := entry.Fields
	if fieldsJSON == "" {
		fieldsJSON = "{}"
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO app_logs (timestamp, level, message, fields) VALUES (?, ?, ?, ?)`,
		entry.Timestamp, entry.Level, entry.Message, fieldsJSON,
	)
	if err != nil {
		return fmt.Errorf("sqlite insert failed: %w", err)
	}
	return nil
}

// RecentLogs returns up to limit entries, newest first.
func (r *logRepositoryImpl) RecentLogs(ctx context.Context, limit int) ([]models.LogEntry, error) {
	db := r.handle()
	if db == nil {
		return nil, ErrLogStoreUnavailable
	}
	rows, err := db.QueryContext(ctx, `SELECT id, timestamp, level, message, fields FROM app_logs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		r.logger.Error("Failed to query logs from SQLite", zap.Error(err))
		return nil, fmt.Errorf("sqlite query failed: %w", err)
	}
	defer rows.Close()

	var logs []models.LogEntry
	for rows.Next() {
		var entry models.LogEntry
		var fields sql.NullString
		if err := rows.Scan(&entry.ID, &entry.Timestamp, &entry.Level, &entry.Message, &fields); err != nil {
			return nil, fmt.Errorf("scan log row: %w", err)
		}
		entry.Fields = "{}"
		if fields.Valid {
			entry.Fields = fields.String
		}
		logs = append(logs, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite row iteration error: %w", err)
	}
	return logs, nil
}

// DeleteBefore removes entries older than cutoff and returns how many were deleted.
func (r *logRepositoryImpl) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	db := r.handle()
	if db == nil {
		return 0, ErrLogStoreUnavailable
	}
	res, err := db.ExecContext(ctx, `DELETE FROM app_logs WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sqlite delete failed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read deleted log count: %w", err)
	}
	return n, nil
}

// SetDB swaps the database handle. Safe for concurrent use.
func (r *logRepositoryImpl) SetDB(db *sql.DB) {
	r.mu.Lock()
	r.db = db
	r.mu.Unlock()
}
