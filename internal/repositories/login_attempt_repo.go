package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"vision-webapi/internal/models"
)

// LoginAttemptRepository appends to and reads the login_logs audit table.
// There is deliberately no update or delete.
type LoginAttemptRepository interface {
	Insert(ctx context.Context, attempt *models.LoginAttempt) (int64, error)
	ListByUser(ctx context.Context, userID int64) ([]models.LoginAttempt, error)
}

type sqliteLoginAttemptRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLoginAttemptRepository creates a LoginAttemptRepository backed by login_logs
func NewLoginAttemptRepository(db *sql.DB, logger *zap.Logger) LoginAttemptRepository {
	return &sqliteLoginAttemptRepository{db: db, logger: logger}
}

func (r *sqliteLoginAttemptRepository) Insert(ctx context.Context, attempt *models.LoginAttempt) (int64, error) {
	if attempt.LoginTime.IsZero() {
		attempt.LoginTime = time.Now().UTC()
	}
	var userID sql.NullInt64
	if attempt.UserID != nil {
		userID = sql.NullInt64{Int64: *attempt.UserID, Valid: true}
	}
	ip := sql.NullString{String: attempt.IPAddress, Valid: attempt.IPAddress != ""}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO login_logs (user_id, login_time, ip_address, success) VALUES (?, ?, ?, ?)`,
		userID, attempt.LoginTime, ip, attempt.Success,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, ErrUnknownUser
		}
		return 0, fmt.Errorf("insert login attempt: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read login attempt id: %w", err)
	}
	attempt.ID = id
	return id, nil
}

// ListByUser returns the attempts referencing userID, oldest first.
func (r *sqliteLoginAttemptRepository) ListByUser(ctx context.Context, userID int64) ([]models.LoginAttempt, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, login_time, ip_address, success FROM login_logs WHERE user_id = ? ORDER BY login_time ASC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query login attempts: %w", err)
	}
	defer rows.Close()

	attempts := []models.LoginAttempt{}
	for rows.Next() {
		var a models.LoginAttempt
		var uid sql.NullInt64
		var ip sql.NullString
		if err := rows.Scan(&a.ID, &uid, &a.LoginTime, &ip, &a.Success); err != nil {
			return nil, fmt.Errorf("scan login attempt: %w", err)
		}
		if uid.Valid {
			v := uid.Int64
			a.UserID = &v
		}
		a.IPAddress = ip.String
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate login attempts: %w", err)
	}
	return attempts, nil
}
