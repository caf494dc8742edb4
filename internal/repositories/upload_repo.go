package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"vision-webapi/internal/models"
)

// UploadRepository persists the uploads ledger.
type UploadRepository interface {
	Insert(ctx context.Context, upload *models.Upload) (int64, error)
	SetResultPath(ctx context.Context, id int64, resultPath string) error
	FindByID(ctx context.Context, id int64) (*models.Upload, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Upload, error)
}

type sqliteUploadRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUploadRepository creates an UploadRepository backed by the uploads table
func NewUploadRepository(db *sql.DB, logger *zap.Logger) UploadRepository {
	return &sqliteUploadRepository{db: db, logger: logger}
}

const selectUploadColumns = `SELECT id, user_id, file_name, file_path, file_type, result_path, uploaded_at FROM uploads`

// Insert stores a new upload with result_path NULL.
func (r *sqliteUploadRepository) Insert(ctx context.Context, upload *models.Upload) (int64, error) {
	if upload.UploadedAt.IsZero() {
		upload.UploadedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO uploads (user_id, file_name, file_path, file_type, uploaded_at) VALUES (?, ?, ?, ?, ?)`,
		upload.UserID, upload.FileName, upload.FilePath, upload.FileType, upload.UploadedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, ErrUnknownUser
		}
		r.logger.Error("Error inserting upload", zap.Int64("userID", upload.UserID), zap.String("file", upload.FileName), zap.Error(err))
		return 0, fmt.Errorf("insert upload: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read upload id: %w", err)
	}
	upload.ID = id
	upload.ResultPath = nil
	return id, nil
}

// SetResultPath fills result_path of an existing upload. ErrNotFound if no row matched.
func (r *sqliteUploadRepository) SetResultPath(ctx context.Context, id int64, resultPath string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE uploads SET result_path = ? WHERE id = ?`, resultPath, id)
	if err != nil {
		return fmt.Errorf("update upload %d result: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByID returns nil, nil when the upload does not exist.
func (r *sqliteUploadRepository) FindByID(ctx context.Context, id int64) (*models.Upload, error) {
	rows, err := r.db.QueryContext(ctx, selectUploadColumns+` WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("query upload %d: %w", id, err)
	}
	uploads, err := scanUploads(rows)
	if err != nil {
		return nil, err
	}
	if len(uploads) == 0 {
		return nil, nil
	}
	return &uploads[0], nil
}

// ListByUser returns userID's uploads ordered by uploaded_at ascending.
func (r *sqliteUploadRepository) ListByUser(ctx context.Context, userID int64) ([]models.Upload, error) {
	rows, err := r.db.QueryContext(ctx, selectUploadColumns+` WHERE user_id = ? ORDER BY uploaded_at ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query uploads for user %d: %w", userID, err)
	}
	return scanUploads(rows)
}

func scanUploads(rows *sql.Rows) ([]models.Upload, error) {
	defer rows.Close()

	uploads := []models.Upload{}
	for rows.Next() {
		var u models.Upload
		var result sql.NullString
		if err := rows.Scan(&u.ID, &u.UserID, &u.FileName, &u.FilePath, &u.FileType, &result, &u.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		if result.Valid {
			v := result.String
			u.ResultPath = &v
		}
		uploads = append(uploads, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate uploads: %w", err)
	}
	return uploads, nil
}
