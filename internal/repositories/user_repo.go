package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"vision-webapi/internal/models"
)

var (
	// ErrDuplicateUsername is returned when the users.username UNIQUE constraint rejects an insert.
	ErrDuplicateUsername = errors.New("duplicate username")
	// ErrDuplicateEmail is returned when the users.email UNIQUE constraint rejects an insert.
	ErrDuplicateEmail = errors.New("duplicate email")
	// ErrDuplicateCredential is returned for a UNIQUE violation whose column cannot be identified.
	ErrDuplicateCredential = errors.New("duplicate credential")
	// ErrNotFound is returned by updates that matched no row.
	ErrNotFound = errors.New("record not found")
	// ErrUnknownUser is returned when a row references a user id that does not exist.
	ErrUnknownUser = errors.New("referenced user does not exist")
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (int64, error) // Returns the new user ID
}

// sqliteUserRepository implements UserRepository for SQLite
type sqliteUserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new UserRepository backed by the users table
func NewUserRepository(db *sql.DB, logger *zap.Logger) UserRepository {
	return &sqliteUserRepository{db: db, logger: logger}
}

const selectUserColumns = `SELECT id, username, email, password_hash, created_at FROM users`

// FindByUsername retrieves a user by exact username. Returns nil, nil when absent.
func (r *sqliteUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := r.scanUser(r.db.QueryRowContext(ctx, selectUserColumns+` WHERE username = ?`, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug("User not found by username", zap.String("username", username))
			return nil, nil
		}
		r.logger.Error("Error querying user by username", zap.String("username", username), zap.Error(err))
		return nil, fmt.Errorf("error finding user by username %s: %w", username, err)
	}
	return user, nil
}

// FindByID retrieves a user by ID. Returns nil, nil when absent.
func (r *sqliteUserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := r.scanUser(r.db.QueryRowContext(ctx, selectUserColumns+` WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug("User not found by ID", zap.Int64("id", id))
			return nil, nil
		}
		r.logger.Error("Error querying user by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("error finding user by ID %d: %w", id, err)
	}
	return user, nil
}

func (r *sqliteUserRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var email sql.NullString
	if err := row.Scan(&user.ID, &user.Username, &email, &user.PasswordHash, &user.CreatedAt); err != nil {
		return nil, err
	}
	if email.Valid {
		user.Email = email.String
	}
	return user, nil
}

// CreateUser inserts a new user in a single statement. Uniqueness of username and email
// is left to the table constraints; violations come back as ErrDuplicateUsername,
// ErrDuplicateEmail or ErrDuplicateCredential.
func (r *sqliteUserRepository) CreateUser(ctx context.Context, user *models.User) (int64, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	email := sql.NullString{String: user.Email, Valid: user.Email != ""}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		user.Username, email, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		if dupErr := classifyUniqueViolation(err); dupErr != nil {
			r.logger.Debug("User insert rejected by unique constraint", zap.String("username", user.Username), zap.Error(err))
			return 0, dupErr
		}
		r.logger.Error("Error creating user", zap.String("username", user.Username), zap.Error(err))
		return 0, fmt.Errorf("error creating user %s: %w", user.Username, err)
	}

	newID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("error reading new user id: %w", err)
	}
	user.ID = newID
	r.logger.Info("User created successfully", zap.String("username", user.Username), zap.Int64("newID", newID))
	return newID, nil
}

// classifyUniqueViolation maps a SQLite UNIQUE failure to the column that collided.
// It returns nil for every other error.
func classifyUniqueViolation(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return nil
	}
	if sqliteErr.ExtendedCode != sqlite3.ErrConstraintUnique && sqliteErr.ExtendedCode != sqlite3.ErrConstraintPrimaryKey {
		return nil
	}
	msg := sqliteErr.Error()
	switch {
	case strings.Contains(msg, "users.username"):
		return ErrDuplicateUsername
	case strings.Contains(msg, "users.email"):
		return ErrDuplicateEmail
	default:
		return ErrDuplicateCredential
	}
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}
