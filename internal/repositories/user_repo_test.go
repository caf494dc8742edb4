package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vision-webapi/internal/models"
)

func TestUserRepository_CreateAndFind(t *testing.T) {
	repo := NewUserRepository(setupDB(t), zap.NewNop())
	ctx := context.Background()

	u := &models.User{Username: "alice", Email: "alice@x.com", PasswordHash: "$2a$04$abc"}
	id, err := repo.CreateUser(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, id, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	byName, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, id, byName.ID)
	assert.Equal(t, "alice@x.com", byName.Email)
	assert.Equal(t, "$2a$04$abc", byName.PasswordHash)

	byID, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "alice", byID.Username)
}

func TestUserRepository_NotFoundReturnsNil(t *testing.T) {
	repo := NewUserRepository(setupDB(t), zap.NewNop())
	ctx := context.Background()

	u, err := repo.FindByUsername(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, u)

	u, err = repo.FindByID(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestUserRepository_UsernameIsCaseSensitiveExactMatch(t *testing.T) {
	repo := NewUserRepository(setupDB(t), zap.NewNop())
	createUser(t, repo, "alice", "alice@x.com")

	u, err := repo.FindByUsername(context.Background(), "Alice")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	repo := NewUserRepository(setupDB(t), zap.NewNop())
	createUser(t, repo, "alice", "alice@x.com")

	_, err := repo.CreateUser(context.Background(), &models.User{Username: "alice", Email: "other@x.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrDuplicateUsername)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	repo := NewUserRepository(setupDB(t), zap.NewNop())
	createUser(t, repo, "alice", "alice@x.com")

	_, err := repo.CreateUser(context.Background(), &models.User{Username: "bob", Email: "alice@x.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestUserRepository_EmptyEmailStoredAsNull(t *testing.T) {
	db := setupDB(t)
	repo := NewUserRepository(db, zap.NewNop())
	createUser(t, repo, "alice", "")
	createUser(t, repo, "bob", "")

	var nulls int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM users WHERE email IS NULL`).Scan(&nulls))
	assert.Equal(t, 2, nulls)
}

func TestUserRepository_StorageError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").WillReturnError(errors.New("disk I/O error"))
	repo := NewUserRepository(db, zap.NewNop())

	_, err = repo.CreateUser(context.Background(), &models.User{Username: "alice", PasswordHash: "h"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateUsername)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassifyUniqueViolation(t *testing.T) {
	assert.Nil(t, classifyUniqueViolation(errors.New("boom")))
	assert.Nil(t, classifyUniqueViolation(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey}))
	assert.ErrorIs(t, classifyUniqueViolation(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}), ErrDuplicateCredential)
}
