package repositories

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vision-webapi/internal/database"
	"vision-webapi/internal/models"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "app.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, zap.NewNop()))
	return db
}

func createUser(t *testing.T, repo UserRepository, username, email string) int64 {
	t.Helper()
	id, err := repo.CreateUser(context.Background(), &models.User{Username: username, Email: email, PasswordHash: "$2a$04$hash"})
	require.NoError(t, err)
	return id
}
