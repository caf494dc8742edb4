package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"vision-webapi/internal/database"
	"vision-webapi/internal/repositories"
	"vision-webapi/internal/utils"
)

type testEnv struct {
	db      *sql.DB
	auth    AuthService
	auditor LoginAuditor
	ledger  UploadLedger
	users   repositories.UserRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "app.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, logger))

	users := repositories.NewUserRepository(db, logger)
	return &testEnv{
		db:      db,
		users:   users,
		auth:    NewAuthService(users, utils.NewPasswordHasher(bcrypt.MinCost), logger),
		auditor: NewLoginAuditor(repositories.NewLoginAttemptRepository(db, logger), logger, nil),
		ledger:  NewUploadLedger(repositories.NewUploadRepository(db, logger), logger),
	}
}

func (e *testEnv) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}
