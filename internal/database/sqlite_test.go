package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vision-webapi/internal/config"
)

func TestInitSQLite_CreatesDirectoryAndSchema(t *testing.T) {
	cfg := &config.Config{SQLiteDBPath: filepath.Join(t.TempDir(), "nested", "app.db")}

	db, err := InitSQLite(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	for _, table := range []string{"users", "login_logs", "uploads", "app_logs"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "app.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db, zap.NewNop()))
	require.NoError(t, Migrate(ctx, db, zap.NewNop()))
}

func TestOpenSQLite_ForeignKeysEnabled(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "app.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(context.Background(), db, zap.NewNop()))

	_, err = db.Exec(`INSERT INTO uploads (user_id, file_name, file_path, file_type, uploaded_at) VALUES (42, 'a', 'b', 'image', CURRENT_TIMESTAMP)`)
	assert.Error(t, err, "upload for unknown user must violate the foreign key")
}
