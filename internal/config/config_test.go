package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("UPLOAD_DIR", filepath.Join(dir, "uploads"))
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := isolate(t)
	t.Setenv("APP_ENV", "local")

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.AppEnv)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "*", cfg.CORSAllowOrigins)
	assert.Equal(t, bcrypt.DefaultCost, cfg.BcryptCost)
	assert.True(t, cfg.SQLiteLogEnabled)

	_, statErr := os.Stat(filepath.Join(dir, "uploads"))
	assert.NoError(t, statErr, "upload dir should be created")
}

func TestLoadConfig_InvalidValuesFallBack(t *testing.T) {
	isolate(t)
	t.Setenv("APP_ENV", "local")
	t.Setenv("LOG_LEVEL", "verbose")
	t.Setenv("SQLITE_LOG_LEVEL", "loud")
	t.Setenv("BCRYPT_COST", "99")
	t.Setenv("LOGIN_RATE_BURST", "0")

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "warn", cfg.SQLiteLogLevel)
	assert.Equal(t, bcrypt.DefaultCost, cfg.BcryptCost)
	assert.Equal(t, 5, cfg.LoginRateBurst)
}

func TestLoadConfig_DotEnvFile(t *testing.T) {
	dir := isolate(t)
	t.Setenv("APP_ENV", "staging")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.staging"),
		[]byte("PORT=8088\nCORS_ALLOW_ORIGINS=https://vision.example\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("PORT")
		os.Unsetenv("CORS_ALLOW_ORIGINS")
	})

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, "8088", cfg.Port)
	assert.Equal(t, "https://vision.example", cfg.CORSAllowOrigins)
}

func TestLoadConfig_ProductionRequiresSecrets(t *testing.T) {
	isolate(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://vision.example")

	_, err := LoadConfig(nil)
	require.Error(t, err)

	t.Setenv("JWT_SECRET", "a-long-production-secret")
	cfg, err := LoadConfig(nil)
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestLoadConfig_ProductionRequiresCORS(t *testing.T) {
	isolate(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "a-long-production-secret")

	_, err := LoadConfig(nil)
	require.Error(t, err)
}
