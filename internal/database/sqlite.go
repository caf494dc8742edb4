package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite Driver
	"go.uber.org/zap"

	"vision-webapi/internal/config"
)

// sqliteDSNOptions enables WAL for concurrent readers, waits on locks instead of failing
// immediately, and turns on foreign key enforcement for login_logs/uploads -> users.
const sqliteDSNOptions = "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

// InitSQLite opens the application database at cfg.SQLiteDBPath and applies all migrations.
func InitSQLite(cfg *config.Config, logger *zap.Logger) (*sql.DB, error) {
	db, err := OpenSQLite(cfg.SQLiteDBPath, logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := Migrate(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite database initialized successfully", zap.String("path", cfg.SQLiteDBPath))
	return db, nil
}

// OpenSQLite opens (creating if needed) the SQLite file at path, including its directory.
func OpenSQLite(path string, logger *zap.Logger) (*sql.DB, error) {
	logger.Info("Initializing SQLite database...", zap.String("requested_path", path))

	dbDir := filepath.Dir(path)
	if dbDir != "." && dbDir != "/" {
		if _, err := os.Stat(dbDir); os.IsNotExist(err) {
			logger.Info("SQLite database directory does not exist, creating...", zap.String("path", dbDir))
			if err := os.MkdirAll(dbDir, 0755); err != nil {
				logger.Error("Failed to create SQLite database directory", zap.String("path", dbDir), zap.Error(err))
				return nil, fmt.Errorf("failed to create sqlite db directory %s: %w", dbDir, err)
			}
		} else if err != nil {
			logger.Error("Failed to check status of SQLite database directory", zap.String("path", dbDir), zap.Error(err))
			return nil, fmt.Errorf("failed to check status of sqlite db directory %s: %w", dbDir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+sqliteDSNOptions)
	if err != nil {
		logger.Error("Failed to open SQLite database", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("failed to open sqlite database at %s: %w", path, err)
	}

	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		logger.Error("Failed to ping SQLite database after open", zap.Error(err))
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	logger.Debug("SQLite ping successful.")

	return db, nil
}
