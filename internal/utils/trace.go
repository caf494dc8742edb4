package utils

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"vision-webapi/internal/config"
)

func TraceConfigDetails(logger *zap.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		fmt.Println("[WARN] logger or config is nil in TraceConfigDetails")
		return
	}
	fields := []zapcore.Field{
		zap.String("AppEnv", cfg.AppEnv),
		zap.String("Port", cfg.Port),
		zap.Bool("Prefork", cfg.Prefork),
		zap.String("JWTSecret", MaskSecret(cfg.JWTSecret, config.DefaultJWTSecret)),
		zap.Int("JWTExpiresMinutes", cfg.JWTExpiresMinutes),
		zap.String("SQLiteDBPath", cfg.SQLiteDBPath),
		zap.String("LogFilePath", cfg.LogFilePath),
		zap.String("LogLevel", cfg.LogLevel),
		zap.Int("LogRotateIntervalHours", cfg.LogRotateInterval),
		zap.Int("LogMaxSizeMB", cfg.LogMaxSize),
		zap.Int("LogMaxBackups", cfg.LogMaxBackups),
		zap.Int("LogMaxAgeDays", cfg.LogMaxAge),
		zap.Bool("LogCompress", cfg.LogCompress),
		zap.Bool("DedicatedSQLiteLog_Enabled", cfg.SQLiteLogEnabled),
		zap.String("DedicatedSQLiteLog_Level", cfg.SQLiteLogLevel),
		zap.Int("LogRetentionDays", cfg.LogRetentionDays),
		zap.Int("LogPruneIntervalMinutes", cfg.LogPruneInterval),
		zap.Int("BcryptCost", cfg.BcryptCost),
		zap.Int("LoginRatePerMinute", cfg.LoginRatePerMinute),
		zap.Int("LoginRateBurst", cfg.LoginRateBurst),
		zap.String("UploadDir", cfg.UploadDir),
		zap.Int("MaxUploadMB", cfg.MaxUploadMB),
		zap.String("CORS_AllowOrigins", cfg.CORSAllowOrigins),
		zap.String("CORS_AllowMethods", cfg.CORSAllowMethods),
		zap.String("CORS_AllowHeaders", cfg.CORSAllowHeaders),
	}
	logger.Debug("Loaded application configuration details", fields...)
}
