package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"vision-webapi/internal/config"
	"vision-webapi/internal/models"
	"vision-webapi/internal/repositories"
)

const sqliteWriteTimeout = 5 * time.Second

var (
	globalFileLogger   *zap.Logger
	globalSQLiteLogger *zap.Logger // Nop when SQLite logging is disabled
	globalLoggersMu    sync.RWMutex
)

// AppLoggers holds the different logger instances for the application.
type AppLoggers struct {
	File   *zap.Logger // console + rotating file
	SQLite *zap.Logger // app_logs table; Nop when disabled
}

func customLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + level.CapitalString() + "]")
}

func customColorLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	var color string
	switch level {
	case zapcore.DebugLevel:
		color = "\x1b[35m" // Magenta
	case zapcore.InfoLevel:
		color = "\x1b[32m" // Green
	case zapcore.WarnLevel:
		color = "\x1b[33m" // Yellow
	case zapcore.ErrorLevel, zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		color = "\x1b[31m" // Red
	}
	if color == "" {
		enc.AppendString("[" + level.CapitalString() + "]")
		return
	}
	enc.AppendString(color + "[" + level.CapitalString() + "]\x1b[0m")
}

// CreateFileConsoleEncoderConfigs returns the console (colored) and file encoder configurations.
func CreateFileConsoleEncoderConfigs() (zapcore.EncoderConfig, zapcore.EncoderConfig) {
	consoleEncoderCfg := zap.NewDevelopmentEncoderConfig()
	consoleEncoderCfg.EncodeLevel = customColorLevelEncoder
	consoleEncoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	consoleEncoderCfg.EncodeCaller = zapcore.ShortCallerEncoder

	fileEncoderCfg := zap.NewProductionEncoderConfig()
	fileEncoderCfg.EncodeLevel = customLevelEncoder
	fileEncoderCfg.TimeKey = "timestamp"
	fileEncoderCfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	fileEncoderCfg.EncodeCaller = zapcore.ShortCallerEncoder

	return consoleEncoderCfg, fileEncoderCfg
}

// InitializeLoggers creates the file/console application logger and the dedicated SQLite logger.
// consoleSyncer defaults to stdout when nil.
func InitializeLoggers(cfg *config.Config, logRepo repositories.LogRepository, fileSyncer, consoleSyncer zapcore.WriteSyncer) (*AppLoggers, error) {
	if cfg == nil {
		return nil, fmt.Errorf("logging: nil config")
	}
	if fileSyncer == nil {
		return nil, fmt.Errorf("logging: nil file syncer")
	}
	if consoleSyncer == nil {
		consoleSyncer = zapcore.Lock(os.Stdout)
	}
	appLoggers := &AppLoggers{}

	var fileLogLevel zapcore.Level
	if err := fileLogLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] Invalid LOG_LEVEL '%s' for file/console logger, defaulting to info: %v\n", cfg.LogLevel, err)
		fileLogLevel = zapcore.InfoLevel
	}

	consoleEncoderCfg, fileEncoderCfg := CreateFileConsoleEncoderConfigs()
	consoleCore := zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderCfg), consoleSyncer, fileLogLevel)
	// Plain text in the file too, so the bracketed levels survive rotation.
	fileOutputCore := zapcore.NewCore(zapcore.NewConsoleEncoder(fileEncoderCfg), fileSyncer, fileLogLevel)

	appLoggers.File = zap.New(zapcore.NewTee(consoleCore, fileOutputCore), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	appLoggers.File.Info("File/Console application logger initialized",
		zap.String("environment", cfg.AppEnv),
		zap.String("configuredLevel", cfg.LogLevel),
		zap.String("effectiveLevel", fileLogLevel.String()),
		zap.String("logFile", cfg.LogFilePath),
	)

	if cfg.SQLiteLogEnabled && logRepo != nil {
		var sqliteLogLevel zapcore.Level
		if err := sqliteLogLevel.UnmarshalText([]byte(cfg.SQLiteLogLevel)); err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] Invalid SQLITE_LOG_LEVEL '%s', defaulting to warn: %v\n", cfg.SQLiteLogLevel, err)
			sqliteLogLevel = zapcore.WarnLevel
		}
		sqliteOnlyCore := NewSQLiteCore(sqliteLogLevel, logRepo)
		appLoggers.SQLite = zap.New(sqliteOnlyCore, zap.AddCaller())
		appLoggers.File.Info("Dedicated SQLite logger initialized", zap.String("effectiveLevel", sqliteLogLevel.String()))
	} else {
		appLoggers.File.Info("Dedicated SQLite logger is disabled by configuration.")
		appLoggers.SQLite = zap.NewNop()
	}

	return appLoggers, nil
}

// sqliteCore implements zapcore.Core and writes entries to app_logs through a LogRepository.
type sqliteCore struct {
	zapcore.LevelEnabler
	repo   repositories.LogRepository
	fields []zapcore.Field // added via logger.With()
}

// NewSQLiteCore creates a core that stores each entry's message and fields in app_logs.
func NewSQLiteCore(enab zapcore.LevelEnabler, repo repositories.LogRepository) zapcore.Core {
	return &sqliteCore{LevelEnabler: enab, repo: repo}
}

func (c *sqliteCore) With(fields []zapcore.Field) zapcore.Core {
	clone := c.clone()
	clone.fields = append(clone.fields, fields...)
	return clone
}

func (c *sqliteCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

// Write never returns the storage error; a failing log store must not break the caller.
func (c *sqliteCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	mapEncoder := zapcore.NewMapObjectEncoder()
	for _, field := range c.fields {
		field.AddTo(mapEncoder)
	}
	for _, field := range fields {
		field.AddTo(mapEncoder)
	}

	logEntry := models.LogEntry{
		Timestamp: ent.Time.UTC(),
		Level:     ent.Level.String(),
		Message:   ent.Message,
		Fields:    "{}",
	}
	if ent.Caller.Defined {
		mapEncoder.Fields["caller"] = ent.Caller.TrimmedPath()
	}
	if len(mapEncoder.Fields) > 0 {
		fieldBytes, err := json.Marshal(mapEncoder.Fields)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: Failed to marshal log fields for SQLite: %v\n", err)
			fieldBytes, _ = json.Marshal(map[string]string{"marshal_error": err.Error()})
		}
		logEntry.Fields = string(fieldBytes)
	}

	ctx, cancel := context.WithTimeout(context.Background(), sqliteWriteTimeout)
	defer cancel()
	if err := c.repo.InsertLog(ctx, logEntry); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: Failed to insert log entry into SQLite: %v\n", err)
	}
	return nil
}

func (c *sqliteCore) Sync() error {
	return nil
}

func (c *sqliteCore) clone() *sqliteCore {
	return &sqliteCore{
		LevelEnabler: c.LevelEnabler,
		repo:         c.repo,
		fields:       append([]zapcore.Field(nil), c.fields...),
	}
}

// SetGlobalLoggers sets the global logger instances.
func SetGlobalLoggers(fileLogger, sqliteLogger *zap.Logger) {
	globalLoggersMu.Lock()
	defer globalLoggersMu.Unlock()
	globalFileLogger = fileLogger
	if sqliteLogger == nil {
		sqliteLogger = zap.NewNop()
	}
	globalSQLiteLogger = sqliteLogger
}

// GetFileLogger returns the global file/console logger, or a Nop logger before initialization.
func GetFileLogger() *zap.Logger {
	globalLoggersMu.RLock()
	defer globalLoggersMu.RUnlock()
	if globalFileLogger == nil {
		return zap.NewNop()
	}
	return globalFileLogger
}

// GetSQLiteLogger returns the global SQLite logger, or a Nop logger when disabled or not initialized.
func GetSQLiteLogger() *zap.Logger {
	globalLoggersMu.RLock()
	defer globalLoggersMu.RUnlock()
	if globalSQLiteLogger == nil {
		return zap.NewNop()
	}
	return globalSQLiteLogger
}
