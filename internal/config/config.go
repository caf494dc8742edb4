package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap" // Use logger for loading errors
	"golang.org/x/crypto/bcrypt"
)

const DefaultJWTSecret = "default-secret"

// Config holds all configuration for the application
type Config struct {
	AppEnv             string
	Port               string
	Prefork            bool
	CORSAllowOrigins   string
	CORSAllowMethods   string
	CORSAllowHeaders   string
	JWTSecret          string
	JWTExpiresMinutes  int
	SQLiteDBPath       string
	LogFilePath        string
	LogLevel           string
	LogRotateInterval  int // Hour
	LogMaxSize         int // MB
	LogMaxBackups      int
	LogMaxAge          int // Days
	LogCompress        bool
	SQLiteLogEnabled   bool
	SQLiteLogLevel     string
	LogRetentionDays   int // app_logs rows older than this are pruned; 0 disables
	LogPruneInterval   int // Minutes
	BcryptCost         int
	LoginRatePerMinute int
	LoginRateBurst     int
	UploadDir          string
	MaxUploadMB        int
}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "dpanic": true, "panic": true, "fatal": true}

// LoadConfig reads configuration from environment variables or .env file
func LoadConfig(logger *zap.Logger) (*Config, error) { // logger can be nil here
	if logger == nil {
		logger = zap.NewNop()
	}

	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "local" // Default to local if not set
	}

	envFileName := fmt.Sprintf(".env.%s", appEnv)
	if _, err := os.Stat(envFileName); err == nil {
		if err := godotenv.Load(envFileName); err != nil {
			logger.Warn("Error loading .env file, continuing with environment variables", zap.String("file", envFileName), zap.Error(err))
		} else {
			logger.Info("Loaded configuration", zap.String("file", envFileName))
		}
	} else {
		logger.Warn("No specific .env file found for environment, relying on environment variables or defaults", zap.String("environment", appEnv))
	}

	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "local"),
		Port:              getEnv("PORT", "3000"),
		Prefork:           getEnvAsBool("PREFORK", false),
		JWTSecret:         getEnv("JWT_SECRET", DefaultJWTSecret),
		JWTExpiresMinutes: getEnvAsInt("JWT_EXPIRES_MINUTES", 60*24),
		SQLiteDBPath:      getEnv("SQLITE_DB_PATH", "./data/app.db"),
		LogFilePath:       getEnv("LOG_FILE_PATH", "./logs/app.log"),
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogRotateInterval: getEnvAsInt("LOG_ROTATE_INTERVAL", 24),
		LogMaxSize:        getEnvAsInt("LOG_MAX_SIZE", 100),
		LogMaxBackups:     getEnvAsInt("LOG_MAX_BACKUPS", 5),
		LogMaxAge:         getEnvAsInt("LOG_MAX_AGE", 30),
		LogCompress:       getEnvAsBool("LOG_COMPRESS", false),
		SQLiteLogEnabled:  getEnvAsBool("SQLITE_LOG_ENABLED", true),
		SQLiteLogLevel:    strings.ToLower(getEnv("SQLITE_LOG_LEVEL", "warn")),
		LogRetentionDays:  getEnvAsInt("LOG_RETENTION_DAYS", 30),
		LogPruneInterval:  getEnvAsInt("LOG_PRUNE_INTERVAL", 60),
		BcryptCost:        getEnvAsInt("BCRYPT_COST", bcrypt.DefaultCost),
		// --- Login throttling (per client IP) ---
		LoginRatePerMinute: getEnvAsInt("LOGIN_RATE_PER_MINUTE", 10),
		LoginRateBurst:     getEnvAsInt("LOGIN_RATE_BURST", 5),
		UploadDir:          getEnv("UPLOAD_DIR", "./uploads"),
		MaxUploadMB:        getEnvAsInt("MAX_UPLOAD_MB", 200),

		// Default AllowOrigins to "*" for local, empty for others (forcing explicit setting)
		CORSAllowOrigins: getEnv("CORS_ALLOW_ORIGINS", func() string {
			if appEnv == "local" || appEnv == "development" {
				return "*"
			}
			return ""
		}()),
		CORSAllowMethods: getEnv("CORS_ALLOW_METHODS", "GET,POST,HEAD,PUT,DELETE,PATCH"),
		CORSAllowHeaders: getEnv("CORS_ALLOW_HEADERS", "Origin,Content-Type,Accept,Authorization"),
	}

	if !validLevels[cfg.LogLevel] {
		logger.Warn("Invalid LOG_LEVEL specified, defaulting to 'info'", zap.String("invalidLevel", cfg.LogLevel))
		cfg.LogLevel = "info"
	}
	if !validLevels[cfg.SQLiteLogLevel] {
		logger.Warn("Invalid SQLITE_LOG_LEVEL specified, defaulting to 'warn'", zap.String("invalidLevel", cfg.SQLiteLogLevel))
		cfg.SQLiteLogLevel = "warn"
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		logger.Warn("BCRYPT_COST out of range, using default", zap.Int("invalidCost", cfg.BcryptCost))
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.JWTExpiresMinutes <= 0 {
		cfg.JWTExpiresMinutes = 60 * 24
	}
	if cfg.LogRetentionDays < 0 {
		cfg.LogRetentionDays = 0
	}
	if cfg.LogPruneInterval <= 0 {
		cfg.LogPruneInterval = 60
	}
	if cfg.LoginRatePerMinute <= 0 || cfg.LoginRateBurst <= 0 {
		logger.Warn("Login rate limit settings must be positive, using defaults")
		cfg.LoginRatePerMinute = 10
		cfg.LoginRateBurst = 5
	}

	if cfg.JWTSecret == DefaultJWTSecret {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET must be set in production environments")
		}
		logger.Warn("JWT_SECRET is using the default value. Please set a strong secret in production.")
	}
	if !cfg.IsLocal() && (cfg.CORSAllowOrigins == "*" || cfg.CORSAllowOrigins == "") {
		logger.Warn("CORS_ALLOW_ORIGINS is set to '*' or is empty in a non-local/dev environment.")
		return nil, fmt.Errorf("CORS_ALLOW_ORIGINS must be set explicitly in production environments")
	}

	// Create upload directory if it doesnt exist
	if _, err := os.Stat(cfg.UploadDir); os.IsNotExist(err) {
		if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
			logger.Error("Failed to create upload directory", zap.String("path", cfg.UploadDir), zap.Error(err))
			return nil, fmt.Errorf("failed to create upload directory %s: %w", cfg.UploadDir, err)
		}
		logger.Info("Created upload directory", zap.String("path", cfg.UploadDir))
	}

	return cfg, nil
}

// IsLocal reports whether the app runs in a local or development environment.
func (c *Config) IsLocal() bool {
	return c.AppEnv == "local" || c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Helper function to get env var or default
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// Helper function to get env var as int or default
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

// Helper function to get env var as bool or default
func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}
