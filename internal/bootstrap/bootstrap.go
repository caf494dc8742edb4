package bootstrap

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"vision-webapi/internal/config"
	"vision-webapi/internal/handlers"
	"vision-webapi/internal/logging"
	"vision-webapi/internal/middleware"
	"vision-webapi/internal/repositories"
	"vision-webapi/internal/services"
	"vision-webapi/internal/utils"
)

// AppComponents holds the initialized handlers, services and background workers.
type AppComponents struct {
	AuthHandler       *handlers.AuthHandler
	ProfileHandler    *handlers.ProfileHandler
	UploadHandler     *handlers.UploadHandler
	NavigationHandler *handlers.NavigationHandler
	Sessions          *services.SessionManager
	LoginLimiter      *middleware.LoginRateLimiter
	LogProcessor      *logging.LogProcessor
	LogRepo           repositories.LogRepository
}

// InitializeAppComponents creates and wires up repositories, services, handlers and processors.
func InitializeAppComponents(
	cfg *config.Config,
	fileLogger *zap.Logger,
	sqliteLogger *zap.Logger,
	sqliteDB *sql.DB,
	logRepo repositories.LogRepository,
) (*AppComponents, error) {
	if sqliteDB == nil {
		return nil, fmt.Errorf("bootstrap: sqlite database is required")
	}
	fileLogger.Info("Initializing application components: Repositories, Services, Handlers, Processors...")

	// --- 1. Repositories ---
	userRepo := repositories.NewUserRepository(sqliteDB, fileLogger)
	attemptRepo := repositories.NewLoginAttemptRepository(sqliteDB, fileLogger)
	uploadRepo := repositories.NewUploadRepository(sqliteDB, fileLogger)
	fileLogger.Info("Repositories initialized.")

	// --- 2. Services ---
	hasher := utils.NewPasswordHasher(cfg.BcryptCost)
	tokenTTL := time.Duration(cfg.JWTExpiresMinutes) * time.Minute

	authService := services.NewAuthService(userRepo, hasher, fileLogger)
	auditor := services.NewLoginAuditor(attemptRepo, fileLogger, sqliteLogger)
	ledger := services.NewUploadLedger(uploadRepo, fileLogger)
	profileService := services.NewProfileService(userRepo, fileLogger)
	sessions := services.NewSessionManager(authService, auditor, tokenTTL, fileLogger)
	fileLogger.Info("Services initialized.", zap.Int("bcryptCost", hasher.Cost()))

	// --- 3. Handlers ---
	components := &AppComponents{
		AuthHandler:       handlers.NewAuthHandler(authService, sessions, cfg.JWTSecret, tokenTTL),
		ProfileHandler:    handlers.NewProfileHandler(profileService, auditor),
		UploadHandler:     handlers.NewUploadHandler(ledger, cfg.UploadDir, cfg.MaxUploadMB),
		NavigationHandler: handlers.NewNavigationHandler(sessions),
		Sessions:          sessions,
		LoginLimiter:      middleware.NewLoginRateLimiter(cfg.LoginRatePerMinute, cfg.LoginRateBurst),
		LogRepo:           logRepo,
	}
	fileLogger.Info("Handlers initialized.")

	// --- 4. Processors ---
	if logRepo != nil {
		components.LogProcessor = logging.NewLogProcessor(
			logRepo,
			time.Duration(cfg.LogRetentionDays)*24*time.Hour,
			time.Duration(cfg.LogPruneInterval)*time.Minute,
			fileLogger,
		)
	}

	fileLogger.Info("Application components initialization complete.")
	return components, nil
}
