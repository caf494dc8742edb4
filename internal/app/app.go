package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/DeRuina/timberjack"
	"github.com/gofiber/contrib/fiberzap/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"vision-webapi/internal/bootstrap"
	"vision-webapi/internal/config"
	"vision-webapi/internal/database"
	"vision-webapi/internal/logging"
	"vision-webapi/internal/middleware"
	"vision-webapi/internal/repositories"
	"vision-webapi/internal/routes"
	"vision-webapi/internal/utils"
)

const (
	appName               = "vision-webapi"
	sessionPruneInterval  = 5 * time.Minute
	limiterCleanupPeriod  = 10 * time.Minute
	gracefulShutdownLimit = 30 * time.Second
)

// Run initializes and starts the application
func Run() {
	initAppStartTime := time.Now()

	// --- 1. Load Configuration ---
	tempConfigLogger, _ := zap.NewProduction(zap.ErrorOutput(zapcore.Lock(os.Stderr)))
	defer tempConfigLogger.Sync()

	cfg, err := config.LoadConfig(tempConfigLogger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- 2. Rotating file writer ---
	logDir := filepath.Dir(cfg.LogFilePath)
	if logDir != "." && logDir != "/" {
		if err := os.MkdirAll(logDir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: Failed to ensure log directory %s exists: %v\n", logDir, err)
			os.Exit(1)
		}
	}
	timberJackLogger := &timberjack.Logger{
		Filename:         cfg.LogFilePath,
		MaxSize:          cfg.LogMaxSize,
		MaxBackups:       cfg.LogMaxBackups,
		MaxAge:           cfg.LogMaxAge,
		Compress:         cfg.LogCompress,
		LocalTime:        true,
		RotationInterval: time.Duration(cfg.LogRotateInterval) * time.Hour,
	}
	defer timberJackLogger.Close()
	fileSyncer := zapcore.AddSync(timberJackLogger)

	// --- 3. SQLite database and migrations ---
	sqliteDB, err := database.InitSQLite(cfg, tempConfigLogger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize SQLite database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if errClose := sqliteDB.Close(); errClose != nil {
			fmt.Fprintf(os.Stderr, "[ERROR] Error closing SQLite database: %v\n", errClose)
		} else {
			fmt.Println("[INFO] SQLite database connection closed.")
		}
	}()

	// --- 4. Loggers (file/console and SQLite-dedicated) ---
	logRepo := repositories.NewLogRepository(sqliteDB, tempConfigLogger)
	appLoggers, err := logging.InitializeLoggers(cfg, logRepo, fileSyncer, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize application loggers: %v\n", err)
		os.Exit(1)
	}
	fileLogger := appLoggers.File
	sqliteLogger := appLoggers.SQLite
	logging.SetGlobalLoggers(fileLogger, sqliteLogger)
	utils.TraceConfigDetails(fileLogger, cfg)

	// --- 5. Components ---
	components, err := bootstrap.InitializeAppComponents(cfg, fileLogger, sqliteLogger, sqliteDB, logRepo)
	if err != nil {
		fileLogger.Fatal("Failed to initialize application components", zap.Error(err))
	}

	// --- 6. Fiber App ---
	if cfg.Prefork {
		fileLogger.Warn("PREFORK ignored: sessions are held in process memory")
		cfg.Prefork = false
	}
	appFiber := fiber.New(fiber.Config{
		AppName:      appName,
		Prefork:      cfg.Prefork,
		BodyLimit:    (cfg.MaxUploadMB + 1) << 20,
		ErrorHandler: newErrorHandler(cfg),
	})

	appFiber.Use(middleware.RequestLoggers(fileLogger, sqliteLogger))
	appFiber.Use(recover.New(recover.Config{
		EnableStackTrace: cfg.LogLevel == "debug",
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			middleware.GetRequestFileLogger(c).Error("Panic recovered", zap.Any("panic_value", e))
		},
	}))
	fileLogger.Info("Configuring CORS", zap.String("origins", cfg.CORSAllowOrigins), zap.String("methods", cfg.CORSAllowMethods), zap.String("headers", cfg.CORSAllowHeaders))
	appFiber.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowMethods: cfg.CORSAllowMethods,
		AllowHeaders: cfg.CORSAllowHeaders,
	}))
	if cfg.LogLevel == "debug" {
		appFiber.Use(middleware.RequestDebugLogger())
	}
	appFiber.Use(fiberzap.New(fiberzap.Config{
		Logger: fileLogger,
		Fields: []string{"status", "method", "url", "ip", "latency", "error"},
		FieldsFunc: func(c *fiber.Ctx) []zap.Field {
			return []zap.Field{
				zap.String("log_type", "access"),
				zap.String("request_id", middleware.GetRequestID(c)),
			}
		},
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/health"
		},
	}))

	// --- 7. Routes ---
	routes.SetupRoutes(appFiber, cfg, fileLogger, components, sqliteDB)

	// --- 8. Background workers ---
	workersCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	components.Sessions.StartJanitor(workersCtx, sessionPruneInterval)
	components.LoginLimiter.StartCleanupWorker(workersCtx, limiterCleanupPeriod)
	if components.LogProcessor != nil {
		components.LogProcessor.Start()
	}

	// --- 9. Start Server & Graceful Shutdown ---
	serverCtx, cancelServerCtx := context.WithCancel(context.Background())
	defer cancelServerCtx()
	serverStopped := make(chan struct{})

	go func() {
		defer close(serverStopped)
		listenAddr := ":" + cfg.Port
		fileLogger.Info(fmt.Sprintf("Completed initialization application in %d ms.", time.Since(initAppStartTime).Milliseconds()))
		fileLogger.Info("Starting Fiber server...",
			zap.String("address", listenAddr),
			zap.Bool("prefork_enabled", appFiber.Config().Prefork),
			zap.Int("pid", os.Getpid()),
			zap.String("app_env", cfg.AppEnv),
		)
		if err := appFiber.Listen(listenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fileLogger.Error("Server listener failed", zap.String("address", listenAddr), zap.Error(err))
			cancelServerCtx()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	select {
	case s := <-sig:
		fileLogger.Info("Shutdown signal received.", zap.String("signal", s.String()))
	case <-serverCtx.Done():
		fileLogger.Info("Server context cancelled, initiating shutdown.")
	}

	fileLogger.Info("Initiating graceful shutdown...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), gracefulShutdownLimit)
	defer cancelShutdown()

	stopWorkers()
	if components.LogProcessor != nil {
		components.LogProcessor.Stop()
	}

	if err := appFiber.ShutdownWithContext(shutdownCtx); err != nil {
		fileLogger.Error("Fiber server shutdown failed", zap.Error(err))
	} else {
		fileLogger.Info("Fiber server gracefully stopped.")
	}
	<-serverStopped
	fileLogger.Info("HTTP listener goroutine stopped.")

	if errSync := fileLogger.Sync(); errSync != nil {
		errMsg := errSync.Error()
		// Syncing stdout commonly fails at exit on some platforms.
		if !strings.Contains(errMsg, "handle is invalid") && !strings.Contains(errMsg, "sync /dev/stdout") {
			fmt.Fprintf(os.Stderr, "[WARN] Error syncing file/console logger: %v\n", errSync)
		}
	}
	fmt.Println("[INFO] Application shutdown complete.")
}

// newErrorHandler maps errors that reach Fiber to a JSON body. The detail is only exposed outside production.
func newErrorHandler(cfg *config.Config) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		lg := middleware.GetRequestFileLogger(c)
		code := fiber.StatusInternalServerError
		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
		}
		fields := []zap.Field{
			zap.Int("status", code),
			zap.String("path", c.Path()),
			zap.String("method", c.Method()),
			zap.String("ip", c.IP()),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		}
		if code < fiber.StatusInternalServerError {
			lg.Warn("Request rejected", fields...)
		} else {
			lg.Error("Generic ErrorHandler", fields...)
		}

		resp := fiber.Map{"error": http.StatusText(code)}
		if code >= fiber.StatusInternalServerError {
			resp["error"] = "An unexpected error occurred"
		}
		if !cfg.IsProduction() {
			resp["detail"] = err.Error()
		}
		return c.Status(code).JSON(resp)
	}
}
