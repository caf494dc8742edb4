package routes

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"vision-webapi/internal/bootstrap"
	"vision-webapi/internal/config"
	mw "vision-webapi/internal/middleware"
)

// SetupRoutes configures the application routes.
func SetupRoutes(
	app *fiber.App,
	cfg *config.Config,
	logger *zap.Logger,
	components *bootstrap.AppComponents,
	sqliteDB *sql.DB, // for the health check
) {
	logger.Info("Setting up application routes...")

	app.Get("/health", func(c *fiber.Ctx) error {
		healthStatus := fiber.Map{
			"status":    "healthy",
			"timestamp": time.Now().UTC(),
			"sessions":  components.Sessions.Count(),
		}
		dbStatus := fiber.Map{}

		if sqliteDB != nil {
			pingCtx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
			defer cancel()
			if err := sqliteDB.PingContext(pingCtx); err == nil {
				dbStatus["sqlite"] = "connected"
			} else {
				dbStatus["sqlite"] = "disconnected"
				healthStatus["status"] = "degraded"
				mw.GetRequestFileLogger(c).Warn("Health check: SQLite ping failed", zap.Error(err))
			}
		} else {
			dbStatus["sqlite"] = "uninitialized"
			healthStatus["status"] = "degraded"
		}
		healthStatus["dependencies"] = dbStatus

		status := fiber.StatusOK
		if healthStatus["status"] != "healthy" {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(healthStatus)
	})

	api := app.Group("/api/v1")
	protect := mw.Protected(cfg.JWTSecret, components.Sessions)

	// Public auth routes are registered before the protected group so they match first.
	components.AuthHandler.SetupAuthRoutes(api, components.LoginLimiter.Handler(), protect)

	protected := api.Group("/", protect)
	components.ProfileHandler.SetupProfileRoutes(protected)
	components.UploadHandler.SetupUploadRoutes(protected)
	components.NavigationHandler.SetupNavigationRoutes(protected)
}
