package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"vision-webapi/internal/logging"
)

// RequestLoggers injects request-scoped file and SQLite loggers into c.Locals().
// Both carry a "request_id" field, which is also stored in Locals and echoed in the response header.
func RequestLoggers(baseFileLogger, baseSQLiteLogger *zap.Logger) fiber.Handler {
	if baseFileLogger == nil {
		baseFileLogger = zap.NewNop()
	}
	if baseSQLiteLogger == nil {
		baseSQLiteLogger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		// Reuse a valid inbound id.
		requestID := strings.Clone(c.Get(RequestIDHeader))
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDHeader, requestID)
		c.Locals(RequestIDKey, requestID)

		reqFileLogger := baseFileLogger.With(
			zap.String("request_id", requestID),
		)
		c.Locals(RequestFileLoggerKey, reqFileLogger)

		reqSQLiteLogger := baseSQLiteLogger.With(
			zap.String("request_id", requestID),
		)
		c.Locals(RequestSQLiteLoggerKey, reqSQLiteLogger)

		return c.Next()
	}
}

// GetRequestFileLogger retrieves the request-scoped file/console logger from fiber.Ctx.Locals.
// Falls back to the global file logger if not found.
func GetRequestFileLogger(c *fiber.Ctx) *zap.Logger {
	if logger, ok := c.Locals(RequestFileLoggerKey).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return logging.GetFileLogger()
}

// GetRequestSQLiteLogger retrieves the request-scoped SQLite logger from fiber.Ctx.Locals.
// Falls back to the global SQLite logger (which might be Nop).
func GetRequestSQLiteLogger(c *fiber.Ctx) *zap.Logger {
	if logger, ok := c.Locals(RequestSQLiteLoggerKey).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return logging.GetSQLiteLogger()
}

// GetRequestID retrieves the request ID string from fiber.Ctx.Locals.
// Returns an empty string if not found.
func GetRequestID(c *fiber.Ctx) string {
	if reqID, ok := c.Locals(RequestIDKey).(string); ok {
		return reqID
	}
	return ""
}
