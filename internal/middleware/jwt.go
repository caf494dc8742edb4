package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"vision-webapi/internal/services"
	"vision-webapi/internal/utils"
)

// SessionLookup resolves a session id carried in a token to a live session.
type SessionLookup interface {
	Get(id string) (services.Session, error)
}

// Protected returns a Fiber middleware that requires a valid JWT whose session is still open.
// On success the user id and session id are stored in Locals under UserIDKey and SessionIDKey.
func Protected(jwtSecret string, sessions SessionLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		logger := GetRequestFileLogger(c)

		authHeader := c.Get(AuthorizationHeader)
		if authHeader == "" {
			logger.Warn("Missing Authorization header")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization header",
			})
		}

		if !strings.HasPrefix(authHeader, BearerPrefix) {
			logger.Warn("Invalid Authorization header format")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization format (Bearer token required)",
			})
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, BearerPrefix))
		if tokenString == "" {
			logger.Warn("Empty token string after Bearer prefix")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing token",
			})
		}

		claims, err := utils.ValidateToken(tokenString, jwtSecret)
		if err != nil {
			logger.Warn("Invalid JWT token", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		sess, err := sessions.Get(claims.SessionID)
		if err != nil || sess.UserID != claims.UserID {
			logger.Info("Token refers to a closed session", zap.Int64("userID", claims.UserID), zap.String("sessionID", claims.SessionID))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Session expired or logged out",
			})
		}

		c.Locals(UserIDKey, claims.UserID)
		c.Locals(SessionIDKey, claims.SessionID)
		logger.Debug("JWT validated successfully", zap.Int64("userID", claims.UserID))

		return c.Next()
	}
}

// CurrentUserID returns the authenticated user id stored by Protected.
func CurrentUserID(c *fiber.Ctx) (int64, bool) {
	id, ok := c.Locals(UserIDKey).(int64)
	return id, ok && id > 0
}

// CurrentSessionID returns the session id stored by Protected.
func CurrentSessionID(c *fiber.Ctx) string {
	id, _ := c.Locals(SessionIDKey).(string)
	return id
}
