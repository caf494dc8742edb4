package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	mw "vision-webapi/internal/middleware"
	"vision-webapi/internal/services"
	"vision-webapi/internal/utils"
)

// AuthHandler handles registration, login and logout.
type AuthHandler struct {
	authService services.AuthService
	sessions    *services.SessionManager
	jwtSecret   string
	tokenTTL    time.Duration
}

// NewAuthHandler creates a new AuthHandler. Issued tokens expire after tokenTTL.
func NewAuthHandler(authService services.AuthService, sessions *services.SessionManager, jwtSecret string, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessions:    sessions,
		jwtSecret:   jwtSecret,
		tokenTTL:    tokenTTL,
	}
}

// LoginRequest defines the expected JSON body for login requests
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// RegisterRequest defines the expected body for registration requests (JSON or form)
type RegisterRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Register handles POST /auth/register requests
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	fileLogger := mw.GetRequestFileLogger(c)
	sqliteLogger := mw.GetRequestSQLiteLogger(c)

	if err := c.BodyParser(&req); err != nil {
		fileLogger.Warn("Failed to parse register request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	id, err := h.authService.Register(c.UserContext(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			fileLogger.Warn("Register request validation failed", zap.String("username", req.Username), zap.Error(err))
			return validationFailed(c, err)
		case errors.Is(err, services.ErrDuplicateUsername),
			errors.Is(err, services.ErrDuplicateEmail),
			errors.Is(err, services.ErrDuplicateCredential):
			fileLogger.Warn("Registration failed: duplicate credential", zap.String("username", req.Username), zap.Error(err))
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": err.Error(),
			})
		default:
			fileLogger.Error("Internal server error during registration", zap.String("username", req.Username), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Registration failed due to an internal error",
			})
		}
	}

	fileLogger.Info("Registration successful", zap.String("username", req.Username), zap.Int64("userID", id))
	sqliteLogger.Info("User registered", zap.Int64("userID", id), zap.String("ip", c.IP()))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"id":      id,
	})
}

// Login handles POST /auth/login requests
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	fileLogger := mw.GetRequestFileLogger(c)
	sqliteLogger := mw.GetRequestSQLiteLogger(c)

	if err := c.BodyParser(&req); err != nil {
		fileLogger.Warn("Failed to parse login request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	sess, err := h.sessions.Login(c.UserContext(), req.Username, req.Password, c.IP())
	if err != nil {
		var failure *services.AuthFailure
		if errors.As(err, &failure) {
			fileLogger.Warn("Login failed", zap.String("username", req.Username), zap.Error(err))
			sqliteLogger.Warn("Login failed", zap.String("username", req.Username), zap.String("ip", c.IP()))
			return c.Status(fiber.StatusUnauthorized).JSON(invalidLoginBody)
		}
		fileLogger.Error("Internal server error during login", zap.String("username", req.Username), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Login failed due to an internal error",
		})
	}

	token, err := utils.GenerateToken(sess.UserID, sess.ID, h.jwtSecret, h.tokenTTL)
	if err != nil {
		_ = h.sessions.Logout(sess.ID)
		fileLogger.Error("Failed to sign session token", zap.Int64("userID", sess.UserID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Login failed due to an internal error",
		})
	}

	fileLogger.Info("Login successful", zap.String("username", req.Username), zap.Int64("userID", sess.UserID))
	sqliteLogger.Info("Login succeeded", zap.Int64("userID", sess.UserID), zap.String("ip", c.IP()))
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
		"user_id": sess.UserID,
		"view":    sess.View,
	})
}

// Logout handles POST /auth/logout requests. The route must sit behind middleware.Protected.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	fileLogger := mw.GetRequestFileLogger(c)
	userID, _ := mw.CurrentUserID(c)

	if err := h.sessions.Logout(mw.CurrentSessionID(c)); err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return unauthorizedSession(c)
		}
		fileLogger.Error("Logout failed", zap.Int64("userID", userID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Logout failed"})
	}

	fileLogger.Info("Logout successful", zap.Int64("userID", userID))
	mw.GetRequestSQLiteLogger(c).Info("Logged out", zap.Int64("userID", userID))
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Logged out"})
}

// SetupAuthRoutes registers authentication routes. loginGuard throttles the login route;
// protected is applied to logout.
func (h *AuthHandler) SetupAuthRoutes(router fiber.Router, loginGuard, protected fiber.Handler) {
	authGroup := router.Group("/auth")
	authGroup.Post("/register", h.Register)
	authGroup.Post("/login", loginGuard, h.Login)
	authGroup.Post("/logout", protected, h.Logout)
}
