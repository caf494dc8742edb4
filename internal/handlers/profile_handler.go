package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"vision-webapi/internal/middleware"
	"vision-webapi/internal/services"
)

// ProfileHandler handles profile related HTTP requests
type ProfileHandler struct {
	profileService services.ProfileService
	auditor        services.LoginAuditor
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(profileService services.ProfileService, auditor services.LoginAuditor) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		auditor:        auditor,
	}
}

// GetProfile handles GET /profile requests
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	logger := middleware.GetRequestFileLogger(c)
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		logger.Error("User ID not found in locals after JWT validation", zap.Any("value", c.Locals(middleware.UserIDKey)))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized: User ID missing from token context",
		})
	}

	profile, err := h.profileService.GetProfile(c.UserContext(), userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			logger.Warn("Profile requested for a user that no longer exists", zap.Int64("userID", userID))
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		default:
			logger.Error("Failed to get profile", zap.Int64("userID", userID), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve profile"})
		}
	}

	// PasswordHash is excluded by its json tag.
	return c.Status(fiber.StatusOK).JSON(profile)
}

// GetLoginHistory handles GET /profile/logins requests
func (h *ProfileHandler) GetLoginHistory(c *fiber.Ctx) error {
	logger := middleware.GetRequestFileLogger(c)
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return unauthorizedSession(c)
	}

	attempts, err := h.auditor.History(c.UserContext(), userID)
	if err != nil {
		logger.Error("Failed to load login history", zap.Int64("userID", userID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve login history"})
	}
	return c.Status(fiber.StatusOK).JSON(attempts)
}

// SetupProfileRoutes registers profile routes on a router already guarded by middleware.Protected.
func (h *ProfileHandler) SetupProfileRoutes(router fiber.Router) {
	router.Get("/profile", h.GetProfile)
	router.Get("/profile/logins", h.GetLoginHistory)
}
