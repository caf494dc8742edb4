package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	mw "vision-webapi/internal/middleware"
	"vision-webapi/internal/navigation"
	"vision-webapi/internal/pkg/validation"
	"vision-webapi/internal/services"
)

// NavigationHandler exposes the session's current view and view transitions.
type NavigationHandler struct {
	sessions *services.SessionManager
}

// NewNavigationHandler creates a new NavigationHandler
func NewNavigationHandler(sessions *services.SessionManager) *NavigationHandler {
	return &NavigationHandler{sessions: sessions}
}

// NavigateRequest is the body of POST /session/view.
type NavigateRequest struct {
	Trigger string `json:"trigger" validate:"required"`
}

// CurrentView handles GET /session/view.
func (h *NavigationHandler) CurrentView(c *fiber.Ctx) error {
	sess, err := h.sessions.Get(mw.CurrentSessionID(c))
	if err != nil {
		return unauthorizedSession(c)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"view":          sess.View,
		"authenticated": sess.Authenticated,
		"expires_at":    sess.ExpiresAt,
	})
}

// Navigate handles POST /session/view.
func (h *NavigationHandler) Navigate(c *fiber.Ctx) error {
	logger := mw.GetRequestFileLogger(c)

	var req NavigateRequest
	if !validation.ParseAndValidate(c, &req) {
		return nil
	}
	trigger, err := navigation.ParseClientTrigger(req.Trigger)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	view, err := h.sessions.Navigate(mw.CurrentSessionID(c), trigger)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSessionNotFound):
			return unauthorizedSession(c)
		case errors.Is(err, navigation.ErrInvalidTransition):
			logger.Debug("Rejected view transition", zap.String("trigger", req.Trigger), zap.Error(err))
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error(), "view": view})
		default:
			logger.Error("Navigation failed", zap.String("trigger", req.Trigger), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Navigation failed"})
		}
	}

	authenticated := trigger != navigation.Logout
	if trigger == navigation.Logout {
		userID, _ := mw.CurrentUserID(c)
		mw.GetRequestSQLiteLogger(c).Info("Logged out", zap.Int64("userID", userID))
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"view": view, "authenticated": authenticated})
}

// SetupNavigationRoutes registers session view routes on a router already guarded by middleware.Protected.
func (h *NavigationHandler) SetupNavigationRoutes(router fiber.Router) {
	router.Get("/session/view", h.CurrentView)
	router.Post("/session/view", h.Navigate)
}
