package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"vision-webapi/internal/services"
)

// invalidLoginBody is sent for every failed login so unknown usernames and wrong passwords look alike.
var invalidLoginBody = fiber.Map{"error": services.ErrInvalidCredentials.Error()}

// validationFailed writes the 400 body used for both handler and service validation errors.
func validationFailed(c *fiber.Ctx, err error) error {
	var verr *services.ValidationError
	if !errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Validation failed"})
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":    "Validation failed",
		"details":  verr.Fields,
		"messages": verr.Messages(),
	})
}

func unauthorizedSession(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Session expired or logged out"})
}
