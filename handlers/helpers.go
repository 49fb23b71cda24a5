// handlers/helpers.go
package handlers

import (
	"errors"
	"strconv"

	"eco-track-service/models"
	"eco-track-service/services"

	"github.com/gofiber/fiber/v2"
)

// currentAccount resolves the Gateway-forwarded external user id to the
// local ledger account, creating a stub row on first contact (the profile
// sync worker fills in the snapshot columns later).
func currentAccount(c *fiber.Ctx, activities *services.ActivityService) (*models.UserAccount, error) {
	externalID, _ := c.Locals("external_user_id").(string)
	if externalID == "" {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}
	acc, err := activities.EnsureAccount(c.Context(), externalID)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "failed to resolve user account")
	}
	return acc, nil
}

// optionalAccount is currentAccount for public routes: nil when anonymous.
func optionalAccount(c *fiber.Ctx, activities *services.ActivityService) *models.UserAccount {
	externalID, _ := c.Locals("external_user_id").(string)
	if externalID == "" {
		return nil
	}
	acc, err := activities.EnsureAccount(c.Context(), externalID)
	if err != nil {
		return nil
	}
	return acc
}

// serviceError translates ledger error kinds into HTTP responses.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case services.IsValidation(err):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrAlreadyJoined):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInactiveChallenge):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrConcurrencyTimeout):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrUploadsNotConfigured):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}

// idParam parses a positive uint route parameter.
func idParam(c *fiber.Ctx, name string) (uint, bool) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
