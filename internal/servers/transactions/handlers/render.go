package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/suricat89/baas-core/internal/auth"
	"github.com/suricat89/baas-core/internal/models"
)

// callerFromRequest reads the identity the auth gateway injected. The
// gateway terminates the JWT; these headers are trusted inside the
// perimeter.
func callerFromRequest(c *fiber.Ctx) (auth.Identity, error) {
	userUUID := c.Get("X-User-Id")
	if userUUID == "" {
		return auth.Identity{}, fiber.ErrUnauthorized
	}

	profile := c.Get("X-User-Profile")
	if profile == "" {
		profile = auth.ProfileClient
	}

	return auth.Identity{UserUUID: userUUID, Profile: profile}, nil
}

func renderError(c *fiber.Ctx, err error) error {
	var domainErr *models.Error
	if !errors.As(err, &domainErr) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fiber.Map{"message": "unexpected error"},
		})
	}

	body := fiber.Map{"message": domainErr.Message}
	if len(domainErr.Fields) > 0 {
		body["fields"] = domainErr.Fields
	}

	return c.Status(statusFor(domainErr.Kind)).JSON(fiber.Map{"error": body})
}

func statusFor(kind models.ErrorKind) int {
	switch kind {
	case models.KindValidation:
		return fiber.StatusBadRequest
	case models.KindAuthorization:
		return fiber.StatusForbidden
	case models.KindNotFound:
		return fiber.StatusNotFound
	case models.KindInsufficientFunds, models.KindSameAccount:
		return fiber.StatusPreconditionFailed
	default:
		return fiber.StatusInternalServerError
	}
}
