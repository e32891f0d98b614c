package handlers

import (
	"momo/internal/models"
	"momo/internal/utils/validation"

	"github.com/gofiber/fiber/v2"
)

// extractUserClaims is a helper function to reduce duplication
func extractUserClaims(c *fiber.Ctx) (*models.UserClaims, error) {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok || claims == nil {
		return nil, fiber.ErrUnauthorized
	}
	return claims, nil
}

// parseBody decodes the JSON body into dst and runs the struct validation tags.
func parseBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return validation.ErrInvalidRequest.WithMessage("invalid request format")
	}
	return validation.Struct(dst)
}

// pathID reads a positive numeric path parameter.
func pathID(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, validation.ErrInvalidRequest.WithMessage("invalid %s", name)
	}
	return uint(id), nil
}
