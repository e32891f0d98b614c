// Package middleware provides HTTP middleware components for the application.
// It includes authentication, authorization and request replay protection
// for the fiber web framework.
package middleware

import (
	"strings"

	"momo/internal/logger"
	"momo/internal/models"
	"momo/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthMiddleware validates the bearer token issued by the identity service
// and adds the user claims to the request context.
type AuthMiddleware struct {
	secret string
}

func NewAuthMiddleware(secret string) *AuthMiddleware {
	if secret == "" {
		panic("jwt secret is required")
	}
	return &AuthMiddleware{secret: secret}
}

// Handler checks for:
// - Presence of Authorization header with Bearer token
// - Valid HMAC signature and expiry
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return utils.Unauthorized(c, "missing authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return utils.Unauthorized(c, "invalid authorization format")
	}

	claims, err := utils.ParseToken(m.secret, strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		logger.Log.Debug("token rejected", zap.String("path", c.Path()), zap.Error(err))
		return utils.Unauthorized(c, "invalid token")
	}

	c.Locals("claims", claims)
	c.Locals("userID", claims.UserID)
	return c.Next()
}

// AdminAuthMiddleware verifies that the request has valid admin claims.
var AdminAuthMiddleware = RequireRole(models.RoleAdmin)

// RequireRole admits only requests whose claims carry one of roles.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals("claims").(*models.UserClaims)
		if !ok || claims == nil {
			return utils.Unauthorized(c, "invalid claims")
		}

		for _, role := range roles {
			if claims.Role == role {
				return c.Next()
			}
		}
		logger.Log.Warn("access denied",
			zap.Uint("user_id", claims.UserID),
			zap.String("role", claims.Role),
			zap.String("path", c.Path()))
		return utils.Forbidden(c, "insufficient permissions")
	}
}
