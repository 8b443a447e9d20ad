package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Amna-hassan22/BrewnBean/internal/domain"
)

// RequireRole verifies that the authenticated user holds one of the
// given roles. Must run after AuthMiddleware.
func RequireRole(roles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := c.Locals("user").(*domain.User)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		for _, role := range roles {
			if user.Role == role {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":          "Forbidden: insufficient permissions",
			"required_roles": roles,
		})
	}
}

// RequireAdmin is a convenience middleware for requiring admin role
func RequireAdmin() fiber.Handler {
	return RequireRole(domain.RoleAdmin)
}
