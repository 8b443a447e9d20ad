package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Amna-hassan22/BrewnBean/internal/domain"
	"github.com/Amna-hassan22/BrewnBean/internal/service"
)

// AuthMiddleware runs the full token validation chain (signature,
// expiry, account state, lockout, ledger, password-change stamp,
// session membership) and stashes the result in fiber.Locals.
func AuthMiddleware(authService *service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing authorization header",
			})
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid authorization header format",
			})
		}

		user, claims, err := authService.Authenticate(c.Context(), parts[1])
		if err != nil {
			return sendAuthError(c, err)
		}

		c.Locals("user", user)
		c.Locals("user_id", user.ID)
		c.Locals("token_id", claims.TokenID)
		c.Locals("claims", claims)

		return c.Next()
	}
}

// sendAuthError keeps the distinguishable cases of the validation chain
// distinguishable on the wire.
func sendAuthError(c *fiber.Ctx, err error) error {
	switch {
	case err == domain.ErrAccountInactive:
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case err == domain.ErrUserNotFound:
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
	}

	if lockErr, ok := err.(*domain.LockoutError); ok {
		return c.Status(fiber.StatusLocked).JSON(fiber.Map{
			"error":            lockErr.Error(),
			"retry_after_mins": lockErr.RemainingMinutes(),
		})
	}

	switch err {
	case domain.ErrTokenRevoked, domain.ErrPasswordChanged, domain.ErrSessionExpired:
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
}
