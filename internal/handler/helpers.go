package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Amna-hassan22/BrewnBean/internal/domain"
	"github.com/Amna-hassan22/BrewnBean/pkg/ratelimit"
	"github.com/Amna-hassan22/BrewnBean/pkg/token"
)

// Locals keys populated by the auth middleware.
func currentUser(c *fiber.Ctx) *domain.User {
	user, _ := c.Locals("user").(*domain.User)
	return user
}

func currentUserID(c *fiber.Ctx) uuid.UUID {
	id, _ := c.Locals("user_id").(uuid.UUID)
	return id
}

func currentTokenID(c *fiber.Ctx) uuid.UUID {
	id, _ := c.Locals("token_id").(uuid.UUID)
	return id
}

// sendError maps a service error onto the HTTP taxonomy. Unrecognized
// errors become an opaque 500.
func sendError(c *fiber.Ctx, err error) error {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": verr.Message})
	}

	var lockErr *domain.LockoutError
	if errors.As(err, &lockErr) {
		return c.Status(fiber.StatusLocked).JSON(fiber.Map{
			"error":            lockErr.Error(),
			"retry_after_mins": lockErr.RemainingMinutes(),
		})
	}

	switch {
	case errors.Is(err, domain.ErrOTPInvalid),
		errors.Is(err, domain.ErrResetTokenInvalid),
		errors.Is(err, domain.ErrSamePassword):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrTokenRevoked),
		errors.Is(err, domain.ErrPasswordChanged),
		errors.Is(err, domain.ErrSessionExpired),
		errors.Is(err, token.ErrInvalidToken),
		errors.Is(err, token.ErrInvalidSigningMethod),
		errors.Is(err, jwt.ErrTokenExpired),
		errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrSignatureInvalid):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, domain.ErrAccountInactive):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrSessionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrPhoneTaken):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, domain.ErrOTPTooManyAttempts),
		errors.Is(err, ratelimit.ErrLimited):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, domain.ErrDeliveryFailed):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal server error",
	})
}
