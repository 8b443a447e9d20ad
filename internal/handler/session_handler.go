package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Amna-hassan22/BrewnBean/internal/service"
)

// SessionHandler exposes the caller's active-session registry.
type SessionHandler struct {
	authService *service.AuthService
}

func NewSessionHandler(authService *service.AuthService) *SessionHandler {
	return &SessionHandler{authService: authService}
}

// List returns the caller's active sessions, oldest first
// GET /api/v1/auth/sessions
func (h *SessionHandler) List(c *fiber.Ctx) error {
	sessions, err := h.authService.Sessions(c.Context(), currentUserID(c))
	if err != nil {
		return sendError(c, err)
	}

	current := currentTokenID(c)
	items := make([]fiber.Map, 0, len(sessions))
	for _, session := range sessions {
		items = append(items, fiber.Map{
			"token_id":      session.TokenID,
			"device_info":   session.DeviceInfo,
			"ip_address":    session.IPAddress,
			"last_activity": session.LastActivity,
			"created_at":    session.CreatedAt,
			"current":       session.TokenID == current,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"sessions": items,
		"count":    len(items),
	})
}

// Revoke signs out one named session
// DELETE /api/v1/auth/sessions/:tokenId
func (h *SessionHandler) Revoke(c *fiber.Ctx) error {
	tokenID, err := uuid.Parse(c.Params("tokenId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid session id",
		})
	}

	if err := h.authService.RevokeSession(c.Context(), currentUserID(c), tokenID); err != nil {
		return sendError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Session revoked",
	})
}
