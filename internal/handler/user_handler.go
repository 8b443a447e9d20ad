package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Amna-hassan22/BrewnBean/internal/service"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetMe returns the authenticated user's profile
// GET /api/v1/auth/me
func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "not authenticated",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"user": user.ToProfile(),
	})
}

// ListUsers returns a page of user profiles
// GET /api/v1/admin/users
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	perPage := c.QueryInt("per_page", 20)
	search := c.Query("search")

	result, err := h.userService.ListUsers(c.Context(), page, perPage, search)
	if err != nil {
		return sendError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(result)
}
