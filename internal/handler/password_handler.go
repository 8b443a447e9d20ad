package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Amna-hassan22/BrewnBean/internal/service"
	"github.com/Amna-hassan22/BrewnBean/pkg/validator"
)

// PasswordHandler serves the OTP reset flow and authenticated password
// changes.
type PasswordHandler struct {
	authService *service.AuthService
	validator   *validator.Validator
}

func NewPasswordHandler(authService *service.AuthService, validator *validator.Validator) *PasswordHandler {
	return &PasswordHandler{
		authService: authService,
		validator:   validator,
	}
}

// ForgotPassword issues an OTP to the account's email
// POST /api/v1/auth/forgot-password
func (h *PasswordHandler) ForgotPassword(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.validator.Validate(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := h.authService.ForgotPassword(c.Context(), req.Email); err != nil {
		return sendError(c, err)
	}

	// Same body whether or not the account exists.
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "If an account with that email exists, a verification code has been sent",
	})
}

// VerifyOTP exchanges a valid code for the reset token
// POST /api/v1/auth/verify-otp
func (h *PasswordHandler) VerifyOTP(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email" validate:"required,email"`
		OTP   string `json:"otp" validate:"required,len=6,numeric"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.validator.Validate(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	resetToken, err := h.authService.VerifyOTP(c.Context(), req.Email, req.OTP)
	if err != nil {
		return sendError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":     "Code verified",
		"reset_token": resetToken,
	})
}

// ResetPassword consumes the reset token and sets a new password
// POST /api/v1/auth/reset-password
func (h *PasswordHandler) ResetPassword(c *fiber.Ctx) error {
	var req struct {
		ResetToken  string `json:"reset_token" validate:"required,len=64"`
		NewPassword string `json:"new_password" validate:"required"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.validator.Validate(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := h.authService.ResetPassword(c.Context(), req.ResetToken, req.NewPassword); err != nil {
		return sendError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Password has been reset, please log in with your new password",
	})
}

// ChangePassword swaps the password for the authenticated user
// PUT /api/v1/auth/change-password
func (h *PasswordHandler) ChangePassword(c *fiber.Ctx) error {
	var req struct {
		CurrentPassword string `json:"current_password" validate:"required"`
		NewPassword     string `json:"new_password" validate:"required"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.validator.Validate(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	err := h.authService.ChangePassword(
		c.Context(),
		currentUserID(c), currentTokenID(c),
		req.CurrentPassword, req.NewPassword,
	)
	if err != nil {
		return sendError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Password changed, other devices have been signed out",
	})
}
