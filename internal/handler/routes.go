package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Amna-hassan22/BrewnBean/internal/config"
	"github.com/Amna-hassan22/BrewnBean/internal/handler/middleware"
	"github.com/Amna-hassan22/BrewnBean/pkg/ratelimit"
)

func SetupRoutes(
	app *fiber.App,
	cfg *config.Config,
	limiter *ratelimit.Limiter,
	authHandler *AuthHandler,
	passwordHandler *PasswordHandler,
	sessionHandler *SessionHandler,
	userHandler *UserHandler,
	healthHandler *HealthHandler,
	authMiddleware fiber.Handler,
) {
	// Health checks (public)
	app.Get("/health", healthHandler.Health)
	app.Get("/ready", healthHandler.Ready)

	// Per-group fixed-window budgets, keyed by client IP.
	passthrough := func(c *fiber.Ctx) error { return c.Next() }
	authLimit, loginLimit, otpLimit, resetLimit := passthrough, passthrough, passthrough, passthrough
	if cfg.RateLimit.Enabled {
		authLimit = middleware.RateLimit(limiter, "auth", cfg.RateLimit.AuthMax, cfg.RateLimit.AuthWindow)
		loginLimit = middleware.RateLimit(limiter, "login", cfg.RateLimit.LoginMax, cfg.RateLimit.LoginWindow)
		otpLimit = middleware.RateLimit(limiter, "otp", cfg.RateLimit.OTPMax, cfg.RateLimit.OTPWindow)
		resetLimit = middleware.RateLimit(limiter, "reset", cfg.RateLimit.ResetMax, cfg.RateLimit.ResetWindow)
	}

	// API v1
	api := app.Group("/api/v1")
	auth := api.Group("/auth")

	// Public auth routes
	auth.Post("/register", authLimit, authHandler.Register)
	auth.Post("/login", loginLimit, authHandler.Login)
	auth.Post("/forgot-password", authLimit, passwordHandler.ForgotPassword)
	auth.Post("/verify-otp", otpLimit, passwordHandler.VerifyOTP)
	auth.Post("/reset-password", resetLimit, passwordHandler.ResetPassword)

	// Protected auth routes
	auth.Put("/change-password", authMiddleware, passwordHandler.ChangePassword)
	auth.Post("/logout", authMiddleware, authHandler.Logout)
	auth.Post("/logout-all", authMiddleware, authHandler.LogoutAll)
	auth.Get("/me", authMiddleware, userHandler.GetMe)
	auth.Get("/sessions", authMiddleware, sessionHandler.List)
	auth.Delete("/sessions/:tokenId", authMiddleware, sessionHandler.Revoke)

	// Admin routes
	admin := api.Group("/admin", authMiddleware, middleware.RequireAdmin())
	admin.Get("/users", userHandler.ListUsers)
}
