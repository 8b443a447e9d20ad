package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/Amna-hassan22/BrewnBean/internal/config"
	"github.com/Amna-hassan22/BrewnBean/internal/handler"
	"github.com/Amna-hassan22/BrewnBean/internal/handler/middleware"
	"github.com/Amna-hassan22/BrewnBean/internal/repository/postgres"
	"github.com/Amna-hassan22/BrewnBean/internal/service"
	"github.com/Amna-hassan22/BrewnBean/pkg/blacklist"
	"github.com/Amna-hassan22/BrewnBean/pkg/email"
	"github.com/Amna-hassan22/BrewnBean/pkg/ratelimit"
	"github.com/Amna-hassan22/BrewnBean/pkg/token"
	"github.com/Amna-hassan22/BrewnBean/pkg/validator"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database connection
	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
		}
	}()
	log.Println("✓ Database connection established")

	// Initialize Redis client
	redisClient, err := initRedis(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Printf("Error closing Redis connection: %v", err)
		}
	}()
	log.Println("✓ Redis connection established")

	// Initialize validator
	validate := validator.NewValidator()

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)

	// Initialize token service
	tokens, err := token.NewService(
		[]byte(cfg.JWT.Secret),
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.TokenExpiry,
		cfg.JWT.RememberMeExpiry,
	)
	if err != nil {
		log.Fatalf("Failed to initialize token service: %v", err)
	}

	// Invalidated-token ledger and rate limiter share the Redis client
	ledger := blacklist.NewLedger(redisClient, tokens.MaxLifetime())
	limiter := ratelimit.New(redisClient)
	log.Println("✓ Token ledger initialized")

	// Initialize email delivery
	var mailer email.Mailer
	if cfg.Email.Enabled {
		emailCfg := &email.Config{
			ServiceURL: cfg.Email.ServiceURL,
			Timeout:    cfg.Email.Timeout,
			APIKey:     cfg.Email.APIKey,
			FromEmail:  cfg.Email.FromEmail,
			FromName:   cfg.Email.FromName,
		}

		switch cfg.Email.Provider {
		case "resend":
			mailer, err = email.NewResendMailer(emailCfg)
		default:
			mailer, err = email.NewRelayMailer(emailCfg)
		}
		if err != nil {
			log.Printf("Warning: Failed to initialize email provider %q: %v", cfg.Email.Provider, err)
			log.Println("Falling back to log-only email delivery")
			mailer = email.NewLogMailer()
		} else {
			log.Printf("✓ Email delivery initialized (%s)", cfg.Email.Provider)
		}
	} else {
		log.Println("ℹ Email delivery disabled, codes are logged (set EMAIL_ENABLED=true to enable)")
		mailer = email.NewLogMailer()
	}

	// Initialize services
	authService := service.NewAuthService(userRepo, sessionRepo, tokens, ledger, mailer, cfg)
	userService := service.NewUserService(userRepo)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, validate)
	passwordHandler := handler.NewPasswordHandler(authService, validate)
	sessionHandler := handler.NewSessionHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "BrewnBean Auth v1.0",
		ErrorHandler: customErrorHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})

	// Setup global middlewares
	app.Use(middleware.RecoveryMiddleware())
	app.Use(middleware.LoggerMiddleware())
	app.Use(middleware.CORSMiddleware())

	// Setup routes
	authMiddleware := middleware.AuthMiddleware(authService)
	handler.SetupRoutes(
		app,
		cfg,
		limiter,
		authHandler,
		passwordHandler,
		sessionHandler,
		userHandler,
		healthHandler,
		authMiddleware,
	)

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Periodically drop registry entries whose tokens expired long ago
	go pruneLoop(ctx, authService)

	// Start server in goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		log.Printf("🚀 Server starting on http://localhost%s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		if err := app.Listen(addr); err != nil {
			log.Printf("❌ Server failed to start: %v", err)
			stop()
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()
	log.Println("⏳ Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✓ Server stopped")
}

// pruneLoop runs the idle-session sweep once an hour until shutdown.
func pruneLoop(ctx context.Context, authService *service.AuthService) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			authService.PruneIdleSessions(ctx)
		}
	}
}

// initDB initializes PostgreSQL database connection with retry logic
func initDB(cfg *config.Config) (*sqlx.DB, error) {
	dsn := cfg.Database.DSN()

	var db *sqlx.DB
	var err error

	maxRetries := 5
	retryInterval := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sqlx.Connect("postgres", dsn)
		if err == nil {
			break
		}

		log.Printf("Failed to connect to database (attempt %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			time.Sleep(retryInterval)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Printf("Error closing database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// initRedis initializes Redis client and verifies connection
func initRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			log.Printf("Error closing Redis after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}

// customErrorHandler handles Fiber errors
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	log.Printf("Error handling request [%s %s]: %v", c.Method(), c.Path(), err)

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
