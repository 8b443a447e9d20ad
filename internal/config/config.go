package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Email     EmailConfig
}

type ServerConfig struct {
	Port         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret           string
	Issuer           string
	Audience         string
	TokenExpiry      time.Duration
	RememberMeExpiry time.Duration
}

type AuthConfig struct {
	MaxLoginAttempts  int
	LockDuration      time.Duration
	OTPExpiry         time.Duration
	OTPMaxAttempts    int
	ResetTokenExpiry  time.Duration
	MaxActiveSessions int
}

// RateLimitConfig holds fixed-window budgets per endpoint group.
type RateLimitConfig struct {
	Enabled     bool
	AuthMax     int
	AuthWindow  time.Duration
	LoginMax    int
	LoginWindow time.Duration
	OTPMax      int
	OTPWindow   time.Duration
	ResetMax    int
	ResetWindow time.Duration
}

type EmailConfig struct {
	Enabled    bool
	Provider   string // relay or resend
	ServiceURL string
	Timeout    time.Duration
	APIKey     string
	FromEmail  string
	FromName   string
}

func Load() (*Config, error) {
	// .env is optional outside development
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "brewnbean"),
			Password: getEnv("DB_PASSWORD", "brewnbean"),
			DBName:   getEnv("DB_NAME", "brewnbean"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:           getEnv("JWT_SECRET", ""),
			Issuer:           getEnv("JWT_ISSUER", "brewnbean-api"),
			Audience:         getEnv("JWT_AUDIENCE", "brewnbean-client"),
			TokenExpiry:      getDurationEnv("JWT_EXPIRY", 7*24*time.Hour),
			RememberMeExpiry: getDurationEnv("JWT_REMEMBER_ME_EXPIRY", 30*24*time.Hour),
		},
		Auth: AuthConfig{
			MaxLoginAttempts:  getIntEnv("AUTH_MAX_LOGIN_ATTEMPTS", 5),
			LockDuration:      getDurationEnv("AUTH_LOCK_DURATION", 30*time.Minute),
			OTPExpiry:         getDurationEnv("AUTH_OTP_EXPIRY", 10*time.Minute),
			OTPMaxAttempts:    getIntEnv("AUTH_OTP_MAX_ATTEMPTS", 3),
			ResetTokenExpiry:  getDurationEnv("AUTH_RESET_TOKEN_EXPIRY", time.Hour),
			MaxActiveSessions: getIntEnv("AUTH_MAX_ACTIVE_SESSIONS", 5),
		},
		RateLimit: RateLimitConfig{
			Enabled:     getBoolEnv("RATE_LIMIT_ENABLED", true),
			AuthMax:     getIntEnv("RATE_LIMIT_AUTH_MAX", 5),
			AuthWindow:  getDurationEnv("RATE_LIMIT_AUTH_WINDOW", 15*time.Minute),
			LoginMax:    getIntEnv("RATE_LIMIT_LOGIN_MAX", 8),
			LoginWindow: getDurationEnv("RATE_LIMIT_LOGIN_WINDOW", 15*time.Minute),
			OTPMax:      getIntEnv("RATE_LIMIT_OTP_MAX", 2),
			OTPWindow:   getDurationEnv("RATE_LIMIT_OTP_WINDOW", time.Minute),
			ResetMax:    getIntEnv("RATE_LIMIT_RESET_MAX", 3),
			ResetWindow: getDurationEnv("RATE_LIMIT_RESET_WINDOW", time.Hour),
		},
		Email: EmailConfig{
			Enabled:    getBoolEnv("EMAIL_ENABLED", false),
			Provider:   getEnv("EMAIL_PROVIDER", "relay"),
			ServiceURL: getEnv("EMAIL_SERVICE_URL", ""),
			Timeout:    getDurationEnv("EMAIL_TIMEOUT", 10*time.Second),
			APIKey:     getEnv("RESEND_API_KEY", ""),
			FromEmail:  getEnv("EMAIL_FROM", ""),
			FromName:   getEnv("EMAIL_FROM_NAME", "BrewnBean"),
		},
	}

	if cfg.JWT.Secret == "" && cfg.Server.Environment != "development" {
		return nil, fmt.Errorf("JWT_SECRET is required outside development")
	}
	if cfg.JWT.Secret == "" {
		cfg.JWT.Secret = "brewnbean-dev-secret-do-not-use-in-production"
	}

	return cfg, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
