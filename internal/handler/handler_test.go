package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Amna-hassan22/BrewnBean/internal/config"
	"github.com/Amna-hassan22/BrewnBean/internal/domain"
	"github.com/Amna-hassan22/BrewnBean/internal/handler/middleware"
	"github.com/Amna-hassan22/BrewnBean/internal/service"
	"github.com/Amna-hassan22/BrewnBean/pkg/blacklist"
	"github.com/Amna-hassan22/BrewnBean/pkg/email"
	"github.com/Amna-hassan22/BrewnBean/pkg/ratelimit"
	"github.com/Amna-hassan22/BrewnBean/pkg/token"
	"github.com/Amna-hassan22/BrewnBean/pkg/validator"
)

// In-memory repositories backing the full HTTP stack under app.Test.

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return domain.ErrEmailTaken
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) GetByEmail(_ context.Context, emailAddr string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == strings.ToLower(emailAddr) {
			return user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) List(_ context.Context, limit, offset int, _ string) ([]*domain.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*domain.User
	for _, user := range r.users {
		all = append(all, user)
	}
	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *memUserRepo) IncrementLoginAttempts(_ context.Context, id uuid.UUID, maxAttempts int, lockFor time.Duration) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	user.LoginAttempts++
	if user.LoginAttempts >= maxAttempts {
		until := time.Now().Add(lockFor)
		user.LockUntil = &until
	}
	return user.LoginAttempts, nil
}

func (r *memUserRepo) RecordLogin(_ context.Context, id uuid.UUID, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		user.LoginAttempts = 0
		user.LockUntil = nil
	}
	return nil
}

func (r *memUserRepo) SetOTP(_ context.Context, id uuid.UUID, otpHash string, otpExpires time.Time, resetToken string, resetExpires time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		user.OTPHash = &otpHash
		user.OTPExpiresAt = &otpExpires
		user.OTPVerified = false
		user.OTPAttempts = 0
		user.ResetPasswordToken = &resetToken
		user.ResetPasswordExpiresAt = &resetExpires
	}
	return nil
}

func (r *memUserRepo) ClearOTP(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		user.OTPHash = nil
		user.OTPExpiresAt = nil
		user.OTPVerified = false
		user.OTPAttempts = 0
		user.ResetPasswordToken = nil
		user.ResetPasswordExpiresAt = nil
	}
	return nil
}

func (r *memUserRepo) IncrementOTPAttempts(_ context.Context, id uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok || user.OTPHash == nil {
		return 0, nil
	}
	user.OTPAttempts++
	return user.OTPAttempts, nil
}

func (r *memUserRepo) MarkOTPVerified(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok || user.OTPHash == nil || user.OTPExpiresAt == nil || !user.OTPExpiresAt.After(time.Now()) {
		return false, nil
	}
	user.OTPVerified = true
	return true, nil
}

func (r *memUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.PasswordHash = hash
	return nil
}

func (r *memUserRepo) ConsumeResetToken(_ context.Context, resetToken, hash string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.ResetPasswordToken != nil && *user.ResetPasswordToken == resetToken &&
			user.ResetPasswordExpiresAt != nil && user.ResetPasswordExpiresAt.After(time.Now()) &&
			user.OTPVerified {
			now := time.Now()
			user.PasswordHash = hash
			user.PasswordChangedAt = &now
			user.OTPHash = nil
			user.OTPVerified = false
			user.ResetPasswordToken = nil
			return &domain.User{ID: user.ID, Name: user.Name, Email: user.Email}, nil
		}
	}
	return nil, domain.ErrResetTokenInvalid
}

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID][]*domain.Session
}

func (r *memSessionRepo) Register(_ context.Context, session *domain.Session, maxActive int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := append(r.sessions[session.UserID], session)
	for len(list) > maxActive {
		list = list[1:]
	}
	r.sessions[session.UserID] = list
	return nil
}

func (r *memSessionRepo) GetByUserID(_ context.Context, userID uuid.UUID) ([]*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.sessions[userID]
	out := make([]*domain.Session, len(list))
	copy(out, list)
	return out, nil
}

func (r *memSessionRepo) GetByTokenID(_ context.Context, userID, tokenID uuid.UUID) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.sessions[userID] {
		if session.TokenID == tokenID {
			return session, nil
		}
	}
	return nil, domain.ErrSessionExpired
}

func (r *memSessionRepo) TouchActivity(_ context.Context, userID, tokenID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.sessions[userID] {
		if session.TokenID == tokenID {
			session.LastActivity = time.Now()
			return true, nil
		}
	}
	return false, nil
}

func (r *memSessionRepo) DeleteByTokenID(_ context.Context, userID, tokenID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.sessions[userID]
	for i, session := range list {
		if session.TokenID == tokenID {
			r.sessions[userID] = append(list[:i], list[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *memSessionRepo) DeleteByUserID(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
	return nil
}

func (r *memSessionRepo) DeleteByUserIDExcept(_ context.Context, userID, keepTokenID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []*domain.Session
	for _, session := range r.sessions[userID] {
		if session.TokenID == keepTokenID {
			kept = append(kept, session)
		}
	}
	r.sessions[userID] = kept
	return nil
}

func (r *memSessionRepo) DeleteIdleSince(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type appEnv struct {
	app   *fiber.App
	users *memUserRepo
}

func newTestApp(t *testing.T, cfg *config.Config) *appEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	tokens, err := token.NewService(
		[]byte("handler-test-secret-0123456789"),
		"brewnbean-api", "brewnbean-client",
		time.Hour, 4*time.Hour,
	)
	require.NoError(t, err)

	users := &memUserRepo{users: make(map[uuid.UUID]*domain.User)}
	sessions := &memSessionRepo{sessions: make(map[uuid.UUID][]*domain.Session)}
	ledger := blacklist.NewLedger(client, tokens.MaxLifetime())
	limiter := ratelimit.New(client)

	authService := service.NewAuthService(users, sessions, tokens, ledger, email.NewLogMailer(), cfg)
	userService := service.NewUserService(users)
	validate := validator.NewValidator()

	app := fiber.New()
	SetupRoutes(
		app,
		cfg,
		limiter,
		NewAuthHandler(authService, validate),
		NewPasswordHandler(authService, validate),
		NewSessionHandler(authService),
		NewUserHandler(userService),
		NewHealthHandler(nil, client),
		middleware.AuthMiddleware(authService),
	)

	return &appEnv{app: app, users: users}
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Environment: "test"},
		Auth: config.AuthConfig{
			MaxLoginAttempts:  5,
			LockDuration:      30 * time.Minute,
			OTPExpiry:         10 * time.Minute,
			OTPMaxAttempts:    3,
			ResetTokenExpiry:  time.Hour,
			MaxActiveSessions: 5,
		},
	}
}

func doJSON(t *testing.T, app *fiber.App, method, path, bearer string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()

	var parsed map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &parsed), "body: %s", raw)
	}
	return resp, parsed
}

func registerUser(t *testing.T, app *fiber.App, emailAddr string) string {
	t.Helper()
	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", fiber.Map{
		"name":     "Test User",
		"email":    emailAddr,
		"password": "Str0ng!pass",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	tok, _ := body["token"].(string)
	require.NotEmpty(t, tok)
	return tok
}

func TestRegisterEndpoint(t *testing.T) {
	env := newTestApp(t, testConfig())

	registerUser(t, env.app, "alice@example.com")

	// Duplicate email conflicts.
	resp, _ := doJSON(t, env.app, http.MethodPost, "/api/v1/auth/register", "", fiber.Map{
		"name":     "Imposter",
		"email":    "alice@example.com",
		"password": "Other1!pass",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Weak password is rejected up front.
	resp, body := doJSON(t, env.app, http.MethodPost, "/api/v1/auth/register", "", fiber.Map{
		"name":     "Bob",
		"email":    "bob@example.com",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, body["error"])

	// Malformed DTO is rejected by validation.
	resp, _ = doJSON(t, env.app, http.MethodPost, "/api/v1/auth/register", "", fiber.Map{
		"name":  "C",
		"email": "not-an-email",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoginEndpoint(t *testing.T) {
	env := newTestApp(t, testConfig())
	registerUser(t, env.app, "alice@example.com")

	resp, body := doJSON(t, env.app, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"email":    "alice@example.com",
		"password": "Str0ng!pass",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["token"])

	resp, _ = doJSON(t, env.app, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"email":    "alice@example.com",
		"password": "wrong1!Pass",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginLockoutEndpoint(t *testing.T) {
	env := newTestApp(t, testConfig())
	registerUser(t, env.app, "alice@example.com")

	for i := 0; i < 5; i++ {
		doJSON(t, env.app, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{
			"email":    "alice@example.com",
			"password": "wrong1!Pass",
		})
	}

	// Even the right password bounces off the lock.
	resp, body := doJSON(t, env.app, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"email":    "alice@example.com",
		"password": "Str0ng!pass",
	})
	assert.Equal(t, http.StatusLocked, resp.StatusCode)
	assert.NotNil(t, body["retry_after_mins"])
}

func TestMeEndpoint(t *testing.T) {
	env := newTestApp(t, testConfig())
	tok := registerUser(t, env.app, "alice@example.com")

	resp, _ := doJSON(t, env.app, http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := doJSON(t, env.app, http.MethodGet, "/api/v1/auth/me", tok, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alice@example.com", user["email"])
	// Security state never leaks.
	assert.NotContains(t, user, "password_hash")
	assert.NotContains(t, user, "otp_hash")
}

func TestChangePasswordEndpoint(t *testing.T) {
	env := newTestApp(t, testConfig())
	tok := registerUser(t, env.app, "alice@example.com")

	resp, _ := doJSON(t, env.app, http.MethodPut, "/api/v1/auth/change-password", tok, fiber.Map{
		"current_password": "Str0ng!pass",
		"new_password":     "N3w!password",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The caller's token is still good after the change.
	resp, _ = doJSON(t, env.app, http.MethodGet, "/api/v1/auth/me", tok, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, env.app, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"email":    "alice@example.com",
		"password": "N3w!password",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogoutEndpoint(t *testing.T) {
	env := newTestApp(t, testConfig())
	tok := registerUser(t, env.app, "alice@example.com")

	resp, _ := doJSON(t, env.app, http.MethodPost, "/api/v1/auth/logout", tok, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, env.app, http.MethodGet, "/api/v1/auth/me", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSessionsEndpoint(t *testing.T) {
	env := newTestApp(t, testConfig())
	tok := registerUser(t, env.app, "alice@example.com")

	doJSON(t, env.app, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"email":    "alice@example.com",
		"password": "Str0ng!pass",
	})

	resp, body := doJSON(t, env.app, http.MethodGet, "/api/v1/auth/sessions", tok, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["count"])

	sessions, ok := body["sessions"].([]any)
	require.True(t, ok)
	first, ok := sessions[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, first["current"])
}

func TestAdminGuard(t *testing.T) {
	env := newTestApp(t, testConfig())
	tok := registerUser(t, env.app, "alice@example.com")

	// Customers are turned away.
	resp, _ := doJSON(t, env.app, http.MethodGet, "/api/v1/admin/users", tok, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Promote and retry.
	env.users.mu.Lock()
	for _, user := range env.users.users {
		user.Role = domain.RoleAdmin
	}
	env.users.mu.Unlock()

	resp, body := doJSON(t, env.app, http.MethodGet, "/api/v1/admin/users", tok, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["total"])
}

func TestLoginRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{
		Enabled:     true,
		AuthMax:     100,
		AuthWindow:  15 * time.Minute,
		LoginMax:    3,
		LoginWindow: 15 * time.Minute,
		OTPMax:      100,
		OTPWindow:   time.Minute,
		ResetMax:    100,
		ResetWindow: time.Hour,
	}
	env := newTestApp(t, cfg)
	registerUser(t, env.app, "alice@example.com")

	var last *http.Response
	for i := 0; i < 4; i++ {
		last, _ = doJSON(t, env.app, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{
			"email":    "alice@example.com",
			"password": fmt.Sprintf("wrong%d!Pass", i),
		})
	}
	assert.Equal(t, http.StatusTooManyRequests, last.StatusCode)
	assert.NotEmpty(t, last.Header.Get("Retry-After"))
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestApp(t, testConfig())

	resp, body := doJSON(t, env.app, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}
