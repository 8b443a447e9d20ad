package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Amna-hassan22/BrewnBean/internal/config"
	"github.com/Amna-hassan22/BrewnBean/internal/domain"
	"github.com/Amna-hassan22/BrewnBean/internal/repository"
	"github.com/Amna-hassan22/BrewnBean/pkg/blacklist"
	"github.com/Amna-hassan22/BrewnBean/pkg/email"
	"github.com/Amna-hassan22/BrewnBean/pkg/password"
	"github.com/Amna-hassan22/BrewnBean/pkg/token"
)

// AuthService orchestrates registration, login with lockout, the
// OTP-based reset flow, password changes and session lifecycle.
// Every success path persists its side effects before returning.
type AuthService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	tokens      *token.Service
	ledger      *blacklist.Ledger
	mailer      email.Mailer
	cfg         *config.Config
}

func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	tokens *token.Service,
	ledger *blacklist.Ledger,
	mailer email.Mailer,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		tokens:      tokens,
		ledger:      ledger,
		mailer:      mailer,
		cfg:         cfg,
	}
}

type RegisterRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=50"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	Phone       string `json:"phone,omitempty" validate:"omitempty,min=7,max=20"`
	DateOfBirth string `json:"date_of_birth,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Gender      string `json:"gender,omitempty" validate:"omitempty,oneof=male female other"`
}

type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"remember_me,omitempty"`
}

// ClientInfo carries per-request metadata recorded on sessions.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

type AuthResponse struct {
	User      *domain.Profile `json:"user"`
	Token     string          `json:"token"`
	ExpiresIn string          `json:"expires_in"`
}

// Register creates the account and opens its first session.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest, client ClientInfo) (*AuthResponse, error) {
	if err := password.ValidateStrength(req.Password); err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	var dob *time.Time
	if req.DateOfBirth != "" {
		parsed, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			return nil, domain.NewValidationError("date_of_birth must be a date in 2006-01-02 format")
		}
		age := ageAt(parsed, time.Now())
		if age < 13 || age > 120 {
			return nil, domain.NewValidationError("age must be between 13 and 120 years")
		}
		dob = &parsed
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		ID:              uuid.New(),
		Name:            strings.TrimSpace(req.Name),
		Email:           strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash:    hash,
		DateOfBirth:     dob,
		Role:            domain.RoleCustomer,
		IsEmailVerified: s.cfg.Server.Environment == "development",
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if req.Phone != "" {
		phone := strings.TrimSpace(req.Phone)
		user.Phone = &phone
	}
	if req.Gender != "" {
		gender := strings.ToLower(req.Gender)
		user.Gender = &gender
	}
	if client.IPAddress != "" {
		user.RegistrationIP = &client.IPAddress
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	resp, err := s.openSession(ctx, user, client, false)
	if err != nil {
		return nil, err
	}

	if s.mailer != nil {
		go func() {
			if err := s.mailer.SendWelcomeEmail(context.Background(), user.Email, user.Name); err != nil {
				log.Printf("[AUTH_SERVICE] failed to send welcome email to %s: %v", user.Email, err)
			}
		}()
	}

	return resp, nil
}

// Login authenticates credentials under the lockout policy. The
// lockout check always runs before the password check so the response
// never reveals whether this attempt would have locked the account.
func (s *AuthService) Login(ctx context.Context, req LoginRequest, client ClientInfo) (*AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, domain.ErrAccountInactive
	}

	if user.IsLocked() {
		return nil, &domain.LockoutError{Until: *user.LockUntil}
	}

	ok, err := password.Verify(req.Password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		attempts, err := s.userRepo.IncrementLoginAttempts(ctx, user.ID, s.cfg.Auth.MaxLoginAttempts, s.cfg.Auth.LockDuration)
		if err != nil {
			return nil, err
		}
		if attempts >= s.cfg.Auth.MaxLoginAttempts {
			return nil, &domain.LockoutError{Until: time.Now().Add(s.cfg.Auth.LockDuration)}
		}
		return nil, domain.ErrInvalidCredentials
	}

	if err := s.userRepo.RecordLogin(ctx, user.ID, client.IPAddress); err != nil {
		return nil, err
	}
	now := time.Now()
	user.LoginAttempts = 0
	user.LockUntil = nil
	user.LastLoginAt = &now

	return s.openSession(ctx, user, client, req.RememberMe)
}

// openSession mints a token id, registers the session (evicting the
// oldest past the cap) and signs the bearer token.
func (s *AuthService) openSession(ctx context.Context, user *domain.User, client ClientInfo, rememberMe bool) (*AuthResponse, error) {
	tokenID := uuid.New()

	device := client.UserAgent
	if device == "" {
		device = "Unknown Device"
	}

	now := time.Now()
	session := &domain.Session{
		ID:           uuid.New(),
		UserID:       user.ID,
		TokenID:      tokenID,
		DeviceInfo:   device,
		IPAddress:    client.IPAddress,
		LastActivity: now,
		CreatedAt:    now,
	}

	if err := s.sessionRepo.Register(ctx, session, s.cfg.Auth.MaxActiveSessions); err != nil {
		return nil, err
	}

	signed, expiry, err := s.tokens.Issue(user.ID, tokenID, rememberMe)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		User:      user.ToProfile(),
		Token:     signed,
		ExpiresIn: expiry.String(),
	}, nil
}

// ForgotPassword issues an OTP and reset token, delivered by email.
// The caller always receives the same nil result whether or not the
// account exists; only delivery failure (after rollback) surfaces.
func (s *AuthService) ForgotPassword(ctx context.Context, emailAddr string) error {
	user, err := s.userRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		// No enumeration signal.
		return nil
	}

	if !user.IsActive {
		return nil
	}

	if user.IsLocked() {
		return &domain.LockoutError{Until: *user.LockUntil}
	}

	code, err := password.GenerateOTP()
	if err != nil {
		return err
	}
	otpHash, err := password.HashOTP(code)
	if err != nil {
		return err
	}
	resetToken, err := password.GenerateResetToken()
	if err != nil {
		return err
	}

	now := time.Now()
	err = s.userRepo.SetOTP(ctx, user.ID,
		otpHash, now.Add(s.cfg.Auth.OTPExpiry),
		resetToken, now.Add(s.cfg.Auth.ResetTokenExpiry),
	)
	if err != nil {
		return err
	}

	if err := s.mailer.SendOTPEmail(ctx, user.Email, user.Name, code); err != nil {
		// Roll back so an undeliverable code cannot linger.
		if clearErr := s.userRepo.ClearOTP(ctx, user.ID); clearErr != nil {
			log.Printf("[AUTH_SERVICE] failed to roll back OTP for %s: %v", user.Email, clearErr)
		}
		log.Printf("[AUTH_SERVICE] failed to send OTP email to %s: %v", user.Email, err)
		return domain.ErrDeliveryFailed
	}

	return nil
}

// VerifyOTP checks a supplied code against the outstanding OTP and, on
// success, hands back the reset token for the second step. The code is
// kept (marked verified) until the reset completes.
func (s *AuthService) VerifyOTP(ctx context.Context, emailAddr, code string) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		return "", domain.ErrOTPInvalid
	}

	if !user.HasPendingOTP() {
		return "", domain.ErrOTPInvalid
	}

	if user.OTPAttempts >= s.cfg.Auth.OTPMaxAttempts {
		if err := s.userRepo.ClearOTP(ctx, user.ID); err != nil {
			return "", err
		}
		return "", domain.ErrOTPTooManyAttempts
	}

	ok, err := password.Verify(code, *user.OTPHash)
	if err != nil {
		return "", domain.ErrOTPInvalid
	}
	if !ok {
		attempts, err := s.userRepo.IncrementOTPAttempts(ctx, user.ID)
		if err != nil {
			return "", err
		}
		if attempts >= s.cfg.Auth.OTPMaxAttempts {
			if err := s.userRepo.ClearOTP(ctx, user.ID); err != nil {
				return "", err
			}
			return "", domain.ErrOTPTooManyAttempts
		}
		return "", domain.ErrOTPInvalid
	}

	marked, err := s.userRepo.MarkOTPVerified(ctx, user.ID)
	if err != nil {
		return "", err
	}
	if !marked || user.ResetPasswordToken == nil {
		return "", domain.ErrOTPInvalid
	}

	return *user.ResetPasswordToken, nil
}

// ResetPassword consumes a verified reset token, replaces the password
// and revokes every outstanding session: a reset forces re-login
// everywhere.
func (s *AuthService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if err := password.ValidateStrength(newPassword); err != nil {
		return domain.NewValidationError(err.Error())
	}

	hash, err := password.Hash(newPassword)
	if err != nil {
		return err
	}

	user, err := s.userRepo.ConsumeResetToken(ctx, resetToken, hash)
	if err != nil {
		return err
	}

	if err := s.revokeSessions(ctx, user.ID, uuid.Nil, domain.RevokeReasonPasswordChange); err != nil {
		return err
	}

	if s.mailer != nil {
		if err := s.mailer.SendPasswordResetConfirmation(ctx, user.Email, user.Name); err != nil {
			log.Printf("[AUTH_SERVICE] failed to send reset confirmation to %s: %v", user.Email, err)
		}
	}

	return nil
}

// ChangePassword swaps the password for an authenticated user and
// revokes every session except the one making the request.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentTokenID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := password.Verify(currentPassword, user.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInvalidCredentials
	}

	if currentPassword == newPassword {
		return domain.ErrSamePassword
	}
	if err := password.ValidateStrength(newPassword); err != nil {
		return domain.NewValidationError(err.Error())
	}

	hash, err := password.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	return s.revokeSessions(ctx, userID, currentTokenID, domain.RevokeReasonPasswordChange)
}

// Logout revokes the current session only.
func (s *AuthService) Logout(ctx context.Context, userID, tokenID uuid.UUID) error {
	if err := s.ledger.Revoke(ctx, tokenID, domain.RevokeReasonLogout); err != nil {
		return err
	}

	if _, err := s.sessionRepo.DeleteByTokenID(ctx, userID, tokenID); err != nil {
		return err
	}
	return nil
}

// LogoutAll revokes every session the user holds.
func (s *AuthService) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	return s.revokeSessions(ctx, userID, uuid.Nil, domain.RevokeReasonLogout)
}

// Sessions lists the caller's active-session registry.
func (s *AuthService) Sessions(ctx context.Context, userID uuid.UUID) ([]*domain.Session, error) {
	return s.sessionRepo.GetByUserID(ctx, userID)
}

// RevokeSession revokes one named session from the registry.
func (s *AuthService) RevokeSession(ctx context.Context, userID, tokenID uuid.UUID) error {
	if err := s.ledger.Revoke(ctx, tokenID, domain.RevokeReasonLogout); err != nil {
		return err
	}

	deleted, err := s.sessionRepo.DeleteByTokenID(ctx, userID, tokenID)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrSessionNotFound
	}
	return nil
}

// revokeSessions ledgers and deletes the user's sessions; keepTokenID
// (when non-nil) survives.
func (s *AuthService) revokeSessions(ctx context.Context, userID, keepTokenID uuid.UUID, reason string) error {
	sessions, err := s.sessionRepo.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}

	tokenIDs := make([]uuid.UUID, 0, len(sessions))
	for _, session := range sessions {
		if session.TokenID != keepTokenID {
			tokenIDs = append(tokenIDs, session.TokenID)
		}
	}
	if err := s.ledger.RevokeAll(ctx, tokenIDs, reason); err != nil {
		return err
	}

	if keepTokenID == uuid.Nil {
		return s.sessionRepo.DeleteByUserID(ctx, userID)
	}
	return s.sessionRepo.DeleteByUserIDExcept(ctx, userID, keepTokenID)
}

// Authenticate validates a bearer token in the canonical order:
// signature, expiry, account state, lockout, ledger, password-change
// stamp, session membership. The first failing check decides the error.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*domain.User, *domain.Claims, error) {
	claims, err := s.tokens.Verify(tokenString)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, nil, domain.ErrUserNotFound
	}

	if !user.IsActive {
		return nil, nil, domain.ErrAccountInactive
	}

	if user.IsLocked() {
		return nil, nil, &domain.LockoutError{Until: *user.LockUntil}
	}

	revoked, err := s.ledger.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return nil, nil, err
	}
	if revoked {
		return nil, nil, domain.ErrTokenRevoked
	}

	if claims.IssuedAt != nil && user.ChangedPasswordAfter(claims.IssuedAt.Time) {
		return nil, nil, domain.ErrPasswordChanged
	}

	alive, err := s.sessionRepo.TouchActivity(ctx, user.ID, claims.TokenID)
	if err != nil {
		return nil, nil, err
	}
	if !alive {
		return nil, nil, domain.ErrSessionExpired
	}

	return user, claims, nil
}

// PruneIdleSessions drops registry entries whose tokens expired long
// ago. Runs on a timer from main.
func (s *AuthService) PruneIdleSessions(ctx context.Context) {
	cutoff := time.Now().Add(-s.tokens.MaxLifetime())
	pruned, err := s.sessionRepo.DeleteIdleSince(ctx, cutoff)
	if err != nil {
		log.Printf("[AUTH_SERVICE] failed to prune idle sessions: %v", err)
		return
	}
	if pruned > 0 {
		log.Printf("[AUTH_SERVICE] pruned %d idle sessions", pruned)
	}
}

func ageAt(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.YearDay() < birth.YearDay() {
		age--
	}
	return age
}
