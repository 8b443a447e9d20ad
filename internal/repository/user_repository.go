package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Amna-hassan22/BrewnBean/internal/domain"
)

// UserRepository persists credential records. Counter mutations
// (login attempts, OTP attempts) and token consumption are atomic
// single-statement operations so concurrent requests against the same
// account cannot lose updates.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, limit, offset int, search string) ([]*domain.User, int, error)

	// IncrementLoginAttempts bumps the failure counter and, when it
	// reaches maxAttempts, sets the lock in the same statement.
	// Returns the new counter value.
	IncrementLoginAttempts(ctx context.Context, id uuid.UUID, maxAttempts int, lockFor time.Duration) (int, error)

	// RecordLogin resets the failure counter, clears any lock and
	// stamps last-login metadata.
	RecordLogin(ctx context.Context, id uuid.UUID, ip string) error

	// SetOTP overwrites any prior OTP state and stores the paired
	// reset token. Attempts reset to zero, verified to false.
	SetOTP(ctx context.Context, id uuid.UUID, otpHash string, otpExpires time.Time, resetToken string, resetExpires time.Time) error

	// ClearOTP drops OTP and reset-token state (delivery rollback,
	// attempt overflow, expiry cleanup).
	ClearOTP(ctx context.Context, id uuid.UUID) error

	// IncrementOTPAttempts bumps the guess counter and returns the new
	// value. No-op (returns 0) when no OTP is outstanding.
	IncrementOTPAttempts(ctx context.Context, id uuid.UUID) (int, error)

	// MarkOTPVerified flags the outstanding OTP as verified, provided
	// it has not expired. Returns false when there was nothing to mark.
	MarkOTPVerified(ctx context.Context, id uuid.UUID) (bool, error)

	// UpdatePassword swaps the hash without stamping
	// password_changed_at: the authenticated change-password flow keeps
	// the caller's token valid and revokes the others explicitly via
	// the ledger and registry.
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error

	// ConsumeResetToken atomically swaps the password for the user
	// holding an unexpired reset token with a verified OTP, clearing
	// all OTP/reset state. Returns the affected user's identity, or
	// ErrResetTokenInvalid when no row qualifies.
	ConsumeResetToken(ctx context.Context, resetToken, hash string) (*domain.User, error)
}
