package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Amna-hassan22/BrewnBean/internal/domain"
	"github.com/Amna-hassan22/BrewnBean/internal/repository"
)

const userColumns = `id, name, email, password_hash, phone, date_of_birth, gender, role,
	   is_email_verified, is_phone_verified,
	   otp_hash, otp_expires_at, otp_verified, otp_attempts,
	   reset_password_token, reset_password_expires_at, password_changed_at,
	   login_attempts, lock_until, last_login_at, login_ip, registration_ip,
	   is_active, deactivated_at, created_at, updated_at`

type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user. Unique-index violations on email/phone map
// to the conflict sentinels.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (
			id, name, email, password_hash, phone, date_of_birth, gender, role,
			is_email_verified, is_phone_verified,
			otp_hash, otp_expires_at, otp_verified, otp_attempts,
			reset_password_token, reset_password_expires_at, password_changed_at,
			login_attempts, lock_until, last_login_at, login_ip, registration_ip,
			is_active, deactivated_at, created_at, updated_at
		) VALUES (
			:id, :name, :email, :password_hash, :phone, :date_of_birth, :gender, :role,
			:is_email_verified, :is_phone_verified,
			:otp_hash, :otp_expires_at, :otp_verified, :otp_attempts,
			:reset_password_token, :reset_password_expires_at, :password_changed_at,
			:login_attempts, :lock_until, :last_login_at, :login_ip, :registration_ip,
			:is_active, :deactivated_at, :created_at, :updated_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			if strings.Contains(pqErr.Constraint, "phone") {
				return domain.ErrPhoneTaken
			}
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user domain.User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return &user, nil
}

// GetByEmail retrieves a user by their case-folded email address
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var user domain.User
	err := r.db.GetContext(ctx, &user, query, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

// List returns a page of users with an optional name/email search.
func (r *userRepository) List(ctx context.Context, limit, offset int, search string) ([]*domain.User, int, error) {
	where := ""
	args := []interface{}{}
	if search != "" {
		where = `WHERE name ILIKE $1 OR email ILIKE $1`
		args = append(args, "%"+search+"%")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM users ` + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT `+userColumns+` FROM users %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2,
	)
	args = append(args, limit, offset)

	var users []*domain.User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	return users, total, nil
}

// IncrementLoginAttempts bumps the failure counter and applies the lock
// in one statement so concurrent failures cannot under-count.
func (r *userRepository) IncrementLoginAttempts(ctx context.Context, id uuid.UUID, maxAttempts int, lockFor time.Duration) (int, error) {
	query := `
		UPDATE users
		SET login_attempts = login_attempts + 1,
			lock_until = CASE
				WHEN login_attempts + 1 >= $2 THEN NOW() + $3::interval
				ELSE lock_until
			END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING login_attempts`

	var attempts int
	err := r.db.GetContext(ctx, &attempts, query, id, maxAttempts, lockFor.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to increment login attempts: %w", err)
	}

	return attempts, nil
}

// RecordLogin resets lockout state and stamps login metadata.
func (r *userRepository) RecordLogin(ctx context.Context, id uuid.UUID, ip string) error {
	query := `
		UPDATE users
		SET login_attempts = 0,
			lock_until = NULL,
			last_login_at = NOW(),
			login_ip = $2,
			updated_at = NOW()
		WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, ip); err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	return nil
}

// SetOTP overwrites OTP state; a re-issued code always supersedes.
func (r *userRepository) SetOTP(ctx context.Context, id uuid.UUID, otpHash string, otpExpires time.Time, resetToken string, resetExpires time.Time) error {
	query := `
		UPDATE users
		SET otp_hash = $2,
			otp_expires_at = $3,
			otp_verified = FALSE,
			otp_attempts = 0,
			reset_password_token = $4,
			reset_password_expires_at = $5,
			updated_at = NOW()
		WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, otpHash, otpExpires, resetToken, resetExpires); err != nil {
		return fmt.Errorf("failed to set OTP: %w", err)
	}
	return nil
}

// ClearOTP drops OTP and reset-token state.
func (r *userRepository) ClearOTP(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE users
		SET otp_hash = NULL,
			otp_expires_at = NULL,
			otp_verified = FALSE,
			otp_attempts = 0,
			reset_password_token = NULL,
			reset_password_expires_at = NULL,
			updated_at = NOW()
		WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to clear OTP: %w", err)
	}
	return nil
}

// IncrementOTPAttempts bumps the guess counter atomically.
func (r *userRepository) IncrementOTPAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	query := `
		UPDATE users
		SET otp_attempts = otp_attempts + 1,
			updated_at = NOW()
		WHERE id = $1 AND otp_hash IS NOT NULL
		RETURNING otp_attempts`

	var attempts int
	err := r.db.GetContext(ctx, &attempts, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to increment OTP attempts: %w", err)
	}

	return attempts, nil
}

// MarkOTPVerified is a compare-and-swap: only an unexpired OTP can be
// flagged verified.
func (r *userRepository) MarkOTPVerified(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE users
		SET otp_verified = TRUE,
			updated_at = NOW()
		WHERE id = $1 AND otp_hash IS NOT NULL AND otp_expires_at > NOW()`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark OTP verified: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// UpdatePassword swaps the hash. password_changed_at is left alone so
// the caller's own token stays valid; other sessions are revoked
// through the ledger and registry.
func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	query := `
		UPDATE users
		SET password_hash = $2,
			updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, hash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// ConsumeResetToken swaps the password for the holder of an unexpired,
// OTP-verified reset token and clears all reset state, in one
// statement. The WHERE clause is the compare-and-swap: a concurrent
// consume of the same token leaves nothing for the loser to match.
func (r *userRepository) ConsumeResetToken(ctx context.Context, resetToken, hash string) (*domain.User, error) {
	query := `
		UPDATE users
		SET password_hash = $2,
			password_changed_at = NOW(),
			otp_hash = NULL,
			otp_expires_at = NULL,
			otp_verified = FALSE,
			otp_attempts = 0,
			reset_password_token = NULL,
			reset_password_expires_at = NULL,
			updated_at = NOW()
		WHERE reset_password_token = $1
		  AND reset_password_expires_at > NOW()
		  AND otp_verified = TRUE
		RETURNING id, name, email`

	var user domain.User
	err := r.db.QueryRowxContext(ctx, query, resetToken, hash).Scan(&user.ID, &user.Name, &user.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrResetTokenInvalid
		}
		return nil, fmt.Errorf("failed to consume reset token: %w", err)
	}

	return &user, nil
}
