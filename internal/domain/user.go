package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleCustomer  Role = "customer"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
)

// User is the credential and profile record. Security-state columns
// (hash, OTP, reset token, counters) are never serialized.
type User struct {
	ID                     uuid.UUID  `json:"id" db:"id"`
	Name                   string     `json:"name" db:"name"`
	Email                  string     `json:"email" db:"email"`
	PasswordHash           string     `json:"-" db:"password_hash"`
	Phone                  *string    `json:"phone,omitempty" db:"phone"`
	DateOfBirth            *time.Time `json:"date_of_birth,omitempty" db:"date_of_birth"`
	Gender                 *string    `json:"gender,omitempty" db:"gender"`
	Role                   Role       `json:"role" db:"role"`
	IsEmailVerified        bool       `json:"is_email_verified" db:"is_email_verified"`
	IsPhoneVerified        bool       `json:"is_phone_verified" db:"is_phone_verified"`
	OTPHash                *string    `json:"-" db:"otp_hash"`
	OTPExpiresAt           *time.Time `json:"-" db:"otp_expires_at"`
	OTPVerified            bool       `json:"-" db:"otp_verified"`
	OTPAttempts            int        `json:"-" db:"otp_attempts"`
	ResetPasswordToken     *string    `json:"-" db:"reset_password_token"`
	ResetPasswordExpiresAt *time.Time `json:"-" db:"reset_password_expires_at"`
	PasswordChangedAt      *time.Time `json:"-" db:"password_changed_at"`
	LoginAttempts          int        `json:"-" db:"login_attempts"`
	LockUntil              *time.Time `json:"-" db:"lock_until"`
	LastLoginAt            *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	LoginIP                *string    `json:"-" db:"login_ip"`
	RegistrationIP         *string    `json:"-" db:"registration_ip"`
	IsActive               bool       `json:"is_active" db:"is_active"`
	DeactivatedAt          *time.Time `json:"-" db:"deactivated_at"`
	CreatedAt              time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at" db:"updated_at"`
}

// IsLocked reports whether the lockout window is still open.
func (u *User) IsLocked() bool {
	return u.LockUntil != nil && u.LockUntil.After(time.Now())
}

// LockRemaining returns how long until the lockout expires, zero if unlocked.
func (u *User) LockRemaining() time.Duration {
	if !u.IsLocked() {
		return 0
	}
	return time.Until(*u.LockUntil)
}

// ChangedPasswordAfter reports whether the password changed after the
// given token issue time. Comparison is at second granularity since JWT
// iat claims carry unix seconds.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return issuedAt.Unix() < u.PasswordChangedAt.Unix()
}

// HasPendingOTP reports whether an unexpired OTP is outstanding.
func (u *User) HasPendingOTP() bool {
	return u.OTPHash != nil && u.OTPExpiresAt != nil && u.OTPExpiresAt.After(time.Now())
}

// AccountStatus summarizes the account for client display.
func (u *User) AccountStatus() string {
	switch {
	case !u.IsActive:
		return "inactive"
	case u.IsLocked():
		return "locked"
	case !u.IsEmailVerified:
		return "pending_verification"
	default:
		return "active"
	}
}

// Profile is the sanitized view returned by authenticated endpoints.
type Profile struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Phone           *string    `json:"phone,omitempty"`
	DateOfBirth     *time.Time `json:"date_of_birth,omitempty"`
	Gender          *string    `json:"gender,omitempty"`
	Role            Role       `json:"role"`
	IsEmailVerified bool       `json:"is_email_verified"`
	IsPhoneVerified bool       `json:"is_phone_verified"`
	AccountStatus   string     `json:"account_status"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ToProfile strips security state from the record.
func (u *User) ToProfile() *Profile {
	return &Profile{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Phone:           u.Phone,
		DateOfBirth:     u.DateOfBirth,
		Gender:          u.Gender,
		Role:            u.Role,
		IsEmailVerified: u.IsEmailVerified,
		IsPhoneVerified: u.IsPhoneVerified,
		AccountStatus:   u.AccountStatus(),
		LastLoginAt:     u.LastLoginAt,
		CreatedAt:       u.CreatedAt,
	}
}
