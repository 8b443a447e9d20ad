package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the auth flows. Handlers map these onto the HTTP
// taxonomy; anything unrecognized becomes a 500 with a generic body.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is inactive, please contact support")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrPhoneTaken         = errors.New("user with this phone number already exists")
	ErrSamePassword       = errors.New("new password must be different from current password")
	ErrOTPInvalid         = errors.New("invalid or expired OTP")
	ErrOTPTooManyAttempts = errors.New("too many OTP attempts, request a new code")
	ErrResetTokenInvalid  = errors.New("invalid or expired reset token")
	ErrSessionExpired     = errors.New("session expired, please log in again")
	ErrSessionNotFound    = errors.New("session not found")
	ErrTokenRevoked       = errors.New("token has been invalidated")
	ErrPasswordChanged    = errors.New("password was changed recently, please log in again")
	ErrDeliveryFailed     = errors.New("failed to send email, please try again later")
)

// LockoutError carries the lock deadline so callers can report the
// remaining wait without another lookup.
type LockoutError struct {
	Until time.Time
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("account is locked, try again in %d minutes", e.RemainingMinutes())
}

// RemainingMinutes rounds the remaining lockout up to whole minutes.
func (e *LockoutError) RemainingMinutes() int {
	remaining := time.Until(e.Until)
	if remaining <= 0 {
		return 0
	}
	minutes := int((remaining + time.Minute - 1) / time.Minute)
	return minutes
}

// ValidationError marks client-input failures (field rules, password
// strength) that map to 400 with the message intact.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}
