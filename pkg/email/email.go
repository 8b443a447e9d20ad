package email

import (
	"context"
	"time"
)

// Mailer delivers the transactional messages the auth flows send.
// Delivery failure on the OTP path must surface an error so the caller
// can roll back the issued OTP/reset state.
type Mailer interface {
	// SendOTPEmail delivers the password-reset one-time code.
	SendOTPEmail(ctx context.Context, to, name, code string) error

	// SendPasswordResetConfirmation notifies that a reset completed.
	SendPasswordResetConfirmation(ctx context.Context, to, name string) error

	// SendWelcomeEmail greets a newly registered user.
	SendWelcomeEmail(ctx context.Context, to, name string) error
}

// Config holds mailer configuration. ServiceURL/Timeout drive the
// relay implementation, APIKey/From* the Resend one.
type Config struct {
	ServiceURL string        // relay endpoint
	Timeout    time.Duration // HTTP request timeout
	APIKey     string        // Resend API key
	FromEmail  string        // Resend sender address
	FromName   string        // Resend sender display name
}
