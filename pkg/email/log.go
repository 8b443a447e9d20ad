package email

import (
	"context"
	"log"
)

// LogMailer writes messages to the process log. Used in development
// when no relay is configured; OTP codes show up in the server output.
type LogMailer struct{}

func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

func (m *LogMailer) SendOTPEmail(_ context.Context, to, name, code string) error {
	log.Printf("[EMAIL] OTP for %s <%s>: %s", name, to, code)
	return nil
}

func (m *LogMailer) SendPasswordResetConfirmation(_ context.Context, to, name string) error {
	log.Printf("[EMAIL] password reset confirmation for %s <%s>", name, to)
	return nil
}

func (m *LogMailer) SendWelcomeEmail(_ context.Context, to, name string) error {
	log.Printf("[EMAIL] welcome email for %s <%s>", name, to)
	return nil
}
