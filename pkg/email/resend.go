package email

import (
	"context"
	"fmt"
	"log"

	"github.com/resend/resend-go/v2"
)

// ResendMailer delivers through the Resend API. Selected with
// EMAIL_PROVIDER=resend; the relay stays the default.
type ResendMailer struct {
	client    *resend.Client
	fromEmail string
	fromName  string
}

func NewResendMailer(cfg *Config) (*ResendMailer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("resend API key is required")
	}
	if cfg.FromEmail == "" {
		return nil, fmt.Errorf("from email is required")
	}

	fromName := cfg.FromName
	if fromName == "" {
		fromName = "BrewnBean"
	}

	return &ResendMailer{
		client:    resend.NewClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  fromName,
	}, nil
}

func (m *ResendMailer) send(ctx context.Context, to, subject, html string) error {
	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", m.fromName, m.fromEmail),
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}

	sent, err := m.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Printf("[EMAIL] sent %q to %s (ID: %s)", subject, to, sent.Id)
	return nil
}

func (m *ResendMailer) SendOTPEmail(ctx context.Context, to, name, code string) error {
	return m.send(ctx, to, "Your Password Reset Code", OTPEmailTemplate(name, code))
}

func (m *ResendMailer) SendPasswordResetConfirmation(ctx context.Context, to, name string) error {
	return m.send(ctx, to, "Your Password Has Been Reset", PasswordResetConfirmationTemplate(name))
}

func (m *ResendMailer) SendWelcomeEmail(ctx context.Context, to, name string) error {
	return m.send(ctx, to, "Welcome to BrewnBean!", WelcomeEmailTemplate(name))
}
