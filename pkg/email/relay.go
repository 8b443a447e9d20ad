package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RelayMailer posts message requests to an internal mail relay that
// owns templating and SMTP delivery.
type RelayMailer struct {
	client     *http.Client
	serviceURL string
}

type relayRequest struct {
	Type string `json:"type"` // otp, password_reset_confirmation, welcome
	To   string `json:"to"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

type relayResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func NewRelayMailer(cfg *Config) (*RelayMailer, error) {
	if cfg.ServiceURL == "" {
		return nil, fmt.Errorf("email service URL is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &RelayMailer{
		client:     &http.Client{Timeout: timeout},
		serviceURL: cfg.ServiceURL,
	}, nil
}

func (m *RelayMailer) send(ctx context.Context, req *relayRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.serviceURL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to reach email relay: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read relay response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp relayResponse
		if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
			return fmt.Errorf("email relay returned status %d", resp.StatusCode)
		}
		return fmt.Errorf("email relay error: %s", errResp.Error)
	}

	var okResp relayResponse
	if err := json.Unmarshal(body, &okResp); err != nil {
		return fmt.Errorf("failed to parse relay response: %w", err)
	}
	if !okResp.Success {
		return fmt.Errorf("email relay rejected message: %s", okResp.Error)
	}

	return nil
}

func (m *RelayMailer) SendOTPEmail(ctx context.Context, to, name, code string) error {
	return m.send(ctx, &relayRequest{Type: "otp", To: to, Name: name, Code: code})
}

func (m *RelayMailer) SendPasswordResetConfirmation(ctx context.Context, to, name string) error {
	return m.send(ctx, &relayRequest{Type: "password_reset_confirmation", To: to, Name: name})
}

func (m *RelayMailer) SendWelcomeEmail(ctx context.Context, to, name string) error {
	return m.send(ctx, &relayRequest{Type: "welcome", To: to, Name: name})
}
