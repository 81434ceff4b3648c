package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nimbusapp/nimbus-api/internal/config"
)

const defaultResendURL = "https://api.resend.com"

// ResendMailer sends through the Resend transactional email API.
type ResendMailer struct {
	baseURL    string
	apiKey     string
	from       string
	httpClient *http.Client
}

func NewResendMailer(cfg *config.Config) *ResendMailer {
	baseURL := cfg.ResendURL
	if baseURL == "" {
		baseURL = defaultResendURL
	}
	return &ResendMailer{
		baseURL:    baseURL,
		apiKey:     cfg.ResendAPIKey,
		from:       cfg.MailFrom,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (m *ResendMailer) Send(ctx context.Context, to, subject, html string) error {
	payload := map[string]interface{}{
		"from":    m.from,
		"to":      []string{to},
		"subject": subject,
		"html":    html,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/emails", bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("email transport: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var e struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Message == "" {
			e.Message = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("email rejected: %s", e.Message)
	}
	return nil
}
