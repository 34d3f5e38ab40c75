package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reva/internal/app/policies"
)

const defaultEmailJSEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

var ErrNotConfigured = errors.New("delivery: keys not configured")

type EmailJSConfig struct {
	Endpoint   string
	ServiceID  string
	TemplateID string
	PublicKey  string
	PrivateKey string
}

// Configured reports whether the keys are set.
func (c EmailJSConfig) Configured() bool {
	return strings.TrimSpace(c.ServiceID) != "" && strings.TrimSpace(c.TemplateID) != "" && strings.TrimSpace(c.PublicKey) != ""
}

// EmailJSSender sends signup codes through the EmailJS REST API.
type EmailJSSender struct {
	cfg        EmailJSConfig
	httpClient *http.Client
	now        func() time.Time
}

func NewEmailJSSender(cfg EmailJSConfig, httpClient *http.Client) *EmailJSSender {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEmailJSEndpoint
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &EmailJSSender{cfg: cfg, httpClient: httpClient, now: time.Now}
}

type emailJSRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

func (s *EmailJSSender) SendCode(ctx context.Context, email, code string, ttl time.Duration) error {
	if !s.cfg.Configured() {
		return ErrNotConfigured
	}
	body, err := json.Marshal(emailJSRequest{
		ServiceID:      s.cfg.ServiceID,
		TemplateID:     s.cfg.TemplateID,
		UserID:         s.cfg.PublicKey,
		AccessToken:    s.cfg.PrivateKey,
		TemplateParams: templateParams(email, code, ttl, s.now()),
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delivery: emailjs request: %w", err)
	}
	defer resp.Body.Close()
	return checkResp(resp)
}

// templateParams fills every variable name commonly used by EmailJS templates so one
// template works regardless of how it names the recipient and code.
func templateParams(email, code string, ttl time.Duration, now time.Time) map[string]string {
	name := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		name = email[:at]
	}
	expiry := formatTTL(ttl)
	text := "Your verification code is: " + code
	return map[string]string{
		"to_email":          email,
		"email":             email,
		"user_email":        email,
		"recipient":         email,
		"reply_to":          email,
		"to_name":           name,
		"otp":               code,
		"code":              code,
		"otp_code":          code,
		"verification_code": code,
		"pin":               code,
		"message":           code,
		"content":           text,
		"text":              text,
		"expiry":            expiry,
		"valid_for":         expiry,
		"date":              now.Format("2006-01-02"),
	}
}

func formatTTL(ttl time.Duration) string {
	minutes := int(ttl.Round(time.Minute) / time.Minute)
	if minutes == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}

func checkResp(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("delivery: emailjs returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

var _ policies.CodeSender = (*EmailJSSender)(nil)
