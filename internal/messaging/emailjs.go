package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DefaultEmailJSEndpoint is the public EmailJS send API.
const DefaultEmailJSEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

// EmailJSConfig identifies the EmailJS service and templates.
type EmailJSConfig struct {
	Endpoint   string
	ServiceID  string
	PublicKey  string
	PrivateKey string // optional access token
	Templates  map[Kind]string
	Timeout    time.Duration
	// RatePerSecond and Burst throttle outbound sends.
	RatePerSecond float64
	Burst         int
	Retry         RetryConfig
}

// EmailJS sends template emails through the EmailJS REST API.
type EmailJS struct {
	cfg        EmailJSConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zerolog.Logger
}

type emailJSRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

// NewEmailJS constructs the relay client.
func NewEmailJS(cfg EmailJSConfig, logger *zerolog.Logger) *EmailJS {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEmailJSEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.Retry.MaxRetries < 0 {
		cfg.Retry.MaxRetries = 0
	}
	return &EmailJS{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		logger:     logger,
	}
}

// Send delivers msg using the template registered for its kind.
func (e *EmailJS) Send(ctx context.Context, msg Message) error {
	templateID := e.cfg.Templates[msg.Kind]
	if e.cfg.ServiceID == "" || e.cfg.PublicKey == "" || templateID == "" {
		return fmt.Errorf("emailjs %s: %w", msg.Kind, ErrNotConfigured)
	}

	body, err := json.Marshal(emailJSRequest{
		ServiceID:      e.cfg.ServiceID,
		TemplateID:     templateID,
		UserID:         e.cfg.PublicKey,
		AccessToken:    e.cfg.PrivateKey,
		TemplateParams: msg.Params,
	})
	if err != nil {
		return err
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	return sendWithRetry(ctx, e.cfg.Retry, e.logger, func(ctx context.Context) error {
		return e.post(ctx, body)
	})
}

func (e *EmailJS) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &HTTPError{Code: resp.StatusCode, Body: strings.TrimSpace(string(text))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
