package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const inviteSubject = "🧪 You're Invited to Beta Test PlaneWX!"

// Config configures the Resend-backed mailer.
type Config struct {
	APIKey     string
	BaseURL    string
	FromEmail  string
	AdminEmail string
	LandingURL string
	Timeout    time.Duration
}

// Client sends transactional email through the Resend REST API. With no API
// key configured it degrades to log-only mode where every send succeeds
// without contacting the provider.
type Client struct {
	http   *resty.Client
	cfg    Config
	logger *zap.Logger
}

// New builds a mailer client.
func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.resend.com"
	}

	httpc := resty.New().SetBaseURL(cfg.BaseURL)
	if cfg.Timeout > 0 {
		httpc.SetTimeout(cfg.Timeout)
	}
	if cfg.APIKey != "" {
		httpc.SetAuthToken(cfg.APIKey)
	}

	return &Client{http: httpc, cfg: cfg, logger: logger}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type sendResponse struct {
	ID string `json:"id"`
}

// SendInvite delivers the invitation email carrying the token URL.
func (c *Client) SendInvite(ctx context.Context, to, token string) error {
	return c.send(ctx, to, inviteSubject, InviteHTML(c.InviteURL(token)))
}

// SendSignupNotification tells the configured admin address about a fresh
// signup. A missing admin address makes this a no-op.
func (c *Client) SendSignupNotification(ctx context.Context, signupEmail string) error {
	if c.cfg.AdminEmail == "" {
		return nil
	}
	subject := "New PlaneWX waitlist signup"
	html := fmt.Sprintf("<p>New waitlist signup: <strong>%s</strong></p>", signupEmail)
	return c.send(ctx, c.cfg.AdminEmail, subject, html)
}

// PreviewInvite renders the invite email with a placeholder token, for the
// admin preview endpoint.
func (c *Client) PreviewInvite() string {
	return InviteHTML(c.InviteURL("PREVIEW_TOKEN_EXAMPLE"))
}

// InviteURL builds the landing-page invite link for a token.
func (c *Client) InviteURL(token string) string {
	return fmt.Sprintf("%s/invite?token=%s", c.cfg.LandingURL, token)
}

func (c *Client) send(ctx context.Context, to, subject, html string) error {
	if c.cfg.APIKey == "" {
		c.logger.Info("email provider not configured, skipping send",
			zap.String("to", to),
			zap.String("subject", subject),
		)
		return nil
	}

	var out sendResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(sendRequest{From: c.cfg.FromEmail, To: []string{to}, Subject: subject, HTML: html}).
		SetResult(&out).
		Post("/emails")
	if err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}
	if resp.IsError() {
		return fmt.Errorf("send email to %s: provider returned %s", to, resp.Status())
	}

	c.logger.Info("email sent", zap.String("to", to), zap.String("provider_id", out.ID))
	return nil
}
