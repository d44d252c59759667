package emailclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ignite/newsletter/internal/config"
	"github.com/ignite/newsletter/internal/domain"
	"github.com/ignite/newsletter/internal/pkg/httpretry"
	"github.com/ignite/newsletter/internal/pkg/logger"
)

// maxErrorBody caps how much of a failed response body is kept on the error.
const maxErrorBody = 4000

// Client delivers transactional email through the mail/send API.
type Client struct {
	baseURL            string
	sender             domain.SubscriberEmail
	authorizationToken string
	timeout            time.Duration
	httpClient         httpretry.HTTPDoer
	log                *logger.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithDoer replaces the HTTP transport, e.g. with an httpretry.RetryClient.
// The doer should enforce its own per-attempt timeout; the client still bounds
// each call with its configured timeout through the request context.
func WithDoer(d httpretry.HTTPDoer) Option {
	return func(c *Client) { c.httpClient = d }
}

// NewClient creates an email client that sends as sender.
func NewClient(cfg config.EmailClientConfig, sender domain.SubscriberEmail, log *logger.Logger, opts ...Option) *Client {
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = config.DefaultEmailTimeout
	}
	if log == nil {
		log = logger.Nop()
	}

	c := &Client{
		baseURL:            strings.TrimRight(cfg.BaseURL, "/"),
		sender:             sender,
		authorizationToken: cfg.AuthorizationToken,
		timeout:            timeout,
		httpClient:         &http.Client{Timeout: timeout},
		log:                log.With("client", "EmailClient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sender returns the address every email is sent from.
func (c *Client) Sender() domain.SubscriberEmail { return c.sender }

// SendEmail sends one two-part (text + HTML) email to recipient.
func (c *Client) SendEmail(ctx context.Context, recipient domain.SubscriberEmail, subject, htmlBody, textBody string) error {
	return c.Send(ctx, domain.EmailMessage{
		Sender:    c.sender,
		Recipient: recipient,
		Subject:   subject,
		HTMLBody:  htmlBody,
		TextBody:  textBody,
	})
}

// Send delivers msg. The Sender on msg is ignored in favor of the client's
// configured sender.
func (c *Client) Send(ctx context.Context, msg domain.EmailMessage) error {
	msg.Sender = c.sender

	body, err := json.Marshal(buildSendRequest(msg))
	if err != nil {
		return fmt.Errorf("encoding email request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+sendPath, bytes.NewReader(body))
	if err != nil {
		return &DeliveryError{Kind: KindTransport, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.authorizationToken)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		derr := classifyTransportError(err)
		c.log.Warn("Email delivery failed",
			"recipient", msg.Recipient.String(),
			"kind", string(derr.Kind),
			"elapsed", time.Since(start).String(),
			"error", err.Error(),
		)
		return derr
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn("Email API rejected request",
			"recipient", msg.Recipient.String(),
			"status", resp.StatusCode,
		)
		return &DeliveryError{
			Kind:       KindServerError,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	c.log.Debug("Email accepted",
		"recipient", msg.Recipient.String(),
		"status", resp.StatusCode,
		"message_id", resp.Header.Get("X-Message-Id"),
	)
	return nil
}

func classifyTransportError(err error) *DeliveryError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &DeliveryError{Kind: KindTimeout, Err: err}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &DeliveryError{Kind: KindTimeout, Err: err}
	}
	return &DeliveryError{Kind: KindTransport, Err: err}
}
