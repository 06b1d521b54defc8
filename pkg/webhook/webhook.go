// Package webhook posts payloads to Slack incoming webhooks.
package webhook

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/arthur-debert/slack-send/pkg/errors"
	"github.com/arthur-debert/slack-send/pkg/logging"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "slack-send"

	// maxErrorBody caps how much of a failed response ends up in the error.
	maxErrorBody = 512
)

// Client posts JSON bodies to a webhook URL.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
}

// NewClient returns a Client with its own http.Client using timeout.
// A zero timeout means DefaultTimeout.
func NewClient(timeout time.Duration, userAgent string) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Client{
		HTTPClient: &http.Client{Timeout: timeout},
		UserAgent:  userAgent,
	}
}

// Post sends body to webhookURL. An empty body is sent as a request
// without content. Any status outside 2xx is DELIVERY_FAILED.
func (c *Client) Post(ctx context.Context, webhookURL string, body []byte) error {
	logger := logging.GetLogger("webhook")

	if err := ValidateURL(webhookURL); err != nil {
		return err
	}

	var reader io.Reader = http.NoBody
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, reader)
	if err != nil {
		return errors.Wrap(err, errors.ErrInvalidInput, "failed to create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")
	if ua := c.userAgent(); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	logger.Debug().
		Str("url", RedactURL(webhookURL)).
		Int("bytes", len(body)).
		Msg("Posting payload")

	start := time.Now()
	resp, err := c.client().Do(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrDeliveryFailed, "webhook request failed").
			WithDetail("url", RedactURL(webhookURL))
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	logger.Debug().
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Webhook responded")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return errors.Newf(errors.ErrDeliveryFailed, "webhook returned HTTP %d", resp.StatusCode).
		WithDetail("status", resp.StatusCode).
		WithDetail("response", strings.TrimSpace(string(snippet))).
		WithDetail("url", RedactURL(webhookURL))
}

func (c *Client) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: DefaultTimeout}
}

func (c *Client) userAgent() string {
	if c.UserAgent != "" {
		return c.UserAgent
	}
	return DefaultUserAgent
}

// ValidateURL checks that raw is an absolute http(s) URL with a host.
func ValidateURL(raw string) error {
	if raw == "" {
		return errors.New(errors.ErrInvalidInput, "webhook URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return errors.Wrap(err, errors.ErrInvalidInput, "invalid webhook URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Newf(errors.ErrInvalidInput, "webhook URL must use http or https scheme, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New(errors.ErrInvalidInput, "webhook URL must include a host")
	}
	return nil
}

// RedactURL masks the secret parts of a webhook URL for logs. Slack puts
// the credential in the path, so everything after the first two path
// segments is replaced along with query values and userinfo passwords.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid-url>"
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) > 2 {
		for i := 2; i < len(segments); i++ {
			segments[i] = "REDACTED"
		}
		u.Path = "/" + strings.Join(segments, "/")
		u.RawPath = ""
	}

	if u.RawQuery != "" {
		q := u.Query()
		for key := range q {
			q.Set(key, "REDACTED")
		}
		u.RawQuery = q.Encode()
	}

	return u.Redacted()
}
