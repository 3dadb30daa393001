// Package captcha verifies reCAPTCHA response tokens against the
// siteverify endpoint.
package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultVerifyURL is Google's reCAPTCHA verification endpoint.
const DefaultVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// DefaultTimeout bounds a single verification call.
const DefaultTimeout = 5 * time.Second

// Verdict is the outcome of a bot check.
type Verdict int

const (
	// Indeterminate is the zero value so an unset verdict never passes.
	Indeterminate Verdict = iota
	Human
	Bot
)

func (v Verdict) String() string {
	switch v {
	case Human:
		return "human"
	case Bot:
		return "bot"
	default:
		return "indeterminate"
	}
}

// ErrUnavailable wraps transport and protocol failures. The verdict that
// accompanies it is always Indeterminate.
var ErrUnavailable = errors.New("captcha: verification service unavailable")

// Client calls the verification endpoint with a shared secret. It makes
// exactly one request per Verify call.
type Client struct {
	VerifyURL  string
	Secret     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// NewClient returns a Client for Google's endpoint with default timeouts.
func NewClient(secret string) *Client {
	return &Client{
		VerifyURL:  DefaultVerifyURL,
		Secret:     secret,
		HTTPClient: &http.Client{},
		Timeout:    DefaultTimeout,
	}
}

type siteVerifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify checks token. A non-nil error always comes with Indeterminate,
// which callers must treat the same as Bot.
func (c *Client) Verify(ctx context.Context, token string) (Verdict, error) {
	if strings.TrimSpace(token) == "" {
		return Bot, nil
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	form := url.Values{
		"secret":   {c.Secret},
		"response": {token},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.verifyURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return Indeterminate, fmt.Errorf("%w: build request: %w", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return Indeterminate, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Indeterminate, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	var body siteVerifyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err != nil {
		return Indeterminate, fmt.Errorf("%w: decode response: %w", ErrUnavailable, err)
	}

	if !body.Success {
		return Bot, nil
	}
	return Human, nil
}

func (c *Client) verifyURL() string {
	if c.VerifyURL == "" {
		return DefaultVerifyURL
	}
	return c.VerifyURL
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}
