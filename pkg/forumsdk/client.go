package forumsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Client talks to the forum service's public endpoints and creates
// Sessions for authenticated ones.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Register creates an account. No tokens are issued; call Login next.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/user/register", "", req)
	if err != nil {
		return nil, err
	}

	var user UserResponse
	if err := decodeJSON(resp, &user, http.StatusCreated); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login authenticates with a password and bot-check token and returns a
// Session holding the issued tokens.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*Session, *LoginResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/user/login", "", req)
	if err != nil {
		return nil, nil, err
	}

	var login LoginResponse
	if err := decodeJSON(resp, &login, http.StatusOK); err != nil {
		return nil, nil, err
	}
	return c.NewSession(login.AccessToken, login.RefreshToken), &login, nil
}

// NewSession wraps tokens obtained elsewhere.
func (c *Client) NewSession(accessToken, refreshToken string) *Session {
	return &Session{client: c, accessToken: accessToken, refreshToken: refreshToken}
}

// GetLiveness calls /livez.
func (c *Client) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/livez")
}

// GetReadiness calls /readyz. A degraded service answers 503, which is
// returned as an *APIError.
func (c *Client) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/readyz")
}

func (c *Client) health(ctx context.Context, path string) (*HealthResponse, error) {
	resp, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, err
	}

	var health HealthResponse
	if err := decodeJSON(resp, &health, http.StatusOK); err != nil {
		return nil, err
	}
	return &health, nil
}

// GetJWKS fetches the published verification keys.
func (c *Client) GetJWKS(ctx context.Context) (*JWKSResponse, error) {
	resp, err := c.do(ctx, http.MethodGet, "/.well-known/jwks.json", "", nil)
	if err != nil {
		return nil, err
	}

	var jwks JWKSResponse
	if err := decodeJSON(resp, &jwks, http.StatusOK); err != nil {
		return nil, err
	}
	return &jwks, nil
}
