package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ukydev/fleetfix/internal/models"
)

// ClientType identifies this service to the auth API.
const ClientType = "web"

// Tokens is a remote access/refresh token pair.
type Tokens struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int64       `json:"expires_in"`
	User         models.User `json:"user"`
}

// AuthClient talks to the remote auth API.
type AuthClient struct {
	*Client
}

// NewAuthClient creates an auth API client.
func NewAuthClient(baseURL string, timeout time.Duration) *AuthClient {
	return &AuthClient{Client: NewClient(baseURL, timeout)}
}

// Login exchanges credentials for remote tokens.
func (c *AuthClient) Login(ctx context.Context, username, password, deviceID string) (*Tokens, error) {
	body := map[string]string{
		"username":    username,
		"password":    password,
		"device_id":   deviceID,
		"client_type": ClientType,
	}
	var resp Tokens
	if err := c.Do(ctx, http.MethodPost, "/auth/login", nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Refresh exchanges a remote refresh token for a new pair.
func (c *AuthClient) Refresh(ctx context.Context, refreshToken, deviceID string) (*Tokens, error) {
	body := map[string]string{"refresh_token": refreshToken, "device_id": deviceID}
	var resp Tokens
	if err := c.Do(ctx, http.MethodPost, "/auth/refresh", nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout revokes a remote refresh token.
func (c *AuthClient) Logout(ctx context.Context, refreshToken string) error {
	body := map[string]string{"refresh_token": refreshToken}
	return c.Do(ctx, http.MethodPost, "/auth/logout", nil, body, nil)
}

// Register creates a remote account.
func (c *AuthClient) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	var resp struct {
		Message string      `json:"message"`
		User    models.User `json:"user"`
	}
	if err := c.Do(ctx, http.MethodPost, "/auth/register", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}
