// Package gateway is a client for the helix-gateway REST API.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"helix/internal/lookup"
	"helix/internal/twitch"
)

// Client talks to a running helix-gateway
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

// NewClient creates a new gateway client
func NewClient(baseURL, apiKey string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.With("component", "gateway"),
	}
}

// TokenStatus is the app access token state reported by the gateway
type TokenStatus struct {
	Authorized bool       `json:"authorized"`
	ExpiresAt  *time.Time `json:"expires_at"`
}

type usersResponse struct {
	Users []twitch.User `json:"users"`
	Count int           `json:"count"`
}

// APIError represents a gateway error response
type APIError struct {
	StatusCode int
	Message    string `json:"error"`
	Code       string `json:"code"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway error %d: %s (%s)", e.StatusCode, e.Message, e.Code)
}

// Unwrap maps gateway error codes back to lookup errors
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "USER_NOT_FOUND":
		return lookup.ErrUserNotFound
	case "INVALID_LOGIN":
		return lookup.ErrInvalidLogin
	}
	return nil
}

// User retrieves a single user by login
func (c *Client) User(ctx context.Context, login string) (*twitch.User, error) {
	if strings.TrimSpace(login) == "" {
		return nil, lookup.ErrInvalidLogin
	}

	var user twitch.User
	if err := c.doRequest(ctx, http.MethodGet, "/v1/users/"+url.PathEscape(login), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Users retrieves several users in one request
func (c *Client) Users(ctx context.Context, logins []string) ([]twitch.User, error) {
	if len(logins) == 0 {
		return nil, lookup.ErrInvalidLogin
	}

	var response usersResponse
	path := "/v1/users?" + url.Values{"login": logins}.Encode()
	if err := c.doRequest(ctx, http.MethodGet, path, &response); err != nil {
		return nil, err
	}
	return response.Users, nil
}

// TokenStatus reports the gateway's token state
func (c *Client) TokenStatus(ctx context.Context) (*TokenStatus, error) {
	var status TokenStatus
	if err := c.doRequest(ctx, http.MethodGet, "/v1/token", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// RefreshToken forces the gateway to obtain a new token
func (c *Client) RefreshToken(ctx context.Context) (*TokenStatus, error) {
	var status TokenStatus
	if err := c.doRequest(ctx, http.MethodPost, "/v1/token/refresh", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// doRequest performs an HTTP request to the gateway
func (c *Client) doRequest(ctx context.Context, method, path string, result interface{}) error {
	endpoint := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Helix-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("Gateway request",
		"method", method,
		"url", endpoint,
	)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(respBody, apiErr); err != nil || apiErr.Message == "" {
			return fmt.Errorf("gateway error %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
		}
		return apiErr
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}

var _ lookup.Lookup = (*Client)(nil)

