package twitch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"helix/internal/idgen"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const authorizeKey = "authorize"

// Client talks to the Helix API on behalf of one application.
// It is safe for concurrent use.
type Client struct {
	settings   settings
	httpClient *http.Client
	clock      Clock
	events     *emitter

	tokenMu sync.RWMutex
	token   *oauth2.Token

	// Collapses concurrent authorizations into one token request
	authGroup singleflight.Group
}

// APIResponse is a validated Helix response
type APIResponse struct {
	StatusCode int
	Header     http.Header
	URL        string
	Body       Envelope
}

// Envelope is the top-level Helix response body
type Envelope struct {
	Data       json.RawMessage `json:"data"`
	Pagination json.RawMessage `json:"pagination,omitempty"`
	Total      *int            `json:"total,omitempty"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// New creates a client. Token state starts empty; nothing is requested until
// Authorize or the first data call.
func New(cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: DefaultHTTPTimeout,
		}
	}

	var clock Clock = RealClock{}
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &Client{
		settings:   cfg.resolve(),
		httpClient: httpClient,
		clock:      clock,
		events:     newEmitter(),
	}, nil
}

// On registers a handler for diagnostic events of type t
func (c *Client) On(t EventType, h Handler) {
	c.events.on(t, h)
}

func (c *Client) log(level Level, requestID, message string) {
	c.events.emit(Event{
		Type:      EventTypeFor(level),
		Level:     level,
		Message:   message,
		RequestID: requestID,
		Time:      c.clock.Now(),
	})
}

// Authorize obtains a new app access token with the client-credentials grant
// and returns its expiration. Concurrent calls share one token request; ctx
// only bounds how long this caller waits for it.
func (c *Client) Authorize(ctx context.Context) (time.Time, error) {
	ch := c.authGroup.DoChan(authorizeKey, func() (interface{}, error) {
		return c.requestToken(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return time.Time{}, res.Err
		}
		return res.Val.(time.Time), nil
	case <-ctx.Done():
		return time.Time{}, ctx.Err()
	}
}

// requestToken performs the token exchange and stores the result
func (c *Client) requestToken(ctx context.Context) (time.Time, error) {
	u, err := url.Parse(c.settings.tokenURL)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid token URL: %w", err)
	}
	q := u.Query()
	q.Set("client_id", c.settings.clientID)
	q.Set("client_secret", c.settings.clientSecret)
	q.Set("grant_type", "client_credentials")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), nil)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return time.Time{}, &NetworkError{Method: http.MethodPost, URL: c.settings.tokenURL, Err: redactURLError(err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return time.Time{}, &NetworkError{Method: http.MethodPost, URL: c.settings.tokenURL, Err: fmt.Errorf("failed to read token response: %w", err)}
	}

	var tr tokenResponse
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || json.Unmarshal(body, &tr) != nil || tr.AccessToken == "" {
		message := fmt.Sprintf("Got an unexpected token response from Twitch API (status %d): %s", resp.StatusCode, describeBody(body))
		c.log(LevelError, "", message)
		return time.Time{}, &APIResponseError{StatusCode: resp.StatusCode, Body: string(body), Message: message}
	}

	expiry := c.clock.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	c.setToken(&oauth2.Token{
		AccessToken:  tr.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: tr.RefreshToken,
		Expiry:       expiry,
	})

	return expiry, nil
}

func (c *Client) setToken(token *oauth2.Token) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()
	c.token = token
}

// Token returns a copy of the current token, or nil before the first authorization
func (c *Client) Token() *oauth2.Token {
	c.tokenMu.RLock()
	defer c.tokenMu.RUnlock()
	if c.token == nil {
		return nil
	}
	token := *c.token
	return &token
}

func (c *Client) accessToken() string {
	c.tokenMu.RLock()
	defer c.tokenMu.RUnlock()
	if c.token == nil {
		return ""
	}
	return c.token.AccessToken
}

// IsAuthorized reports whether a token is held that stays valid for longer
// than the premature expiration margin. The comparison is strict: a token
// expiring exactly at now+margin is already considered stale.
func (c *Client) IsAuthorized() bool {
	c.tokenMu.RLock()
	defer c.tokenMu.RUnlock()

	if c.token == nil || c.token.AccessToken == "" {
		return false
	}
	return c.clock.Now().Add(c.settings.prematureExpiration).Before(c.token.Expiry)
}

// autoAuthorize renews the token when it is stale and auto authorization is enabled
func (c *Client) autoAuthorize(ctx context.Context) error {
	if c.IsAuthorized() || !c.settings.autoAuthorize {
		return nil
	}
	_, err := c.Authorize(ctx)
	return err
}

// SendAPIRequest issues a GET for query against the API base URL and
// validates the Helix envelope of the response.
func (c *Client) SendAPIRequest(ctx context.Context, query string) (*APIResponse, error) {
	if err := c.autoAuthorize(ctx); err != nil {
		return nil, err
	}

	requestID := idgen.NewRequest()
	endpoint := c.resolveURL(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Client-Id", c.settings.clientID)
	if token := c.accessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.log(LevelInfo, requestID, fmt.Sprintf("%s %s", req.Method, req.URL.String()))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Method: http.MethodGet, URL: endpoint, Err: redactURLError(err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Method: http.MethodGet, URL: endpoint, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	envelope, ok := parseEnvelope(raw)
	if !ok {
		message := fmt.Sprintf("Got an unexpected response body from Twitch API: %s", describeBody(raw))
		c.log(LevelError, requestID, message)
		return nil, &APIResponseError{StatusCode: resp.StatusCode, Body: string(raw), Message: message}
	}

	return &APIResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		URL:        endpoint,
		Body:       *envelope,
	}, nil
}

// GetAPIData sends query and returns only the data field of the response
func (c *Client) GetAPIData(ctx context.Context, query string) (json.RawMessage, error) {
	resp, err := c.SendAPIRequest(ctx, query)
	if err != nil {
		return nil, err
	}
	return resp.Body.Data, nil
}

func (c *Client) resolveURL(query string) string {
	return strings.TrimRight(c.settings.baseURL, "/") + "/" + strings.TrimLeft(query, "/")
}

// parseEnvelope accepts a JSON object with a non-empty data field and no error field
func parseEnvelope(raw []byte) (*Envelope, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil || fields == nil {
		return nil, false
	}
	if value, ok := fields["error"]; ok && !isFalsy(value) {
		return nil, false
	}
	if value, ok := fields["data"]; !ok || isFalsy(value) {
		return nil, false
	}

	var envelope Envelope
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, false
	}
	return &envelope, true
}

// isFalsy matches the JSON scalars that carry no value: null, false, "" and 0
func isFalsy(value json.RawMessage) bool {
	switch strings.TrimSpace(string(value)) {
	case "null", "false", `""`, "0":
		return true
	}
	return false
}

// describeBody renders a response body for error messages, compacting JSON
func describeBody(raw []byte) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "<empty body>"
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err == nil {
		return buf.String()
	}
	return string(trimmed)
}

// redactURLError drops the request URL from transport errors so query
// credentials never reach error messages or logs.
func redactURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", strings.ToLower(urlErr.Op), urlErr.Err)
	}
	return err
}
