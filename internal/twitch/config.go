// Package twitch implements an authenticated client for the Twitch Helix API.
package twitch

import (
	"net/http"
	"time"
)

const (
	// DefaultBaseURL is the Helix API root every data query is resolved against
	DefaultBaseURL = "https://api.twitch.tv/helix"
	// DefaultTokenURL is the OAuth2 token endpoint used for the client-credentials grant
	DefaultTokenURL = "https://api.twitch.tv/kraken/oauth2/token"
	// DefaultPrematureExpiration is subtracted from the token lifetime to renew early
	DefaultPrematureExpiration = 10 * time.Second
	// DefaultHTTPTimeout bounds every request made by the default HTTP client
	DefaultHTTPTimeout = 30 * time.Second
	// MaxUsersPerRequest is the number of logins Helix accepts in one users query
	MaxUsersPerRequest = 100
)

// Config contains the client credentials and optional overrides.
// Nil pointer fields and empty strings fall back to the package defaults.
type Config struct {
	ClientID     string
	ClientSecret string

	// AutoAuthorize controls whether data requests authorize on demand (default: true)
	AutoAuthorize *bool
	// PrematureExpiration is the renewal margin (default: 10s)
	PrematureExpiration *time.Duration

	BaseURL    string
	TokenURL   string
	HTTPClient *http.Client
	Clock      Clock
}

// Bool returns a pointer to v, for optional Config fields
func Bool(v bool) *bool {
	return &v
}

// Duration returns a pointer to d, for optional Config fields
func Duration(d time.Duration) *time.Duration {
	return &d
}

// settings is the resolved, immutable configuration held by a Client
type settings struct {
	clientID            string
	clientSecret        string
	autoAuthorize       bool
	prematureExpiration time.Duration
	baseURL             string
	tokenURL            string
}

func (c Config) isEmpty() bool {
	return c.ClientID == "" &&
		c.ClientSecret == "" &&
		c.AutoAuthorize == nil &&
		c.PrematureExpiration == nil &&
		c.BaseURL == "" &&
		c.TokenURL == "" &&
		c.HTTPClient == nil &&
		c.Clock == nil
}

// validate checks the required credentials
func (c Config) validate() error {
	if c.isEmpty() {
		return &ConfigurationError{Reason: "client needs a configuration with client credentials"}
	}
	if c.ClientID == "" {
		return &ConfigurationError{Field: "ClientID", Reason: "is required"}
	}
	if c.ClientSecret == "" {
		return &ConfigurationError{Field: "ClientSecret", Reason: "is required"}
	}
	return nil
}

// resolve merges the package defaults with the caller's values, caller wins
func (c Config) resolve() settings {
	s := settings{
		clientID:            c.ClientID,
		clientSecret:        c.ClientSecret,
		autoAuthorize:       true,
		prematureExpiration: DefaultPrematureExpiration,
		baseURL:             DefaultBaseURL,
		tokenURL:            DefaultTokenURL,
	}
	if c.AutoAuthorize != nil {
		s.autoAuthorize = *c.AutoAuthorize
	}
	if c.PrematureExpiration != nil {
		s.prematureExpiration = *c.PrematureExpiration
	}
	if c.BaseURL != "" {
		s.baseURL = c.BaseURL
	}
	if c.TokenURL != "" {
		s.tokenURL = c.TokenURL
	}
	return s
}
