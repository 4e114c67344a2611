package twitch

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration = errors.New("invalid twitch client configuration")
	ErrNetwork       = errors.New("twitch request failed")
	ErrAPIResponse   = errors.New("unexpected twitch api response")
)

// ConfigurationError is returned by New when required options are missing
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("twitch client: %s", e.Reason)
	}
	return fmt.Sprintf("twitch client: option %s %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NetworkError wraps a transport failure during a token or data request
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// APIResponseError reports a response whose body is not a usable Helix payload
type APIResponseError struct {
	StatusCode int
	Body       string
	Message    string
}

func (e *APIResponseError) Error() string {
	return e.Message
}

func (e *APIResponseError) Is(target error) bool {
	return target == ErrAPIResponse
}
