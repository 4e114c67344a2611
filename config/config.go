package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"helix/internal/twitch"

	"github.com/spf13/viper"
)

var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrInvalidConfig      = errors.New("invalid configuration")
)

// EnvPrefix prefixes every environment override, e.g. HELIX_TWITCH_CLIENT_ID
const EnvPrefix = "HELIX"

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server" json:"server"`
	Database DatabaseConfig `mapstructure:"database" json:"database"`
	Security SecurityConfig `mapstructure:"security" json:"security"`
	Twitch   TwitchConfig   `mapstructure:"twitch" json:"twitch"`
	Cache    CacheConfig    `mapstructure:"cache" json:"cache"`
	Logging  LoggingConfig  `mapstructure:"logging" json:"logging"`
	Gateway  GatewayConfig  `mapstructure:"gateway" json:"gateway"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `mapstructure:"host" json:"host"`
	Port int    `mapstructure:"port" json:"port"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `mapstructure:"path" json:"path"`
}

// SecurityConfig contains security settings
type SecurityConfig struct {
	APIKey string `mapstructure:"api_key" json:"-"`
}

// TwitchConfig contains Twitch application credentials and client tuning
type TwitchConfig struct {
	ClientID            string        `mapstructure:"client_id" json:"client_id"`
	ClientSecret        string        `mapstructure:"client_secret" json:"-"`
	AutoAuthorize       bool          `mapstructure:"auto_authorize" json:"auto_authorize"`
	PrematureExpiration time.Duration `mapstructure:"premature_expiration" json:"premature_expiration"`
	BaseURL             string        `mapstructure:"base_url" json:"base_url"`
	TokenURL            string        `mapstructure:"token_url" json:"token_url"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout" json:"request_timeout"`
}

// CacheConfig contains user cache settings
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl" json:"ttl"`
	// MaintenanceInterval is how often the gateway prunes the cache and
	// renews the app access token
	MaintenanceInterval time.Duration `mapstructure:"maintenance_interval" json:"maintenance_interval"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" json:"level"`
	Format string `mapstructure:"format" json:"format"`
}

// GatewayConfig points helixctl at a running gateway instead of Twitch.
// The gateway is called with Security.APIKey.
type GatewayConfig struct {
	URL string `mapstructure:"url" json:"url"`
}

// Validate validates the settings every binary needs
func (c *Config) Validate() error {
	if c.Twitch.ClientID == "" || c.Twitch.ClientSecret == "" {
		return fmt.Errorf("%w: Twitch client_id and client_secret are required", ErrInvalidConfig)
	}

	if c.Twitch.PrematureExpiration < 0 {
		return fmt.Errorf("%w: premature expiration must not be negative", ErrInvalidConfig)
	}

	if c.Twitch.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request timeout must be positive", ErrInvalidConfig)
	}

	if c.Cache.TTL < 0 {
		return fmt.Errorf("%w: cache TTL must not be negative", ErrInvalidConfig)
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.Logging.Format)
	}

	return nil
}

// ValidateServer additionally checks the settings helix-gateway needs to serve HTTP
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: invalid server port", ErrInvalidConfig)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("%w: database path is required", ErrInvalidConfig)
	}

	if c.Security.APIKey == "" {
		return fmt.Errorf("%w: API key is required", ErrInvalidConfig)
	}

	if c.Cache.MaintenanceInterval <= 0 {
		return fmt.Errorf("%w: maintenance interval must be positive", ErrInvalidConfig)
	}

	return nil
}

// ClientConfig converts the Twitch section into a client configuration
func (t TwitchConfig) ClientConfig() twitch.Config {
	cfg := twitch.Config{
		ClientID:            t.ClientID,
		ClientSecret:        t.ClientSecret,
		AutoAuthorize:       twitch.Bool(t.AutoAuthorize),
		PrematureExpiration: twitch.Duration(t.PrematureExpiration),
		BaseURL:             t.BaseURL,
		TokenURL:            t.TokenURL,
	}
	if t.RequestTimeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: t.RequestTimeout}
	}
	return cfg
}

// Load loads configuration from a JSON, YAML or TOML file.
// HELIX_* environment variables override file values.
func Load(path string) (*Config, error) {
	config, err := Read(path)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadFromEnv loads configuration from environment variables
// This is useful for containerized deployments
func LoadFromEnv() (*Config, error) {
	return Load("")
}

// Read decodes configuration without validating it. An empty path reads
// defaults and environment variables only.
func Read(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return nil, ErrConfigFileNotFound
			}
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// setDefaults registers every key so environment overrides apply on Unmarshal
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("database.path", "./helix.db")

	v.SetDefault("security.api_key", "")

	v.SetDefault("twitch.client_id", "")
	v.SetDefault("twitch.client_secret", "")
	v.SetDefault("twitch.auto_authorize", true)
	v.SetDefault("twitch.premature_expiration", twitch.DefaultPrematureExpiration)
	v.SetDefault("twitch.base_url", twitch.DefaultBaseURL)
	v.SetDefault("twitch.token_url", twitch.DefaultTokenURL)
	v.SetDefault("twitch.request_timeout", twitch.DefaultHTTPTimeout)

	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.maintenance_interval", time.Minute)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("gateway.url", "")
}
