// Package cli contains the helixctl commands
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"helix/config"
	"helix/internal/gateway"
	"helix/internal/logging"
	"helix/internal/lookup"
	"helix/internal/output"
	"helix/internal/twitch"
)

// tokenSource obtains a fresh app access token and reports its state
type tokenSource interface {
	refresh(ctx context.Context) (*gateway.TokenStatus, error)
}

// app holds state shared by every command of one invocation
type app struct {
	cfgFile    string
	verbose    bool
	jsonOut    bool
	colorMode  string
	gatewayURL string

	cfg     *config.Config
	lookup  lookup.Lookup
	tokens  tokenSource
	printer *output.Printer
	logger  *slog.Logger
}

// NewRootCommand builds the helixctl command tree
func NewRootCommand(version string) *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "helixctl",
		Short: "Query the Twitch Helix API",
		Long: `helixctl looks up Twitch users through the Helix API using an app
access token obtained with the client-credentials grant.

Credentials come from the config file or HELIX_* environment variables:
  HELIX_TWITCH_CLIENT_ID, HELIX_TWITCH_CLIENT_SECRET

With --gateway (or HELIX_GATEWAY_URL) requests go through a running
helix-gateway instead, authenticated with HELIX_SECURITY_API_KEY.

Example usage:
  helixctl user twitchdev            # Show a single user
  helixctl users twitchdev twitch    # Show several users as a table
  helixctl token                     # Obtain a token and show its expiry`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	// Global flags
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: environment only)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log every API request")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "output as JSON")
	root.PersistentFlags().StringVar(&a.colorMode, "color", "auto", "color output: auto, always, never")
	root.PersistentFlags().StringVar(&a.gatewayURL, "gateway", "", "helix-gateway base URL")

	root.AddCommand(
		newUserCommand(a),
		newUsersCommand(a),
		newTokenCommand(a),
	)

	return root
}

// init loads configuration and builds the lookup backend
func (a *app) init(cmd *cobra.Command) error {
	mode, err := output.ParseColorMode(a.colorMode)
	if err != nil {
		return err
	}
	a.printer = output.NewPrinter(output.PrinterOptions{
		ColorMode: mode,
		Out:       cmd.OutOrStdout(),
		Err:       cmd.ErrOrStderr(),
	})

	a.cfg, err = config.Read(a.cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if a.gatewayURL != "" {
		a.cfg.Gateway.URL = a.gatewayURL
	}

	// Warnings reach the user through the printer; the logger only
	// carries request tracing and errors.
	level := slog.LevelError
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = logging.NewLogger(logging.LoggerConfig{
		Format: "text",
		Level:  level,
		Output: cmd.ErrOrStderr(),
	})

	if a.cfg.Gateway.URL != "" {
		client := gateway.NewClient(a.cfg.Gateway.URL, a.cfg.Security.APIKey, a.logger)
		a.lookup = client
		a.tokens = gatewayTokens{client}
		a.logger.Debug("using gateway", "url", a.cfg.Gateway.URL)
		return nil
	}

	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	client, err := twitch.New(a.cfg.Twitch.ClientConfig())
	if err != nil {
		return err
	}
	logging.SubscribeClientEvents(client, a.logger)
	client.On(twitch.EventLogWarn, func(ev twitch.Event) {
		a.printer.Warning("%s", ev.Message)
	})

	a.lookup = lookup.NewService(client, nil, lookup.Config{}, a.logger)
	a.tokens = directTokens{client}

	a.logger.Debug("configuration loaded",
		"base_url", a.cfg.Twitch.BaseURL,
		"auto_authorize", a.cfg.Twitch.AutoAuthorize)

	return nil
}

type directTokens struct {
	client *twitch.Client
}

func (d directTokens) refresh(ctx context.Context) (*gateway.TokenStatus, error) {
	expiresAt, err := d.client.Authorize(ctx)
	if err != nil {
		return nil, err
	}
	return &gateway.TokenStatus{Authorized: d.client.IsAuthorized(), ExpiresAt: &expiresAt}, nil
}

type gatewayTokens struct {
	client *gateway.Client
}

func (g gatewayTokens) refresh(ctx context.Context) (*gateway.TokenStatus, error) {
	return g.client.RefreshToken(ctx)
}
