package cli

import (
	"time"

	"github.com/spf13/cobra"
)

func newTokenCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Obtain an app access token and show its expiry",
		Long: `Run the client-credentials grant against the token endpoint, or ask the
gateway to do so when --gateway is set.

The token itself is never printed; use this to check credentials.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := a.tokens.refresh(cmd.Context())
			if err != nil {
				return err
			}

			if a.jsonOut {
				return a.printer.JSON(status)
			}

			if status.ExpiresAt != nil {
				a.printer.Success("Authorized until %s (%s)",
					status.ExpiresAt.UTC().Format(time.RFC3339),
					time.Until(*status.ExpiresAt).Round(time.Second))
			}
			if !status.Authorized {
				a.printer.Warning("Token lifetime is within the premature expiration margin")
			}
			return nil
		},
	}
}
