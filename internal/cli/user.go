package cli

import (
	"github.com/spf13/cobra"
)

func newUserCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "user <login>",
		Short: "Show a single Twitch user",
		Long: `Look up one Twitch user by login name.

Examples:
  helixctl user twitchdev            # Show as a table
  helixctl user twitchdev --json     # Output as JSON`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.lookup.User(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if a.jsonOut {
				return a.printer.JSON(user)
			}
			a.printer.Header(user.DisplayName)
			return a.printer.UserDetail(*user)
		},
	}
}
