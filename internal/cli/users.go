package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"helix/internal/twitch"
)

func newUsersCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "users <login>...",
		Short: "Show several Twitch users",
		Long: `Look up several Twitch users in one request.

At most 100 logins are sent; any beyond that are discarded with a warning.
Unknown logins are omitted.

Examples:
  helixctl users twitchdev twitch
  helixctl users twitchdev twitch --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := a.lookup.Users(cmd.Context(), args)
			if err != nil {
				return err
			}
			if users == nil {
				users = []twitch.User{}
			}

			if a.jsonOut {
				return a.printer.JSON(users)
			}

			if len(users) == 0 {
				a.printer.Info("No users found")
				return nil
			}
			if err := a.printer.UserTable(users); err != nil {
				return err
			}

			requested := min(len(args), twitch.MaxUsersPerRequest)
			if missing := requested - len(users); missing > 0 {
				a.printer.Print("%s", a.printer.Dim(pluralize(missing, "login")+" not found"))
			}
			return nil
		},
	}
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
