package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"casetrack/internal/bootstrap"
	"casetrack/internal/bootstrap/logging"
	"casetrack/internal/errs"
	"casetrack/internal/usecase/caseadmin"
)

var (
	addUserDisplayName string
	addUserRole        string
)

var addUserCmd = &cobra.Command{
	Use:   "add-user <username>",
	Short: "Register a user and print their API key",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		created, err := svc.Admin.RegisterUser(ctx, caseadmin.RegisterUserInput{
			Username:    cmd.Flags().Args()[0],
			DisplayName: addUserDisplayName,
			Role:        addUserRole,
		})
		if err != nil {
			return errs.Wrap(err, "register user")
		}

		logging.Info(ctx, "user registered",
			slog.Uint64("user_id", created.ID),
			slog.String("role", string(created.Role)),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "user %s (%s) created, api key: %s\n",
			created.Username, created.Role, created.APIKey)
		return nil
	}),
}

func init() {
	addUserCmd.Flags().StringVar(&addUserDisplayName, "name", "", "Display name")
	addUserCmd.Flags().StringVar(&addUserRole, "role", "WORKER", "Role: ADMIN or WORKER")
	rootCmd.AddCommand(addUserCmd)
}
