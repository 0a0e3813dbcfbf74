package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"casetrack/internal/bootstrap"
	"casetrack/internal/bootstrap/logging"
	"casetrack/internal/errs"
)

var initDbCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Initialize database schema and seed the admin account",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))
		logging.Info(ctx, "start init-db")

		if err := app.InitSchema(ctx); err != nil {
			logging.Error(ctx, "initialize schema failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "initialize schema")
		}

		if key := app.Config.Workflow.AdminBootstrapKey; key != "" {
			admin, err := svc.Admin.EnsureAdmin(ctx, key)
			if err != nil {
				return errs.Wrap(err, "seed admin account")
			}
			logging.Info(ctx, "admin account ready", slog.Uint64("user_id", admin.ID))
		} else {
			logging.Warn(ctx, "no workflow.admin_bootstrap_key configured, skipping admin seed")
		}

		logging.Info(ctx, "init-db finished", slog.String("database_dsn", app.Config.Database.DSN))
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "database schema initialized: %s\n", app.Config.Database.DSN); err != nil {
			return errs.Wrap(err, "write init-db output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(initDbCmd)
}
