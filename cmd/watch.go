package cmd

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"casetrack/internal/bootstrap"
	"casetrack/internal/errs"
	"casetrack/internal/infrastructure/watch"
)

var watchDirFlag string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Ingest qc summary files dropped into a directory",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc services) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		dir := watchDirFlag
		if dir == "" {
			dir = app.Config.Watch.Dir
		}
		if dir == "" {
			return errors.New("no watch directory configured (flag --dir or watch.dir)")
		}

		// Drop-dir ingestion acts as the seeded admin account.
		admin, found, err := svc.Users.GetByUsername(ctx, "admin")
		if err != nil {
			return errs.Wrap(err, "resolve admin account")
		}
		if !found {
			return errors.New("admin account missing, run init-db first")
		}

		return watch.New(dir, svc.Qc, admin.ID).Run(ctx)
	}),
}

func init() {
	watchCmd.Flags().StringVar(&watchDirFlag, "dir", "", "Directory to watch for qc summary JSON files")
	rootCmd.AddCommand(watchCmd)
}
