package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"casetrack/internal/bootstrap"
	"casetrack/internal/bootstrap/logging"
	"casetrack/internal/errs"
)

var importHolidaysCmd = &cobra.Command{
	Use:   "import-holidays <file.yaml>",
	Short: "Replace the holiday calendar from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		f, err := os.Open(cmd.Flags().Args()[0])
		if err != nil {
			return errs.Wrap(err, "open holiday file")
		}
		defer f.Close()

		count, err := svc.Calendar.ImportHolidaysYAML(ctx, f)
		if err != nil {
			return errs.Wrap(err, "import holidays")
		}

		fmt.Fprintf(cmd.OutOrStdout(), "imported %d holiday entries\n", count)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(importHolidaysCmd)
}
