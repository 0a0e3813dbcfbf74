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

var importCasesCmd = &cobra.Command{
	Use:   "import-cases <file.csv>",
	Short: "Bulk-register cases from a CSV file",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		f, err := os.Open(cmd.Flags().Args()[0])
		if err != nil {
			return errs.Wrap(err, "open csv file")
		}
		defer f.Close()

		summary, err := svc.Admin.ImportCSV(ctx, f)
		if err != nil {
			return errs.Wrap(err, "import cases")
		}

		logging.Info(ctx, "case import finished",
			slog.Int("created", summary.Created),
			slog.Int("duplicates", summary.Duplicates),
			slog.Int("failed", len(summary.Failed)),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "created %d, duplicates %d, failed %d\n",
			summary.Created, summary.Duplicates, len(summary.Failed))
		for _, failure := range summary.Failed {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", failure)
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(importCasesCmd)
}
