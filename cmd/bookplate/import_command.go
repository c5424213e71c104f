package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bookplate/internal/services"
)

func newImportScheduleCommand(ctx *commandContext) *cobra.Command {
	var (
		file       string
		showErrors bool
	)

	cmd := &cobra.Command{
		Use:   "import-schedule",
		Short: "Batch-import a publication schedule from CSV or JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(eng *engine) error {
				result, err := eng.importer.ImportFile(cmd.Context(), file)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Processed %d rows: %d manual, %d auto, %d updated, %d failed\n",
					result.Processed, result.AssignedManual, result.AssignedAuto,
					result.Updated, len(result.Errors))

				if len(result.Errors) == 0 {
					return nil
				}
				if showErrors {
					for _, rowErr := range result.Errors {
						label := rowErr.Title
						if label == "" {
							label = fmt.Sprintf("row %d", rowErr.Row)
						}
						fmt.Fprintf(out, "  row %d (%s): %s\n", rowErr.Row, label, rowErr.Message)
					}
				} else {
					fmt.Fprintln(out, "Run with --show-errors for per-row details")
				}
				return services.Wrap(services.ErrValidation, "import", "import-schedule",
					fmt.Sprintf("%d rows failed", len(result.Errors)), nil)
			})
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Schedule file (.csv or .json)")
	cmd.Flags().BoolVar(&showErrors, "show-errors", false, "Print per-row failure details")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
