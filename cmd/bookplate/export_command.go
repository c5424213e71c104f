package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bookplate/internal/config"
	"bookplate/internal/fileutil"
	"bookplate/internal/report"
	"bookplate/internal/services"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the full assignment table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(eng *engine) error {
				reg, err := eng.store.Snapshot()
				if err != nil {
					return err
				}
				data, err := report.Export(reg, format)
				if err != nil {
					return err
				}

				if output == "" {
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}
				path, err := config.ExpandPath(output)
				if err != nil {
					return err
				}
				if err := fileutil.WriteAtomic(path, data, 0o644); err != nil {
					return services.Wrap(services.ErrIO, "cli", "export", "write "+path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d assignments to %s\n", len(reg.Assignments), path)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "Output format: csv or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}
