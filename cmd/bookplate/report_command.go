package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"bookplate/internal/report"
	"bookplate/internal/services"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show per-block availability and status totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(eng *engine) error {
				reg, err := eng.store.Snapshot()
				if err != nil {
					return err
				}
				rep, err := report.Availability(reg)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				switch format {
				case "json":
					return writeJSON(out, rep)
				case "csv":
					data, err := report.AvailabilityCSV(rep)
					if err != nil {
						return err
					}
					_, err = out.Write(data)
					return err
				case "table":
					rows := make([][]string, 0, len(rep.PerBlock))
					for _, b := range rep.PerBlock {
						rows = append(rows, []string{
							b.BlockID,
							strconv.FormatInt(b.Capacity, 10),
							strconv.FormatInt(b.Utilization.Available, 10),
							strconv.FormatInt(b.Utilization.Reserved, 10),
							strconv.FormatInt(b.Utilization.Scheduled, 10),
							strconv.FormatInt(b.Utilization.Assigned, 10),
						})
					}
					if len(rows) > 0 {
						printRows(cmd, []tableColumn{
							{Title: "Block"}, {Title: "Capacity", Numeric: true},
							{Title: "Available", Numeric: true}, {Title: "Reserved", Numeric: true},
							{Title: "Scheduled", Numeric: true}, {Title: "Assigned", Numeric: true},
						}, rows)
					}
					fmt.Fprintf(out, "Totals: %d available, %d reserved, %d scheduled, %d assigned, %d external\n",
						rep.Totals.Available, rep.Totals.Reserved, rep.Totals.Scheduled,
						rep.Totals.Assigned, rep.Totals.External)
					return nil
				default:
					return services.Wrap(services.ErrValidation, "cli", "report",
						fmt.Sprintf("unsupported format %q (want table, json, or csv)", format), nil)
				}
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table, json, or csv")
	return cmd
}
