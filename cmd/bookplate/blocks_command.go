package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"bookplate/internal/report"
)

func newBlocksCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "blocks",
		Short: "List registered blocks with utilization",
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
				if len(rep.PerBlock) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No blocks registered")
					return nil
				}

				rows := make([][]string, 0, len(rep.PerBlock))
				for _, b := range rep.PerBlock {
					rows = append(rows, []string{
						b.BlockID,
						b.Prefix,
						b.PublisherCode,
						fmt.Sprintf("%d..%d", b.RangeStart, b.RangeEnd),
						strconv.FormatInt(b.Capacity, 10),
						strconv.FormatInt(b.Utilization.Available, 10),
						strconv.FormatInt(b.Utilization.Reserved, 10),
						strconv.FormatInt(b.Utilization.Scheduled, 10),
						strconv.FormatInt(b.Utilization.Assigned, 10),
					})
				}
				printRows(cmd, []tableColumn{
					{Title: "Block"}, {Title: "Prefix"}, {Title: "Publisher"}, {Title: "Range"},
					{Title: "Capacity", Numeric: true}, {Title: "Available", Numeric: true},
					{Title: "Reserved", Numeric: true}, {Title: "Scheduled", Numeric: true},
					{Title: "Assigned", Numeric: true},
				}, rows)
				return nil
			})
		},
	}
}
