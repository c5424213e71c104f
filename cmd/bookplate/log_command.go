package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLogCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recent registry mutations from the audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(eng *engine) error {
				out := cmd.OutOrStdout()
				if eng.audit == nil {
					fmt.Fprintln(out, "Audit log is disabled (set audit.enabled = true)")
					return nil
				}
				entries, err := eng.audit.Recent(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintln(out, "Audit log is empty")
					return nil
				}

				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{
						e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
						e.Operation,
						e.ISBN,
						e.BookID,
						e.Detail,
					})
				}
				printRows(cmd, []tableColumn{
					{Title: "Time"}, {Title: "Operation"}, {Title: "ISBN"},
					{Title: "Book ID"}, {Title: "Detail"},
				}, rows)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries to show")
	return cmd
}
