package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bookplate/internal/services"
)

func newLookupCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "lookup <book-id>",
		Short: "Look up the active assignment for a book key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(eng *engine) error {
				a, found, err := eng.alloc.Lookup(args[0])
				if err != nil {
					return err
				}
				if !found {
					// friendly message on stdout, non-zero exit for scripts
					fmt.Fprintf(cmd.OutOrStdout(), "No active assignment for %s\n", args[0])
					return services.Wrap(services.ErrValidation, "cli", "lookup",
						fmt.Sprintf("no active assignment for %s", args[0]), nil)
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), a)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ISBN:     %s\n", a.ISBN)
				fmt.Fprintf(out, "Book ID:  %s\n", a.BookID)
				if a.Title != "" {
					fmt.Fprintf(out, "Title:    %s\n", a.Title)
				}
				fmt.Fprintf(out, "Status:   %s\n", a.Status)
				if a.ScheduledDate != "" {
					fmt.Fprintf(out, "Date:     %s\n", a.ScheduledDate)
				}
				if a.External {
					fmt.Fprintln(out, "External: yes")
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the assignment as JSON")
	return cmd
}
