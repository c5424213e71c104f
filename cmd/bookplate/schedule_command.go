package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bookplate/internal/allocator"
)

// scheduleFlags registers the request flags shared by schedule and
// get-or-assign.
func scheduleFlags(cmd *cobra.Command, req *allocator.Request) {
	cmd.Flags().StringVar(&req.BookID, "book-id", "", "Caller-supplied book key")
	cmd.Flags().StringVar(&req.Title, "title", "", "Working title")
	cmd.Flags().StringVar(&req.Date, "date", "", "Scheduled publication date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&req.Imprint, "imprint", "", "Imprint name")
	cmd.Flags().StringVar(&req.Publisher, "publisher", "", "Publisher name")
	cmd.Flags().StringVar(&req.Format, "format", "", "Physical or digital format")
	cmd.Flags().IntVar(&req.Priority, "priority", 0, "Priority (higher is sooner)")
	cmd.Flags().StringVar(&req.Notes, "notes", "", "Free-form notes")
	cmd.Flags().StringVar(&req.Block, "block", "", "Allocation block id (defaults to publisher.default_block)")
	_ = cmd.MarkFlagRequired("book-id")
}

func newScheduleCommand(ctx *commandContext) *cobra.Command {
	var req allocator.Request

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Schedule one book, allocating or validating its identifier",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(eng *engine) error {
				a, outcome, err := eng.alloc.Schedule(cmd.Context(), req)
				if err != nil {
					return err
				}
				switch outcome {
				case allocator.OutcomeUpdated:
					fmt.Fprintf(cmd.OutOrStdout(), "Updated %s (isbn %s unchanged)\n", a.BookID, a.ISBN)
				default:
					fmt.Fprintf(cmd.OutOrStdout(), "Scheduled %s with isbn %s\n", a.BookID, a.ISBN)
				}
				return nil
			})
		},
	}

	scheduleFlags(cmd, &req)
	cmd.Flags().StringVar(&req.ISBN, "isbn", "", "Manually supplied ISBN-13 (auto-allocates when empty)")
	return cmd
}

func newGetOrAssignCommand(ctx *commandContext) *cobra.Command {
	var req allocator.Request

	cmd := &cobra.Command{
		Use:   "get-or-assign",
		Short: "Return the book's existing identifier or assign a new one",
		Long: "get-or-assign is the idempotent integration point for pipeline rebuilds:\n" +
			"a book key that already holds an identifier gets the same one back, so\n" +
			"repeated runs never burn through the block.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(eng *engine) error {
				a, _, err := eng.alloc.GetOrAssign(cmd.Context(), req)
				if err != nil {
					return err
				}
				// bare identifier on stdout so pipelines can capture it
				fmt.Fprintln(cmd.OutOrStdout(), a.ISBN)
				return nil
			})
		},
	}

	scheduleFlags(cmd, &req)
	return cmd
}
