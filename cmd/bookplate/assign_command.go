package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAssignCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "assign <isbn-or-book-id>",
		Short: "Mark an identifier as printed/published",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(eng *engine) error {
				a, err := eng.alloc.Assign(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Assigned %s to %s\n", a.ISBN, firstNonEmpty(a.Title, a.BookID))
				return nil
			})
		},
	}
}

func newReserveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reserve <isbn>",
		Short: "Hold a specific identifier without booking a title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(eng *engine) error {
				a, err := eng.alloc.Reserve(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reserved %s\n", a.ISBN)
				return nil
			})
		},
	}
}

func newReleaseCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "release <isbn>",
		Short: "Return an identifier to the available pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(eng *engine) error {
				if err := eng.alloc.Release(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Released %s\n", args[0])
				return nil
			})
		},
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
