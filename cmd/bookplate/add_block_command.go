package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bookplate/internal/registry"
)

func newAddBlockCommand(ctx *commandContext) *cobra.Command {
	var (
		prefix        string
		publisherCode string
		start         int64
		end           int64
		id            string
		owner         string
	)

	cmd := &cobra.Command{
		Use:   "add-block",
		Short: "Register a purchased identifier range",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(eng *engine) error {
				block := registry.Block{
					ID:               id,
					Prefix:           prefix,
					PublisherCode:    publisherCode,
					RangeStart:       start,
					RangeEnd:         end,
					OwnerPublisherID: owner,
				}
				if block.Prefix == "" {
					block.Prefix = eng.cfg.Publisher.Prefix
				}
				if block.PublisherCode == "" {
					block.PublisherCode = eng.cfg.Publisher.PublisherCode
				}

				added, err := eng.alloc.AddBlock(cmd.Context(), block)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added block %s (%d identifiers, sequence %d..%d)\n",
					added.ID, added.Capacity(), added.RangeStart, added.RangeEnd)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "3-digit GS1 prefix (defaults to publisher.prefix)")
	cmd.Flags().StringVar(&publisherCode, "publisher-code", "", "Registrant code (defaults to publisher.publisher_code)")
	cmd.Flags().Int64Var(&start, "start", 0, "First title sequence number, inclusive")
	cmd.Flags().Int64Var(&end, "end", 0, "Last title sequence number, inclusive")
	cmd.Flags().StringVar(&id, "id", "", "Block id (derived from prefix/code/start when empty)")
	cmd.Flags().StringVar(&owner, "owner", "", "Owning publisher id")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}
