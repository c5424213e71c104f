package main

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"bookplate/internal/registry"
	"bookplate/internal/services"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var (
		upcoming     int
		statusFilter string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List assignments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(eng *engine) error {
				var status registry.Status
				if statusFilter != "" {
					parsed, ok := registry.ParseStatus(statusFilter)
					if !ok {
						return services.Wrap(services.ErrValidation, "cli", "list",
							fmt.Sprintf("unknown status %q", statusFilter), nil)
					}
					status = parsed
				}

				reg, err := eng.store.Snapshot()
				if err != nil {
					return err
				}

				assignments := filterAssignments(reg.Assignments, status, upcoming)
				if len(assignments) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No matching assignments")
					return nil
				}

				rows := make([][]string, 0, len(assignments))
				for _, a := range assignments {
					rows = append(rows, []string{
						a.ISBN, a.BookID, a.Title, string(a.Status),
						a.ScheduledDate, a.Format, strconv.Itoa(a.Priority),
					})
				}
				printRows(cmd, []tableColumn{
					{Title: "ISBN"}, {Title: "Book ID"}, {Title: "Title"},
					{Title: "Status"}, {Title: "Date"}, {Title: "Format"},
					{Title: "Priority", Numeric: true},
				}, rows)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&upcoming, "upcoming", 0, "Only scheduled titles within the next N days")
	cmd.Flags().StringVar(&statusFilter, "status", "", "Filter by status (available, reserved, scheduled, assigned)")
	return cmd
}

// filterAssignments applies the status and --upcoming window filters and
// orders the result by scheduled date, then identifier.
func filterAssignments(assignments []registry.Assignment, status registry.Status, upcoming int) []registry.Assignment {
	var horizon time.Time
	if upcoming > 0 {
		horizon = time.Now().UTC().AddDate(0, 0, upcoming)
	}

	out := make([]registry.Assignment, 0, len(assignments))
	for _, a := range assignments {
		if status != "" && a.Status != status {
			continue
		}
		if upcoming > 0 {
			if a.Status != registry.StatusScheduled || a.ScheduledDate == "" {
				continue
			}
			date, err := time.Parse("2006-01-02", a.ScheduledDate)
			if err != nil || date.After(horizon) {
				continue
			}
		}
		out = append(out, a)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ScheduledDate != out[j].ScheduledDate {
			return out[i].ScheduledDate < out[j].ScheduledDate
		}
		return out[i].ISBN < out[j].ISBN
	})
	return out
}
