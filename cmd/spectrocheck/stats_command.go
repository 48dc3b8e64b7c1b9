package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"spectrocheck/internal/ipc"
	"spectrocheck/internal/verdict"
)

// statusOrder fixes the row order for the stats table.
var statusOrder = []string{
	string(verdict.StatusPassed),
	string(verdict.StatusFailed),
	string(verdict.StatusSkipped),
	string(verdict.StatusError),
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate check counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Stats()
				if err != nil {
					return fmt.Errorf("fetch stats: %w", err)
				}
				if resp == nil || len(resp.Counts) == 0 {
					fmt.Fprintln(stdout, "No checks recorded yet")
					return nil
				}

				remaining := make(map[string]int, len(resp.Counts))
				for status, count := range resp.Counts {
					remaining[status] = count
				}

				total := 0
				rows := make([][]string, 0, len(resp.Counts)+1)
				for _, status := range statusOrder {
					count, ok := remaining[status]
					if !ok {
						continue
					}
					delete(remaining, status)
					total += count
					rows = append(rows, []string{status, strconv.Itoa(count)})
				}

				extras := make([]string, 0, len(remaining))
				for status := range remaining {
					extras = append(extras, status)
				}
				sort.Strings(extras)
				for _, status := range extras {
					total += remaining[status]
					rows = append(rows, []string{status, strconv.Itoa(remaining[status])})
				}

				rows = append(rows, []string{"Total", strconv.Itoa(total)})
				fmt.Fprintln(stdout, renderTable(
					[]string{"Status", "Checks"},
					rows,
					1,
				))
				return nil
			})
		},
	}
}
