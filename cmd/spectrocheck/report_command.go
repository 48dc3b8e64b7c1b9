package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"spectrocheck/internal/ipc"
	"spectrocheck/internal/verdict"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show recent analysis results",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Recent(limit)
				if err != nil {
					return fmt.Errorf("fetch recent checks: %w", err)
				}
				if resp == nil || len(resp.Checks) == 0 {
					fmt.Fprintln(stdout, "No checks recorded yet")
					return nil
				}

				rows := make([][]string, 0, len(resp.Checks))
				for _, check := range resp.Checks {
					status := verdict.Status(check.Status)
					rows = append(rows, []string{
						fmt.Sprintf("%s %s", status.Glyph(), check.Status),
						check.Path,
						formatKbps(check.DeclaredKbps),
						formatKbps(check.ActualKbps),
						formatHz(check.MaxFrequencyHz),
						check.CreatedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"Status", "File", "Declared", "Actual", "Max Freq", "Checked"},
					rows,
					2, 3, 4,
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of results to show")
	return cmd
}

func formatKbps(kbps int) string {
	if kbps <= 0 {
		return "-"
	}
	return strconv.Itoa(kbps) + " kbps"
}

func formatHz(hz int) string {
	if hz <= 0 {
		return "-"
	}
	return strconv.Itoa(hz) + " Hz"
}
