package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"spectrocheck/internal/ipc"
	"spectrocheck/internal/verdict"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the persistent result cache",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List cached verdicts",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.CacheList()
				if err != nil {
					return fmt.Errorf("list cache entries: %w", err)
				}
				if resp == nil || len(resp.Entries) == 0 {
					fmt.Fprintln(stdout, "Cache is empty")
					return nil
				}

				rows := make([][]string, 0, len(resp.Entries))
				for _, entry := range resp.Entries {
					status := verdict.Status(entry.Status)
					rows = append(rows, []string{
						fmt.Sprintf("%s %s", status.Glyph(), entry.Status),
						entry.Path,
						formatKbps(entry.DeclaredKbps),
						formatKbps(entry.ActualKbps),
						entry.CheckedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"Status", "File", "Declared", "Actual", "Checked"},
					rows,
					2, 3,
				))
				return nil
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached verdicts",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.CacheClear()
				if err != nil {
					return fmt.Errorf("clear cache: %w", err)
				}
				removed := 0
				if resp != nil {
					removed = resp.Removed
				}
				fmt.Fprintf(stdout, "Removed %d cached verdicts\n", removed)
				return nil
			})
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <path>",
		Short: "Remove the cached verdict for one file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path %q: %w", args[0], err)
			}
			stdout := cmd.OutOrStdout()
			return ctx.withClient(func(client *ipc.Client) error {
				if err := client.CacheRemove(path); err != nil {
					return fmt.Errorf("remove cache entry: %w", err)
				}
				fmt.Fprintf(stdout, "Removed cached verdict for %s\n", path)
				return nil
			})
		},
	}

	cacheCmd.AddCommand(listCmd, removeCmd, clearCmd)
	return cacheCmd
}
