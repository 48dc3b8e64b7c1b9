package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"spectrocheck/internal/logtail"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent daemon log output",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			if cfg == nil {
				return fmt.Errorf("configuration not available")
			}
			logPath := filepath.Join(cfg.Paths.LogDir, "spectrocheck.log")

			stdout := cmd.OutOrStdout()
			recent, offset, err := logtail.LastLines(logPath, lines)
			if err != nil {
				return err
			}
			for _, line := range recent {
				fmt.Fprintln(stdout, line)
			}
			if !follow {
				if len(recent) == 0 {
					fmt.Fprintf(stdout, "No log output yet at %s\n", logPath)
				}
				return nil
			}
			return logtail.Follow(cmd.Context(), logPath, offset, stdout)
		},
	}

	cmd.Flags().IntVar(&lines, "lines", 25, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Stream new log lines until interrupted")
	return cmd
}
