package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"spectrocheck/internal/ipc"
)

func newPingCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the daemon answers on its socket",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Ping()
				if err != nil {
					return fmt.Errorf("ping daemon: %w", err)
				}
				if resp != nil && resp.PID > 0 {
					fmt.Fprintf(stdout, "Daemon responding (pid %d)\n", resp.PID)
					return nil
				}
				fmt.Fprintln(stdout, "Daemon responding")
				return nil
			})
		},
	}
}
