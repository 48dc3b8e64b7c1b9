package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"spectrocheck/internal/ipc"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification through the configured channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TestNotification()
				if err != nil {
					return fmt.Errorf("test notification: %w", err)
				}
				if resp == nil {
					return fmt.Errorf("test notification: empty response")
				}
				if !resp.Sent {
					message := strings.TrimSpace(resp.Message)
					if message == "" {
						message = "notification was not sent"
					}
					return fmt.Errorf("test notification: %s", message)
				}
				fmt.Fprintln(stdout, "Test notification sent")
				if message := strings.TrimSpace(resp.Message); message != "" {
					fmt.Fprintln(stdout, message)
				}
				return nil
			})
		},
	}
}
