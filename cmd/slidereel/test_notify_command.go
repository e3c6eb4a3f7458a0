package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"slidereel/internal/api"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test email through the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(to) == "" {
				return errors.New("--to is required")
			}
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.TestNotification(cmd.Context(), to)
				if err != nil {
					return err
				}
				switch {
				case resp.Message != "":
					fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				case resp.Sent:
					fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
				default:
					fmt.Fprintln(cmd.OutOrStdout(), "Notification not sent")
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Recipient address")
	return cmd
}
