package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"slidereel/internal/api"
	"slidereel/internal/queue"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var opts api.UploadOptions
	var wait bool
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "submit <archive.zip>",
		Short: "Queue an archive of numbered images and mp3 files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(opts.To) == "" {
				return errors.New("--to is required")
			}
			return ctx.withClient(func(client *api.Client) error {
				id, err := client.Upload(cmd.Context(), args[0], opts)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Queued %s\n", id)
				if !wait {
					return nil
				}
				return followStatus(cmd.Context(), client, id, interval, func(status string) {
					fmt.Fprintln(out, status)
				})
			})
		},
	}

	cmd.Flags().StringVar(&opts.To, "to", "", "Email address notified when the job finishes")
	cmd.Flags().BoolVar(&opts.SkipUpload, "skip-upload", false, "Keep the videos local instead of uploading them")
	cmd.Flags().BoolVar(&opts.LowRes, "720p", false, "Render at 1280x720 with the 720p intro")
	cmd.Flags().BoolVar(&opts.NoEmail, "no-email", false, "Do not send a notification email")
	cmd.Flags().BoolVar(&wait, "wait", false, "Poll until the job completes or fails")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "Polling interval used with --wait")
	return cmd
}

// followStatus polls until id reaches a terminal status, reporting each
// distinct status once.
func followStatus(ctx context.Context, client *api.Client, id string, interval time.Duration, report func(string)) error {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := ""
	for {
		status, err := client.Status(ctx, id)
		if err != nil {
			return err
		}
		if status != last {
			report(status)
			last = status
		}
		switch {
		case status == queue.StatusComplete:
			return nil
		case strings.HasPrefix(status, "Error: "):
			return fmt.Errorf("job %s failed", id)
		case status == queue.StatusNotFound:
			return fmt.Errorf("job %s is unknown to the daemon", id)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
