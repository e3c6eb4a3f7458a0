package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"slidereel/internal/api"
	"slidereel/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id>",
		Short: "Show the status of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				status, err := client.Status(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), status)
				return nil
			})
		},
	}
}

func newStatusAllCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status-all",
		Short: "List the running, waiting, failed and recently completed jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				statuses, err := client.StatusAll(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, api.StatusAllResponse{Statuses: statuses})
				}
				out := cmd.OutOrStdout()
				if len(statuses) == 0 {
					fmt.Fprintln(out, "No jobs")
					return nil
				}
				fmt.Fprintln(out, renderStatusTable(statuses, shouldColorize(out)))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw JSON listing")
	return cmd
}

func renderStatusTable(statuses []api.JobStatus, colorize bool) string {
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		created := ""
		if !s.CreatedAt.IsZero() {
			created = s.CreatedAt.Local().Format("2006-01-02 15:04:05")
		}
		status := s.Status
		if colorize {
			if color := statusKindColor(jobStatusKind(s.Status)); color != "" {
				status = color + status + ansiReset
			}
		}
		rows = append(rows, []string{s.ID, s.Name, created, status})
	}
	return renderTable(
		[]string{"ID", "Name", "Created", "Status"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	)
}

func jobStatusKind(status string) statusKind {
	switch {
	case status == queue.StatusComplete:
		return statusOK
	case status == queue.StatusWaiting:
		return statusInfo
	case strings.HasPrefix(status, "Error: "):
		return statusError
	default:
		return statusWarn
	}
}

func newBusyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "busy",
		Short: "Report whether a job is currently generating",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				busy, err := client.IsBusy(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), yesNo(busy))
				return nil
			})
		},
	}
}

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show daemon dependencies and preflight results",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				status, err := client.Health(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderHealth(status, colorize) {
					fmt.Fprintln(out, line)
				}
				return nil
			})
		},
	}
}

func renderHealth(status api.DaemonStatus, colorize bool) []string {
	lines := renderSectionHeader("Daemon", colorize)
	lines = append(lines,
		renderStatusLine("Running", boolKind(status.Running), yesNo(status.Running), colorize),
		renderStatusLine("PID", statusInfo, strconv.Itoa(status.PID), colorize),
		renderStatusLine("Storage", statusInfo, status.StorageBackend, colorize),
		renderStatusLine("History", statusInfo, status.HistoryBackend, colorize),
		renderStatusLine("Busy", statusInfo, yesNo(status.Busy), colorize),
		renderStatusLine("Pending", statusInfo, strconv.Itoa(status.Pending), colorize),
	)
	if status.Current != nil {
		lines = append(lines, renderStatusLine("Current", statusInfo,
			fmt.Sprintf("%s %s (%s)", status.Current.ID, status.Current.Name, status.Current.Status), colorize))
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
	for _, dep := range status.Dependencies {
		kind := statusOK
		detail := dep.Command
		if !dep.Available {
			kind = statusError
			if dep.Optional {
				kind = statusWarn
			}
			detail = dep.Detail
		}
		lines = append(lines, renderStatusLine(dep.Name, kind, detail, colorize))
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Checks", colorize)...)
	for _, check := range status.Checks {
		lines = append(lines, renderStatusLine(check.Name, boolKind(check.Passed), check.Detail, colorize))
	}
	return lines
}

func boolKind(ok bool) statusKind {
	if ok {
		return statusOK
	}
	return statusError
}
