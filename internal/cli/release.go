package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewReleaseCmd создаёт группу команд для релизов планировщика.
func NewReleaseCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "release",
		Short: "Manage scheduled releases",
	}

	cmd.AddCommand(
		newReleaseListCmd(clientFn, outputFn),
		newReleaseAddCmd(clientFn, outputFn),
		newReleaseRemoveCmd(clientFn, outputFn),
	)

	return cmd
}

func newReleaseListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List releases",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			releases, err := client.ListReleases()
			if err != nil {
				return err
			}

			headers := []string{"ID", "PLATFORM", "PRODUCT", "SCHEDULE", "ENABLED", "RUNS", "NEXT_DUE"}
			rows := make([][]string, len(releases))
			for i, rel := range releases {
				schedule := rel.CronExpr
				if schedule == "" && rel.IntervalSec > 0 {
					schedule = fmt.Sprintf("every %ds", rel.IntervalSec)
				}
				rows[i] = []string{
					rel.ID, rel.Platform, rel.Product, schedule,
					strconv.FormatBool(rel.Enabled), strconv.Itoa(rel.Runs), rel.NextDueAt,
				}
			}

			out.Print(headers, rows, releases)
			return nil
		},
	}
}

func newReleaseAddCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var (
		size, cronExpr, timezone string
		intervalSec, maxRuns     int
	)

	cmd := &cobra.Command{
		Use:   "add PLATFORM PRODUCT",
		Short: "Schedule a release",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			rel, err := client.CreateRelease(CreateReleaseRequest{
				Platform:    args[0],
				Product:     args[1],
				Size:        size,
				CronExpr:    cronExpr,
				IntervalSec: intervalSec,
				Timezone:    timezone,
				MaxRuns:     maxRuns,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Release scheduled: %s", rel.ID))
			out.Print(
				[]string{"ID", "PLATFORM", "PRODUCT", "NEXT_DUE"},
				[][]string{{rel.ID, rel.Platform, rel.Product, rel.NextDueAt}},
				rel,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&size, "size", "", "Desired size")
	cmd.Flags().StringVar(&cronExpr, "cron", "", "Cron expression, e.g. \"0 10 * * 6\"")
	cmd.Flags().IntVar(&intervalSec, "interval", 0, "Interval in seconds (alternative to --cron)")
	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA timezone for the cron expression (default UTC)")
	cmd.Flags().IntVar(&maxRuns, "max-runs", 0, "Disable the release after N firings (0 = unlimited)")

	return cmd
}

func newReleaseRemoveCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "remove RELEASE_ID",
		Short: "Remove a release",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.DeleteRelease(args[0]); err != nil {
				return err
			}
			out.Success(fmt.Sprintf("Release removed: %s", args[0]))
			return nil
		},
	}
}
