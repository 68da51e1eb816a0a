package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewStatsCmd создаёт команду сводки по платформе.
func NewStatsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "stats PLATFORM",
		Short: "Show platform summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			summary, err := client.GetSummary(args[0], days)
			if err != nil {
				return err
			}

			out.Detail([][2]string{
				{"PLATFORM", summary.Platform},
				{"WINDOW", fmt.Sprintf("%dd", summary.WindowDays)},
				{"ATTEMPTS", strconv.Itoa(summary.Attempts)},
				{"SUCCESSES", strconv.Itoa(summary.Successes)},
				{"FAILURES", strconv.Itoa(summary.Failures)},
				{"CANCELLED", strconv.Itoa(summary.Cancellations)},
				{"SUCCESS_RATE", formatRate(summary.SuccessRate)},
				{"MEAN_DURATION", fmt.Sprintf("%.0fms", summary.MeanDurationMs)},
				{"CHALLENGE_RATE", formatRate(summary.ChallengeEncounterRate)},
				{"SOLVE_RATE", formatRate(summary.ChallengeSolveRate)},
				{"DETECTION_RATE", formatRate(summary.DetectionRate)},
				{"CAPTCHA_COST", fmt.Sprintf("$%.2f", summary.CaptchaCost)},
			}, summary)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "Summary window in days")

	return cmd
}

func formatRate(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate*100)
}
