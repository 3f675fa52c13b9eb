package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-shutter/internal/shutter"
)

const dateLayout = "2006-01-02"

func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <text>...",
		Short: "Show how schedule texts resolve",
		Long: `Resolve loose time-of-day texts the way schedules and properties do.

Only digits are significant, plus a 'p' marking afternoon:
  7 -> 07:00, 22 -> 22:00, 730 -> 07:30, 07:30 -> 07:30, 7:30p -> 19:30`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDay(cmd, time.UTC)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, text := range args {
				t, ok := shutter.ResolveTime(text, day)
				if !ok {
					fmt.Fprintf(out, "%-10s invalid\n", text)
					continue
				}
				fmt.Fprintf(out, "%-10s %s\n", text, t.Format("15:04"))
			}
			return nil
		},
	}
	cmd.Flags().String("date", "", "day to resolve on, YYYY-MM-DD (default today)")
	return cmd
}

// parseDay reads the --date flag as midnight in loc, defaulting to today.
func parseDay(cmd *cobra.Command, loc *time.Location) (time.Time, error) {
	text, err := cmd.Flags().GetString("date")
	if err != nil {
		return time.Time{}, err
	}
	if text == "" {
		now := time.Now().In(loc)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc), nil
	}
	day, err := time.ParseInLocation(dateLayout, text, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: want YYYY-MM-DD", text)
	}
	return day, nil
}
