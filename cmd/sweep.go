package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/envelope/internal/scheduler"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep <reset|report|reminders>",
	Short: "Run one scheduled sweep now",
	Long: "Run one of the daily sweeps immediately, exactly as the daemon would at its scheduled time. " +
		"Sweeps only act on owners whose day it is.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(scheduler.SweepReset), string(scheduler.SweepReport), string(scheduler.SweepReminders)},
	RunE: func(_ *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			s := a.scheduler(a.notifier)
			res, err := s.Run(ctx, scheduler.Sweep(args[0]))
			if err != nil {
				return err
			}
			fmt.Printf("  %s: %d processed, %d acted, %d failed (%s)\n",
				res.Sweep, res.Processed, res.Acted, res.Failed,
				res.FinishedAt.Sub(res.StartedAt).Round(time.Millisecond))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
