package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/envelope/internal/alert"
	"github.com/theirongolddev/envelope/internal/cli"
)

var flagForecastTips bool

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Burn rate and exhaustion forecast per envelope",
	Args:  cobra.NoArgs,
	RunE:  runForecast,
}

func init() {
	forecastCmd.Flags().BoolVarP(&flagForecastTips, "tips", "t", false, "Show savings tips for envelopes past 50%")
	rootCmd.AddCommand(forecastCmd)
}

func runForecast(_ *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		envs, assessments, err := a.alerts.AssessAll(ctx, a.owner)
		if err != nil {
			return err
		}
		if len(envs) == 0 {
			fmt.Println("\n  No envelopes yet.")
			return nil
		}

		now := a.clock.Now()
		t := cli.Table{
			Title:   fmt.Sprintf("Forecast (burn over the last %d days)", a.alerts.WindowDays()),
			Headers: []string{"Envelope", "Used", "Level", "Remaining", "Per day", "Runs out"},
		}
		for i, e := range envs {
			as := assessments[i]
			t.Rows = append(t.Rows, []string{
				e.Name,
				cli.FormatPercent(as.Percentage),
				cli.RenderLevel(as.Level),
				cli.FormatMoney(as.Remaining),
				cli.FormatMoney(as.BurnRate),
				cli.FormatForecast(as.Forecast, now),
			})
		}
		fmt.Println()
		fmt.Print(cli.RenderTable(t))

		if flagForecastTips {
			for i, e := range envs {
				tips := alert.Tips(assessments[i])
				if len(tips) == 0 {
					continue
				}
				fmt.Printf("\n  %s\n", cli.LevelStyle(assessments[i].Level).Render(e.Name))
				for n, tip := range tips {
					fmt.Printf("    %d. %s\n", n+1, tip)
				}
			}
		}
		return nil
	})
}
