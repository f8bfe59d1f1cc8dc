package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/envelope/internal/alert"
	"github.com/theirongolddev/envelope/internal/cli"
	"github.com/theirongolddev/envelope/internal/model"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Envelopes, totals and unpaid bills for this cycle",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		report, err := a.budget.CycleReport(ctx, a.owner)
		if err != nil {
			return err
		}

		if len(report.Envelopes) == 0 {
			fmt.Println("\n  No envelopes yet.")
			fmt.Println("  Create one with `envelope envelopes create <name> <limit>`.")
			return nil
		}

		title := fmt.Sprintf("ENVELOPES  %s", report.GeneratedAt.Format("January 2006"))
		fmt.Println()
		fmt.Println(cli.RenderTitle(title))
		fmt.Println()
		fmt.Print(cli.RenderTable(envelopeTable(report)))

		pending, err := a.bills.Pending(ctx, a.owner)
		if err != nil {
			return err
		}
		fmt.Println()
		if report.ClosingDay > 0 {
			fmt.Printf("  Closing day: %d (resets on day %d)\n", report.ClosingDay, model.ResetDay(report.ClosingDay))
		} else {
			fmt.Println(cli.Muted("  Closing day not set. Run `envelope closing set <day>`."))
		}
		fmt.Printf("  Expenses this month: %d\n", report.ExpenseCount)
		if len(pending) > 0 {
			fmt.Printf("  Unpaid bills: %d (see `envelope bills pending`)\n", len(pending))
		}
		fmt.Println()
		return nil
	})
}

func envelopeTable(r model.CycleReport) cli.Table {
	t := cli.Table{
		Headers: []string{"Envelope", "Spent", "Limit", "Remaining", "Used", "", "Level"},
	}
	for _, e := range r.Envelopes {
		pct := e.PercentageUsed()
		level := alert.Classify(pct)
		t.Rows = append(t.Rows, []string{
			e.Name,
			cli.FormatMoney(e.Spent),
			cli.FormatMoney(e.Limit),
			cli.FormatMoney(e.Remaining()),
			cli.FormatPercent(pct),
			cli.RenderUsageBar(pct, 12),
			cli.RenderLevel(level),
		})
	}
	total := r.PercentageUsed()
	t.Rows = append(t.Rows,
		[]string{"---"},
		[]string{
			"Total",
			cli.FormatMoney(r.TotalSpent),
			cli.FormatMoney(r.TotalLimit),
			cli.FormatMoney(r.Available()),
			cli.FormatPercent(total),
			cli.RenderUsageBar(total, 12),
			cli.RenderLevel(alert.Classify(total)),
		},
	)
	return t
}
