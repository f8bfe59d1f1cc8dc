package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/envelope/internal/cli"
	"github.com/theirongolddev/envelope/internal/ledger"
	"github.com/theirongolddev/envelope/internal/model"
)

var historyCmd = &cobra.Command{
	Use:   "history [months]",
	Short: "Spend by month and envelope over the last months (default 6)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistory(_ *cobra.Command, args []string) error {
	months := 6
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("%w: months must be a number between 1 and %d", model.ErrValidation, ledger.MaxHistoryMonths)
		}
		months = n
	}
	return withApp(func(ctx context.Context, a *app) error {
		h, err := a.budget.History(ctx, a.owner, months)
		if err != nil {
			return err
		}
		if len(h.Months) == 0 {
			fmt.Printf("\n  No expenses in the last %d months.\n", months)
			return nil
		}
		fmt.Println()
		fmt.Print(cli.RenderTable(historyTable(h)))
		return nil
	})
}

func historyTable(h model.History) cli.Table {
	t := cli.Table{
		Title:   fmt.Sprintf("History  last %d months", h.Span),
		Headers: []string{"Month", "Envelope", "Spent", "Expenses"},
	}
	for i, m := range h.Months {
		if i > 0 {
			t.Rows = append(t.Rows, []string{"---"})
		}
		month := fmt.Sprintf("%02d/%d", int(m.Cycle.Month), m.Cycle.Year)
		t.Rows = append(t.Rows, []string{month, "Total", cli.FormatMoney(m.Total), cli.FormatNumber(int64(m.Count))})
		for _, e := range m.Envelopes {
			t.Rows = append(t.Rows, []string{"", e.Envelope, cli.FormatMoney(e.Total), cli.FormatNumber(int64(e.Count))})
		}
	}
	t.Rows = append(t.Rows,
		[]string{"---"},
		[]string{"All months", "", cli.FormatMoney(h.Total), cli.FormatNumber(int64(h.Count))},
		[]string{"Monthly average", "", cli.FormatMoney(h.MonthlyAverage()), ""},
	)
	return t
}
