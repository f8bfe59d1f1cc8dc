package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/envelope/internal/cli"
)

var flagRecentLimit int

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show the latest expenses",
	Args:  cobra.NoArgs,
	RunE:  runRecent,
}

func init() {
	recentCmd.Flags().IntVarP(&flagRecentLimit, "limit", "n", 15, "Number of expenses to show")
	rootCmd.AddCommand(recentCmd)
}

func runRecent(_ *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		expenses, err := a.budget.RecentExpenses(ctx, a.owner, flagRecentLimit)
		if err != nil {
			return err
		}
		if len(expenses) == 0 {
			fmt.Println("\n  No expenses recorded.")
			return nil
		}
		envs, err := a.budget.Envelopes(ctx, a.owner)
		if err != nil {
			return err
		}
		names := make(map[int64]string, len(envs))
		for _, e := range envs {
			names[e.ID] = e.Name
		}

		t := cli.Table{
			Title:   "Recent expenses",
			Headers: []string{"When", "Payee", "Envelope", "Amount"},
		}
		for _, e := range expenses {
			t.Rows = append(t.Rows, []string{
				e.OccurredAt.In(a.loc).Format("02/01/2006 15:04"),
				e.Payee,
				names[e.EnvelopeID],
				cli.FormatMoney(e.Amount),
			})
		}
		fmt.Println()
		fmt.Print(cli.RenderTable(t))
		return nil
	})
}
