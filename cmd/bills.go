package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/envelope/internal/alert"
	"github.com/theirongolddev/envelope/internal/cli"
	"github.com/theirongolddev/envelope/internal/ledger"
	"github.com/theirongolddev/envelope/internal/model"
	"github.com/theirongolddev/envelope/internal/reminder"
)

var (
	flagBillDue      int
	flagBillAmount   string
	flagBillEnvelope string
	flagBillCycle    string
	flagBillsAll     bool
	flagBillDelYes   bool
)

var billsCmd = &cobra.Command{
	Use:   "bills",
	Short: "Manage recurring monthly bills",
	RunE:  runBillsPending,
}

var billsAddCmd = &cobra.Command{
	Use:   "add <description>",
	Short: "Add a recurring bill (omit --amount for a variable bill)",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		in := ledger.BillInput{Description: args[0], DueDay: flagBillDue}
		if flagBillAmount != "" {
			amount, err := parseAmount(flagBillAmount)
			if err != nil {
				return err
			}
			in.FixedAmount = &amount
		}
		return withApp(func(ctx context.Context, a *app) error {
			if flagBillEnvelope != "" {
				e, err := a.budget.EnvelopeByName(ctx, a.owner, flagBillEnvelope)
				if err != nil {
					return err
				}
				in.EnvelopeID = &e.ID
			}
			b, err := a.bills.CreateBill(ctx, a.owner, in)
			if err != nil {
				return err
			}
			fmt.Printf("  Added %s, due on day %d (%s)\n", b.Description, b.DueDay, billAmountLabel(b, nil))
			return nil
		})
	},
}

var billsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recurring bills",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			bills, err := a.bills.Bills(ctx, a.owner, !flagBillsAll)
			if err != nil {
				return err
			}
			if len(bills) == 0 {
				fmt.Println("\n  No recurring bills.")
				return nil
			}
			total, err := a.bills.TotalFixedMonthly(ctx, a.owner)
			if err != nil {
				return err
			}

			t := cli.Table{
				Title:   "Recurring bills",
				Headers: []string{"Bill", "Due day", "Amount", "Status"},
			}
			for _, b := range bills {
				status := "active"
				if !b.Active {
					status = cli.Muted("paused")
				}
				t.Rows = append(t.Rows, []string{b.Description, fmt.Sprintf("%d", b.DueDay), billAmountLabel(b, nil), status})
			}
			t.Rows = append(t.Rows, []string{"---"}, []string{"Fixed monthly", "", cli.FormatMoney(total), ""})
			fmt.Println()
			fmt.Print(cli.RenderTable(t))
			return nil
		})
	},
}

var billsAmountCmd = &cobra.Command{
	Use:   "amount <description> <amount>",
	Short: "Set the amount of a variable bill for its upcoming due date",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		amount, err := parseAmount(args[1])
		if err != nil {
			return err
		}
		cycle, err := parseCycle(flagBillCycle)
		if err != nil {
			return err
		}
		return withApp(func(ctx context.Context, a *app) error {
			b, err := a.bills.BillByDescription(ctx, a.owner, args[0])
			if err != nil {
				return err
			}
			p, err := a.bills.SetCycleAmount(ctx, b.ID, a.owner, amount, cycle)
			if err != nil {
				return err
			}
			fmt.Printf("  %s %02d/%d: %s\n", b.Description, int(p.Cycle.Month), p.Cycle.Year, cli.FormatMoney(*p.Amount))
			return nil
		})
	},
}

var billsPayCmd = &cobra.Command{
	Use:   "pay <description>",
	Short: "Mark a bill paid for its upcoming due date",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		cycle, err := parseCycle(flagBillCycle)
		if err != nil {
			return err
		}
		return withApp(func(ctx context.Context, a *app) error {
			b, err := a.bills.BillByDescription(ctx, a.owner, args[0])
			if err != nil {
				return err
			}
			p, err := a.bills.MarkPaid(ctx, b.ID, a.owner, cycle)
			if err != nil {
				return err
			}
			fmt.Printf("  %s paid for %02d/%d", b.Description, int(p.Cycle.Month), p.Cycle.Year)
			if p.PaidAt != nil {
				fmt.Printf(" on %s", cli.FormatDate(p.PaidAt.In(a.loc)))
			}
			fmt.Println()
			return nil
		})
	},
}

var billsPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Show bills not yet paid for their upcoming due date",
	Args:  cobra.NoArgs,
	RunE:  runBillsPending,
}

func runBillsPending(_ *cobra.Command, _ []string) error {
	cycle, err := parseCycle(flagBillCycle)
	if err != nil {
		return err
	}
	return withApp(func(ctx context.Context, a *app) error {
		now := a.clock.Now()
		var pending []model.PendingBill
		if cycle != nil {
			pending, err = a.bills.PendingForCycle(ctx, a.owner, *cycle)
		} else {
			pending, err = a.bills.Pending(ctx, a.owner)
		}
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			fmt.Println("\n  All bills paid.")
			return nil
		}

		policy := a.policy()
		title := "Unpaid bills"
		if cycle != nil {
			title = fmt.Sprintf("Unpaid bills  %02d/%d", int(cycle.Month), cycle.Year)
		}
		t := cli.Table{
			Title:   title,
			Headers: []string{"Bill", "Cycle", "Due", "When", "Amount"},
		}
		for _, p := range pending {
			days := reminder.DaysUntilDue(p.Bill.DueDay, now)
			when := cli.FormatDueIn(days)
			if policy.InWindow(days) {
				when = cli.LevelStyle(dueLevel(days)).Render(when)
			}
			t.Rows = append(t.Rows, []string{
				p.Bill.Description,
				fmt.Sprintf("%02d/%d", int(p.Payment.Cycle.Month), p.Payment.Cycle.Year),
				cli.FormatDate(reminder.NextDueDate(p.Bill.DueDay, now)),
				when,
				billAmountLabel(p.Bill, &p.Payment),
			})
		}
		fmt.Println()
		fmt.Print(cli.RenderTable(t))
		return nil
	})
}

func setBillActive(active bool) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			b, err := a.bills.BillByDescription(ctx, a.owner, args[0])
			if err != nil {
				return err
			}
			if err := a.bills.SetActive(ctx, a.owner, b.ID, active); err != nil {
				return err
			}
			state := "paused"
			if active {
				state = "resumed"
			}
			fmt.Printf("  %s %s\n", b.Description, state)
			return nil
		})
	}
}

var billsPauseCmd = &cobra.Command{
	Use:   "pause <description>",
	Short: "Stop reminders for a bill",
	Args:  cobra.ExactArgs(1),
	RunE:  setBillActive(false),
}

var billsResumeCmd = &cobra.Command{
	Use:   "resume <description>",
	Short: "Resume reminders for a paused bill",
	Args:  cobra.ExactArgs(1),
	RunE:  setBillActive(true),
}

var billsDeleteCmd = &cobra.Command{
	Use:   "delete <description>",
	Short: "Delete a bill and its payment history",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			b, err := a.bills.BillByDescription(ctx, a.owner, args[0])
			if err != nil {
				return err
			}
			ok, err := confirm(fmt.Sprintf("Delete %s and its payment history?", b.Description), flagBillDelYes)
			if err != nil || !ok {
				return err
			}
			if err := a.bills.DeleteBill(ctx, a.owner, b.ID); err != nil {
				return err
			}
			fmt.Printf("  Deleted %s\n", b.Description)
			return nil
		})
	},
}

func init() {
	billsAddCmd.Flags().IntVar(&flagBillDue, "due", 0, "Day of month the bill is due (1-28)")
	billsAddCmd.Flags().StringVar(&flagBillAmount, "amount", "", "Fixed monthly amount")
	billsAddCmd.Flags().StringVarP(&flagBillEnvelope, "envelope", "e", "", "Envelope the bill belongs to")
	_ = billsAddCmd.MarkFlagRequired("due")

	billsListCmd.Flags().BoolVarP(&flagBillsAll, "all", "a", false, "Include paused bills")
	for _, c := range []*cobra.Command{billsAmountCmd, billsPayCmd, billsPendingCmd} {
		c.Flags().StringVar(&flagBillCycle, "cycle", "", "Cycle as YYYY-MM (default the cycle of the next due date)")
	}
	billsDeleteCmd.Flags().BoolVarP(&flagBillDelYes, "yes", "y", false, "Skip confirmation")

	billsCmd.AddCommand(billsAddCmd, billsListCmd, billsAmountCmd, billsPayCmd, billsPendingCmd,
		billsPauseCmd, billsResumeCmd, billsDeleteCmd)
	rootCmd.AddCommand(billsCmd)
}

func billAmountLabel(b model.RecurringBill, p *model.BillCyclePayment) string {
	if p != nil {
		if v, ok := model.AmountDue(b, *p); ok {
			return cli.FormatMoney(v)
		}
	} else if b.FixedAmount != nil {
		return cli.FormatMoney(*b.FixedAmount)
	}
	return cli.Muted("variable")
}

// parseCycle parses YYYY-MM. Empty returns nil, meaning the cycle of the
// bill's next due date.
func parseCycle(s string) (*model.Cycle, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid cycle %q, want YYYY-MM", model.ErrValidation, s)
	}
	c := model.CycleOf(t)
	return &c, nil
}

// dueLevel reuses the alert palette for due dates: today is the most urgent.
func dueLevel(days int) alert.Level {
	switch days {
	case 0:
		return alert.LevelOver
	case 1:
		return alert.LevelAlert
	default:
		return alert.LevelAttention
	}
}
