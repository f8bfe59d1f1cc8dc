package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/envelope/internal/cli"
	"github.com/theirongolddev/envelope/internal/ledger"
	"github.com/theirongolddev/envelope/internal/model"
	"github.com/theirongolddev/envelope/internal/notify"
)

var (
	flagSpendEnvelope   string
	flagSpendAt         string
	flagSpendNoRemember bool
)

var spendCmd = &cobra.Command{
	Use:   "spend <amount> <payee...>",
	Short: "Record an expense",
	Long: "Record an expense. Without --envelope the payee is looked up in memory, " +
		"then matched against envelope names; if both fail you are asked to pick one.",
	Args: cobra.MinimumNArgs(2),
	RunE: runSpend,
}

func init() {
	spendCmd.Flags().StringVarP(&flagSpendEnvelope, "envelope", "e", "", "Envelope to charge")
	spendCmd.Flags().StringVar(&flagSpendAt, "at", "", "When it happened (YYYY-MM-DD or RFC 3339; default now)")
	spendCmd.Flags().BoolVar(&flagSpendNoRemember, "no-remember", false, "Do not remember the payee's envelope")
	rootCmd.AddCommand(spendCmd)
}

func runSpend(_ *cobra.Command, args []string) error {
	amount, err := parseAmount(args[0])
	if err != nil {
		return err
	}
	payee := strings.Join(args[1:], " ")

	return withApp(func(ctx context.Context, a *app) error {
		occurred, err := parseWhen(flagSpendAt, a.loc)
		if err != nil {
			return err
		}

		e, source, err := chooseEnvelope(ctx, a, payee)
		if err != nil || source == "" {
			return err
		}

		res, err := a.budget.ApplyExpense(ctx, a.owner, ledger.ExpenseInput{
			EnvelopeID: e.ID,
			Amount:     amount,
			Payee:      payee,
			Category:   e.Name,
			OccurredAt: occurred,
		})
		if err != nil {
			return err
		}
		if res.AssessErr != nil {
			a.logger.Warn("assessment incomplete", "envelope", e.ID, "err", res.AssessErr)
		}

		if source != ledger.SourceMemory.String() && !flagSpendNoRemember {
			if err := a.memory.Remember(ctx, a.owner, payee, e.ID); err != nil {
				a.logger.Warn("remembering payee failed", "err", err)
			}
		}

		as := res.Assessment
		fmt.Printf("  %s at %s -> %s (%s)\n",
			cli.FormatMoney(res.Expense.Amount), res.Expense.Payee, res.After.Name, source)
		fmt.Printf("  %s / %s  %s  %s\n",
			cli.FormatMoney(res.After.Spent), cli.FormatMoney(res.After.Limit),
			cli.FormatPercent(as.Percentage), cli.RenderLevel(as.Level))
		if res.AssessErr == nil && as.Forecast != nil {
			fmt.Printf("  At %s/day it runs out %s\n", cli.FormatMoney(as.BurnRate), cli.FormatForecast(as.Forecast, a.clock.Now()))
		}

		if as.Crossed {
			msg := notify.AlertMessage(res.After, as)
			fmt.Println()
			fmt.Println("  " + cli.LevelStyle(as.Level).Render(strings.ReplaceAll(msg.Text, "\n", "\n  ")))
			if err := a.notifier.Send(ctx, a.owner, msg); err != nil {
				a.logger.Warn("alert delivery failed", "err", err)
			}
		}
		return nil
	})
}

// chooseEnvelope resolves the envelope for payee. An empty source means the
// user aborted the prompt.
func chooseEnvelope(ctx context.Context, a *app, payee string) (model.Envelope, string, error) {
	if flagSpendEnvelope != "" {
		e, err := a.budget.EnvelopeByName(ctx, a.owner, flagSpendEnvelope)
		return e, "explicit", err
	}

	res, err := a.memory.Resolve(ctx, a.owner, payee, ledger.NameMatch)
	if err != nil {
		return model.Envelope{}, "", err
	}
	if res.Found() {
		return res.Envelope, res.Source.String(), nil
	}

	envs, err := a.budget.Envelopes(ctx, a.owner)
	if err != nil {
		return model.Envelope{}, "", err
	}
	e, ok, err := pickEnvelope(fmt.Sprintf("Which envelope is %q?", payee), envs)
	if err != nil || !ok {
		return model.Envelope{}, "", err
	}
	return e, "picked", nil
}

// parseWhen parses a date or timestamp in loc. Empty means now.
func parseWhen(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t.Add(12 * time.Hour), nil
	}
	return time.Time{}, fmt.Errorf("%w: invalid time %q", model.ErrValidation, s)
}
