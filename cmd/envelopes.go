package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/envelope/internal/cli"
)

var envelopesCmd = &cobra.Command{
	Use:     "envelopes",
	Aliases: []string{"env"},
	Short:   "Manage spending envelopes",
	RunE:    runSummary,
}

var envelopesCreateCmd = &cobra.Command{
	Use:   "create <name> <limit>",
	Short: "Create an envelope",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		limit, err := parseAmount(args[1])
		if err != nil {
			return err
		}
		return withApp(func(ctx context.Context, a *app) error {
			e, err := a.budget.CreateEnvelope(ctx, a.owner, args[0], limit)
			if err != nil {
				return err
			}
			fmt.Printf("  Created %s with limit %s\n", e.Name, cli.FormatMoney(e.Limit))
			return nil
		})
	},
}

var envelopesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List envelopes",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

var envelopesLimitCmd = &cobra.Command{
	Use:   "limit <name> <limit>",
	Short: "Change an envelope's limit",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		limit, err := parseAmount(args[1])
		if err != nil {
			return err
		}
		return withApp(func(ctx context.Context, a *app) error {
			e, err := a.budget.EnvelopeByName(ctx, a.owner, args[0])
			if err != nil {
				return err
			}
			e, err = a.budget.SetLimit(ctx, a.owner, e.ID, limit)
			if err != nil {
				return err
			}
			fmt.Printf("  %s: limit %s, %s used\n", e.Name, cli.FormatMoney(e.Limit), cli.FormatPercent(e.PercentageUsed()))
			return nil
		})
	},
}

var envelopesRenameCmd = &cobra.Command{
	Use:   "rename <name> <new-name>",
	Short: "Rename an envelope",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			e, err := a.budget.EnvelopeByName(ctx, a.owner, args[0])
			if err != nil {
				return err
			}
			e, err = a.budget.Rename(ctx, a.owner, e.ID, args[1])
			if err != nil {
				return err
			}
			fmt.Printf("  Renamed to %s\n", e.Name)
			return nil
		})
	},
}

var flagEnvelopeDeleteYes bool

var envelopesDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete an envelope and its expenses",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			e, err := a.budget.EnvelopeByName(ctx, a.owner, args[0])
			if err != nil {
				return err
			}
			ok, err := confirm(fmt.Sprintf("Delete %s and all of its expenses?", e.Name), flagEnvelopeDeleteYes)
			if err != nil || !ok {
				return err
			}
			if err := a.budget.DeleteEnvelope(ctx, a.owner, e.ID); err != nil {
				return err
			}
			fmt.Printf("  Deleted %s\n", e.Name)
			return nil
		})
	},
}

func init() {
	envelopesDeleteCmd.Flags().BoolVarP(&flagEnvelopeDeleteYes, "yes", "y", false, "Skip confirmation")

	envelopesCmd.AddCommand(envelopesCreateCmd, envelopesListCmd, envelopesLimitCmd, envelopesRenameCmd, envelopesDeleteCmd)
	rootCmd.AddCommand(envelopesCmd)
}
