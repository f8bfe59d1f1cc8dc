package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var flagPurgeYes bool

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every envelope, expense, bill and setting of the owner",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			ok, err := confirm(fmt.Sprintf("Delete all data of owner %d? This cannot be undone.", a.owner), flagPurgeYes)
			if err != nil || !ok {
				return err
			}
			if err := a.budget.PurgeOwner(ctx, a.owner); err != nil {
				return err
			}
			fmt.Printf("  Purged owner %d\n", a.owner)
			return nil
		})
	},
}

func init() {
	purgeCmd.Flags().BoolVarP(&flagPurgeYes, "yes", "y", false, "Skip confirmation")
	rootCmd.AddCommand(purgeCmd)
}
