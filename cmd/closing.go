package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/envelope/internal/model"
)

var closingCmd = &cobra.Command{
	Use:   "closing",
	Short: "Configure the monthly closing day",
	RunE:  runClosingShow,
}

var closingSetCmd = &cobra.Command{
	Use:   "set <day>",
	Short: "Set the closing day (1-28); the cycle resets the day after",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		day, err := parseDay(args[0])
		if err != nil {
			return err
		}
		return withApp(func(ctx context.Context, a *app) error {
			if err := a.budget.SetClosingDay(ctx, a.owner, day); err != nil {
				return err
			}
			fmt.Printf("  Closing day %d: report on day %d, reset on day %d\n", day, day, model.ResetDay(day))
			return nil
		})
	},
}

var closingShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the closing day",
	Args:  cobra.NoArgs,
	RunE:  runClosingShow,
}

var closingClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the closing day; automatic resets and reports stop",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			if err := a.budget.ClearClosingDay(ctx, a.owner); err != nil {
				return err
			}
			fmt.Println("  Closing day cleared")
			return nil
		})
	},
}

func runClosingShow(_ *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		day, ok, err := a.budget.ClosingDay(ctx, a.owner)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("  Closing day not set")
			return nil
		}
		fmt.Printf("  Closing day %d (resets on day %d)\n", day, model.ResetDay(day))
		return nil
	})
}

func init() {
	closingCmd.AddCommand(closingSetCmd, closingShowCmd, closingClearCmd)
	rootCmd.AddCommand(closingCmd)
}
