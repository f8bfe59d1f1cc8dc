package cmd

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/envelope/internal/tui"
	"github.com/theirongolddev/envelope/internal/tui/theme"
)

var (
	flagTUIAuto    bool
	flagTUIRefresh time.Duration
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().BoolVar(&flagTUIAuto, "auto-refresh", true, "Reload data periodically")
	tuiCmd.Flags().DurationVar(&flagTUIRefresh, "refresh", 30*time.Second, "Auto-refresh interval (min 10s)")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	// The dashboard owns the terminal; log only problems.
	flagQuiet = true

	return withApp(func(_ context.Context, a *app) error {
		theme.SetActive(a.cfg.Appearance.Theme)

		// Force TrueColor so background styling always produces ANSI codes.
		lipgloss.SetColorProfile(termenv.TrueColor)

		loader := tui.LedgerLoader{
			Budget: a.budget,
			Bills:  a.bills,
			Alerts: a.alerts,
			Clock:  a.clock,
		}
		model := tui.NewApp(loader, tui.Options{
			Owner:           a.owner,
			AutoRefresh:     flagTUIAuto,
			RefreshInterval: flagTUIRefresh,
			Policy:          a.policy(),
		})

		if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	})
}
