package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/envelope/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Owner:     %d\n", cfg.General.Owner)
	tz := cfg.General.Timezone
	if tz == "" {
		tz = "local"
	}
	fmt.Printf("    Timezone:  %s\n", tz)
	fmt.Printf("    Database:  %s\n", config.DatabasePath(cfg))
	fmt.Println()

	fmt.Println("  [Schedule]")
	fmt.Printf("    Reset:          %s\n", cfg.Schedule.Reset)
	fmt.Printf("    Closing report: %s\n", cfg.Schedule.ClosingReport)
	fmt.Printf("    Reminders:      %s\n", cfg.Schedule.Reminders)
	fmt.Println()

	fmt.Println("  [Alerts]")
	fmt.Printf("    Burn window: %d days\n", cfg.Alerts.BurnWindowDays)
	fmt.Println()

	fmt.Println("  [Reminders]")
	fmt.Printf("    Window: %d days before due\n", cfg.Reminders.WindowDays)
	fmt.Println()

	fmt.Println("  [Notify]")
	if u := config.WebhookURL(cfg); u != "" {
		fmt.Printf("    Webhook:  %s\n", u)
	} else {
		fmt.Println("    Webhook:  not configured")
	}
	if tok := config.TelegramToken(cfg); tok != "" {
		fmt.Printf("    Telegram: %s\n", maskSecret(tok))
	} else {
		fmt.Println("    Telegram: not configured")
	}
	fmt.Println()

	fmt.Println("  [Pending]")
	fmt.Printf("    Confirmation window: %d minutes\n", cfg.Pending.TTLMinutes)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `envelope setup` to reconfigure.")
	return nil
}
