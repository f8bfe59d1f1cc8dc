package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/envelope/internal/config"
	"github.com/theirongolddev/envelope/internal/tui/theme"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	Args:  cobra.NoArgs,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

// setupValues holds the form fields as strings for huh inputs.
type setupValues struct {
	owner     string
	timezone  string
	window    int
	webhook   string
	telegram  string
	themeName string
}

func newSetupValues(cfg config.Config) setupValues {
	return setupValues{
		owner:     strconv.FormatInt(cfg.General.Owner, 10),
		timezone:  cfg.General.Timezone,
		window:    cfg.Reminders.WindowDays,
		webhook:   cfg.Notify.WebhookURL,
		telegram:  cfg.Notify.TelegramToken,
		themeName: cfg.Appearance.Theme,
	}
}

// apply copies the form values onto cfg.
func (v setupValues) apply(cfg *config.Config) error {
	owner, err := strconv.ParseInt(strings.TrimSpace(v.owner), 10, 64)
	if err != nil || owner <= 0 {
		return fmt.Errorf("owner must be a positive number, got %q", v.owner)
	}
	cfg.General.Owner = owner
	cfg.General.Timezone = strings.TrimSpace(v.timezone)
	cfg.Reminders.WindowDays = v.window
	cfg.Notify.WebhookURL = strings.TrimSpace(v.webhook)
	cfg.Notify.TelegramToken = strings.TrimSpace(v.telegram)
	cfg.Appearance.Theme = v.themeName
	return nil
}

func validateOwner(s string) error {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return errors.New("enter a positive number")
	}
	return nil
}

func validateTimezone(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := time.LoadLocation(strings.TrimSpace(s)); err != nil {
		return errors.New("unknown time zone")
	}
	return nil
}

func runSetup(_ *cobra.Command, _ []string) error {
	if !interactive() {
		return fmt.Errorf("%w; edit %s instead", errNotInteractive, config.Path())
	}

	// Start from the current file so unrelated settings survive.
	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}
	vals := newSetupValues(cfg)

	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		themeOpts = append(themeOpts, huh.NewOption(name, name))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to envelope").
				Description("Monthly envelopes, payee memory and bill reminders.\nA few questions and you're set."),
			huh.NewInput().
				Title("Owner id").
				Description("Identifies your budget. Also the Telegram chat that receives notifications.").
				Value(&vals.owner).
				Validate(validateOwner),
			huh.NewInput().
				Title("Time zone").
				Description("IANA name such as America/Sao_Paulo. Blank uses the system zone.").
				Value(&vals.timezone).
				Validate(validateTimezone),
		),
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Remind me about bills").
				Options(
					huh.NewOption("3 days before", 3),
					huh.NewOption("5 days before", 5),
					huh.NewOption("7 days before", 7),
				).
				Value(&vals.window),
			huh.NewInput().
				Title("Telegram bot token").
				Description("Leave blank to skip.").
				EchoMode(huh.EchoModePassword).
				Value(&vals.telegram),
			huh.NewInput().
				Title("Webhook URL").
				Description("Receives a JSON POST per notification. Leave blank to skip.").
				Value(&vals.webhook),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.themeName),
		),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup canceled, nothing saved.")
			return nil
		}
		return err
	}

	if err := vals.apply(&cfg); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.Path())
	fmt.Println("  Run `envelope setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}

func maskSecret(key string) string {
	if len(key) > 16 {
		return key[:8] + "..." + key[len(key)-4:]
	}
	if len(key) > 4 {
		return key[:4] + "..."
	}
	return "****"
}
