// Package config loads and saves the envelope TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all envelope configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Schedule   ScheduleConfig   `toml:"schedule"`
	Alerts     AlertsConfig     `toml:"alerts"`
	Reminders  RemindersConfig  `toml:"reminders"`
	Notify     NotifyConfig     `toml:"notify"`
	Pending    PendingConfig    `toml:"pending"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	Owner    int64  `toml:"owner"`
	Timezone string `toml:"timezone,omitempty"`
	Database string `toml:"database,omitempty"`
}

// ScheduleConfig holds the cron specs of the three daily sweeps.
type ScheduleConfig struct {
	Reset         string `toml:"reset"`
	ClosingReport string `toml:"closing_report"`
	Reminders     string `toml:"reminders"`
}

// AlertsConfig holds alert engine settings.
type AlertsConfig struct {
	BurnWindowDays int `toml:"burn_window_days"`
}

// RemindersConfig holds bill reminder settings.
type RemindersConfig struct {
	WindowDays int `toml:"window_days"`
}

// NotifyConfig holds notification channel settings. Empty values disable
// the channel; log delivery is always on.
type NotifyConfig struct {
	WebhookURL    string `toml:"webhook_url,omitempty"`
	TelegramToken string `toml:"telegram_token,omitempty"`
}

// PendingConfig holds settings for staged, unconfirmed expenses.
type PendingConfig struct {
	TTLMinutes int `toml:"ttl_minutes"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			Owner: 1,
		},
		Schedule: ScheduleConfig{
			Reset:         "10 0 * * *",
			ClosingReport: "0 22 * * *",
			Reminders:     "0 9 * * *",
		},
		Alerts: AlertsConfig{
			BurnWindowDays: 7,
		},
		Reminders: RemindersConfig{
			WindowDays: 5,
		},
		Pending: PendingConfig{
			TTLMinutes: 15,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "envelope")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "envelope")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// DataDir returns the XDG-compliant data directory holding the database,
// pid and log files.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "envelope")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "envelope")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(Path())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	dir := Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(Path(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// Validate checks ranges the rest of the program relies on.
func (c Config) Validate() error {
	var errs []error
	if c.General.Owner <= 0 {
		errs = append(errs, fmt.Errorf("general.owner must be positive, got %d", c.General.Owner))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.Alerts.BurnWindowDays < 1 {
		errs = append(errs, fmt.Errorf("alerts.burn_window_days must be >= 1, got %d", c.Alerts.BurnWindowDays))
	}
	if c.Reminders.WindowDays < 0 || c.Reminders.WindowDays > 27 {
		errs = append(errs, fmt.Errorf("reminders.window_days must be in [0,27], got %d", c.Reminders.WindowDays))
	}
	if c.Pending.TTLMinutes < 1 {
		errs = append(errs, fmt.Errorf("pending.ttl_minutes must be >= 1, got %d", c.Pending.TTLMinutes))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Location returns the configured time zone, or time.Local when unset.
func (c Config) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.General.Timezone)
	if tz == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("general.timezone: %w", err)
	}
	return loc, nil
}

// PendingTTL returns how long a staged expense waits for confirmation.
func (c Config) PendingTTL() time.Duration {
	return time.Duration(c.Pending.TTLMinutes) * time.Minute
}

// DatabasePath returns the database path from env var, config or the data
// directory default, in that order.
func DatabasePath(cfg Config) string {
	if p := strings.TrimSpace(os.Getenv("ENVELOPE_DB")); p != "" {
		return p
	}
	if cfg.General.Database != "" {
		return cfg.General.Database
	}
	return filepath.Join(DataDir(), "envelope.db")
}

// TelegramToken returns the bot token from env var or config, in that order.
func TelegramToken(cfg Config) string {
	if tok := os.Getenv("ENVELOPE_TELEGRAM_TOKEN"); tok != "" {
		return tok
	}
	return cfg.Notify.TelegramToken
}

// WebhookURL returns the webhook URL from env var or config, in that order.
func WebhookURL(cfg Config) string {
	if u := os.Getenv("ENVELOPE_WEBHOOK_URL"); u != "" {
		return u
	}
	return cfg.Notify.WebhookURL
}
