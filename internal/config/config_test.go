package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func useTempConfigHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("ENVELOPE_DB", "")
	t.Setenv("ENVELOPE_TELEGRAM_TOKEN", "")
	t.Setenv("ENVELOPE_WEBHOOK_URL", "")
	return dir
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	useTempConfigHome(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Schedule.Reset != "10 0 * * *" {
		t.Fatalf("Schedule.Reset = %q, want default", cfg.Schedule.Reset)
	}
	if cfg.Reminders.WindowDays != 5 {
		t.Fatalf("Reminders.WindowDays = %d, want 5", cfg.Reminders.WindowDays)
	}
	if Exists() {
		t.Fatal("Exists() = true with no config file")
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	dir := useTempConfigHome(t)
	path := filepath.Join(dir, "envelope", "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	body := "[general]\nowner = 42\ntimezone = \"UTC\"\n\n[alerts]\nburn_window_days = 14\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.General.Owner != 42 {
		t.Fatalf("Owner = %d, want 42", cfg.General.Owner)
	}
	if cfg.Alerts.BurnWindowDays != 14 {
		t.Fatalf("BurnWindowDays = %d, want 14", cfg.Alerts.BurnWindowDays)
	}
	if cfg.Schedule.Reminders != "0 9 * * *" {
		t.Fatalf("Schedule.Reminders = %q, want default kept", cfg.Schedule.Reminders)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	dir := useTempConfigHome(t)
	path := filepath.Join(dir, "envelope", "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	body := "[general]\ntimezone = \"Mars/Olympus\"\n\n[alerts]\nburn_window_days = 0\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := Load()
	if err == nil {
		t.Fatal("Load succeeded, want validation error")
	}
	for _, want := range []string{"timezone", "burn_window_days"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestSaveThenExists(t *testing.T) {
	useTempConfigHome(t)

	cfg := DefaultConfig()
	cfg.General.Owner = 7
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !Exists() {
		t.Fatal("Exists() = false after Save")
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.General.Owner != 7 {
		t.Fatalf("Owner = %d, want 7", got.General.Owner)
	}
}

func TestEnvOverrides(t *testing.T) {
	useTempConfigHome(t)
	cfg := DefaultConfig()
	cfg.General.Database = "/from/config.db"
	cfg.Notify.TelegramToken = "config-token"

	if got := DatabasePath(cfg); got != "/from/config.db" {
		t.Fatalf("DatabasePath = %q, want config value", got)
	}
	t.Setenv("ENVELOPE_DB", "/from/env.db")
	if got := DatabasePath(cfg); got != "/from/env.db" {
		t.Fatalf("DatabasePath = %q, want env value", got)
	}

	if got := TelegramToken(cfg); got != "config-token" {
		t.Fatalf("TelegramToken = %q, want config-token", got)
	}
	t.Setenv("ENVELOPE_TELEGRAM_TOKEN", "env-token")
	if got := TelegramToken(cfg); got != "env-token" {
		t.Fatalf("TelegramToken = %q, want env-token", got)
	}
}
