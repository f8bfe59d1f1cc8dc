// Package cmd implements the envelope CLI commands.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/envelope/internal/alert"
	"github.com/theirongolddev/envelope/internal/clock"
	"github.com/theirongolddev/envelope/internal/config"
	"github.com/theirongolddev/envelope/internal/ledger"
	"github.com/theirongolddev/envelope/internal/model"
	"github.com/theirongolddev/envelope/internal/notify"
	"github.com/theirongolddev/envelope/internal/reminder"
	"github.com/theirongolddev/envelope/internal/scheduler"
	"github.com/theirongolddev/envelope/internal/store"
)

var (
	flagDB      string
	flagOwner   int64
	flagQuiet   bool
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:           "envelope",
	Short:         "Monthly envelope budget",
	Long:          "Track spending against monthly envelopes, remember where you shop and get reminded of recurring bills.",
	RunE:          runSummary,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "  Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "Database path (default from config or $ENVELOPE_DB)")
	rootCmd.PersistentFlags().Int64Var(&flagOwner, "owner", 0, "Owner id (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Only log warnings and errors")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log debug output")
}

// app bundles the wired collaborators every command works with.
type app struct {
	cfg      config.Config
	dbPath   string
	owner    int64
	loc      *time.Location
	clock    clock.Clock
	logger   *slog.Logger
	store    *store.Store
	alerts   *alert.Engine
	budget   *ledger.BudgetLedger
	memory   *ledger.EstablishmentMemory
	bills    *ledger.RecurringBillLedger
	notifier notify.Notifier
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	switch {
	case flagQuiet:
		level = slog.LevelWarn
	case flagVerbose:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openApp loads config, opens the database and wires the ledgers.
func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	dbPath := flagDB
	if dbPath == "" {
		dbPath = config.DatabasePath(cfg)
	}
	owner := flagOwner
	if owner == 0 {
		owner = cfg.General.Owner
	}
	if owner <= 0 {
		return nil, fmt.Errorf("%w: owner must be positive", model.ErrValidation)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}

	logger := newLogger()
	clk := clock.InLocation(clock.Real(), loc)
	alerts := alert.NewEngine(st, clk, cfg.Alerts.BurnWindowDays)

	return &app{
		cfg:      cfg,
		dbPath:   dbPath,
		owner:    owner,
		loc:      loc,
		clock:    clk,
		logger:   logger,
		store:    st,
		alerts:   alerts,
		budget:   ledger.NewBudgetLedger(st, alerts, clk),
		memory:   ledger.NewEstablishmentMemory(st, clk),
		bills:    ledger.NewRecurringBillLedger(st, clk),
		notifier: notify.FromConfig(logger, config.WebhookURL(cfg), config.TelegramToken(cfg)),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func (a *app) policy() reminder.Policy {
	return reminder.Policy{WindowDays: a.cfg.Reminders.WindowDays}
}

func (a *app) scheduler(n notify.Notifier) *scheduler.Scheduler {
	return scheduler.New(scheduler.Config{
		Budget:   a.budget,
		Bills:    a.bills,
		Notifier: n,
		Clock:    a.clock,
		Logger:   a.logger,
		Location: a.loc,
		Specs: scheduler.Specs{
			Reset:         a.cfg.Schedule.Reset,
			ClosingReport: a.cfg.Schedule.ClosingReport,
			Reminders:     a.cfg.Schedule.Reminders,
		},
		Policy: a.policy(),
	})
}

// withApp opens the app for the duration of fn.
func withApp(fn func(ctx context.Context, a *app) error) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	return fn(context.Background(), a)
}

// parseAmount accepts "45.90" and "45,90".
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid amount %q", model.ErrValidation, s)
	}
	return d, nil
}

func parseDay(s string) (int, error) {
	d, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: invalid day %q", model.ErrValidation, s)
	}
	return d, nil
}
