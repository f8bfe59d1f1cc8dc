// Package scheduler runs the three daily sweeps: cycle reset, closing
// report and bill reminders.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/theirongolddev/envelope/internal/clock"
	"github.com/theirongolddev/envelope/internal/ledger"
	"github.com/theirongolddev/envelope/internal/model"
	"github.com/theirongolddev/envelope/internal/notify"
	"github.com/theirongolddev/envelope/internal/reminder"
)

// Sweep names one of the scheduled jobs.
type Sweep string

const (
	SweepReset     Sweep = "reset"
	SweepReport    Sweep = "report"
	SweepReminders Sweep = "reminders"
)

// Sweeps lists every sweep in firing order of a day.
var Sweeps = []Sweep{SweepReset, SweepReminders, SweepReport}

// Specs holds the cron expression of each sweep.
type Specs struct {
	Reset         string
	ClosingReport string
	Reminders     string
}

// DefaultSpecs fire at 00:10, 22:00 and 09:00.
var DefaultSpecs = Specs{
	Reset:         "10 0 * * *",
	ClosingReport: "0 22 * * *",
	Reminders:     "0 9 * * *",
}

func (s Specs) spec(sw Sweep) string {
	switch sw {
	case SweepReset:
		return s.Reset
	case SweepReport:
		return s.ClosingReport
	default:
		return s.Reminders
	}
}

// Result summarizes one sweep run.
type Result struct {
	Sweep      Sweep     `json:"sweep"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Processed  int       `json:"processed"`
	Acted      int       `json:"acted"`
	Failed     int       `json:"failed"`
}

// Status describes a sweep's schedule and its last run.
type Status struct {
	Sweep   Sweep     `json:"sweep"`
	Spec    string    `json:"spec"`
	Runs    int       `json:"runs"`
	Last    *Result   `json:"last,omitempty"`
	NextRun time.Time `json:"next_run,omitzero"`
}

// Config wires a Scheduler.
type Config struct {
	Budget   *ledger.BudgetLedger
	Bills    *ledger.RecurringBillLedger
	Notifier notify.Notifier
	Clock    clock.Clock
	Logger   *slog.Logger
	Location *time.Location
	Specs    Specs
	Policy   reminder.Policy
}

// Scheduler runs the sweeps on cron triggers or on demand.
type Scheduler struct {
	budget   *ledger.BudgetLedger
	bills    *ledger.RecurringBillLedger
	notifier notify.Notifier
	clock    clock.Clock
	logger   *slog.Logger
	loc      *time.Location
	specs    Specs
	policy   reminder.Policy

	mu      sync.Mutex
	cron    *cron.Cron
	entries map[Sweep]cron.EntryID
	last    map[Sweep]Result
	runs    map[Sweep]int
}

// New creates a Scheduler. Zero-valued optional fields get defaults.
func New(cfg Config) *Scheduler {
	s := &Scheduler{
		budget:   cfg.Budget,
		bills:    cfg.Bills,
		notifier: cfg.Notifier,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
		loc:      cfg.Location,
		specs:    cfg.Specs,
		policy:   cfg.Policy,
		entries:  make(map[Sweep]cron.EntryID),
		last:     make(map[Sweep]Result),
		runs:     make(map[Sweep]int),
	}
	if s.clock == nil {
		s.clock = clock.Real()
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	s.clock = clock.InLocation(s.clock, s.loc)
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.notifier == nil {
		s.notifier = notify.Log{Logger: s.logger}
	}
	if s.specs.Reset == "" {
		s.specs.Reset = DefaultSpecs.Reset
	}
	if s.specs.ClosingReport == "" {
		s.specs.ClosingReport = DefaultSpecs.ClosingReport
	}
	if s.specs.Reminders == "" {
		s.specs.Reminders = DefaultSpecs.Reminders
	}
	return s
}

// Start registers the sweeps with a cron runner and starts it. A sweep
// still running when its next firing comes up skips that firing.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return fmt.Errorf("scheduler already started")
	}

	logger := cronLogger{s.logger}
	c := cron.New(
		cron.WithLocation(s.loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	for _, sw := range Sweeps {
		id, err := c.AddFunc(s.specs.spec(sw), func() {
			if _, err := s.Run(ctx, sw); err != nil {
				s.logger.Error("sweep failed", "sweep", string(sw), "err", err)
			}
		})
		if err != nil {
			return fmt.Errorf("scheduling %s sweep %q: %w", sw, s.specs.spec(sw), err)
		}
		s.entries[sw] = id
	}
	c.Start()
	s.cron = c
	s.logger.Info("scheduler started", "reset", s.specs.Reset, "report", s.specs.ClosingReport, "reminders", s.specs.Reminders)
	return nil
}

// Stop stops the cron runner and waits for running sweeps to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
}

// Run executes one sweep now.
func (s *Scheduler) Run(ctx context.Context, sw Sweep) (Result, error) {
	switch sw {
	case SweepReset:
		return s.RunReset(ctx)
	case SweepReport:
		return s.RunClosingReport(ctx)
	case SweepReminders:
		return s.RunReminders(ctx)
	default:
		return Result{}, fmt.Errorf("%w: unknown sweep %q", model.ErrValidation, sw)
	}
}

// Status reports every sweep's schedule and last result.
func (s *Scheduler) Status() []Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Status, 0, len(Sweeps))
	for _, sw := range Sweeps {
		st := Status{Sweep: sw, Spec: s.specs.spec(sw), Runs: s.runs[sw]}
		if r, ok := s.last[sw]; ok {
			st.Last = &r
		}
		if s.cron != nil {
			st.NextRun = s.cron.Entry(s.entries[sw]).Next
		}
		out = append(out, st)
	}
	return out
}

func (s *Scheduler) record(r Result) {
	s.mu.Lock()
	s.last[r.Sweep] = r
	s.runs[r.Sweep]++
	s.mu.Unlock()

	s.logger.Info("sweep finished",
		"sweep", string(r.Sweep),
		"processed", r.Processed,
		"acted", r.Acted,
		"failed", r.Failed,
		"took", r.FinishedAt.Sub(r.StartedAt).String(),
	)
}

// deliver sends msg and logs a failure. Delivery never undoes a committed
// change.
func (s *Scheduler) deliver(ctx context.Context, sw Sweep, owner int64, msg notify.Message) bool {
	if err := s.notifier.Send(ctx, owner, msg); err != nil {
		s.logger.Warn("notification failed", "sweep", string(sw), "owner", owner, "err", err)
		return false
	}
	return true
}

// RunReset resets every owner whose cycle starts today.
func (s *Scheduler) RunReset(ctx context.Context) (Result, error) {
	now := s.clock.Now()
	res := Result{Sweep: SweepReset, StartedAt: now}

	cfgs, err := s.budget.ClosingConfigs(ctx)
	if err != nil {
		return res, fmt.Errorf("listing closing days: %w", err)
	}
	for _, c := range cfgs {
		if now.Day() != model.ResetDay(c.ClosingDay) {
			continue
		}
		res.Processed++
		n, err := s.budget.ResetCycle(ctx, c.Owner)
		if err != nil {
			res.Failed++
			s.logger.Error("reset failed", "sweep", string(SweepReset), "owner", c.Owner, "err", err)
			continue
		}
		res.Acted++
		s.deliver(ctx, SweepReset, c.Owner, notify.ResetMessage(n))
	}

	res.FinishedAt = s.clock.Now()
	s.record(res)
	return res, nil
}

// RunClosingReport reports to every owner whose cycle closes today.
func (s *Scheduler) RunClosingReport(ctx context.Context) (Result, error) {
	now := s.clock.Now()
	res := Result{Sweep: SweepReport, StartedAt: now}

	cfgs, err := s.budget.ClosingConfigs(ctx)
	if err != nil {
		return res, fmt.Errorf("listing closing days: %w", err)
	}
	for _, c := range cfgs {
		if now.Day() != c.ClosingDay {
			continue
		}
		res.Processed++
		r, err := s.budget.CycleReport(ctx, c.Owner)
		if err != nil {
			res.Failed++
			s.logger.Error("closing report failed", "sweep", string(SweepReport), "owner", c.Owner, "err", err)
			continue
		}
		if len(r.Envelopes) == 0 {
			continue
		}
		if s.deliver(ctx, SweepReport, c.Owner, notify.ReportMessage(r)) {
			res.Acted++
		} else {
			res.Failed++
		}
	}

	res.FinishedAt = s.clock.Now()
	s.record(res)
	return res, nil
}

// RunReminders sends due reminders for every active bill.
func (s *Scheduler) RunReminders(ctx context.Context) (Result, error) {
	now := s.clock.Now()
	res := Result{Sweep: SweepReminders, StartedAt: now}

	bills, err := s.bills.ActiveBills(ctx)
	if err != nil {
		return res, fmt.Errorf("listing active bills: %w", err)
	}
	for _, b := range bills {
		res.Processed++
		sent, err := s.remind(ctx, b, now)
		if err != nil {
			res.Failed++
			s.logger.Error("reminder failed", "sweep", string(SweepReminders),
				"owner", b.Owner, "bill", b.ID, "err", err)
			continue
		}
		if sent {
			res.Acted++
		}
	}

	res.FinishedAt = s.clock.Now()
	s.record(res)
	return res, nil
}

func (s *Scheduler) remind(ctx context.Context, b model.RecurringBill, now time.Time) (bool, error) {
	days := reminder.DaysUntilDue(b.DueDay, now)
	if !s.policy.InWindow(days) {
		return false, nil
	}
	cycle := reminder.DueCycle(b.DueDay, now)
	p, err := s.bills.GetOrCreateCyclePayment(ctx, b.ID, b.Owner, cycle)
	if err != nil {
		return false, err
	}
	if !s.policy.ShouldRemind(p, days, now) {
		return false, nil
	}

	r := reminder.GenerateReminder(b, p, days, now)
	if err := s.notifier.Send(ctx, b.Owner, notify.ReminderMessage(r)); err != nil {
		return false, err
	}
	// The reminder went out; a bookkeeping failure only risks a repeat.
	if _, err := s.bills.TouchReminder(ctx, b.Owner, p.ID); err != nil {
		s.logger.Warn("recording reminder failed", "sweep", string(SweepReminders),
			"owner", b.Owner, "bill", b.ID, "err", err)
	}
	return true, nil
}

// cronLogger routes robfig/cron logging to slog.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append(keysAndValues, "err", err)...)
}
