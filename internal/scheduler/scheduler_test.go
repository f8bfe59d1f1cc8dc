package scheduler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/envelope/internal/alert"
	"github.com/theirongolddev/envelope/internal/clock"
	"github.com/theirongolddev/envelope/internal/ledger"
	"github.com/theirongolddev/envelope/internal/model"
	"github.com/theirongolddev/envelope/internal/notify"
	"github.com/theirongolddev/envelope/internal/store"
)

type sent struct {
	owner int64
	msg   notify.Message
}

type recorder struct {
	mu      sync.Mutex
	sent    []sent
	failFor map[int64]bool
	onSend  func()
}

func (r *recorder) Send(_ context.Context, owner int64, msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFor[owner] {
		return model.ErrDelivery
	}
	r.sent = append(r.sent, sent{owner, msg})
	if r.onSend != nil {
		r.onSend()
	}
	return nil
}

func (r *recorder) kinds(kind notify.Kind) []sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sent
	for _, s := range r.sent {
		if s.msg.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

type harness struct {
	store  *store.Store
	clock  *clock.FakeClock
	budget *ledger.BudgetLedger
	bills  *ledger.RecurringBillLedger
	notes  *recorder
	sched  *Scheduler
	logs   *bytes.Buffer
}

func newHarness(t *testing.T, now time.Time) *harness {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "sched.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	clk := clock.Fake(now)
	h := &harness{
		store:  s,
		clock:  clk,
		budget: ledger.NewBudgetLedger(s, alert.NewEngine(s, clk, 7), clk),
		bills:  ledger.NewRecurringBillLedger(s, clk),
		notes:  &recorder{failFor: map[int64]bool{}},
		logs:   &bytes.Buffer{},
	}
	h.sched = New(Config{
		Budget:   h.budget,
		Bills:    h.bills,
		Notifier: h.notes,
		Clock:    clk,
		Logger:   slog.New(slog.NewTextHandler(h.logs, nil)),
		Location: time.UTC,
	})
	return h
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (h *harness) spend(t *testing.T, owner int64, name, amount string) model.Envelope {
	t.Helper()
	ctx := context.Background()
	e, err := h.budget.EnvelopeByName(ctx, owner, name)
	if errors.Is(err, model.ErrNotFound) {
		e, err = h.budget.CreateEnvelope(ctx, owner, name, dec("100"))
	}
	if err != nil {
		t.Fatalf("envelope %s: %v", name, err)
	}
	if _, err := h.budget.ApplyExpense(ctx, owner, ledger.ExpenseInput{EnvelopeID: e.ID, Amount: dec(amount)}); err != nil {
		t.Fatalf("ApplyExpense: %v", err)
	}
	return e
}

func TestRunReset_OnlyOwnersStartingToday(t *testing.T) {
	h := newHarness(t, time.Date(2026, 3, 11, 0, 10, 0, 0, time.UTC))
	ctx := context.Background()
	h.spend(t, 1, "Food", "40")
	h.spend(t, 2, "Food", "40")
	_ = h.budget.SetClosingDay(ctx, 1, 10)
	_ = h.budget.SetClosingDay(ctx, 2, 20)

	res, err := h.sched.RunReset(ctx)
	if err != nil {
		t.Fatalf("RunReset: %v", err)
	}
	if res.Processed != 1 || res.Acted != 1 || res.Failed != 0 {
		t.Fatalf("result = %+v, want 1 processed and acted", res)
	}

	e1, _ := h.budget.EnvelopeByName(ctx, 1, "food")
	e2, _ := h.budget.EnvelopeByName(ctx, 2, "food")
	if !e1.Spent.IsZero() || !e2.Spent.Equal(dec("40")) {
		t.Fatalf("spent = %s/%s, want 0/40", e1.Spent, e2.Spent)
	}
	if got := h.notes.kinds(notify.KindReset); len(got) != 1 || got[0].owner != 1 {
		t.Fatalf("reset notifications = %+v", got)
	}
}

func TestRunReset_Day28WrapsToFirst(t *testing.T) {
	h := newHarness(t, time.Date(2026, 4, 1, 0, 10, 0, 0, time.UTC))
	ctx := context.Background()
	h.spend(t, 1, "Food", "40")
	_ = h.budget.SetClosingDay(ctx, 1, 28)

	res, _ := h.sched.RunReset(ctx)
	if res.Acted != 1 {
		t.Fatalf("Acted = %d, want 1", res.Acted)
	}
}

func TestRunReset_DeliveryFailureKeepsReset(t *testing.T) {
	h := newHarness(t, time.Date(2026, 3, 11, 0, 10, 0, 0, time.UTC))
	ctx := context.Background()
	h.spend(t, 1, "Food", "40")
	_ = h.budget.SetClosingDay(ctx, 1, 10)
	h.notes.failFor[1] = true

	if _, err := h.sched.RunReset(ctx); err != nil {
		t.Fatalf("RunReset: %v", err)
	}
	e, _ := h.budget.EnvelopeByName(ctx, 1, "food")
	if !e.Spent.IsZero() {
		t.Fatalf("spent = %s, want reset despite delivery failure", e.Spent)
	}
	if !strings.Contains(h.logs.String(), "notification failed") {
		t.Fatalf("delivery failure not logged: %s", h.logs.String())
	}
}

func TestRunClosingReport(t *testing.T) {
	h := newHarness(t, time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC))
	ctx := context.Background()
	h.spend(t, 1, "Food", "85")
	_ = h.budget.SetClosingDay(ctx, 1, 10)
	_ = h.budget.SetClosingDay(ctx, 2, 10) // no envelopes
	_ = h.budget.SetClosingDay(ctx, 3, 11)

	res, err := h.sched.RunClosingReport(ctx)
	if err != nil {
		t.Fatalf("RunClosingReport: %v", err)
	}
	if res.Processed != 2 || res.Acted != 1 {
		t.Fatalf("result = %+v, want 2 processed, 1 acted", res)
	}
	got := h.notes.kinds(notify.KindReport)
	if len(got) != 1 || got[0].owner != 1 || !strings.Contains(got[0].msg.Text, "Food") {
		t.Fatalf("reports = %+v", got)
	}

	e, _ := h.budget.EnvelopeByName(ctx, 1, "food")
	if !e.Spent.Equal(dec("85")) {
		t.Fatalf("report mutated spend: %s", e.Spent)
	}
}

func TestRunReminders_OncePerDay(t *testing.T) {
	h := newHarness(t, time.Date(2026, 3, 8, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()
	fixed := dec("45.90")
	if _, err := h.bills.CreateBill(ctx, 1, ledger.BillInput{Description: "Internet", DueDay: 10, FixedAmount: &fixed}); err != nil {
		t.Fatalf("CreateBill: %v", err)
	}
	if _, err := h.bills.CreateBill(ctx, 1, ledger.BillInput{Description: "Rent", DueDay: 25}); err != nil {
		t.Fatalf("CreateBill: %v", err)
	}

	res, _ := h.sched.RunReminders(ctx)
	if res.Processed != 2 || res.Acted != 1 {
		t.Fatalf("first run = %+v, want 1 reminder", res)
	}

	h.clock.Advance(3 * time.Hour)
	res, _ = h.sched.RunReminders(ctx)
	if res.Acted != 0 {
		t.Fatalf("same-day rerun sent %d reminders", res.Acted)
	}

	h.clock.Advance(21 * time.Hour)
	res, _ = h.sched.RunReminders(ctx)
	if res.Acted != 1 {
		t.Fatalf("next-day run sent %d reminders, want 1", res.Acted)
	}
	if got := h.notes.kinds(notify.KindReminder); len(got) != 2 || !strings.Contains(got[1].msg.Text, "Due tomorrow") {
		t.Fatalf("reminders = %+v", got)
	}
}

func TestRunReminders_PaidBillSilentAndDueDayEscalates(t *testing.T) {
	h := newHarness(t, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()
	paid, _ := h.bills.CreateBill(ctx, 1, ledger.BillInput{Description: "Water", DueDay: 10})
	_, _ = h.bills.CreateBill(ctx, 1, ledger.BillInput{Description: "Power", DueDay: 10})
	if _, err := h.bills.MarkPaid(ctx, paid.ID, 1, nil); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}

	for range 2 {
		if _, err := h.sched.RunReminders(ctx); err != nil {
			t.Fatalf("RunReminders: %v", err)
		}
	}
	got := h.notes.kinds(notify.KindReminder)
	if len(got) != 2 {
		t.Fatalf("reminders = %d, want 2 (due date repeats)", len(got))
	}
	for _, s := range got {
		if !strings.Contains(s.msg.Text, "Power") || !strings.Contains(s.msg.Text, "Amount undefined") {
			t.Fatalf("reminder = %q", s.msg.Text)
		}
	}
}

func TestRunReminders_IsolatesOwners(t *testing.T) {
	h := newHarness(t, time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()
	_, _ = h.bills.CreateBill(ctx, 1, ledger.BillInput{Description: "A", DueDay: 10})
	_, _ = h.bills.CreateBill(ctx, 2, ledger.BillInput{Description: "B", DueDay: 10})
	h.notes.failFor[1] = true

	res, err := h.sched.RunReminders(ctx)
	if err != nil {
		t.Fatalf("RunReminders: %v", err)
	}
	if res.Failed != 1 || res.Acted != 1 {
		t.Fatalf("result = %+v, want one failed one sent", res)
	}

	// The failed owner is retried on the next run the same day.
	h.notes.failFor[1] = false
	res, _ = h.sched.RunReminders(ctx)
	if res.Acted != 1 {
		t.Fatalf("retry sent %d, want 1", res.Acted)
	}
}

func TestRunReminders_DueDateInNextMonth(t *testing.T) {
	h := newHarness(t, time.Date(2026, 3, 28, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()
	b, _ := h.bills.CreateBill(ctx, 1, ledger.BillInput{Description: "Card", DueDay: 2})

	if res, _ := h.sched.RunReminders(ctx); res.Acted != 1 {
		t.Fatalf("Acted = %d, want 1", res.Acted)
	}
	april := model.Cycle{Month: time.April, Year: 2026}
	p, err := h.bills.GetOrCreateCyclePayment(ctx, b.ID, 1, april)
	if err != nil {
		t.Fatalf("GetOrCreateCyclePayment: %v", err)
	}
	if p.LastReminderAt == nil {
		t.Fatal("reminder recorded on the wrong cycle")
	}
}

func TestRunReminders_PayingDefaultCycleSilencesNextMonthBill(t *testing.T) {
	h := newHarness(t, time.Date(2026, 3, 28, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()
	b, _ := h.bills.CreateBill(ctx, 1, ledger.BillInput{Description: "Card", DueDay: 2})

	if res, _ := h.sched.RunReminders(ctx); res.Acted != 1 {
		t.Fatalf("Acted = %d, want 1", res.Acted)
	}
	p, err := h.bills.SetCycleAmount(ctx, b.ID, 1, dec("310.40"), nil)
	if err != nil {
		t.Fatalf("SetCycleAmount: %v", err)
	}
	if want := (model.Cycle{Month: time.April, Year: 2026}); p.Cycle != want {
		t.Fatalf("amount set on %+v, want %+v", p.Cycle, want)
	}
	if _, err := h.bills.MarkPaid(ctx, b.ID, 1, nil); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}

	h.clock.Advance(24 * time.Hour)
	res, err := h.sched.RunReminders(ctx)
	if err != nil {
		t.Fatalf("RunReminders: %v", err)
	}
	if res.Acted != 0 {
		t.Fatalf("Acted = %d after paying, want 0", res.Acted)
	}
	if got := h.notes.kinds(notify.KindReminder); len(got) != 1 {
		t.Fatalf("reminders = %d, want 1", len(got))
	}
}

func TestRunReminders_BookkeepingFailureStillCountsSent(t *testing.T) {
	h := newHarness(t, time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()
	_, _ = h.bills.CreateBill(ctx, 1, ledger.BillInput{Description: "Gas", DueDay: 10})
	h.notes.onSend = func() { _ = h.store.Close() }

	res, err := h.sched.RunReminders(ctx)
	if err != nil {
		t.Fatalf("RunReminders: %v", err)
	}
	if res.Acted != 1 || res.Failed != 0 {
		t.Fatalf("result = %+v, want 1 sent and 0 failed", res)
	}
	if !strings.Contains(h.logs.String(), "recording reminder failed") {
		t.Fatalf("logs = %q, want bookkeeping warning", h.logs.String())
	}
}

func TestStatusAndRun(t *testing.T) {
	h := newHarness(t, time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	if _, err := h.sched.Run(ctx, Sweep("bogus")); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("unknown sweep err = %v", err)
	}
	if _, err := h.sched.Run(ctx, SweepReport); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, st := range h.sched.Status() {
		if st.Sweep == SweepReport && (st.Runs != 1 || st.Last == nil) {
			t.Fatalf("report status = %+v", st)
		}
		if st.Sweep == SweepReset && st.Runs != 0 {
			t.Fatalf("reset status = %+v", st)
		}
	}
}

func TestStartStop(t *testing.T) {
	h := newHarness(t, time.Now())
	if err := h.sched.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := h.sched.Start(context.Background()); err == nil {
		t.Fatal("second Start succeeded")
	}
	for _, st := range h.sched.Status() {
		if st.NextRun.IsZero() {
			t.Fatalf("%s has no next run", st.Sweep)
		}
	}
	h.sched.Stop()
}

func TestStart_BadSpec(t *testing.T) {
	s := New(Config{Specs: Specs{Reset: "not a cron"}, Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))})
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("Start with bad spec succeeded")
	}
}
