package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/envelope/internal/alert"
	"github.com/theirongolddev/envelope/internal/clock"
	"github.com/theirongolddev/envelope/internal/model"
)

// ExpenseInput describes an expense to apply. A zero OccurredAt means now.
// Category is informational: the stored label is always the envelope's
// normalized name.
type ExpenseInput struct {
	EnvelopeID int64
	Amount     decimal.Decimal
	Payee      string
	Category   string
	OccurredAt time.Time
}

// ExpenseResult is the outcome of ApplyExpense.
type ExpenseResult struct {
	Expense    model.Expense
	Before     model.Envelope
	After      model.Envelope
	Assessment alert.Assessment
	// AssessErr is set when the expense was committed but the burn rate
	// could not be computed. Assessment then carries level and crossing only.
	AssessErr error
}

// BudgetLedger owns envelopes and the expenses charged to them.
type BudgetLedger struct {
	store  Store
	alerts *alert.Engine
	clock  clock.Clock
}

// NewBudgetLedger creates a BudgetLedger.
func NewBudgetLedger(store Store, alerts *alert.Engine, clk clock.Clock) *BudgetLedger {
	return &BudgetLedger{store: store, alerts: alerts, clock: clk}
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", model.ErrValidation)
	}
	return name, nil
}

// MaxAmount bounds every limit and amount, keeping stored cents and
// running totals well inside int64.
var MaxAmount = decimal.New(1, 12)

// ValidateAmount checks a money amount the way every ledger write does: it
// must be positive, at least one cent once rounded, and at most MaxAmount.
func ValidateAmount(what string, d decimal.Decimal) error {
	if !d.IsPositive() {
		return fmt.Errorf("%w: %s must be positive, got %s", model.ErrValidation, what, d)
	}
	if d.Round(2).IsZero() {
		return fmt.Errorf("%w: %s rounds to zero", model.ErrValidation, what)
	}
	if d.GreaterThan(MaxAmount) {
		return fmt.Errorf("%w: %s exceeds %s", model.ErrValidation, what, MaxAmount.StringFixed(2))
	}
	return nil
}

// CreateEnvelope creates a named envelope with a positive limit.
func (l *BudgetLedger) CreateEnvelope(ctx context.Context, owner int64, name string, limit decimal.Decimal) (model.Envelope, error) {
	name, err := validateName(name)
	if err != nil {
		return model.Envelope{}, err
	}
	if err := ValidateAmount("limit", limit); err != nil {
		return model.Envelope{}, err
	}
	return l.store.CreateEnvelope(ctx, model.Envelope{
		Owner:     owner,
		Name:      name,
		Key:       model.NormalizeName(name),
		Limit:     limit,
		CreatedAt: l.clock.Now(),
	})
}

// Envelope returns an owned envelope.
func (l *BudgetLedger) Envelope(ctx context.Context, owner, id int64) (model.Envelope, error) {
	return l.store.Envelope(ctx, owner, id)
}

// EnvelopeByName returns the owner's envelope whose normalized name matches.
func (l *BudgetLedger) EnvelopeByName(ctx context.Context, owner int64, name string) (model.Envelope, error) {
	return l.store.EnvelopeByKey(ctx, owner, model.NormalizeName(name))
}

// Envelopes lists the owner's envelopes.
func (l *BudgetLedger) Envelopes(ctx context.Context, owner int64) ([]model.Envelope, error) {
	return l.store.ListEnvelopes(ctx, owner)
}

// SetLimit changes an envelope's limit. Spend is untouched.
func (l *BudgetLedger) SetLimit(ctx context.Context, owner, id int64, limit decimal.Decimal) (model.Envelope, error) {
	if err := ValidateAmount("limit", limit); err != nil {
		return model.Envelope{}, err
	}
	e, err := l.store.Envelope(ctx, owner, id)
	if err != nil {
		return model.Envelope{}, err
	}
	e.Limit = limit
	return l.store.UpdateEnvelope(ctx, e)
}

// Rename changes an envelope's name and with it the category label.
func (l *BudgetLedger) Rename(ctx context.Context, owner, id int64, name string) (model.Envelope, error) {
	name, err := validateName(name)
	if err != nil {
		return model.Envelope{}, err
	}
	e, err := l.store.Envelope(ctx, owner, id)
	if err != nil {
		return model.Envelope{}, err
	}
	e.Name = name
	e.Key = model.NormalizeName(name)
	return l.store.UpdateEnvelope(ctx, e)
}

// DeleteEnvelope removes an owned envelope with its expenses and memory.
func (l *BudgetLedger) DeleteEnvelope(ctx context.Context, owner, id int64) error {
	return l.store.DeleteEnvelope(ctx, owner, id)
}

// ApplyExpense records an expense and adds it to the envelope's spend in one
// atomic step. Spending past the limit is recorded, never rejected.
func (l *BudgetLedger) ApplyExpense(ctx context.Context, owner int64, in ExpenseInput) (ExpenseResult, error) {
	if err := ValidateAmount("amount", in.Amount); err != nil {
		return ExpenseResult{}, err
	}
	now := l.clock.Now()
	occurred := in.OccurredAt
	if occurred.IsZero() {
		occurred = now
	}

	x, before, after, err := l.store.ApplyExpense(ctx, model.Expense{
		Owner:      owner,
		EnvelopeID: in.EnvelopeID,
		Amount:     in.Amount,
		Payee:      strings.TrimSpace(in.Payee),
		Category:   in.Category,
		OccurredAt: occurred,
		RecordedAt: now,
	})
	if err != nil {
		return ExpenseResult{}, err
	}

	res := ExpenseResult{Expense: x, Before: before, After: after}
	res.Assessment, res.AssessErr = l.alerts.Assess(ctx, after, before.PercentageUsed())
	if res.AssessErr != nil {
		pct := after.PercentageUsed()
		res.Assessment = alert.Assessment{
			EnvelopeID: after.ID,
			Level:      alert.Classify(pct),
			Percentage: pct,
			Remaining:  after.Remaining(),
			Crossed:    alert.ShouldAlertOnCrossing(before.PercentageUsed(), pct),
			AssessedAt: now,
		}
	}
	return res, nil
}

// ResetCycle zeroes the spend of every owner envelope and returns how many
// were reset.
func (l *BudgetLedger) ResetCycle(ctx context.Context, owner int64) (int, error) {
	return l.store.ResetCycle(ctx, owner)
}

// RecentExpenses returns the owner's latest expenses.
func (l *BudgetLedger) RecentExpenses(ctx context.Context, owner int64, limit int) ([]model.Expense, error) {
	if limit <= 0 {
		limit = 10
	}
	return l.store.RecentExpenses(ctx, owner, limit)
}

// CycleReport aggregates the owner's envelopes as of now. The expense count
// covers the current calendar month.
func (l *BudgetLedger) CycleReport(ctx context.Context, owner int64) (model.CycleReport, error) {
	now := l.clock.Now()
	envs, err := l.store.ListEnvelopes(ctx, owner)
	if err != nil {
		return model.CycleReport{}, err
	}
	closing, _, err := l.store.ClosingDay(ctx, owner)
	if err != nil {
		return model.CycleReport{}, err
	}
	since, until := monthBounds(now)
	count, err := l.store.CountExpensesBetween(ctx, owner, since, until)
	if err != nil {
		return model.CycleReport{}, err
	}

	r := model.CycleReport{
		Owner:        owner,
		GeneratedAt:  now,
		ClosingDay:   closing,
		Envelopes:    envs,
		TotalLimit:   decimal.Zero,
		TotalSpent:   decimal.Zero,
		ExpenseCount: count,
	}
	for _, e := range envs {
		r.TotalLimit = r.TotalLimit.Add(e.Limit)
		r.TotalSpent = r.TotalSpent.Add(e.Spent)
	}
	return r, nil
}

// SetClosingDay configures the owner's closing day.
func (l *BudgetLedger) SetClosingDay(ctx context.Context, owner int64, day int) error {
	if !model.ValidDay(day) {
		return fmt.Errorf("%w: closing day must be between %d and %d, got %d",
			model.ErrValidation, model.MinDay, model.MaxDay, day)
	}
	return l.store.SetClosingDay(ctx, owner, day, l.clock.Now())
}

// ClosingDay returns the owner's closing day; ok is false when unset.
func (l *BudgetLedger) ClosingDay(ctx context.Context, owner int64) (int, bool, error) {
	return l.store.ClosingDay(ctx, owner)
}

// ClearClosingDay removes the owner's closing day, which stops automatic
// resets and reports.
func (l *BudgetLedger) ClearClosingDay(ctx context.Context, owner int64) error {
	return l.store.ClearClosingDay(ctx, owner)
}

// ClosingConfigs lists every owner with a closing day.
func (l *BudgetLedger) ClosingConfigs(ctx context.Context) ([]model.ClosingConfig, error) {
	return l.store.ClosingConfigs(ctx)
}

// PurgeOwner deletes everything the owner has stored.
func (l *BudgetLedger) PurgeOwner(ctx context.Context, owner int64) error {
	return l.store.PurgeOwner(ctx, owner)
}
