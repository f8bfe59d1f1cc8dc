// Package ledger holds the mutating side of the budget: envelopes and the
// expenses applied to them, payee recall, and recurring bills with their
// per-cycle payments.
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/envelope/internal/alert"
	"github.com/theirongolddev/envelope/internal/model"
)

// EnvelopeReader resolves owned envelopes.
type EnvelopeReader interface {
	Envelope(ctx context.Context, owner, id int64) (model.Envelope, error)
	EnvelopeByKey(ctx context.Context, owner int64, key string) (model.Envelope, error)
	ListEnvelopes(ctx context.Context, owner int64) ([]model.Envelope, error)
}

// Store is the persistence the BudgetLedger consumes.
type Store interface {
	alert.Store
	EnvelopeReader
	CreateEnvelope(ctx context.Context, e model.Envelope) (model.Envelope, error)
	UpdateEnvelope(ctx context.Context, e model.Envelope) (model.Envelope, error)
	DeleteEnvelope(ctx context.Context, owner, id int64) error
	ApplyExpense(ctx context.Context, x model.Expense) (model.Expense, model.Envelope, model.Envelope, error)
	ResetCycle(ctx context.Context, owner int64) (int, error)
	RecentExpenses(ctx context.Context, owner int64, limit int) ([]model.Expense, error)
	CountExpensesBetween(ctx context.Context, owner int64, since, until time.Time) (int, error)
	OwnerExpensesBetween(ctx context.Context, owner int64, since, until time.Time) ([]model.Expense, error)
	SetClosingDay(ctx context.Context, owner int64, day int, at time.Time) error
	ClosingDay(ctx context.Context, owner int64) (int, bool, error)
	ClearClosingDay(ctx context.Context, owner int64) error
	ClosingConfigs(ctx context.Context) ([]model.ClosingConfig, error)
	PurgeOwner(ctx context.Context, owner int64) error
}

// MemoryStore is the persistence EstablishmentMemory consumes.
type MemoryStore interface {
	EnvelopeReader
	LookupPayee(ctx context.Context, owner int64, payeeKey string) (int64, bool, error)
	RememberPayee(ctx context.Context, owner int64, payeeKey string, envelopeID int64, at time.Time) error
}

// BillStore is the persistence the RecurringBillLedger consumes.
type BillStore interface {
	Envelope(ctx context.Context, owner, id int64) (model.Envelope, error)
	CreateBill(ctx context.Context, b model.RecurringBill) (model.RecurringBill, error)
	Bill(ctx context.Context, owner, id int64) (model.RecurringBill, error)
	BillByDescription(ctx context.Context, owner int64, key string) (model.RecurringBill, error)
	ListBills(ctx context.Context, owner int64, activeOnly bool) ([]model.RecurringBill, error)
	ActiveBills(ctx context.Context) ([]model.RecurringBill, error)
	SetBillActive(ctx context.Context, owner, id int64, active bool) error
	DeleteBill(ctx context.Context, owner, id int64) error
	GetOrCreatePayment(ctx context.Context, owner, billID int64, cycle model.Cycle) (model.BillCyclePayment, error)
	SetPaymentAmount(ctx context.Context, owner, paymentID int64, amount decimal.Decimal) (model.BillCyclePayment, error)
	MarkPaymentPaid(ctx context.Context, owner, paymentID int64, at time.Time) (model.BillCyclePayment, error)
	TouchReminder(ctx context.Context, owner, paymentID int64, at time.Time) (model.BillCyclePayment, error)
	UnpaidForCycle(ctx context.Context, owner int64, cycle model.Cycle) ([]model.PendingBill, error)
}

// monthBounds returns [first of t's month, first of the next month) in t's
// location.
func monthBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}
