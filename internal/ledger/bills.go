package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/envelope/internal/clock"
	"github.com/theirongolddev/envelope/internal/model"
	"github.com/theirongolddev/envelope/internal/reminder"
)

// BillInput describes a recurring bill to create. A nil FixedAmount makes
// the bill variable.
type BillInput struct {
	Description string
	DueDay      int
	FixedAmount *decimal.Decimal
	EnvelopeID  *int64
}

// RecurringBillLedger owns recurring bills and their per-cycle payments.
type RecurringBillLedger struct {
	store BillStore
	clock clock.Clock
}

// NewRecurringBillLedger creates a RecurringBillLedger.
func NewRecurringBillLedger(store BillStore, clk clock.Clock) *RecurringBillLedger {
	return &RecurringBillLedger{store: store, clock: clk}
}

// cycleFor resolves an optional cycle: nil means the cycle of the bill's
// next due date, the one its reminders point at.
func (l *RecurringBillLedger) cycleFor(b model.RecurringBill, c *model.Cycle) model.Cycle {
	if c != nil {
		return *c
	}
	return reminder.DueCycle(b.DueDay, l.clock.Now())
}

func validateDueDay(day int) error {
	if !model.ValidDay(day) {
		return fmt.Errorf("%w: due day must be between %d and %d, got %d",
			model.ErrValidation, model.MinDay, model.MaxDay, day)
	}
	return nil
}

// CreateBill creates an active recurring bill.
func (l *RecurringBillLedger) CreateBill(ctx context.Context, owner int64, in BillInput) (model.RecurringBill, error) {
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return model.RecurringBill{}, fmt.Errorf("%w: description is required", model.ErrValidation)
	}
	if err := validateDueDay(in.DueDay); err != nil {
		return model.RecurringBill{}, err
	}
	if in.FixedAmount != nil {
		if err := ValidateAmount("fixed amount", *in.FixedAmount); err != nil {
			return model.RecurringBill{}, err
		}
	}
	return l.store.CreateBill(ctx, model.RecurringBill{
		Owner:       owner,
		Description: desc,
		DueDay:      in.DueDay,
		FixedAmount: in.FixedAmount,
		EnvelopeID:  in.EnvelopeID,
		Active:      true,
		CreatedAt:   l.clock.Now(),
	})
}

// Bill returns an owned bill.
func (l *RecurringBillLedger) Bill(ctx context.Context, owner, id int64) (model.RecurringBill, error) {
	return l.store.Bill(ctx, owner, id)
}

// BillByDescription returns the owner's bill matching description.
func (l *RecurringBillLedger) BillByDescription(ctx context.Context, owner int64, description string) (model.RecurringBill, error) {
	return l.store.BillByDescription(ctx, owner, model.NormalizeName(description))
}

// Bills lists the owner's bills by due day.
func (l *RecurringBillLedger) Bills(ctx context.Context, owner int64, activeOnly bool) ([]model.RecurringBill, error) {
	return l.store.ListBills(ctx, owner, activeOnly)
}

// ActiveBills lists the active bills of every owner.
func (l *RecurringBillLedger) ActiveBills(ctx context.Context) ([]model.RecurringBill, error) {
	return l.store.ActiveBills(ctx)
}

// SetActive pauses or resumes a bill.
func (l *RecurringBillLedger) SetActive(ctx context.Context, owner, id int64, active bool) error {
	return l.store.SetBillActive(ctx, owner, id, active)
}

// DeleteBill removes a bill and its payments.
func (l *RecurringBillLedger) DeleteBill(ctx context.Context, owner, id int64) error {
	return l.store.DeleteBill(ctx, owner, id)
}

// GetOrCreateCyclePayment returns the bill's payment for cycle, creating it
// on first access. Repeated and concurrent calls return the same record.
func (l *RecurringBillLedger) GetOrCreateCyclePayment(ctx context.Context, billID, owner int64, cycle model.Cycle) (model.BillCyclePayment, error) {
	if cycle.Month < 1 || cycle.Month > 12 {
		return model.BillCyclePayment{}, fmt.Errorf("%w: month %d", model.ErrValidation, cycle.Month)
	}
	return l.store.GetOrCreatePayment(ctx, owner, billID, cycle)
}

// SetCycleAmount sets the amount a variable bill owes for a cycle. A nil
// cycle means the cycle of the next due date.
func (l *RecurringBillLedger) SetCycleAmount(ctx context.Context, billID, owner int64, amount decimal.Decimal, cycle *model.Cycle) (model.BillCyclePayment, error) {
	if err := ValidateAmount("amount", amount); err != nil {
		return model.BillCyclePayment{}, err
	}
	b, err := l.store.Bill(ctx, owner, billID)
	if err != nil {
		return model.BillCyclePayment{}, err
	}
	if !b.Variable() {
		return model.BillCyclePayment{}, fmt.Errorf("%w: bill %q has a fixed amount", model.ErrValidation, b.Description)
	}
	p, err := l.GetOrCreateCyclePayment(ctx, billID, owner, l.cycleFor(b, cycle))
	if err != nil {
		return model.BillCyclePayment{}, err
	}
	return l.store.SetPaymentAmount(ctx, owner, p.ID, amount)
}

// MarkPaid flags the bill as paid for a cycle. Paying an already paid
// cycle returns the stored payment with its original PaidAt. A nil cycle
// means the cycle of the next due date.
func (l *RecurringBillLedger) MarkPaid(ctx context.Context, billID, owner int64, cycle *model.Cycle) (model.BillCyclePayment, error) {
	b, err := l.store.Bill(ctx, owner, billID)
	if err != nil {
		return model.BillCyclePayment{}, err
	}
	p, err := l.GetOrCreateCyclePayment(ctx, billID, owner, l.cycleFor(b, cycle))
	if err != nil {
		return model.BillCyclePayment{}, err
	}
	if p.Paid {
		return p, nil
	}
	return l.store.MarkPaymentPaid(ctx, owner, p.ID, l.clock.Now())
}

// TouchReminder records that a reminder for the payment went out at now.
func (l *RecurringBillLedger) TouchReminder(ctx context.Context, owner, paymentID int64) (model.BillCyclePayment, error) {
	return l.store.TouchReminder(ctx, owner, paymentID, l.clock.Now())
}

// TotalFixedMonthly sums the fixed amounts of the owner's active bills.
// Variable bills are excluded.
func (l *RecurringBillLedger) TotalFixedMonthly(ctx context.Context, owner int64) (decimal.Decimal, error) {
	bills, err := l.store.ListBills(ctx, owner, true)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, b := range bills {
		if b.FixedAmount != nil {
			total = total.Add(*b.FixedAmount)
		}
	}
	return total, nil
}

// PendingForCycle returns the owner's active bills still unpaid for cycle,
// creating missing payments on the way.
func (l *RecurringBillLedger) PendingForCycle(ctx context.Context, owner int64, cycle model.Cycle) ([]model.PendingBill, error) {
	bills, err := l.store.ListBills(ctx, owner, true)
	if err != nil {
		return nil, err
	}
	for _, b := range bills {
		if _, err := l.GetOrCreateCyclePayment(ctx, b.ID, owner, cycle); err != nil {
			return nil, err
		}
	}
	return l.store.UnpaidForCycle(ctx, owner, cycle)
}

// Pending returns the owner's active bills still unpaid for the cycle of
// their next due date, soonest first. Missing payments are created.
func (l *RecurringBillLedger) Pending(ctx context.Context, owner int64) ([]model.PendingBill, error) {
	bills, err := l.store.ListBills(ctx, owner, true)
	if err != nil {
		return nil, err
	}
	now := l.clock.Now()
	var out []model.PendingBill
	for _, b := range bills {
		p, err := l.GetOrCreateCyclePayment(ctx, b.ID, owner, l.cycleFor(b, nil))
		if err != nil {
			return nil, err
		}
		if !p.Paid {
			out = append(out, model.PendingBill{Bill: b, Payment: p})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return reminder.DaysUntilDue(out[i].Bill.DueDay, now) < reminder.DaysUntilDue(out[j].Bill.DueDay, now)
	})
	return out, nil
}
