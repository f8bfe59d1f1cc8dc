// Package reminder computes bill due dates and decides when a reminder is
// due. Everything here is pure.
package reminder

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/envelope/internal/model"
)

// DefaultWindowDays is how many days before the due date reminders start.
const DefaultWindowDays = 5

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// NextDueDate returns the next occurrence of dueDay on or after today's
// date: this month when today's day is not past it, else next month.
func NextDueDate(dueDay int, today time.Time) time.Time {
	d := dateOf(today)
	if d.Day() <= dueDay {
		return time.Date(d.Year(), d.Month(), dueDay, 0, 0, 0, 0, d.Location())
	}
	// AddDate on the first avoids month overflow; dueDay <= 28 fits every month.
	first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location()).AddDate(0, 1, 0)
	return time.Date(first.Year(), first.Month(), dueDay, 0, 0, 0, 0, d.Location())
}

// DueCycle returns the cycle of the bill's next due date. Reminders,
// payments and amounts default to this cycle.
func DueCycle(dueDay int, today time.Time) model.Cycle {
	return model.CycleOf(NextDueDate(dueDay, today))
}

// DaysUntilDue returns the calendar days from today to the next due date.
// Time of day is ignored.
func DaysUntilDue(dueDay int, today time.Time) int {
	from := dateOf(today)
	to := NextDueDate(dueDay, today)
	// Rounding absorbs DST shifts between the two midnights.
	return int((to.Sub(from) + 12*time.Hour) / (24 * time.Hour))
}

// Policy decides reminder eligibility.
type Policy struct {
	WindowDays int
}

// DefaultPolicy reminds during the five days before the due date.
var DefaultPolicy = Policy{WindowDays: DefaultWindowDays}

func (p Policy) window() int {
	if p.WindowDays <= 0 {
		return DefaultWindowDays
	}
	return p.WindowDays
}

// InWindow reports whether days falls in [0, window].
func (p Policy) InWindow(days int) bool {
	return days >= 0 && days <= p.window()
}

// ShouldRemind reports whether a reminder should go out now. Paid payments
// never remind. On the due date it always reminds; earlier in the window at
// most once per calendar day.
func (p Policy) ShouldRemind(payment model.BillCyclePayment, days int, now time.Time) bool {
	if payment.Paid {
		return false
	}
	if days == 0 {
		return true
	}
	if days < 1 || days > p.window() {
		return false
	}
	if payment.LastReminderAt == nil {
		return true
	}
	last := dateOf(payment.LastReminderAt.In(now.Location()))
	return last.Before(dateOf(now))
}

// ShouldRemind applies DefaultPolicy.
func ShouldRemind(payment model.BillCyclePayment, days int, now time.Time) bool {
	return DefaultPolicy.ShouldRemind(payment, days, now)
}

// Reminder is the content of one bill reminder.
type Reminder struct {
	BillID      int64
	PaymentID   int64
	Owner       int64
	Description string
	Days        int
	DueDate     time.Time
	// Escalated marks a reminder sent on the due date itself.
	Escalated bool
	// AmountUnset marks a variable bill whose amount for the cycle is unknown.
	AmountUnset bool
	Amount      *decimal.Decimal
	Text        string
}

// GenerateReminder builds the reminder for bill and its payment, days before
// the due date.
func GenerateReminder(bill model.RecurringBill, payment model.BillCyclePayment, days int, now time.Time) Reminder {
	r := Reminder{
		BillID:      bill.ID,
		PaymentID:   payment.ID,
		Owner:       bill.Owner,
		Description: bill.Description,
		Days:        days,
		DueDate:     NextDueDate(bill.DueDay, now),
		Escalated:   days == 0,
	}
	if amount, ok := model.AmountDue(bill, payment); ok {
		r.Amount = &amount
	} else {
		r.AmountUnset = true
	}
	r.Text = render(r)
	return r
}

func render(r Reminder) string {
	var b strings.Builder
	due := r.DueDate.Format("02/01")
	switch {
	case r.Escalated:
		fmt.Fprintf(&b, "DUE TODAY: %s\n", r.Description)
		fmt.Fprintf(&b, "Today is the last day to pay this bill (%s).\n", due)
	case r.Days == 1:
		fmt.Fprintf(&b, "Reminder: %s\n", r.Description)
		fmt.Fprintf(&b, "Due tomorrow (%s).\n", due)
	default:
		fmt.Fprintf(&b, "Reminder: %s\n", r.Description)
		fmt.Fprintf(&b, "Due in %d days (%s).\n", r.Days, due)
	}

	if r.AmountUnset {
		b.WriteString("Amount undefined: the amount for this due date has not been set.\n")
		fmt.Fprintf(&b, "Set it with: envelope bills amount %q <amount>\n", r.Description)
	} else {
		fmt.Fprintf(&b, "Amount: %s\n", r.Amount.StringFixed(2))
	}

	if r.Escalated {
		b.WriteString("Do not let it go overdue. ")
	}
	b.WriteString("Mark it paid once settled.")
	return b.String()
}
