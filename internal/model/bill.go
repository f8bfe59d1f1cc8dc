package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MinDay and MaxDay bound due and closing days. Days past 28 are not
// supported so every month contains every configurable day.
const (
	MinDay = 1
	MaxDay = 28
)

// ValidDay reports whether d is an acceptable due or closing day.
func ValidDay(d int) bool {
	return d >= MinDay && d <= MaxDay
}

// RecurringBill is a monthly obligation. A nil FixedAmount marks the bill as
// variable: its amount is set per cycle.
type RecurringBill struct {
	ID          int64
	Owner       int64
	Description string
	DueDay      int
	FixedAmount *decimal.Decimal
	EnvelopeID  *int64
	Active      bool
	CreatedAt   time.Time
}

// Variable reports whether the bill amount changes every cycle.
func (b RecurringBill) Variable() bool {
	return b.FixedAmount == nil
}

// Cycle identifies one monthly billing period.
type Cycle struct {
	Month time.Month
	Year  int
}

// CycleOf returns the cycle containing t.
func CycleOf(t time.Time) Cycle {
	return Cycle{Month: t.Month(), Year: t.Year()}
}

// BillCyclePayment records whether and how much was paid for a bill in one
// cycle. Unique per (BillID, Cycle).
type BillCyclePayment struct {
	ID             int64
	BillID         int64
	Owner          int64
	Cycle          Cycle
	Amount         *decimal.Decimal
	Paid           bool
	PaidAt         *time.Time
	LastReminderAt *time.Time
}

// AmountDue returns the amount owed this cycle: the cycle amount when set,
// otherwise the bill's fixed amount. ok is false when neither is known.
func AmountDue(b RecurringBill, p BillCyclePayment) (amount decimal.Decimal, ok bool) {
	if p.Amount != nil {
		return *p.Amount, true
	}
	if b.FixedAmount != nil {
		return *b.FixedAmount, true
	}
	return decimal.Zero, false
}

// PendingBill pairs an unpaid bill with its cycle payment.
type PendingBill struct {
	Bill    RecurringBill
	Payment BillCyclePayment
}
