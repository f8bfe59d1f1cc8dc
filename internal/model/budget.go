package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CycleReport aggregates an owner's envelopes at a point in time. It is
// read-only and backs the closing-day report.
type CycleReport struct {
	Owner       int64
	GeneratedAt time.Time
	ClosingDay  int // 0 when not configured
	Envelopes   []Envelope
	TotalLimit  decimal.Decimal
	TotalSpent  decimal.Decimal
	// ExpenseCount counts expenses that occurred in the calendar month of
	// GeneratedAt.
	ExpenseCount int
}

// Available returns TotalLimit-TotalSpent.
func (r CycleReport) Available() decimal.Decimal {
	return r.TotalLimit.Sub(r.TotalSpent)
}

// PercentageUsed returns the overall spend percentage, 0 with no limits.
func (r CycleReport) PercentageUsed() float64 {
	if !r.TotalLimit.IsPositive() {
		return 0
	}
	return r.TotalSpent.Mul(hundred).Div(r.TotalLimit).InexactFloat64()
}

// ResetDay returns the day-of-month a cycle closing on closingDay resets:
// the following day, with 28 wrapping to 1.
func ResetDay(closingDay int) int {
	if closingDay >= MaxDay {
		return MinDay
	}
	return closingDay + 1
}

// ClosingConfig is an owner's configured closing day.
type ClosingConfig struct {
	Owner      int64
	ClosingDay int
}
