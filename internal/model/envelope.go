// Package model defines domain types for envelopes, expenses and recurring bills.
package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Envelope is a named spending bucket with a limit and the spend accumulated
// during the current cycle.
type Envelope struct {
	ID        int64
	Owner     int64
	Name      string
	Key       string // normalized Name, unique per owner
	Limit     decimal.Decimal
	Spent     decimal.Decimal
	CreatedAt time.Time
}

// PercentageUsed returns Spent/Limit*100, or 0 when the limit is not positive.
func (e Envelope) PercentageUsed() float64 {
	if !e.Limit.IsPositive() {
		return 0
	}
	return e.Spent.Mul(hundred).Div(e.Limit).InexactFloat64()
}

// Remaining returns Limit-Spent. Negative once the envelope is over its limit.
func (e Envelope) Remaining() decimal.Decimal {
	return e.Limit.Sub(e.Spent)
}

// Expense is one recorded purchase charged to an envelope.
type Expense struct {
	ID         int64
	Owner      int64
	EnvelopeID int64
	Amount     decimal.Decimal
	Payee      string
	Category   string
	OccurredAt time.Time
	RecordedAt time.Time
}

// NormalizeName folds an envelope name or payee into its lookup key:
// trimmed, inner whitespace collapsed, lower-cased.
func NormalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// genericPayees carry no identity and are never remembered.
var genericPayees = map[string]struct{}{
	"not identified":   {},
	"not specified":    {},
	"unknown":          {},
	"não identificado": {},
	"não especificado": {},
}

// IsGenericPayee reports whether payee is a placeholder label rather than a
// real establishment.
func IsGenericPayee(payee string) bool {
	key := NormalizeName(payee)
	if key == "" {
		return true
	}
	_, ok := genericPayees[key]
	return ok
}
