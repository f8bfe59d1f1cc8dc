package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EnvelopeTotal is one envelope's spend within a month.
type EnvelopeTotal struct {
	EnvelopeID int64
	Envelope   string
	Total      decimal.Decimal
	Count      int
}

// MonthTotal is the spend of one calendar month, broken down by envelope
// with the largest first.
type MonthTotal struct {
	Cycle     Cycle
	Total     decimal.Decimal
	Count     int
	Envelopes []EnvelopeTotal
}

// History consolidates an owner's spend over a span of calendar months.
// Months holds only months with spend, newest first.
type History struct {
	Owner  int64
	Since  time.Time
	Until  time.Time
	Span   int
	Months []MonthTotal
	Total  decimal.Decimal
	Count  int
}

// MonthlyAverage returns Total divided by the months that had spend, zero
// when there were none.
func (h History) MonthlyAverage() decimal.Decimal {
	if len(h.Months) == 0 {
		return decimal.Zero
	}
	return h.Total.Div(decimal.NewFromInt(int64(len(h.Months)))).Round(2)
}
