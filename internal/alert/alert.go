// Package alert classifies envelope usage, measures how fast an envelope is
// being spent and forecasts when it will run out.
package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/envelope/internal/clock"
	"github.com/theirongolddev/envelope/internal/model"
)

// DefaultWindowDays is the trailing window used for the burn rate.
const DefaultWindowDays = 7

// Level orders envelope states by percentage used.
type Level int

const (
	LevelOK        Level = iota // [0, 50)
	LevelAttention              // [50, 80)
	LevelAlert                  // [80, 100)
	LevelOver                   // [100, ∞)
)

func (l Level) String() string {
	switch l {
	case LevelOK:
		return "ok"
	case LevelAttention:
		return "attention"
	case LevelAlert:
		return "alert"
	case LevelOver:
		return "over"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Thresholds are the percentages whose crossing raises an alert.
var Thresholds = []float64{50, 75, 90, 100}

// Classify maps a percentage to its level. Lower bounds are inclusive.
func Classify(pct float64) Level {
	switch {
	case pct >= 100:
		return LevelOver
	case pct >= 80:
		return LevelAlert
	case pct >= 50:
		return LevelAttention
	default:
		return LevelOK
	}
}

// ClassifyEnvelope classifies e by its percentage used.
func ClassifyEnvelope(e model.Envelope) Level {
	return Classify(e.PercentageUsed())
}

// ShouldAlertOnCrossing reports whether moving from before to after passed
// at least one threshold t with before < t <= after.
func ShouldAlertOnCrossing(before, after float64) bool {
	for _, t := range Thresholds {
		if before < t && t <= after {
			return true
		}
	}
	return false
}

// DailyBurnRate returns the average daily spend of the expenses that
// occurred in the windowDays before now. The divisor counts whole days since
// the oldest such expense, inclusive of the current day.
func DailyBurnRate(expenses []model.Expense, now time.Time, windowDays int) decimal.Decimal {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	since := now.AddDate(0, 0, -windowDays)

	total := decimal.Zero
	var first time.Time
	n := 0
	for _, x := range expenses {
		if x.OccurredAt.Before(since) || x.OccurredAt.After(now) {
			continue
		}
		total = total.Add(x.Amount)
		if n == 0 || x.OccurredAt.Before(first) {
			first = x.OccurredAt
		}
		n++
	}
	if n == 0 {
		return decimal.Zero
	}

	days := int64(now.Sub(first)/(24*time.Hour)) + 1
	if days < 1 {
		days = 1
	}
	return total.Div(decimal.NewFromInt(days))
}

// ForecastExhaustion returns when e runs out at the given daily burn rate,
// or nil when it is already exhausted or nothing is being spent.
func ForecastExhaustion(e model.Envelope, burn decimal.Decimal, now time.Time) *time.Time {
	remaining := e.Remaining()
	if !remaining.IsPositive() || !burn.IsPositive() {
		return nil
	}
	days := remaining.Div(burn).InexactFloat64()
	at := now.Add(time.Duration(days * float64(24*time.Hour)))
	return &at
}

// Assessment is the alert state of one envelope.
type Assessment struct {
	EnvelopeID int64
	Level      Level
	Percentage float64
	Remaining  decimal.Decimal
	BurnRate   decimal.Decimal
	Forecast   *time.Time
	Crossed    bool
	AssessedAt time.Time
}

// Store is the read side the engine needs.
type Store interface {
	ListEnvelopes(ctx context.Context, owner int64) ([]model.Envelope, error)
	ExpensesBetween(ctx context.Context, owner, envelopeID int64, since, until time.Time) ([]model.Expense, error)
}

// Engine assesses envelopes against their recent expenses.
type Engine struct {
	store      Store
	clock      clock.Clock
	windowDays int
}

// NewEngine creates an Engine. A non-positive windowDays uses
// DefaultWindowDays.
func NewEngine(store Store, clk clock.Clock, windowDays int) *Engine {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return &Engine{store: store, clock: clk, windowDays: windowDays}
}

// WindowDays returns the burn rate window.
func (en *Engine) WindowDays() int { return en.windowDays }

// Assess evaluates e. pctBefore is the percentage prior to the change being
// assessed; pass e.PercentageUsed() when nothing changed.
func (en *Engine) Assess(ctx context.Context, e model.Envelope, pctBefore float64) (Assessment, error) {
	now := en.clock.Now()
	since := now.AddDate(0, 0, -en.windowDays)
	expenses, err := en.store.ExpensesBetween(ctx, e.Owner, e.ID, since, now.Add(time.Nanosecond))
	if err != nil {
		return Assessment{}, fmt.Errorf("loading expenses for envelope %d: %w", e.ID, err)
	}

	pct := e.PercentageUsed()
	burn := DailyBurnRate(expenses, now, en.windowDays)
	return Assessment{
		EnvelopeID: e.ID,
		Level:      Classify(pct),
		Percentage: pct,
		Remaining:  e.Remaining(),
		BurnRate:   burn,
		Forecast:   ForecastExhaustion(e, burn, now),
		Crossed:    ShouldAlertOnCrossing(pctBefore, pct),
		AssessedAt: now,
	}, nil
}

// AssessAll evaluates every envelope of owner in name order.
func (en *Engine) AssessAll(ctx context.Context, owner int64) ([]model.Envelope, []Assessment, error) {
	envs, err := en.store.ListEnvelopes(ctx, owner)
	if err != nil {
		return nil, nil, err
	}
	out := make([]Assessment, 0, len(envs))
	for _, e := range envs {
		a, err := en.Assess(ctx, e, e.PercentageUsed())
		if err != nil {
			return nil, nil, err
		}
		out = append(out, a)
	}
	return envs, out, nil
}
