package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/envelope/internal/alert"
	"github.com/theirongolddev/envelope/internal/clock"
	"github.com/theirongolddev/envelope/internal/ledger"
	"github.com/theirongolddev/envelope/internal/model"
)

// historyDays is the span of the daily spend sparkline.
const historyDays = 14

// Snapshot is everything one dashboard frame shows.
type Snapshot struct {
	Now         time.Time
	Report      model.CycleReport
	Assessments map[int64]alert.Assessment // by envelope ID
	Pending     []model.PendingBill
	FixedTotal  decimal.Decimal
	Recent      []model.Expense
}

// Loader builds a Snapshot for an owner.
type Loader interface {
	Load(ctx context.Context, owner int64) (Snapshot, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, owner int64) (Snapshot, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, owner int64) (Snapshot, error) { return f(ctx, owner) }

// LedgerLoader reads snapshots from the ledgers.
type LedgerLoader struct {
	Budget      *ledger.BudgetLedger
	Bills       *ledger.RecurringBillLedger
	Alerts      *alert.Engine
	Clock       clock.Clock
	RecentLimit int
}

// Load implements Loader.
func (l LedgerLoader) Load(ctx context.Context, owner int64) (Snapshot, error) {
	now := l.Clock.Now()

	report, err := l.Budget.CycleReport(ctx, owner)
	if err != nil {
		return Snapshot{}, fmt.Errorf("loading report: %w", err)
	}
	_, assessments, err := l.Alerts.AssessAll(ctx, owner)
	if err != nil {
		return Snapshot{}, fmt.Errorf("assessing envelopes: %w", err)
	}
	pending, err := l.Bills.Pending(ctx, owner)
	if err != nil {
		return Snapshot{}, fmt.Errorf("loading bills: %w", err)
	}
	fixed, err := l.Bills.TotalFixedMonthly(ctx, owner)
	if err != nil {
		return Snapshot{}, fmt.Errorf("loading bills: %w", err)
	}
	limit := l.RecentLimit
	if limit <= 0 {
		limit = 100
	}
	recent, err := l.Budget.RecentExpenses(ctx, owner, limit)
	if err != nil {
		return Snapshot{}, fmt.Errorf("loading expenses: %w", err)
	}

	byID := make(map[int64]alert.Assessment, len(assessments))
	for _, a := range assessments {
		byID[a.EnvelopeID] = a
	}
	return Snapshot{
		Now:         now,
		Report:      report,
		Assessments: byID,
		Pending:     pending,
		FixedTotal:  fixed,
		Recent:      recent,
	}, nil
}
