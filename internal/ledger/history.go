package ledger

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/envelope/internal/model"
)

// MaxHistoryMonths bounds the span History accepts.
const MaxHistoryMonths = 24

// History consolidates the owner's expenses over the last months calendar
// months, the current one included, by month and envelope. Months are
// taken in the clock's location.
func (l *BudgetLedger) History(ctx context.Context, owner int64, months int) (model.History, error) {
	if months < 1 || months > MaxHistoryMonths {
		return model.History{}, fmt.Errorf("%w: months must be between 1 and %d, got %d",
			model.ErrValidation, MaxHistoryMonths, months)
	}
	now := l.clock.Now()
	first, until := monthBounds(now)
	since := first.AddDate(0, -(months - 1), 0)

	expenses, err := l.store.OwnerExpensesBetween(ctx, owner, since, until)
	if err != nil {
		return model.History{}, err
	}

	h := model.History{Owner: owner, Since: since, Until: until, Span: months, Total: decimal.Zero}
	byMonth := make(map[model.Cycle]map[int64]*model.EnvelopeTotal)
	for _, x := range expenses {
		c := model.CycleOf(x.OccurredAt.In(now.Location()))
		envs := byMonth[c]
		if envs == nil {
			envs = make(map[int64]*model.EnvelopeTotal)
			byMonth[c] = envs
		}
		t := envs[x.EnvelopeID]
		if t == nil {
			t = &model.EnvelopeTotal{EnvelopeID: x.EnvelopeID, Envelope: x.Category, Total: decimal.Zero}
			envs[x.EnvelopeID] = t
		}
		t.Total = t.Total.Add(x.Amount)
		t.Count++
		h.Total = h.Total.Add(x.Amount)
		h.Count++
	}

	for c, envs := range byMonth {
		m := model.MonthTotal{Cycle: c, Total: decimal.Zero}
		for _, t := range envs {
			m.Envelopes = append(m.Envelopes, *t)
			m.Total = m.Total.Add(t.Total)
			m.Count += t.Count
		}
		sort.Slice(m.Envelopes, func(i, j int) bool {
			a, b := m.Envelopes[i], m.Envelopes[j]
			if !a.Total.Equal(b.Total) {
				return a.Total.GreaterThan(b.Total)
			}
			return a.Envelope < b.Envelope
		})
		h.Months = append(h.Months, m)
	}
	sort.Slice(h.Months, func(i, j int) bool {
		a, b := h.Months[i].Cycle, h.Months[j].Cycle
		if a.Year != b.Year {
			return a.Year > b.Year
		}
		return a.Month > b.Month
	})
	return h, nil
}
