package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/envelope/internal/model"
	"github.com/theirongolddev/envelope/internal/tui/theme"
)

var blocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders a unicode sparkline from values.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active

	peak := values[0]
	for _, v := range values[1:] {
		if v > peak {
			peak = v
		}
	}
	if peak == 0 {
		peak = 1
	}

	var buf strings.Builder
	buf.Grow(len(values) * 3)
	for _, v := range values {
		idx := int(v / peak * float64(len(blocks)-1))
		idx = max(0, min(idx, len(blocks)-1))
		buf.WriteRune(blocks[idx])
	}

	return lipgloss.NewStyle().Foreground(color).Background(t.Surface).Render(buf.String())
}

// DailyTotals sums expenses per calendar day for the days ending on now's
// date, oldest first. Expenses outside the range are ignored.
func DailyTotals(expenses []model.Expense, now time.Time, days int) []float64 {
	if days <= 0 {
		return nil
	}
	loc := now.Location()
	y, m, d := now.Date()
	first := time.Date(y, m, d-days+1, 0, 0, 0, 0, loc)

	totals := make([]float64, days)
	for _, e := range expenses {
		at := e.OccurredAt.In(loc)
		ey, em, ed := at.Date()
		day := time.Date(ey, em, ed, 0, 0, 0, 0, loc)
		// Hours/24 rounds away DST shifts.
		idx := int(day.Sub(first).Hours()/24 + 0.5)
		if day.Before(first) || idx >= days {
			continue
		}
		totals[idx] += e.Amount.InexactFloat64()
	}
	return totals
}
