package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/envelope/internal/alert"
	"github.com/theirongolddev/envelope/internal/cli"
	"github.com/theirongolddev/envelope/internal/model"
	"github.com/theirongolddev/envelope/internal/reminder"
	"github.com/theirongolddev/envelope/internal/tui/components"
	"github.com/theirongolddev/envelope/internal/tui/theme"
)

func surface(fg lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(fg).Background(theme.Active.Surface)
}

func emptyCard(title, msg string, cw int) string {
	return components.ContentCard(title, surface(theme.Active.TextDim).Render(msg), cw)
}

func renderEnvelopesTab(s Snapshot, cw int) string {
	t := theme.Active
	r := s.Report

	level := alert.Classify(r.PercentageUsed())
	available := r.Available()
	availColor := t.Green
	if available.IsNegative() {
		availColor = t.Red
	}
	closing := "not set"
	if r.ClosingDay > 0 {
		closing = fmt.Sprintf("day %d", r.ClosingDay)
	}

	metrics := components.MetricRow([]components.Metric{
		{Label: "Budget", Value: cli.FormatMoney(r.TotalLimit), Note: fmt.Sprintf("%d envelopes", len(r.Envelopes))},
		{Label: "Spent", Value: cli.FormatMoney(r.TotalSpent), Note: cli.FormatPercent(r.PercentageUsed()), Color: components.LevelColor(level)},
		{Label: "Available", Value: cli.FormatMoney(available), Color: availColor},
		{Label: "Closing", Value: closing, Note: fmt.Sprintf("%d expenses this month", r.ExpenseCount)},
	}, cw)

	if len(r.Envelopes) == 0 {
		return metrics + "\n" + emptyCard("Envelopes", "No envelopes yet. Create one with `envelope envelopes create`.", cw)
	}

	inner := components.CardInnerWidth(cw)
	labelW := 16
	detailW := 44
	barW := max(inner-labelW-detailW-10, 10)

	muted := surface(t.TextMuted)
	var b strings.Builder
	for i, e := range r.Envelopes {
		if i > 0 {
			b.WriteString("\n")
		}
		a, ok := s.Assessments[e.ID]
		forecast := "-"
		if ok {
			forecast = cli.FormatForecast(a.Forecast, s.Now)
		}
		detail := fmt.Sprintf("%s / %s  out %s",
			cli.FormatMoney(e.Spent), cli.FormatMoney(e.Limit), forecast)
		b.WriteString(components.EnvelopeRow(e.Name, e.PercentageUsed(), labelW, barW))
		b.WriteString(muted.Render("  " + components.Truncate(detail, detailW)))
	}

	return metrics + "\n" + components.ContentCard("Envelopes", b.String(), cw)
}

func renderBillsTab(s Snapshot, policy reminder.Policy, cw int) string {
	t := theme.Active

	undefined := 0
	for _, p := range s.Pending {
		if _, ok := model.AmountDue(p.Bill, p.Payment); !ok {
			undefined++
		}
	}
	metrics := components.MetricRow([]components.Metric{
		{Label: "Fixed monthly", Value: cli.FormatMoney(s.FixedTotal)},
		{Label: "Unpaid bills", Value: fmt.Sprintf("%d", len(s.Pending))},
		{Label: "Amount undefined", Value: fmt.Sprintf("%d", undefined), Color: colorIf(undefined > 0, t.Yellow, t.TextPrimary)},
	}, cw)

	if len(s.Pending) == 0 {
		return metrics + "\n" + emptyCard("Unpaid bills", "All upcoming bills are paid.", cw)
	}

	inner := components.CardInnerWidth(cw)
	descW := max(inner-40, 12)
	primary := surface(t.TextPrimary)

	var b strings.Builder
	for i, p := range s.Pending {
		if i > 0 {
			b.WriteString("\n")
		}
		days := reminder.DaysUntilDue(p.Bill.DueDay, s.Now)
		due := reminder.NextDueDate(p.Bill.DueDay, s.Now)
		dueColor := t.TextMuted
		switch {
		case days == 0:
			dueColor = t.Red
		case policy.InWindow(days):
			dueColor = t.Orange
		}

		amount := surface(t.Yellow).Render(fmt.Sprintf("%12s", "undefined"))
		if v, ok := model.AmountDue(p.Bill, p.Payment); ok {
			amount = primary.Render(fmt.Sprintf("%12s", cli.FormatMoney(v)))
		}

		b.WriteString(primary.Render(fmt.Sprintf("%-*s", descW, components.Truncate(p.Bill.Description, descW))))
		b.WriteString(amount)
		b.WriteString(surface(dueColor).Render(fmt.Sprintf("  %s  %-12s", due.Format("02/01"), cli.FormatDueIn(days))))
	}

	return metrics + "\n" + components.ContentCard("Unpaid bills", b.String(), cw)
}

func renderHistoryTab(s Snapshot, cw int) string {
	t := theme.Active

	totals := components.DailyTotals(s.Recent, s.Now, historyDays)
	spark := components.Sparkline(totals, t.Accent)
	trend := components.ContentCard(fmt.Sprintf("Daily spend, last %d days", historyDays), spark, cw)

	if len(s.Recent) == 0 {
		return trend + "\n" + emptyCard("Recent expenses", "No expenses recorded.", cw)
	}

	names := make(map[int64]string, len(s.Report.Envelopes))
	for _, e := range s.Report.Envelopes {
		names[e.ID] = e.Name
	}

	inner := components.CardInnerWidth(cw)
	payeeW := max(inner-46, 12)
	primary := surface(t.TextPrimary)
	muted := surface(t.TextMuted)

	var b strings.Builder
	for i, e := range s.Recent {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(muted.Render(e.OccurredAt.In(s.Now.Location()).Format("02/01 15:04") + "  "))
		b.WriteString(primary.Render(fmt.Sprintf("%-*s", payeeW, components.Truncate(e.Payee, payeeW))))
		b.WriteString(muted.Render(fmt.Sprintf("  %-16s", components.Truncate(names[e.EnvelopeID], 16))))
		b.WriteString(primary.Render(fmt.Sprintf("%12s", cli.FormatMoney(e.Amount))))
	}

	return trend + "\n" + components.ContentCard("Recent expenses", b.String(), cw)
}

func colorIf(cond bool, yes, no lipgloss.Color) lipgloss.Color {
	if cond {
		return yes
	}
	return no
}
