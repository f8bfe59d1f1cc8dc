package notify

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/envelope/internal/alert"
	"github.com/theirongolddev/envelope/internal/model"
	"github.com/theirongolddev/envelope/internal/reminder"
)

// ResetMessage announces a new cycle.
func ResetMessage(count int) Message {
	return Message{
		Kind: KindReset,
		Text: fmt.Sprintf("New cycle started: %d envelope(s) reset to zero. Limits are unchanged.", count),
	}
}

// ReportMessage summarizes a closing-day report.
func ReportMessage(r model.CycleReport) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Closing report %s\n", r.GeneratedAt.Format("02/01/2006"))
	fmt.Fprintf(&b, "Spent %s of %s (%.1f%%), available %s\n",
		r.TotalSpent.StringFixed(2), r.TotalLimit.StringFixed(2), r.PercentageUsed(), r.Available().StringFixed(2))
	fmt.Fprintf(&b, "Expenses this month: %d\n", r.ExpenseCount)
	for _, e := range r.Envelopes {
		fmt.Fprintf(&b, "- %s: %s / %s (%.1f%%, %s)\n",
			e.Name, e.Spent.StringFixed(2), e.Limit.StringFixed(2), e.PercentageUsed(), alert.ClassifyEnvelope(e))
	}
	return Message{Kind: KindReport, Text: strings.TrimRight(b.String(), "\n")}
}

// ReminderMessage wraps a bill reminder.
func ReminderMessage(r reminder.Reminder) Message {
	return Message{Kind: KindReminder, Text: r.Text}
}

// AlertMessage describes an envelope that crossed a threshold.
func AlertMessage(e model.Envelope, a alert.Assessment) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s at %.1f%% (%s of %s)\n",
		strings.ToUpper(a.Level.String()), e.Name, a.Percentage, e.Spent.StringFixed(2), e.Limit.StringFixed(2))
	if a.Remaining.IsNegative() {
		fmt.Fprintf(&b, "Over the limit by %s", a.Remaining.Neg().StringFixed(2))
	} else {
		fmt.Fprintf(&b, "Remaining %s", a.Remaining.StringFixed(2))
	}
	if a.Forecast != nil && a.BurnRate.IsPositive() {
		fmt.Fprintf(&b, "\nPace %s/day, runs out around %s", a.BurnRate.StringFixed(2), a.Forecast.Format("02/01/2006"))
	}
	if tips := alert.Tips(a); len(tips) > 0 {
		b.WriteString("\n\nSavings tips:")
		for i, tip := range tips {
			fmt.Fprintf(&b, "\n%d. %s", i+1, tip)
		}
	}
	return Message{Kind: KindAlert, Text: b.String()}
}
