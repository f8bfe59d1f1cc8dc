package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/envelope/internal/alert"
	"github.com/theirongolddev/envelope/internal/tui/theme"
)

// LevelColor maps an alert level to the active theme.
func LevelColor(l alert.Level) lipgloss.Color {
	t := theme.Active
	switch l {
	case alert.LevelOver:
		return t.Red
	case alert.LevelAlert:
		return t.Orange
	case alert.LevelAttention:
		return t.Yellow
	default:
		return t.Green
	}
}

// UsageBar renders a level-colored bar for pct (0-100 scale) followed by
// the percentage. Usage past 100% renders a full bar.
func UsageBar(pct float64, barWidth int) string {
	t := theme.Active
	color := LevelColor(alert.Classify(pct))

	ratio := pct / 100
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	return bar.ViewAs(ratio) + spaceStyle.Render(" ") + pctStyle.Render(fmt.Sprintf("%4.0f%%", pct))
}

// EnvelopeRow renders a labeled usage bar: "name  ███░░  62%".
func EnvelopeRow(label string, pct float64, labelW, barWidth int) string {
	t := theme.Active
	labelStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, Truncate(label, labelW))) +
		spaceStyle.Render(" ") +
		UsageBar(pct, barWidth)
}

// Truncate shortens s to limit runes, marking the cut with an ellipsis.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if limit <= 0 || len(runes) <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}
	return string(runes[:limit-1]) + "…"
}
