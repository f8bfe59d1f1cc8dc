package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/envelope/internal/tui/theme"
)

// StatusInfo is the right-hand side of the status bar.
type StatusInfo struct {
	Updated     string // age of the data on screen, empty before first load
	Refreshing  bool
	AutoRefresh bool
	Err         string
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, info StatusInfo) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	errStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface)

	left := base.Render(" [?]help  [r]efresh  [q]uit")

	var right []string
	switch {
	case info.Err != "":
		right = append(right, errStyle.Render(info.Err))
	case info.Refreshing:
		right = append(right, accent.Render("refreshing…"))
	case info.Updated != "":
		right = append(right, base.Render("updated "+info.Updated))
	}
	if info.AutoRefresh {
		right = append(right, accent.Render("auto"))
	}
	rightStr := strings.Join(right, base.Render("  ")) + base.Render(" ")

	gap := width - lipgloss.Width(left) - lipgloss.Width(rightStr)
	if gap < 1 {
		gap = 1
	}
	return left + base.Render(strings.Repeat(" ", gap)) + rightStr
}
