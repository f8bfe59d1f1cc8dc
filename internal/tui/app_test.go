package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/envelope/internal/alert"
	"github.com/theirongolddev/envelope/internal/model"
	"github.com/theirongolddev/envelope/internal/tui/components"
)

func sampleSnapshot() Snapshot {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	groceries := model.Envelope{
		ID: 1, Owner: 7, Name: "Groceries", Key: "groceries",
		Limit: decimal.NewFromInt(800), Spent: decimal.NewFromInt(620),
	}
	due := 12
	return Snapshot{
		Now: now,
		Report: model.CycleReport{
			Owner:        7,
			GeneratedAt:  now,
			Envelopes:    []model.Envelope{groceries},
			TotalLimit:   groceries.Limit,
			TotalSpent:   groceries.Spent,
			ExpenseCount: 1,
		},
		Assessments: map[int64]alert.Assessment{
			1: {EnvelopeID: 1, Level: alert.LevelAttention, Percentage: 77.5},
		},
		Pending: []model.PendingBill{{
			Bill:    model.RecurringBill{ID: 3, Owner: 7, Description: "Electricity", DueDay: due, Active: true},
			Payment: model.BillCyclePayment{ID: 9, BillID: 3, Owner: 7, Cycle: model.CycleOf(now)},
		}},
		FixedTotal: decimal.Zero,
		Recent: []model.Expense{{
			ID: 5, Owner: 7, EnvelopeID: 1, Amount: decimal.RequireFromString("45.90"),
			Payee: "Corner Market", OccurredAt: now.Add(-time.Hour),
		}},
	}
}

func loadedApp(t *testing.T) App {
	t.Helper()
	a := NewApp(LoaderFunc(func(context.Context, int64) (Snapshot, error) {
		return sampleSnapshot(), nil
	}), Options{Owner: 7})
	m, _ := a.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = m.Update(SnapshotMsg{Snapshot: sampleSnapshot()})
	return m.(App)
}

func TestTabAtXMatchesTabWidths(t *testing.T) {
	for active := range components.Tabs {
		a := App{activeTab: active}
		pos := 0
		for i, tab := range components.Tabs {
			w := components.TabVisualWidth(tab, i == active)
			x := pos + w/2
			if got := a.tabAtX(x); got != i {
				t.Fatalf("active=%d x=%d -> tab=%d, want %d", active, x, got, i)
			}
			pos += w + 1
		}
		if got := a.tabAtX(pos + 50); got != -1 {
			t.Fatalf("tabAtX past the bar = %d, want -1", got)
		}
	}
}

func TestSnapshotMsgLoadsDashboard(t *testing.T) {
	a := loadedApp(t)
	if !a.loaded {
		t.Fatal("loaded = false after SnapshotMsg")
	}
	view := a.View()
	for _, want := range []string{"Groceries", "Envelopes", "800.00"} {
		if !strings.Contains(view, want) {
			t.Fatalf("envelopes view missing %q", want)
		}
	}
}

func TestTabKeysSwitchViews(t *testing.T) {
	a := loadedApp(t)

	m, _ := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'b'}})
	a = m.(App)
	if a.activeTab != 1 {
		t.Fatalf("activeTab = %d, want 1", a.activeTab)
	}
	view := a.View()
	for _, want := range []string{"Electricity", "undefined", "12/03"} {
		if !strings.Contains(view, want) {
			t.Fatalf("bills view missing %q", want)
		}
	}

	m, _ = a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'h'}})
	a = m.(App)
	if !strings.Contains(a.View(), "Corner Market") {
		t.Fatal("history view missing payee")
	}

	m, _ = a.Update(tea.KeyMsg{Type: tea.KeyRight})
	if got := m.(App).activeTab; got != 0 {
		t.Fatalf("activeTab after right = %d, want wrap to 0", got)
	}
}

func TestLoadErrorKeepsPreviousSnapshot(t *testing.T) {
	a := loadedApp(t)
	m, _ := a.Update(SnapshotMsg{Err: errors.New("database is locked")})
	a = m.(App)
	if a.loadErr == nil {
		t.Fatal("loadErr = nil, want error")
	}
	if len(a.snap.Report.Envelopes) != 1 {
		t.Fatalf("envelopes = %d, want previous snapshot kept", len(a.snap.Report.Envelopes))
	}
	if !strings.Contains(a.View(), "database is locked") {
		t.Fatal("status bar does not show load error")
	}
}

func TestLoadCmdWrapsLoader(t *testing.T) {
	want := errors.New("boom")
	cmd := loadCmd(LoaderFunc(func(context.Context, int64) (Snapshot, error) {
		return Snapshot{}, want
	}), 7)
	msg, ok := cmd().(SnapshotMsg)
	if !ok {
		t.Fatalf("loadCmd returned %T, want SnapshotMsg", cmd())
	}
	if !errors.Is(msg.Err, want) {
		t.Fatalf("Err = %v, want %v", msg.Err, want)
	}
}

func TestRefreshIntervalFloor(t *testing.T) {
	a := NewApp(LoaderFunc(nil), Options{RefreshInterval: time.Second})
	if a.refreshInterval != 30*time.Second {
		t.Fatalf("refreshInterval = %v, want 30s", a.refreshInterval)
	}
}

func TestHelpToggle(t *testing.T) {
	a := loadedApp(t)
	m, _ := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	a = m.(App)
	if !a.showHelp || !strings.Contains(a.View(), "Keyboard Shortcuts") {
		t.Fatal("help overlay not shown")
	}
	m, _ = a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	if m.(App).showHelp {
		t.Fatal("help still shown after key press")
	}
}
