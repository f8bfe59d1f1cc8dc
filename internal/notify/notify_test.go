package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/envelope/internal/alert"
	"github.com/theirongolddev/envelope/internal/model"
)

func TestWebhookSend(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL)
	if err := w.Send(context.Background(), 7, Message{Kind: KindReset, Text: "hi"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got.Owner != 7 || got.Kind != KindReset || got.Text != "hi" {
		t.Fatalf("payload = %+v", got)
	}
}

func TestWebhookSend_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhook(srv.URL).Send(context.Background(), 1, Message{Text: "x"})
	if !errors.Is(err, model.ErrDelivery) {
		t.Fatalf("err = %v, want ErrDelivery", err)
	}
}

func TestNewWebhook_Empty(t *testing.T) {
	if NewWebhook("  ") != nil {
		t.Fatal("NewWebhook(blank) != nil")
	}
	if NewTelegram("") != nil {
		t.Fatal("NewTelegram(blank) != nil")
	}
}

func TestTelegramSend(t *testing.T) {
	var path string
	var got telegramRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tg := NewTelegram("123:abc")
	tg.baseURL = srv.URL
	if err := tg.Send(context.Background(), 555, Message{Kind: KindReminder, Text: "pay"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if path != "/bot123:abc/sendMessage" {
		t.Fatalf("path = %q", path)
	}
	if got.ChatID != 555 || got.Text != "pay" {
		t.Fatalf("request = %+v", got)
	}
}

func TestMultiJoinsErrors(t *testing.T) {
	calls := 0
	ok := Func(func(context.Context, int64, Message) error { calls++; return nil })
	bad := Func(func(context.Context, int64, Message) error { calls++; return model.ErrDelivery })

	err := Multi{bad, ok, bad}.Send(context.Background(), 1, Message{})
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	if !errors.Is(err, model.ErrDelivery) {
		t.Fatalf("err = %v, want ErrDelivery", err)
	}
	if err := (Multi{ok}).Send(context.Background(), 1, Message{}); err != nil {
		t.Fatalf("all ok err = %v", err)
	}
}

func TestLogSend(t *testing.T) {
	var buf bytes.Buffer
	l := Log{Logger: slog.New(slog.NewTextHandler(&buf, nil))}
	if err := l.Send(context.Background(), 9, Message{Kind: KindReport, Text: "done"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "owner=9") || !strings.Contains(out, "kind=report") {
		t.Fatalf("log = %q", out)
	}
}

func TestReportMessage(t *testing.T) {
	r := model.CycleReport{
		GeneratedAt: time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC),
		Envelopes: []model.Envelope{
			{Name: "Food", Limit: decimal.NewFromInt(200), Spent: decimal.NewFromInt(170)},
		},
		TotalLimit:   decimal.NewFromInt(200),
		TotalSpent:   decimal.NewFromInt(170),
		ExpenseCount: 4,
	}
	msg := ReportMessage(r)
	for _, want := range []string{"10/03/2026", "Spent 170.00 of 200.00 (85.0%)", "Expenses this month: 4", "- Food: 170.00 / 200.00 (85.0%, alert)"} {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("report missing %q:\n%s", want, msg.Text)
		}
	}
}

func TestAlertMessage_Over(t *testing.T) {
	e := model.Envelope{Name: "Fun", Limit: decimal.NewFromInt(50), Spent: decimal.NewFromInt(80)}
	a := alert.Assessment{Level: alert.LevelOver, Percentage: 160, Remaining: e.Remaining()}
	msg := AlertMessage(e, a)
	if !strings.Contains(msg.Text, "OVER: Fun") || !strings.Contains(msg.Text, "Over the limit by 30.00") {
		t.Fatalf("Text = %q", msg.Text)
	}
	if !strings.Contains(msg.Text, "Savings tips:\n1. Consider reviewing") {
		t.Fatalf("Text = %q, want savings tips", msg.Text)
	}
}

func TestAlertMessage_DailyCut(t *testing.T) {
	now := time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC)
	runsOut := now.Add(3 * 24 * time.Hour)
	e := model.Envelope{Name: "Food", Limit: decimal.NewFromInt(500), Spent: decimal.NewFromInt(420)}
	a := alert.Assessment{
		Level: alert.LevelAlert, Percentage: 84, Remaining: e.Remaining(),
		BurnRate: decimal.NewFromInt(25), Forecast: &runsOut, AssessedAt: now,
	}
	msg := AlertMessage(e, a)
	if !strings.Contains(msg.Text, "1. Try to spend about 7.50/day less") {
		t.Fatalf("Text = %q", msg.Text)
	}
}
