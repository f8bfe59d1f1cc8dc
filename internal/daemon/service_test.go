package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/envelope/internal/alert"
	"github.com/theirongolddev/envelope/internal/clock"
	"github.com/theirongolddev/envelope/internal/ledger"
	"github.com/theirongolddev/envelope/internal/notify"
	"github.com/theirongolddev/envelope/internal/pending"
	"github.com/theirongolddev/envelope/internal/scheduler"
	"github.com/theirongolddev/envelope/internal/store"
)

const owner = int64(5)

type testEnv struct {
	svc    *Service
	srv    *httptest.Server
	budget *ledger.BudgetLedger
	memory *ledger.EstablishmentMemory
	events *Events
	clock  *clock.FakeClock
	alerts []notify.Message
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "daemon.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	clk := clock.Fake(time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := &testEnv{
		budget: ledger.NewBudgetLedger(s, alert.NewEngine(s, clk, 7), clk),
		memory: ledger.NewEstablishmentMemory(s, clk),
		events: NewEvents(10),
		clock:  clk,
	}
	notifier := env.events.Wrap(notify.Func(func(_ context.Context, _ int64, msg notify.Message) error {
		env.alerts = append(env.alerts, msg)
		return nil
	}))
	bills := ledger.NewRecurringBillLedger(s, clk)
	env.svc = New(Config{Owner: owner, DBPath: "daemon.db"}, Deps{
		Budget:      env.budget,
		Memory:      env.memory,
		Scheduler:   scheduler.New(scheduler.Config{Budget: env.budget, Bills: bills, Notifier: notifier, Clock: clk, Logger: logger, Location: time.UTC}),
		Pending:     pending.New[Draft](clk, 15*time.Minute),
		Categorizer: ledger.NameMatch,
		Notifier:    notifier,
		Events:      env.events,
		Clock:       clk,
		Logger:      logger,
	})
	env.srv = httptest.NewServer(env.svc.Handler())
	t.Cleanup(env.srv.Close)
	return env
}

func (e *testEnv) post(t *testing.T, path string, body any) (*http.Response, []byte) {
	t.Helper()
	data, _ := json.Marshal(body)
	resp, err := http.Post(e.srv.URL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	out, _ := io.ReadAll(resp.Body)
	return resp, out
}

func TestHealthAndStatus(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}

	resp, err = http.Get(env.srv.URL + "/v1/status")
	if err != nil {
		t.Fatalf("GET /v1/status: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	var st Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if st.Owner != owner || len(st.Sweeps) != 3 {
		t.Fatalf("status = %+v", st)
	}
}

func TestExpense_ExplicitEnvelopeAlertsOnCrossing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.budget.CreateEnvelope(ctx, owner, "Food", decimal.NewFromInt(100)); err != nil {
		t.Fatalf("CreateEnvelope: %v", err)
	}

	resp, body := env.post(t, "/v1/expenses", map[string]any{"amount": "60", "payee": "Bistro", "envelope": "food"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	var got expenseResponse
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Level != "attention" || !got.Crossed || got.Source != "explicit" {
		t.Fatalf("response = %+v", got)
	}
	if len(env.alerts) != 1 || env.alerts[0].Kind != notify.KindAlert {
		t.Fatalf("alerts = %+v", env.alerts)
	}

	var types []string
	for _, ev := range env.events.List() {
		types = append(types, ev.Type)
	}
	if strings.Join(types, ",") != "expense,notification" {
		t.Fatalf("event types = %v", types)
	}
}

func TestExpense_StageAndConfirm(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.budget.CreateEnvelope(ctx, owner, "Bakery", decimal.NewFromInt(100)); err != nil {
		t.Fatalf("CreateEnvelope: %v", err)
	}

	resp, body := env.post(t, "/v1/expenses", map[string]any{"amount": 12.5, "payee": "Padaria Central"})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	var staged pendingResponse
	if err := json.Unmarshal(body, &staged); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if staged.Token == "" || len(staged.Envelopes) != 1 {
		t.Fatalf("staged = %+v", staged)
	}

	resp, body = env.post(t, "/v1/pending/"+staged.Token+"/confirm", map[string]any{"envelope": "Bakery"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("confirm status = %d: %s", resp.StatusCode, body)
	}

	// The payee is remembered, so the next expense applies directly.
	resp, body = env.post(t, "/v1/expenses", map[string]any{"amount": "3", "payee": "padaria central"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("second status = %d: %s", resp.StatusCode, body)
	}
	var got expenseResponse
	_ = json.Unmarshal(body, &got)
	if got.Source != "memory" || !got.Spent.Equal(decimal.RequireFromString("15.5")) {
		t.Fatalf("second = %+v", got)
	}

	resp, _ = env.post(t, "/v1/pending/"+staged.Token+"/confirm", map[string]any{"envelope": "Bakery"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("reconfirm status = %d, want 404", resp.StatusCode)
	}
}

func TestExpense_ExpiredPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, _ = env.budget.CreateEnvelope(ctx, owner, "Misc", decimal.NewFromInt(100))

	_, body := env.post(t, "/v1/expenses", map[string]any{"amount": "5", "payee": "Kiosk"})
	var staged pendingResponse
	_ = json.Unmarshal(body, &staged)

	env.clock.Advance(16 * time.Minute)
	env.svc.tick()

	resp, _ := env.post(t, "/v1/pending/"+staged.Token+"/confirm", map[string]any{"envelope": "Misc"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 after expiry", resp.StatusCode)
	}
	if st := env.svc.snapshotStatus(); st.TickCount != 1 || st.Pending != 0 {
		t.Fatalf("status = %+v", st)
	}
}

func TestConfirm_FailedApplyKeepsDraft(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, _ = env.budget.CreateEnvelope(ctx, owner, "Misc", decimal.NewFromInt(100))
	// A draft the ledger refuses, as if staged before the rules changed.
	entry := env.svc.deps.Pending.Put(owner, Draft{Amount: decimal.RequireFromString("0.001"), Payee: "Kiosk"})

	for i := range 2 {
		resp, body := env.post(t, "/v1/pending/"+entry.Token+"/confirm", map[string]any{"envelope": "Misc"})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("confirm #%d status = %d, want 400: %s", i+1, resp.StatusCode, body)
		}
	}
	got, ok := env.svc.deps.Pending.Get(owner, entry.Token)
	if !ok || !got.ExpiresAt.Equal(entry.ExpiresAt) {
		t.Fatalf("draft after failed confirms = %+v, %v; want it kept", got, ok)
	}
}

func TestExpense_Errors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		body any
		want int
	}{
		{map[string]any{"amount": "-1", "payee": "x"}, http.StatusBadRequest},
		{map[string]any{"amount": "0.001", "payee": "x"}, http.StatusBadRequest},
		{map[string]any{"amount": "5", "envelope": "nope"}, http.StatusNotFound},
		{map[string]any{"amount": "5", "bogus": true}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		resp, body := env.post(t, "/v1/expenses", tt.body)
		if resp.StatusCode != tt.want {
			t.Errorf("POST %v status = %d, want %d: %s", tt.body, resp.StatusCode, tt.want, body)
		}
	}
}

func TestEventsRing(t *testing.T) {
	ev := NewEvents(2)
	ev.Publish(Event{Type: "a"})
	ev.Publish(Event{Type: "b"})
	ev.Publish(Event{Type: "c"})

	got := ev.List()
	if len(got) != 2 {
		t.Fatalf("events len = %d, want 2", len(got))
	}
	if got[0].ID != 2 || got[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", got[0].ID, got[1].ID)
	}
}
