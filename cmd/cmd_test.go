package cmd

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/envelope/internal/config"
	"github.com/theirongolddev/envelope/internal/daemon"
	"github.com/theirongolddev/envelope/internal/model"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"45.90", "45.9"},
		{"45,90", "45.9"},
		{" 1200 ", "1200"},
	}
	for _, tt := range tests {
		got, err := parseAmount(tt.in)
		if err != nil {
			t.Fatalf("parseAmount(%q): %v", tt.in, err)
		}
		if got.String() != tt.want {
			t.Fatalf("parseAmount(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	if _, err := parseAmount("1,200.50x"); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("parseAmount(bad) err = %v, want ErrValidation", err)
	}
}

func TestParseCycle(t *testing.T) {
	c, err := parseCycle("")
	if err != nil || c != nil {
		t.Fatalf("parseCycle(\"\") = %v, %v, want nil, nil", c, err)
	}
	c, err = parseCycle("2026-02")
	if err != nil {
		t.Fatalf("parseCycle: %v", err)
	}
	if c.Month != time.February || c.Year != 2026 {
		t.Fatalf("parseCycle = %+v, want 02/2026", *c)
	}
	if _, err := parseCycle("02/2026"); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("parseCycle(bad) err = %v, want ErrValidation", err)
	}
}

func TestParseWhen(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)

	got, err := parseWhen("", loc)
	if err != nil || !got.IsZero() {
		t.Fatalf("parseWhen(\"\") = %v, %v, want zero time", got, err)
	}

	got, err = parseWhen("2026-03-10", loc)
	if err != nil {
		t.Fatalf("parseWhen(date): %v", err)
	}
	if want := time.Date(2026, 3, 10, 12, 0, 0, 0, loc); !got.Equal(want) {
		t.Fatalf("parseWhen(date) = %v, want %v", got, want)
	}

	got, err = parseWhen("2026-03-10T08:30:00Z", loc)
	if err != nil {
		t.Fatalf("parseWhen(rfc3339): %v", err)
	}
	if want := time.Date(2026, 3, 10, 8, 30, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("parseWhen(rfc3339) = %v, want %v", got, want)
	}

	if _, err := parseWhen("yesterday", loc); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("parseWhen(bad) err = %v, want ErrValidation", err)
	}
}

func TestFilterDetachArg(t *testing.T) {
	got := filterDetachArg([]string{"daemon", "--detach", "--addr", ":9000", "--detach=true"})
	want := []string{"daemon", "--addr", ":9000"}
	if len(got) != len(want) {
		t.Fatalf("filterDetachArg = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("filterDetachArg = %v, want %v", got, want)
		}
	}
}

func TestPIDFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "envelope.pid")
	if err := writePID(path, 4242); err != nil {
		t.Fatalf("writePID: %v", err)
	}
	pid, err := readPID(path)
	if err != nil {
		t.Fatalf("readPID: %v", err)
	}
	if pid != 4242 {
		t.Fatalf("pid = %d, want 4242", pid)
	}

	if err := os.WriteFile(path, []byte("garbage\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := readPID(path); err == nil {
		t.Fatal("readPID accepted garbage")
	}
}

func TestEnsureDaemonNotRunningClearsStalePID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "envelope.pid")

	if err := ensureDaemonNotRunning(path); err != nil {
		t.Fatalf("missing pid file: %v", err)
	}

	if err := writePID(path, os.Getpid()); err != nil {
		t.Fatal(err)
	}
	if err := ensureDaemonNotRunning(path); err == nil {
		t.Fatal("ensureDaemonNotRunning = nil with a live pid")
	}
}

func TestFetchStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/status" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(daemon.Status{Owner: 7, Pending: 2})
	}))
	defer srv.Close()
	addr := strings.TrimPrefix(srv.URL, "http://")

	st, err := fetchStatus(addr)
	if err != nil {
		t.Fatalf("fetchStatus: %v", err)
	}
	if st.Owner != 7 || st.Pending != 2 {
		t.Fatalf("status = %+v, want owner 7 with 2 pending", st)
	}

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()
	if _, err := fetchStatus(strings.TrimPrefix(down.URL, "http://")); err == nil || !strings.Contains(err.Error(), "HTTP 503") {
		t.Fatalf("fetchStatus err = %v, want HTTP 503", err)
	}
}

func TestSetupValuesApply(t *testing.T) {
	cfg := config.DefaultConfig()
	v := newSetupValues(cfg)
	v.owner = " 42 "
	v.timezone = "UTC"
	v.window = 7
	v.telegram = " 123:abc "
	v.themeName = "tokyo-night"

	if err := v.apply(&cfg); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg.General.Owner != 42 || cfg.Reminders.WindowDays != 7 {
		t.Fatalf("cfg = %+v, want owner 42 and window 7", cfg)
	}
	if cfg.Notify.TelegramToken != "123:abc" || cfg.Appearance.Theme != "tokyo-night" {
		t.Fatalf("notify/appearance not applied: %+v", cfg)
	}
	if cfg.Schedule.Reset != config.DefaultConfig().Schedule.Reset {
		t.Fatal("unrelated settings changed")
	}

	v.owner = "zero"
	if err := v.apply(&cfg); err == nil {
		t.Fatal("apply accepted a non-numeric owner")
	}
	if validateTimezone("Mars/Olympus") == nil {
		t.Fatal("validateTimezone accepted an unknown zone")
	}
}

func TestMaskSecret(t *testing.T) {
	if got := maskSecret("1234567890:ABCDEFGHIJKLMNOP"); got != "12345678...MNOP" {
		t.Fatalf("maskSecret = %q", got)
	}
	if got := maskSecret("abc"); got != "****" {
		t.Fatalf("maskSecret(short) = %q", got)
	}
}

func TestHistoryTable(t *testing.T) {
	h := model.History{
		Span: 6,
		Months: []model.MonthTotal{
			{
				Cycle: model.Cycle{Month: time.April, Year: 2026}, Total: decimal.NewFromInt(130), Count: 3,
				Envelopes: []model.EnvelopeTotal{
					{Envelope: "Fuel", Total: decimal.NewFromInt(90), Count: 1},
					{Envelope: "Food", Total: decimal.NewFromInt(40), Count: 2},
				},
			},
			{
				Cycle: model.Cycle{Month: time.February, Year: 2026}, Total: decimal.NewFromInt(70), Count: 1,
				Envelopes: []model.EnvelopeTotal{{Envelope: "Food", Total: decimal.NewFromInt(70), Count: 1}},
			},
		},
		Total: decimal.NewFromInt(200),
		Count: 4,
	}
	tbl := historyTable(h)
	if len(tbl.Rows) != 9 {
		t.Fatalf("rows = %d, want 9: %v", len(tbl.Rows), tbl.Rows)
	}
	if got := tbl.Rows[0]; got[0] != "04/2026" || got[1] != "Total" {
		t.Fatalf("first row = %v", got)
	}
	if got := tbl.Rows[1][1]; got != "Fuel" {
		t.Fatalf("first envelope = %q, want Fuel", got)
	}
	last := tbl.Rows[len(tbl.Rows)-1]
	if last[0] != "Monthly average" || last[2] != "100.00" {
		t.Fatalf("average row = %v, want 100.00", last)
	}
}
