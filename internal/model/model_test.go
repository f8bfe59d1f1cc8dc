package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPercentageUsed_NonPositiveLimit(t *testing.T) {
	for _, limit := range []string{"0", "-10"} {
		e := Envelope{Limit: dec(limit), Spent: dec("50")}
		if got := e.PercentageUsed(); got != 0 {
			t.Fatalf("PercentageUsed(limit=%s) = %v, want 0", limit, got)
		}
	}
}

func TestPercentageUsed(t *testing.T) {
	e := Envelope{Limit: dec("1000"), Spent: dec("550")}
	if got := e.PercentageUsed(); got != 55 {
		t.Fatalf("PercentageUsed = %v, want 55", got)
	}
}

func TestRemaining_OverLimitIsNegative(t *testing.T) {
	e := Envelope{Limit: dec("100"), Spent: dec("130.50")}
	if got := e.Remaining(); !got.Equal(dec("-30.50")) {
		t.Fatalf("Remaining = %s, want -30.50", got)
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Groceries", "groceries"},
		{"  Eating   Out ", "eating out"},
		{"PADARIA\tSÃO JOSÉ", "padaria são josé"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsGenericPayee(t *testing.T) {
	for _, p := range []string{"Not identified", "NOT SPECIFIED", "  ", "Não Identificado"} {
		if !IsGenericPayee(p) {
			t.Errorf("IsGenericPayee(%q) = false, want true", p)
		}
	}
	if IsGenericPayee("Market 24h") {
		t.Error("IsGenericPayee(Market 24h) = true, want false")
	}
}

func TestResetDay(t *testing.T) {
	tests := []struct{ closing, want int }{
		{1, 2},
		{15, 16},
		{27, 28},
		{28, 1},
	}
	for _, tt := range tests {
		if got := ResetDay(tt.closing); got != tt.want {
			t.Errorf("ResetDay(%d) = %d, want %d", tt.closing, got, tt.want)
		}
	}
}

func TestAmountDue(t *testing.T) {
	fixed := dec("45.90")
	bill := RecurringBill{FixedAmount: &fixed}
	if got, ok := AmountDue(bill, BillCyclePayment{}); !ok || !got.Equal(fixed) {
		t.Fatalf("AmountDue(fixed) = %s, %v; want 45.90, true", got, ok)
	}

	variable := RecurringBill{}
	if _, ok := AmountDue(variable, BillCyclePayment{}); ok {
		t.Fatal("AmountDue(variable, unset) ok = true, want false")
	}
	set := dec("120")
	if got, ok := AmountDue(variable, BillCyclePayment{Amount: &set}); !ok || !got.Equal(set) {
		t.Fatalf("AmountDue(variable, set) = %s, %v; want 120, true", got, ok)
	}
}

func TestHistoryMonthlyAverage(t *testing.T) {
	if got := (History{}).MonthlyAverage(); !got.IsZero() {
		t.Fatalf("empty MonthlyAverage = %s, want 0", got)
	}
	h := History{Total: dec("100"), Months: make([]MonthTotal, 3)}
	if got := h.MonthlyAverage(); !got.Equal(dec("33.33")) {
		t.Fatalf("MonthlyAverage = %s, want 33.33", got)
	}
}
