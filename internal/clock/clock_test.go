package clock

import (
	"testing"
	"time"
)

func TestFakeAdvance(t *testing.T) {
	start := time.Date(2026, 3, 8, 9, 0, 0, 0, time.UTC)
	c := Fake(start)
	if got := c.Now(); !got.Equal(start) {
		t.Fatalf("Now() = %v, want %v", got, start)
	}

	c.Advance(36 * time.Hour)
	want := time.Date(2026, 3, 9, 21, 0, 0, 0, time.UTC)
	if got := c.Now(); !got.Equal(want) {
		t.Fatalf("Now() after Advance = %v, want %v", got, want)
	}

	c.Set(start)
	if got := c.Now(); !got.Equal(start) {
		t.Fatalf("Now() after Set = %v, want %v", got, start)
	}
}

func TestInLocation(t *testing.T) {
	start := time.Date(2026, 3, 8, 1, 30, 0, 0, time.UTC)
	loc := time.FixedZone("minus3", -3*60*60)
	c := InLocation(Fake(start), loc)

	got := c.Now()
	if got.Day() != 7 || got.Hour() != 22 {
		t.Fatalf("Now() = %v, want 2026-03-07 22:30 -03", got)
	}
	if !got.Equal(start) {
		t.Fatalf("Now() = %v, not the same instant as %v", got, start)
	}
}
