package pending

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/envelope/internal/clock"
)

var start = time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC)

func TestPutTake(t *testing.T) {
	s := New[string](clock.Fake(start), time.Minute)
	e := s.Put(1, "coffee")
	if _, err := uuid.Parse(e.Token); err != nil {
		t.Fatalf("token %q is not a uuid: %v", e.Token, err)
	}

	if _, ok := s.Take(2, e.Token); ok {
		t.Fatal("Take by another owner succeeded")
	}
	got, ok := s.Take(1, e.Token)
	if !ok || got.Value != "coffee" {
		t.Fatalf("Take = %+v, %v", got, ok)
	}
	if _, ok := s.Take(1, e.Token); ok {
		t.Fatal("second Take succeeded")
	}
}

func TestExpiry(t *testing.T) {
	clk := clock.Fake(start)
	s := New[int](clk, 15*time.Minute)
	old := s.Put(1, 1)
	clk.Advance(10 * time.Minute)
	fresh := s.Put(1, 2)

	clk.Advance(5 * time.Minute)
	if _, ok := s.Get(1, old.Token); ok {
		t.Fatal("expired entry still visible")
	}
	if _, ok := s.Get(1, fresh.Token); !ok {
		t.Fatal("live entry not visible")
	}
	if got := len(s.List(1)); got != 1 {
		t.Fatalf("List = %d entries, want 1", got)
	}
	if n := s.Sweep(); n != 1 {
		t.Fatalf("Sweep = %d, want 1", n)
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
}

func TestPutSweepsExpired(t *testing.T) {
	clk := clock.Fake(start)
	s := New[int](clk, 0)
	for i := range 5 {
		s.Put(int64(i), i)
	}
	clk.Advance(DefaultTTL)
	s.Put(9, 9)
	if s.Len() != 1 {
		t.Fatalf("Len = %d after expiry, want 1", s.Len())
	}
}

func TestRestore(t *testing.T) {
	clk := clock.Fake(start)
	s := New[string](clk, time.Minute)
	e := s.Put(1, "tea")

	taken, ok := s.Take(1, e.Token)
	if !ok {
		t.Fatal("Take failed")
	}
	if !s.Restore(taken) {
		t.Fatal("Restore failed")
	}
	if s.Restore(taken) {
		t.Fatal("Restore over a live token succeeded")
	}
	got, ok := s.Get(1, e.Token)
	if !ok || got.Value != "tea" || !got.ExpiresAt.Equal(e.ExpiresAt) {
		t.Fatalf("Get after Restore = %+v, %v", got, ok)
	}

	taken, _ = s.Take(1, e.Token)
	clk.Advance(time.Minute)
	if s.Restore(taken) {
		t.Fatal("Restore of an expired entry succeeded")
	}
}

func TestListOldestFirst(t *testing.T) {
	clk := clock.Fake(start)
	s := New[int](clk, time.Hour)
	for i := range 5 {
		s.Put(1, i)
		clk.Advance(time.Second)
	}
	s.Put(2, 99)

	for range 3 {
		got := s.List(1)
		if len(got) != 5 {
			t.Fatalf("List = %d entries, want 5", len(got))
		}
		for i, e := range got {
			if e.Value != i {
				t.Fatalf("List[%d] = %d, want %d", i, e.Value, i)
			}
		}
	}
}
