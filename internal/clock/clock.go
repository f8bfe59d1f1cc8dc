// Package clock provides an injectable time source so ledgers and the
// scheduler can be driven deterministically in tests.
package clock

import (
	"sync"
	"time"
)

// Clock abstracts time.Now.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Real returns a Clock backed by the time package.
func Real() Clock { return realClock{} }

// FakeClock is a Clock whose time only moves when Set or Advance is called.
// Safe for concurrent use.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
}

// Fake returns a FakeClock frozen at initial.
func Fake(initial time.Time) *FakeClock {
	return &FakeClock{current: initial}
}

// Now returns the fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	c.mu.Unlock()
}

// Set jumps the clock to t.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

type locClock struct {
	c   Clock
	loc *time.Location
}

func (l locClock) Now() time.Time { return l.c.Now().In(l.loc) }

// InLocation returns a Clock reporting c's time in loc. Day-of-month
// decisions follow the owner's wall clock rather than UTC.
func InLocation(c Clock, loc *time.Location) Clock {
	if loc == nil {
		return c
	}
	return locClock{c: c, loc: loc}
}
