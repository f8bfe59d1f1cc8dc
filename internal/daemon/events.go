package daemon

import (
	"context"
	"sync"
	"time"

	"github.com/theirongolddev/envelope/internal/notify"
)

// Event is one entry of the daemon's activity log.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Owner     int64     `json:"owner,omitempty"`
	Kind      string    `json:"kind,omitempty"`
	Text      string    `json:"text,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Events is a bounded ring of recent events. Safe for concurrent use.
type Events struct {
	mu     sync.RWMutex
	size   int
	nextID int64
	events []Event
}

// NewEvents creates a ring holding at most size events.
func NewEvents(size int) *Events {
	if size < 1 {
		size = 200
	}
	return &Events{size: size}
}

// Publish assigns ev an id, appends it and returns it.
func (e *Events) Publish(ev Event) Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	ev.ID = e.nextID
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	e.events = append(e.events, ev)
	if len(e.events) > e.size {
		e.events = e.events[len(e.events)-e.size:]
	}
	return ev
}

// List returns a copy of the retained events, oldest first.
func (e *Events) List() []Event {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Event, len(e.events))
	copy(out, e.events)
	return out
}

// Len returns the number of retained events.
func (e *Events) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.events)
}

// Wrap returns a Notifier that forwards to inner and records each
// delivery attempt.
func (e *Events) Wrap(inner notify.Notifier) notify.Notifier {
	return notify.Func(func(ctx context.Context, owner int64, msg notify.Message) error {
		err := inner.Send(ctx, owner, msg)
		ev := Event{Type: "notification", Owner: owner, Kind: string(msg.Kind), Text: msg.Text}
		if err != nil {
			ev.Error = err.Error()
		}
		e.Publish(ev)
		return err
	})
}
