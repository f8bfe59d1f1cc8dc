package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/theirongolddev/envelope/internal/clock"
	"github.com/theirongolddev/envelope/internal/model"
)

// Categorizer suggests an envelope name for a payee given the owner's
// envelope names. ok is false when it has no suggestion.
type Categorizer interface {
	Suggest(ctx context.Context, payee string, envelopes []string) (name string, ok bool, err error)
}

// CategorizerFunc adapts a function to Categorizer.
type CategorizerFunc func(ctx context.Context, payee string, envelopes []string) (string, bool, error)

// Suggest calls f.
func (f CategorizerFunc) Suggest(ctx context.Context, payee string, envelopes []string) (string, bool, error) {
	return f(ctx, payee, envelopes)
}

// NameMatch suggests the longest envelope name contained in the payee.
var NameMatch = CategorizerFunc(func(_ context.Context, payee string, envelopes []string) (string, bool, error) {
	key := model.NormalizeName(payee)
	best := ""
	for _, name := range envelopes {
		n := model.NormalizeName(name)
		if n != "" && strings.Contains(key, n) && len(n) > len(best) {
			best = name
		}
	}
	return best, best != "", nil
})

// Source says where a resolved envelope came from.
type Source int

const (
	SourceNone Source = iota
	SourceMemory
	SourceSuggestion
)

func (s Source) String() string {
	switch s {
	case SourceMemory:
		return "memory"
	case SourceSuggestion:
		return "suggestion"
	default:
		return "none"
	}
}

// Resolution is the outcome of EstablishmentMemory.Resolve.
type Resolution struct {
	Envelope model.Envelope
	Source   Source
}

// Found reports whether an envelope was resolved.
func (r Resolution) Found() bool { return r.Source != SourceNone }

// EstablishmentMemory recalls which envelope a payee was last charged to.
type EstablishmentMemory struct {
	store MemoryStore
	clock clock.Clock
}

// NewEstablishmentMemory creates an EstablishmentMemory.
func NewEstablishmentMemory(store MemoryStore, clk clock.Clock) *EstablishmentMemory {
	return &EstablishmentMemory{store: store, clock: clk}
}

// Lookup returns the envelope remembered for payee. Generic payees never
// match.
func (m *EstablishmentMemory) Lookup(ctx context.Context, owner int64, payee string) (int64, bool, error) {
	if model.IsGenericPayee(payee) {
		return 0, false, nil
	}
	return m.store.LookupPayee(ctx, owner, model.NormalizeName(payee))
}

// Remember maps payee to an owned envelope. Generic payees are ignored.
func (m *EstablishmentMemory) Remember(ctx context.Context, owner int64, payee string, envelopeID int64) error {
	if model.IsGenericPayee(payee) {
		return nil
	}
	if _, err := m.store.Envelope(ctx, owner, envelopeID); err != nil {
		return err
	}
	return m.store.RememberPayee(ctx, owner, model.NormalizeName(payee), envelopeID, m.clock.Now())
}

// Resolve finds the envelope for payee: memory first, then the categorizer
// when one is given. A suggestion naming an unknown envelope is no match.
func (m *EstablishmentMemory) Resolve(ctx context.Context, owner int64, payee string, cat Categorizer) (Resolution, error) {
	id, ok, err := m.Lookup(ctx, owner, payee)
	if err != nil {
		return Resolution{}, err
	}
	if ok {
		e, err := m.store.Envelope(ctx, owner, id)
		switch {
		case err == nil:
			return Resolution{Envelope: e, Source: SourceMemory}, nil
		case !errors.Is(err, model.ErrNotFound):
			return Resolution{}, err
		}
	}
	if cat == nil {
		return Resolution{}, nil
	}

	envs, err := m.store.ListEnvelopes(ctx, owner)
	if err != nil {
		return Resolution{}, err
	}
	if len(envs) == 0 {
		return Resolution{}, nil
	}
	names := make([]string, len(envs))
	for i, e := range envs {
		names[i] = e.Name
	}
	name, ok, err := cat.Suggest(ctx, payee, names)
	if err != nil {
		return Resolution{}, fmt.Errorf("categorizing %q: %w", payee, err)
	}
	if !ok {
		return Resolution{}, nil
	}
	key := model.NormalizeName(name)
	for _, e := range envs {
		if e.Key == key {
			return Resolution{Envelope: e, Source: SourceSuggestion}, nil
		}
	}
	return Resolution{}, nil
}
