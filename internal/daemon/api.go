package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/envelope/internal/ledger"
	"github.com/theirongolddev/envelope/internal/model"
	"github.com/theirongolddev/envelope/internal/notify"
)

const maxRequestBody = 64 << 10

// Draft is an expense waiting for the owner to pick its envelope.
type Draft struct {
	Amount     decimal.Decimal `json:"amount"`
	Payee      string          `json:"payee"`
	OccurredAt time.Time       `json:"occurred_at"`
}

type expenseRequest struct {
	Owner      int64           `json:"owner"`
	Amount     decimal.Decimal `json:"amount"`
	Payee      string          `json:"payee"`
	Envelope   string          `json:"envelope"`
	OccurredAt time.Time       `json:"occurred_at"`
}

type confirmRequest struct {
	Owner    int64  `json:"owner"`
	Envelope string `json:"envelope"`
}

type expenseResponse struct {
	ExpenseID  int64           `json:"expense_id"`
	Envelope   string          `json:"envelope"`
	Source     string          `json:"source"`
	Spent      decimal.Decimal `json:"spent"`
	Limit      decimal.Decimal `json:"limit"`
	Percentage float64         `json:"percentage"`
	Level      string          `json:"level"`
	Crossed    bool            `json:"crossed"`
	Remaining  decimal.Decimal `json:"remaining"`
	BurnRate   decimal.Decimal `json:"burn_rate"`
	Forecast   *time.Time      `json:"forecast,omitempty"`
}

type pendingResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Draft     Draft     `json:"draft"`
	Envelopes []string  `json:"envelopes"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Service) owner(requested int64) int64 {
	if requested != 0 {
		return requested
	}
	return s.cfg.Owner
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", model.ErrValidation, err)
	}
	return nil
}

func (s *Service) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrConflict):
		status = http.StatusConflict
	default:
		s.setError(err)
		s.deps.Logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// handleExpense applies an expense to the named envelope, or to the one
// recalled or suggested for the payee. Unresolved expenses are staged for
// confirmation.
func (s *Service) handleExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := ledger.ValidateAmount("amount", req.Amount); err != nil {
		s.writeError(w, err)
		return
	}
	ctx := r.Context()
	owner := s.owner(req.Owner)
	draft := Draft{Amount: req.Amount, Payee: req.Payee, OccurredAt: req.OccurredAt}

	var res ledger.Resolution
	if req.Envelope != "" {
		e, err := s.deps.Budget.EnvelopeByName(ctx, owner, req.Envelope)
		if err != nil {
			s.writeError(w, err)
			return
		}
		res = ledger.Resolution{Envelope: e, Source: ledger.SourceNone}
	} else {
		var err error
		res, err = s.deps.Memory.Resolve(ctx, owner, req.Payee, s.deps.Categorizer)
		if err != nil {
			// The categorizer is optional; fall back to asking the owner.
			s.deps.Logger.Warn("categorization failed", "owner", owner, "err", err)
		}
		if !res.Found() {
			s.stage(ctx, w, owner, draft)
			return
		}
	}

	resp, err := s.apply(ctx, owner, res.Envelope, draft)
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp.Source = res.Source.String()
	if req.Envelope != "" {
		resp.Source = "explicit"
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Service) stage(ctx context.Context, w http.ResponseWriter, owner int64, d Draft) {
	envs, err := s.deps.Budget.Envelopes(ctx, owner)
	if err != nil {
		s.writeError(w, err)
		return
	}
	names := make([]string, len(envs))
	for i, e := range envs {
		names[i] = e.Name
	}
	entry := s.deps.Pending.Put(owner, d)
	s.deps.Events.Publish(Event{Type: "pending", Owner: owner, Text: entry.Token})
	writeJSON(w, http.StatusAccepted, pendingResponse{
		Token:     entry.Token,
		ExpiresAt: entry.ExpiresAt,
		Draft:     d,
		Envelopes: names,
	})
}

func (s *Service) handlePendingList(w http.ResponseWriter, r *http.Request) {
	var owner int64
	if v := r.URL.Query().Get("owner"); v != "" {
		if _, err := fmt.Sscan(v, &owner); err != nil {
			s.writeError(w, fmt.Errorf("%w: owner %q", model.ErrValidation, v))
			return
		}
	}
	owner = s.owner(owner)
	entries := s.deps.Pending.List(owner)
	out := make([]pendingResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, pendingResponse{Token: e.Token, ExpiresAt: e.ExpiresAt, Draft: e.Value})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleConfirm applies a staged expense to the chosen envelope and
// remembers the payee for next time. A failed apply leaves the draft
// staged under the same token.
func (s *Service) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	ctx := r.Context()
	owner := s.owner(req.Owner)

	e, err := s.deps.Budget.EnvelopeByName(ctx, owner, req.Envelope)
	if err != nil {
		s.writeError(w, err)
		return
	}
	entry, ok := s.deps.Pending.Take(owner, r.PathValue("token"))
	if !ok {
		s.writeError(w, fmt.Errorf("pending expense %q: %w", r.PathValue("token"), model.ErrNotFound))
		return
	}

	resp, err := s.apply(ctx, owner, e, entry.Value)
	if err != nil {
		// Nothing was applied; keep the draft so the owner can retry.
		if !s.deps.Pending.Restore(entry) {
			s.deps.Logger.Warn("pending expense dropped", "owner", owner, "token", entry.Token)
		}
		s.writeError(w, err)
		return
	}
	if err := s.deps.Memory.Remember(ctx, owner, entry.Value.Payee, e.ID); err != nil {
		s.deps.Logger.Warn("remembering payee failed", "owner", owner, "err", err)
	}
	resp.Source = "confirmed"
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Service) apply(ctx context.Context, owner int64, e model.Envelope, d Draft) (expenseResponse, error) {
	res, err := s.deps.Budget.ApplyExpense(ctx, owner, ledger.ExpenseInput{
		EnvelopeID: e.ID,
		Amount:     d.Amount,
		Payee:      d.Payee,
		Category:   e.Name,
		OccurredAt: d.OccurredAt,
	})
	if err != nil {
		return expenseResponse{}, err
	}
	if res.AssessErr != nil {
		s.deps.Logger.Warn("assessment incomplete", "owner", owner, "envelope", e.ID, "err", res.AssessErr)
	}

	s.deps.Events.Publish(Event{
		Type:  "expense",
		Owner: owner,
		Text:  fmt.Sprintf("%s %s at %s", res.Expense.Amount.StringFixed(2), res.After.Name, res.Expense.Payee),
	})
	if res.Assessment.Crossed {
		if err := s.deps.Notifier.Send(ctx, owner, notify.AlertMessage(res.After, res.Assessment)); err != nil {
			s.deps.Logger.Warn("alert delivery failed", "owner", owner, "err", err)
		}
	}

	a := res.Assessment
	return expenseResponse{
		ExpenseID:  res.Expense.ID,
		Envelope:   res.After.Name,
		Spent:      res.After.Spent,
		Limit:      res.After.Limit,
		Percentage: a.Percentage,
		Level:      a.Level.String(),
		Crossed:    a.Crossed,
		Remaining:  a.Remaining,
		BurnRate:   a.BurnRate,
		Forecast:   a.Forecast,
	}, nil
}
