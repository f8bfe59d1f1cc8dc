package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/theirongolddev/envelope/internal/model"
)

const envelopeColumns = "id, owner, name, name_key, limit_cents, spent_cents, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEnvelope(r rowScanner) (model.Envelope, error) {
	var e model.Envelope
	var limit, spent int64
	var created string
	if err := r.Scan(&e.ID, &e.Owner, &e.Name, &e.Key, &limit, &spent, &created); err != nil {
		return e, err
	}
	e.Limit = fromCents(limit)
	e.Spent = fromCents(spent)
	e.CreatedAt = parseTime(created)
	return e, nil
}

func notFound(what string, id any, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", what, id, model.ErrNotFound)
	}
	return err
}

// CreateEnvelope inserts e and returns it with its id. A duplicate name key
// for the same owner is a validation error.
func (s *Store) CreateEnvelope(ctx context.Context, e model.Envelope) (model.Envelope, error) {
	limit, err := centsOf(e.Limit)
	if err != nil {
		return model.Envelope{}, err
	}
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `INSERT INTO envelopes
			(owner, name, name_key, limit_cents, spent_cents, created_at)
			VALUES (?, ?, ?, ?, 0, ?)`,
			e.Owner, e.Name, e.Key, limit, formatTime(e.CreatedAt))
		if err != nil {
			if isConstraint(err) {
				return fmt.Errorf("%w: envelope %q already exists", model.ErrValidation, e.Name)
			}
			return err
		}
		e.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return model.Envelope{}, err
	}
	e.Spent = fromCents(0)
	return e, nil
}

// Envelope returns the envelope with id owned by owner.
func (s *Store) Envelope(ctx context.Context, owner, id int64) (model.Envelope, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+envelopeColumns+" FROM envelopes WHERE owner = ? AND id = ?", owner, id)
	e, err := scanEnvelope(row)
	if err != nil {
		return e, notFound("envelope", id, err)
	}
	return e, nil
}

// EnvelopeByKey returns the owner's envelope whose normalized name is key.
func (s *Store) EnvelopeByKey(ctx context.Context, owner int64, key string) (model.Envelope, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+envelopeColumns+" FROM envelopes WHERE owner = ? AND name_key = ?", owner, key)
	e, err := scanEnvelope(row)
	if err != nil {
		return e, notFound("envelope", key, err)
	}
	return e, nil
}

// ListEnvelopes returns the owner's envelopes ordered by name.
func (s *Store) ListEnvelopes(ctx context.Context, owner int64) ([]model.Envelope, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+envelopeColumns+" FROM envelopes WHERE owner = ? ORDER BY name_key", owner)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Envelope
	for rows.Next() {
		e, err := scanEnvelope(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpdateEnvelope writes a new name and limit for an owned envelope. Spend
// is untouched.
func (s *Store) UpdateEnvelope(ctx context.Context, e model.Envelope) (model.Envelope, error) {
	limit, err := centsOf(e.Limit)
	if err != nil {
		return model.Envelope{}, err
	}
	var out model.Envelope
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE envelopes SET name = ?, name_key = ?, limit_cents = ? WHERE owner = ? AND id = ?",
			e.Name, e.Key, limit, e.Owner, e.ID)
		if err != nil {
			if isConstraint(err) {
				return fmt.Errorf("%w: envelope %q already exists", model.ErrValidation, e.Name)
			}
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("envelope %d: %w", e.ID, model.ErrNotFound)
		}
		out, err = scanEnvelope(tx.QueryRowContext(ctx,
			"SELECT "+envelopeColumns+" FROM envelopes WHERE id = ?", e.ID))
		return err
	})
	return out, err
}

// DeleteEnvelope removes an owned envelope. Expenses and payee memory
// cascade; linked bills are unlinked.
func (s *Store) DeleteEnvelope(ctx context.Context, owner, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM envelopes WHERE owner = ? AND id = ?", owner, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("envelope %d: %w", id, model.ErrNotFound)
		}
		return nil
	})
}

// ApplyExpense inserts x and adds its amount to the envelope's spend in one
// transaction. The increment is a single SQL addition so concurrent
// expenses on one envelope never lose updates. It returns the stored
// expense and the envelope before and after the increment.
func (s *Store) ApplyExpense(ctx context.Context, x model.Expense) (saved model.Expense, before, after model.Envelope, err error) {
	cents, err := centsOf(x.Amount)
	if err != nil {
		return model.Expense{}, model.Envelope{}, model.Envelope{}, err
	}
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		updated, err := scanEnvelope(tx.QueryRowContext(ctx,
			`UPDATE envelopes SET spent_cents = spent_cents + ?
			 WHERE owner = ? AND id = ?
			 RETURNING `+envelopeColumns,
			cents, x.Owner, x.EnvelopeID))
		if err != nil {
			return notFound("envelope", x.EnvelopeID, err)
		}
		after = updated

		x.Category = after.Key
		res, err := tx.ExecContext(ctx, `INSERT INTO expenses
			(owner, envelope_id, amount_cents, payee, category, occurred_at, recorded_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			x.Owner, x.EnvelopeID, cents, x.Payee, x.Category,
			formatTime(x.OccurredAt), formatTime(x.RecordedAt))
		if err != nil {
			return err
		}
		x.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return model.Expense{}, model.Envelope{}, model.Envelope{}, err
	}

	before = after
	before.Spent = fromCents(toCents(after.Spent) - cents)
	x.Amount = fromCents(cents)
	return x, before, after, nil
}

// ResetCycle zeroes the spend of every envelope of owner, leaving limits
// untouched, and returns how many envelopes were reset.
func (s *Store) ResetCycle(ctx context.Context, owner int64) (int, error) {
	var n int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "UPDATE envelopes SET spent_cents = 0 WHERE owner = ?", owner)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	return int(n), err
}

const expenseColumns = "id, owner, envelope_id, amount_cents, payee, category, occurred_at, recorded_at"

func scanExpenses(rows *sql.Rows) ([]model.Expense, error) {
	defer func() { _ = rows.Close() }()

	var out []model.Expense
	for rows.Next() {
		var x model.Expense
		var cents int64
		var occurred, recorded string
		if err := rows.Scan(&x.ID, &x.Owner, &x.EnvelopeID, &cents, &x.Payee, &x.Category, &occurred, &recorded); err != nil {
			return nil, err
		}
		x.Amount = fromCents(cents)
		x.OccurredAt = parseTime(occurred)
		x.RecordedAt = parseTime(recorded)
		out = append(out, x)
	}
	return out, rows.Err()
}

// ExpensesBetween returns the expenses of one envelope whose occurred_at
// falls in [since, until), oldest first.
func (s *Store) ExpensesBetween(ctx context.Context, owner, envelopeID int64, since, until time.Time) ([]model.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+expenseColumns+` FROM expenses
		 WHERE owner = ? AND envelope_id = ? AND occurred_at >= ? AND occurred_at < ?
		 ORDER BY occurred_at, id`,
		owner, envelopeID, formatTime(since), formatTime(until))
	if err != nil {
		return nil, err
	}
	return scanExpenses(rows)
}

// OwnerExpensesBetween returns every expense of owner with occurred_at in
// [since, until), oldest first. Category carries the envelope's current
// name.
func (s *Store) OwnerExpensesBetween(ctx context.Context, owner int64, since, until time.Time) ([]model.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		x.id, x.owner, x.envelope_id, x.amount_cents, x.payee, e.name, x.occurred_at, x.recorded_at
		FROM expenses x
		JOIN envelopes e ON e.id = x.envelope_id
		WHERE x.owner = ? AND x.occurred_at >= ? AND x.occurred_at < ?
		ORDER BY x.occurred_at, x.id`,
		owner, formatTime(since), formatTime(until))
	if err != nil {
		return nil, err
	}
	return scanExpenses(rows)
}

// RecentExpenses returns the owner's latest expenses by recording time.
func (s *Store) RecentExpenses(ctx context.Context, owner int64, limit int) ([]model.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE owner = ? ORDER BY recorded_at DESC, id DESC LIMIT ?",
		owner, limit)
	if err != nil {
		return nil, err
	}
	return scanExpenses(rows)
}

// CountExpensesBetween counts the owner's expenses with occurred_at in
// [since, until).
func (s *Store) CountExpensesBetween(ctx context.Context, owner int64, since, until time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM expenses WHERE owner = ? AND occurred_at >= ? AND occurred_at < ?",
		owner, formatTime(since), formatTime(until)).Scan(&n)
	return n, err
}
