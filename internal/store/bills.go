package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/envelope/internal/model"
)

const billColumns = "id, owner, description, due_day, fixed_cents, envelope_id, active, created_at"

func scanBill(r rowScanner) (model.RecurringBill, error) {
	var b model.RecurringBill
	var fixed, envelopeID sql.NullInt64
	var active int
	var created string
	if err := r.Scan(&b.ID, &b.Owner, &b.Description, &b.DueDay, &fixed, &envelopeID, &active, &created); err != nil {
		return b, err
	}
	b.FixedAmount = parseNullCents(fixed)
	b.EnvelopeID = parseNullInt64(envelopeID)
	b.Active = active != 0
	b.CreatedAt = parseTime(created)
	return b, nil
}

func scanBills(rows *sql.Rows) ([]model.RecurringBill, error) {
	defer func() { _ = rows.Close() }()

	var out []model.RecurringBill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CreateBill inserts b and returns it with its id. A linked envelope must
// belong to the same owner.
func (s *Store) CreateBill(ctx context.Context, b model.RecurringBill) (model.RecurringBill, error) {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if b.EnvelopeID != nil {
			var one int
			err := tx.QueryRowContext(ctx, "SELECT 1 FROM envelopes WHERE owner = ? AND id = ?",
				b.Owner, *b.EnvelopeID).Scan(&one)
			if err != nil {
				return notFound("envelope", *b.EnvelopeID, err)
			}
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO recurring_bills
			(owner, description, description_key, due_day, fixed_cents, envelope_id, active, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			b.Owner, b.Description, model.NormalizeName(b.Description), b.DueDay,
			nullCents(b.FixedAmount), nullInt64(b.EnvelopeID), boolInt(b.Active), formatTime(b.CreatedAt))
		if err != nil {
			return err
		}
		b.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return model.RecurringBill{}, err
	}
	return b, nil
}

// Bill returns the bill with id owned by owner.
func (s *Store) Bill(ctx context.Context, owner, id int64) (model.RecurringBill, error) {
	b, err := scanBill(s.db.QueryRowContext(ctx,
		"SELECT "+billColumns+" FROM recurring_bills WHERE owner = ? AND id = ?", owner, id))
	if err != nil {
		return b, notFound("bill", id, err)
	}
	return b, nil
}

// BillByDescription returns the owner's oldest bill whose normalized
// description equals key.
func (s *Store) BillByDescription(ctx context.Context, owner int64, key string) (model.RecurringBill, error) {
	b, err := scanBill(s.db.QueryRowContext(ctx,
		"SELECT "+billColumns+" FROM recurring_bills WHERE owner = ? AND description_key = ? ORDER BY id LIMIT 1",
		owner, key))
	if err != nil {
		return b, notFound("bill", key, err)
	}
	return b, nil
}

// ListBills returns the owner's bills ordered by due day.
func (s *Store) ListBills(ctx context.Context, owner int64, activeOnly bool) ([]model.RecurringBill, error) {
	q := "SELECT " + billColumns + " FROM recurring_bills WHERE owner = ?"
	if activeOnly {
		q += " AND active = 1"
	}
	rows, err := s.db.QueryContext(ctx, q+" ORDER BY due_day, id", owner)
	if err != nil {
		return nil, err
	}
	return scanBills(rows)
}

// ActiveBills returns the active bills of every owner, grouped by owner.
func (s *Store) ActiveBills(ctx context.Context) ([]model.RecurringBill, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+billColumns+" FROM recurring_bills WHERE active = 1 ORDER BY owner, due_day, id")
	if err != nil {
		return nil, err
	}
	return scanBills(rows)
}

// SetBillActive toggles whether an owned bill is tracked.
func (s *Store) SetBillActive(ctx context.Context, owner, id int64, active bool) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "UPDATE recurring_bills SET active = ? WHERE owner = ? AND id = ?",
			boolInt(active), owner, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("bill %d: %w", id, model.ErrNotFound)
		}
		return nil
	})
}

// DeleteBill removes an owned bill and its cycle payments.
func (s *Store) DeleteBill(ctx context.Context, owner, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM recurring_bills WHERE owner = ? AND id = ?", owner, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("bill %d: %w", id, model.ErrNotFound)
		}
		return nil
	})
}

const paymentColumns = "id, bill_id, owner, month, year, amount_cents, paid, paid_at, last_reminder_at"

func scanPayment(r rowScanner) (model.BillCyclePayment, error) {
	var p model.BillCyclePayment
	var month, paid int
	var amount sql.NullInt64
	var paidAt, reminded sql.NullString
	if err := r.Scan(&p.ID, &p.BillID, &p.Owner, &month, &p.Cycle.Year, &amount, &paid, &paidAt, &reminded); err != nil {
		return p, err
	}
	p.Cycle.Month = time.Month(month)
	p.Amount = parseNullCents(amount)
	p.Paid = paid != 0
	p.PaidAt = parseNullTime(paidAt)
	p.LastReminderAt = parseNullTime(reminded)
	return p, nil
}

// GetOrCreatePayment returns the payment of an owned bill for cycle,
// creating it on first access. Concurrent callers converge on the single
// row guarded by the (bill_id, month, year) unique key.
func (s *Store) GetOrCreatePayment(ctx context.Context, owner, billID int64, cycle model.Cycle) (model.BillCyclePayment, error) {
	var p model.BillCyclePayment
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var one int
		if err := tx.QueryRowContext(ctx, "SELECT 1 FROM recurring_bills WHERE owner = ? AND id = ?",
			owner, billID).Scan(&one); err != nil {
			return notFound("bill", billID, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO bill_cycle_payments (bill_id, owner, month, year)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(bill_id, month, year) DO NOTHING`,
			billID, owner, int(cycle.Month), cycle.Year); err != nil {
			return err
		}
		var err error
		p, err = scanPayment(tx.QueryRowContext(ctx,
			"SELECT "+paymentColumns+" FROM bill_cycle_payments WHERE bill_id = ? AND month = ? AND year = ?",
			billID, int(cycle.Month), cycle.Year))
		return err
	})
	return p, err
}

// SetPaymentAmount records the amount due for a payment.
func (s *Store) SetPaymentAmount(ctx context.Context, owner, paymentID int64, amount decimal.Decimal) (model.BillCyclePayment, error) {
	cents, err := centsOf(amount)
	if err != nil {
		return model.BillCyclePayment{}, err
	}
	return s.updatePayment(ctx, owner, paymentID,
		"UPDATE bill_cycle_payments SET amount_cents = ? WHERE owner = ? AND id = ?", cents)
}

// MarkPaymentPaid flags a payment as paid at the given time. A payment
// that is already paid keeps its original paid_at.
func (s *Store) MarkPaymentPaid(ctx context.Context, owner, paymentID int64, at time.Time) (model.BillCyclePayment, error) {
	return s.updatePayment(ctx, owner, paymentID,
		"UPDATE bill_cycle_payments SET paid = 1, paid_at = ? WHERE owner = ? AND id = ? AND paid = 0", formatTime(at))
}

// TouchReminder records that a reminder was delivered for a payment.
func (s *Store) TouchReminder(ctx context.Context, owner, paymentID int64, at time.Time) (model.BillCyclePayment, error) {
	return s.updatePayment(ctx, owner, paymentID,
		"UPDATE bill_cycle_payments SET last_reminder_at = ? WHERE owner = ? AND id = ?", formatTime(at))
}

// updatePayment runs an UPDATE whose last two placeholders are owner and
// id, then returns the row as stored. A missing row is ErrNotFound; an
// UPDATE matching nothing because of an extra predicate is not.
func (s *Store) updatePayment(ctx context.Context, owner, paymentID int64, query string, value any) (model.BillCyclePayment, error) {
	var p model.BillCyclePayment
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, query, value, owner, paymentID); err != nil {
			return err
		}
		var err error
		p, err = scanPayment(tx.QueryRowContext(ctx,
			"SELECT "+paymentColumns+" FROM bill_cycle_payments WHERE owner = ? AND id = ?", owner, paymentID))
		if err != nil {
			return notFound("payment", paymentID, err)
		}
		return nil
	})
	return p, err
}

// UnpaidForCycle returns the owner's active bills whose payment for cycle
// exists and is unpaid, ordered by due day.
func (s *Store) UnpaidForCycle(ctx context.Context, owner int64, cycle model.Cycle) ([]model.PendingBill, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		b.id, b.owner, b.description, b.due_day, b.fixed_cents, b.envelope_id, b.active, b.created_at,
		p.id, p.bill_id, p.owner, p.month, p.year, p.amount_cents, p.paid, p.paid_at, p.last_reminder_at
		FROM recurring_bills b
		JOIN bill_cycle_payments p ON p.bill_id = b.id AND p.month = ? AND p.year = ?
		WHERE b.owner = ? AND b.active = 1 AND p.paid = 0
		ORDER BY b.due_day, b.id`,
		int(cycle.Month), cycle.Year, owner)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.PendingBill
	for rows.Next() {
		var pb model.PendingBill
		var fixed, envelopeID, amount sql.NullInt64
		var active, month, paid int
		var created string
		var paidAt, reminded sql.NullString
		err := rows.Scan(
			&pb.Bill.ID, &pb.Bill.Owner, &pb.Bill.Description, &pb.Bill.DueDay, &fixed, &envelopeID, &active, &created,
			&pb.Payment.ID, &pb.Payment.BillID, &pb.Payment.Owner, &month, &pb.Payment.Cycle.Year, &amount, &paid, &paidAt, &reminded,
		)
		if err != nil {
			return nil, err
		}
		pb.Bill.FixedAmount = parseNullCents(fixed)
		pb.Bill.EnvelopeID = parseNullInt64(envelopeID)
		pb.Bill.Active = active != 0
		pb.Bill.CreatedAt = parseTime(created)
		pb.Payment.Cycle.Month = time.Month(month)
		pb.Payment.Amount = parseNullCents(amount)
		pb.Payment.Paid = paid != 0
		pb.Payment.PaidAt = parseNullTime(paidAt)
		pb.Payment.LastReminderAt = parseNullTime(reminded)
		out = append(out, pb)
	}
	return out, rows.Err()
}
