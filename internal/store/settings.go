package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/theirongolddev/envelope/internal/model"
)

// SetClosingDay upserts the owner's closing day.
func (s *Store) SetClosingDay(ctx context.Context, owner int64, day int, at time.Time) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO closing_config (owner, closing_day, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT(owner) DO UPDATE SET closing_day = excluded.closing_day, updated_at = excluded.updated_at`,
			owner, day, formatTime(at))
		return err
	})
}

// ClearClosingDay removes the owner's closing day.
func (s *Store) ClearClosingDay(ctx context.Context, owner int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM closing_config WHERE owner = ?", owner)
		return err
	})
}

// ClosingDay returns the owner's closing day; ok is false when unset.
func (s *Store) ClosingDay(ctx context.Context, owner int64) (day int, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, "SELECT closing_day FROM closing_config WHERE owner = ?", owner).Scan(&day)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return day, true, nil
}

// ClosingConfigs returns every configured closing day, ordered by owner.
func (s *Store) ClosingConfigs(ctx context.Context) ([]model.ClosingConfig, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT owner, closing_day FROM closing_config ORDER BY owner")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.ClosingConfig
	for rows.Next() {
		var c model.ClosingConfig
		if err := rows.Scan(&c.Owner, &c.ClosingDay); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// LookupPayee returns the envelope remembered for the normalized payee key.
// When several rows exist the oldest wins.
func (s *Store) LookupPayee(ctx context.Context, owner int64, payeeKey string) (envelopeID int64, ok bool, err error) {
	err = s.db.QueryRowContext(ctx,
		"SELECT envelope_id FROM payee_memory WHERE owner = ? AND payee_key = ? ORDER BY id LIMIT 1",
		owner, payeeKey).Scan(&envelopeID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return envelopeID, true, nil
}

// RememberPayee upserts the payee → envelope mapping.
func (s *Store) RememberPayee(ctx context.Context, owner int64, payeeKey string, envelopeID int64, at time.Time) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO payee_memory (owner, payee_key, envelope_id, created_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(owner, payee_key) DO UPDATE SET envelope_id = excluded.envelope_id`,
			owner, payeeKey, envelopeID, formatTime(at))
		return err
	})
}
