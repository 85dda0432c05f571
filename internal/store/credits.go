package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cheercheung/chatrecap-sub001/internal/errs"
)

// Balance returns a user's credit balance. Users without a row have the
// starting balance.
func (s *Store) Balance(ctx context.Context, userID string) (int, error) {
	var balance int
	err := s.pool.QueryRow(ctx, `SELECT balance FROM credit_balances WHERE user_id = $1`, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return s.startingCredits, nil
	}
	if err != nil {
		return 0, errs.Wrap(err, errs.StorageFailure, "could not read credits")
	}
	return balance, nil
}

// SetBalance creates or overwrites a user's balance.
func (s *Store) SetBalance(ctx context.Context, userID string, amount int) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO credit_balances (user_id, balance, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id)
		DO UPDATE SET balance = $2, updated_at = now()`,
		userID, amount,
	)
	if err != nil {
		return errs.Wrap(err, errs.StorageFailure, "could not write credits")
	}
	return nil
}

func (s *Store) HasSufficientCredits(ctx context.Context, userID string, amount int) (bool, error) {
	if amount <= 0 {
		return true, nil
	}
	balance, err := s.Balance(ctx, userID)
	if err != nil {
		return false, err
	}
	return balance >= amount, nil
}

// Consume decrements the balance only when it covers amount and records the
// ledger entry in the same transaction. It reports false when it does not.
func (s *Store) Consume(ctx context.Context, userID string, amount int, fileID, reason string) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, errs.Wrap(err, errs.StorageFailure, "could not charge credits")
	}
	defer tx.Rollback(ctx)

	if amount > 0 {
		_, err := tx.Exec(ctx, `
			INSERT INTO credit_balances (user_id, balance, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (user_id) DO NOTHING`,
			userID, s.startingCredits,
		)
		if err != nil {
			return false, errs.Wrap(err, errs.StorageFailure, "could not charge credits")
		}
		tag, err := tx.Exec(ctx, `
			UPDATE credit_balances SET balance = balance - $2, updated_at = now()
			WHERE user_id = $1 AND balance >= $2`,
			userID, amount,
		)
		if err != nil {
			return false, errs.Wrap(err, errs.StorageFailure, "could not charge credits")
		}
		if tag.RowsAffected() == 0 {
			return false, nil
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO credit_ledger (id, user_id, amount, file_id, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, now())`,
		uuid.New(), userID, amount, fileID, reason,
	)
	if err != nil {
		return false, errs.Wrap(err, errs.StorageFailure, "could not record credit use")
	}

	if err := tx.Commit(ctx); err != nil {
		return false, errs.Wrap(err, errs.StorageFailure, "could not charge credits")
	}
	return true, nil
}
