package store

import (
	"context"

	"github.com/jackc/pgx/v5"
)

func (s *Store) EnsureAccount(ctx context.Context, userID, displayName string, initial int64) error {
	_, err := s.Pool.Exec(ctx, `
INSERT INTO accounts (user_id, display_name, balance)
VALUES ($1, $2, $3)
ON CONFLICT (user_id) DO UPDATE SET display_name = EXCLUDED.display_name
WHERE EXCLUDED.display_name <> ''`, userID, displayName, initial)
	return err
}

func (s *Store) GetBalance(ctx context.Context, userID string) (int64, error) {
	var bal int64
	err := s.Pool.QueryRow(ctx, `SELECT balance FROM accounts WHERE user_id = $1`, userID).Scan(&bal)
	if err != nil {
		return 0, mapNotFound(err)
	}
	return bal, nil
}

// Credit adds amount to the account and appends a ledger entry in the same transaction.
func (s *Store) Credit(ctx context.Context, userID string, amount int64, entryType, refType, refID string) (int64, error) {
	return s.adjust(ctx, userID, amount, entryType, refType, refID)
}

// Debit is Credit's inverse; it refuses to take the balance below zero.
func (s *Store) Debit(ctx context.Context, userID string, amount int64, entryType, refType, refID string) (int64, error) {
	return s.adjust(ctx, userID, -amount, entryType, refType, refID)
}

func (s *Store) adjust(ctx context.Context, userID string, delta int64, entryType, refType, refID string) (int64, error) {
	if delta == 0 {
		return 0, ErrInvalidAmount
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var bal int64
	if err := tx.QueryRow(ctx, `SELECT balance FROM accounts WHERE user_id = $1 FOR UPDATE`, userID).Scan(&bal); err != nil {
		return 0, mapNotFound(err)
	}
	newBal := bal + delta
	if newBal < 0 {
		return 0, ErrInsufficientBalance
	}
	if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = $1, updated_at = now() WHERE user_id = $2`, newBal, userID); err != nil {
		return 0, err
	}
	if _, err := tx.Exec(ctx, `
INSERT INTO ledger_entries (id, user_id, type, amount, ref_type, ref_id)
VALUES ($1, $2, $3, $4, $5, $6)`, NewID(), userID, entryType, delta, refType, refID); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return newBal, nil
}

func (s *Store) BalanceLeaderboard(ctx context.Context, limit int) ([]Account, error) {
	rows, err := s.Pool.Query(ctx, `
SELECT user_id, display_name, balance, updated_at
FROM accounts
ORDER BY balance DESC, user_id ASC
LIMIT $1`, NormalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Account{}
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.UserID, &a.DisplayName, &a.Balance, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) ListLedgerEntries(ctx context.Context, userID string, limit int) ([]LedgerEntry, error) {
	rows, err := s.Pool.Query(ctx, `
SELECT id, user_id, type, amount, ref_type, ref_id, created_at
FROM ledger_entries
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2`, userID, NormalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []LedgerEntry{}
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Type, &e.Amount, &e.RefType, &e.RefID, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
