package ledger

import (
	"context"
	"errors"
	"fmt"

	"hexa-arcade/internal/store"
)

const (
	EntryWinReward = "win_reward"
	RefSession     = "session"
)

// Accounts is the slice of the repository the ledger writes through.
type Accounts interface {
	EnsureAccount(ctx context.Context, userID, displayName string, initial int64) error
	Credit(ctx context.Context, userID string, amount int64, entryType, refType, refID string) (int64, error)
	GetBalance(ctx context.Context, userID string) (int64, error)
	BalanceLeaderboard(ctx context.Context, limit int) ([]store.Account, error)
}

type Ledger struct {
	Accounts Accounts
	Reward   int64
}

func New(a Accounts, reward int64) *Ledger {
	return &Ledger{Accounts: a, Reward: reward}
}

// CreditWin pays the configured reward to a session winner, opening the account on first win.
func (l *Ledger) CreditWin(ctx context.Context, userID, displayName, sessionID string) (int64, error) {
	if l.Reward <= 0 {
		return 0, nil
	}
	if err := l.Accounts.EnsureAccount(ctx, userID, displayName, 0); err != nil {
		return 0, fmt.Errorf("ensure account: %w", err)
	}
	return l.Accounts.Credit(ctx, userID, l.Reward, EntryWinReward, RefSession, sessionID)
}

// Balance reports zero for users who have never been paid.
func (l *Ledger) Balance(ctx context.Context, userID string) (int64, error) {
	bal, err := l.Accounts.GetBalance(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	return bal, err
}

func (l *Ledger) Richest(ctx context.Context, limit int) ([]store.Account, error) {
	return l.Accounts.BalanceLeaderboard(ctx, limit)
}
