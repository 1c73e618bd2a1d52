// Package storetest holds behavior checks shared by every repository driver.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"hexa-arcade/internal/store"
)

// Repository is the surface both the Postgres and SQLite stores provide.
type Repository interface {
	UpsertStats(ctx context.Context, line store.StatLine) error
	GetStats(ctx context.Context, scope, kind, userID string) ([]store.GameStats, error)
	Leaderboard(ctx context.Context, q store.LeaderboardQuery) ([]store.LeaderboardEntry, error)
	EnsureAccount(ctx context.Context, userID, displayName string, initial int64) error
	GetBalance(ctx context.Context, userID string) (int64, error)
	Credit(ctx context.Context, userID string, amount int64, entryType, refType, refID string) (int64, error)
	Debit(ctx context.Context, userID string, amount int64, entryType, refType, refID string) (int64, error)
	BalanceLeaderboard(ctx context.Context, limit int) ([]store.Account, error)
	ListLedgerEntries(ctx context.Context, userID string, limit int) ([]store.LedgerEntry, error)
	RecordSessionResult(ctx context.Context, r store.SessionResult) error
	GetSessionResult(ctx context.Context, sessionID string) (*store.SessionResult, error)
}

// Run exercises repo against the shared expectations.
func Run(t *testing.T, repo Repository) {
	t.Run("StatsAccumulate", func(t *testing.T) { statsAccumulate(t, repo) })
	t.Run("BestsKeepMinimum", func(t *testing.T) { bestsKeepMinimum(t, repo) })
	t.Run("LeaderboardOrder", func(t *testing.T) { leaderboardOrder(t, repo) })
	t.Run("Accounts", func(t *testing.T) { accounts(t, repo) })
	t.Run("SessionResults", func(t *testing.T) { sessionResults(t, repo) })
}

func statsAccumulate(t *testing.T, repo Repository) {
	ctx := context.Background()
	base := store.StatLine{Scope: "g1", Kind: "duel", UserID: "u1", DisplayName: "Alice", Turns: 4, Duration: 2 * time.Second}
	win := base
	win.Win = true
	loss := base
	loss.Loss = true
	loss.DisplayName = "Alice2"
	for _, l := range []store.StatLine{win, win, loss} {
		if err := repo.UpsertStats(ctx, l); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	rows, err := repo.GetStats(ctx, "g1", "duel", "u1")
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	g := rows[0]
	if g.GamesPlayed != 3 || g.Wins != 2 || g.Losses != 1 || g.Draws != 0 {
		t.Fatalf("unexpected counters: %+v", g)
	}
	if g.TotalTurns != 12 || g.TotalTimeMS != 6000 {
		t.Fatalf("unexpected totals: turns=%d time=%d", g.TotalTurns, g.TotalTimeMS)
	}
	if g.DisplayName != "Alice2" {
		t.Fatalf("expected latest display name, got %q", g.DisplayName)
	}
	if g.BestTimeMS != nil || g.BestPlacement != nil {
		t.Fatalf("expected no bests, got time=%v placement=%v", g.BestTimeMS, g.BestPlacement)
	}
	if _, err := repo.GetStats(ctx, "g1", "duel", "nobody"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func bestsKeepMinimum(t *testing.T, repo Repository) {
	ctx := context.Background()
	lines := []store.StatLine{
		{Scope: "g1", Kind: "flipfind", Variant: "hard", UserID: "u2", Win: true, Turns: 12, Duration: 40 * time.Second, Stars: 1, RecordBest: true},
		{Scope: "g1", Kind: "flipfind", Variant: "hard", UserID: "u2", Loss: true, Turns: 5, Duration: 10 * time.Second},
		{Scope: "g1", Kind: "flipfind", Variant: "hard", UserID: "u2", Win: true, Turns: 9, Duration: 55 * time.Second, RecordBest: true},
	}
	for _, l := range lines {
		if err := repo.UpsertStats(ctx, l); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	rows, err := repo.GetStats(ctx, "g1", "flipfind", "u2")
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	g := rows[0]
	if g.BestTimeMS == nil || *g.BestTimeMS != 40000 {
		t.Fatalf("best time = %v, want 40000", g.BestTimeMS)
	}
	if g.BestTurns == nil || *g.BestTurns != 9 {
		t.Fatalf("best turns = %v, want 9", g.BestTurns)
	}
	if g.StarCards != 1 {
		t.Fatalf("star cards = %d, want 1", g.StarCards)
	}

	jack := []store.StatLine{
		{Scope: "g1", Kind: "jack", UserID: "u2", Escaped: true, Placement: 3},
		{Scope: "g1", Kind: "jack", UserID: "u2", Escaped: true, Placement: 1},
		{Scope: "g1", Kind: "jack", UserID: "u2", Kidnapper: true, Loss: true, Placement: 4},
	}
	for _, l := range jack {
		if err := repo.UpsertStats(ctx, l); err != nil {
			t.Fatalf("upsert jack: %v", err)
		}
	}
	rows, err = repo.GetStats(ctx, "g1", "jack", "u2")
	if err != nil {
		t.Fatalf("get jack stats: %v", err)
	}
	g = rows[0]
	if g.BestPlacement == nil || *g.BestPlacement != 1 || g.PlacementSum != 8 {
		t.Fatalf("placement best=%v sum=%d", g.BestPlacement, g.PlacementSum)
	}
	if g.Escapes != 2 || g.KidnapperCount != 1 {
		t.Fatalf("escapes=%d kidnapper=%d", g.Escapes, g.KidnapperCount)
	}
}

func leaderboardOrder(t *testing.T, repo Repository) {
	ctx := context.Background()
	add := func(user string, win bool, n int) {
		for i := 0; i < n; i++ {
			l := store.StatLine{Scope: "board", Kind: "tictactoe", UserID: user, Win: win, Loss: !win}
			if err := repo.UpsertStats(ctx, l); err != nil {
				t.Fatalf("upsert: %v", err)
			}
		}
	}
	add("carol", true, 3)
	add("bob", true, 1)
	add("alice", true, 3)
	add("alice", false, 1)
	got, err := repo.Leaderboard(ctx, store.LeaderboardQuery{Scope: "board", Kind: "tictactoe", Order: store.OrderWins, Limit: 2})
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].UserID != "carol" || got[0].Rank != 1 || got[1].UserID != "alice" || got[1].Rank != 2 {
		t.Fatalf("unexpected order: %+v", got)
	}
	empty, err := repo.Leaderboard(ctx, store.LeaderboardQuery{Scope: "other", Kind: "tictactoe"})
	if err != nil {
		t.Fatalf("empty leaderboard: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty leaderboard, got %d", len(empty))
	}
}

func accounts(t *testing.T, repo Repository) {
	ctx := context.Background()
	if err := repo.EnsureAccount(ctx, "acct-a", "A", 100); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if err := repo.EnsureAccount(ctx, "acct-a", "A", 999); err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if err := repo.EnsureAccount(ctx, "acct-b", "B", 10); err != nil {
		t.Fatalf("ensure b: %v", err)
	}
	bal, err := repo.Credit(ctx, "acct-a", 25, "win_reward", "session", "s1")
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if bal != 125 {
		t.Fatalf("balance after credit = %d, want 125", bal)
	}
	if _, err := repo.Debit(ctx, "acct-b", 11, "spend", "", ""); !errors.Is(err, store.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	if _, err := repo.Credit(ctx, "acct-a", 0, "noop", "", ""); !errors.Is(err, store.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	if _, err := repo.Credit(ctx, "missing", 5, "win_reward", "", ""); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	got, err := repo.GetBalance(ctx, "acct-b")
	if err != nil || got != 10 {
		t.Fatalf("balance b = %d err=%v, want 10", got, err)
	}
	entries, err := repo.ListLedgerEntries(ctx, "acct-a", 10)
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	if len(entries) != 1 || entries[0].Amount != 25 || entries[0].RefID != "s1" {
		t.Fatalf("unexpected ledger entries: %+v", entries)
	}
	board, err := repo.BalanceLeaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("balance leaderboard: %v", err)
	}
	if len(board) < 2 || board[0].UserID != "acct-a" {
		t.Fatalf("unexpected balance leaderboard: %+v", board)
	}
}

func sessionResults(t *testing.T, repo Repository) {
	ctx := context.Background()
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r := store.SessionResult{
		SessionID:    "sess-1",
		Scope:        "g1",
		Kind:         "duel",
		Variant:      "poison",
		OutcomeKind:  "winner",
		Reason:       "timeout",
		WinnerID:     "u1",
		LoserID:      "u2",
		Participants: []string{"u1", "u2"},
		Turns:        7,
		StartedAt:    start,
		EndedAt:      start.Add(time.Minute),
	}
	if err := repo.RecordSessionResult(ctx, r); err != nil {
		t.Fatalf("record: %v", err)
	}
	dup := r
	dup.WinnerID = "u2"
	if err := repo.RecordSessionResult(ctx, dup); err != nil {
		t.Fatalf("record duplicate: %v", err)
	}
	got, err := repo.GetSessionResult(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.WinnerID != "u1" || got.Reason != "timeout" || len(got.Participants) != 2 {
		t.Fatalf("unexpected result: %+v", got)
	}
	if !got.EndedAt.Equal(r.EndedAt) {
		t.Fatalf("ended_at = %v, want %v", got.EndedAt, r.EndedAt)
	}
	if _, err := repo.GetSessionResult(ctx, "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
