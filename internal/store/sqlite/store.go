// Package sqlite provides the SQLite rendition of the arcade repository for local runs.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"hexa-arcade/internal/store"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// Store persists stats, accounts and results in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// Open opens path (or ":memory:") and applies the embedded schema.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := ":memory:"
	if path != ":memory:" {
		dsn = filepath.Clean(path)
	}
	dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection keeps ":memory:" a single database and serializes writers.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.db.PingContext(ctx)
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// minKeep picks the smaller of the stored and incoming value, ignoring NULLs on either side.
func minKeep(col string) string {
	return fmt.Sprintf(`CASE
    WHEN excluded.%[1]s IS NULL THEN game_stats.%[1]s
    WHEN game_stats.%[1]s IS NULL OR excluded.%[1]s < game_stats.%[1]s THEN excluded.%[1]s
    ELSE game_stats.%[1]s END`, col)
}

var upsertStatsSQL = `
INSERT INTO game_stats (scope, game_kind, variant, user_id, display_name, games_played, wins, losses, draws,
  escapes, kidnapper_count, total_turns, total_time_ms, best_time_ms, best_turns, star_cards,
  best_placement, placement_sum, updated_at)
VALUES (?, ?, ?, ?, ?, 1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (scope, game_kind, variant, user_id) DO UPDATE SET
  display_name = excluded.display_name,
  games_played = game_stats.games_played + 1,
  wins = game_stats.wins + excluded.wins,
  losses = game_stats.losses + excluded.losses,
  draws = game_stats.draws + excluded.draws,
  escapes = game_stats.escapes + excluded.escapes,
  kidnapper_count = game_stats.kidnapper_count + excluded.kidnapper_count,
  total_turns = game_stats.total_turns + excluded.total_turns,
  total_time_ms = game_stats.total_time_ms + excluded.total_time_ms,
  best_time_ms = ` + minKeep("best_time_ms") + `,
  best_turns = ` + minKeep("best_turns") + `,
  star_cards = game_stats.star_cards + excluded.star_cards,
  best_placement = ` + minKeep("best_placement") + `,
  placement_sum = game_stats.placement_sum + excluded.placement_sum,
  updated_at = excluded.updated_at`

const statsColumns = `scope, game_kind, variant, user_id, display_name, games_played, wins, losses, draws,
  escapes, kidnapper_count, total_turns, total_time_ms, best_time_ms, best_turns, star_cards,
  best_placement, placement_sum, updated_at`

func (s *Store) UpsertStats(ctx context.Context, line store.StatLine) error {
	bestTime, bestTurns, placement := line.Bests()
	var placementSum int64
	if placement != nil {
		placementSum = *placement
	}
	_, err := s.db.ExecContext(ctx, upsertStatsSQL,
		line.Scope, line.Kind, line.Variant, line.UserID, line.DisplayName,
		boolInt(line.Win), boolInt(line.Loss), boolInt(line.Draw), boolInt(line.Escaped), boolInt(line.Kidnapper),
		int64(line.Turns), line.Duration.Milliseconds(), bestTime, bestTurns, int64(line.Stars),
		placement, placementSum, toMillis(s.now()),
	)
	return err
}

func (s *Store) GetStats(ctx context.Context, scope, kind, userID string) ([]store.GameStats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+statsColumns+`
FROM game_stats
WHERE scope = ? AND game_kind = ? AND user_id = ?
ORDER BY variant ASC`, scope, kind, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out, err := scanStats(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, store.ErrNotFound
	}
	return out, nil
}

func (s *Store) Leaderboard(ctx context.Context, q store.LeaderboardQuery) ([]store.LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+statsColumns+`
FROM game_stats
WHERE scope = ? AND game_kind = ? AND variant = ?
ORDER BY `+store.OrderClause(q.Order)+`
LIMIT ?`, q.Scope, q.Kind, q.Variant, store.NormalizeLimit(q.Limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	stats, err := scanStats(rows)
	if err != nil {
		return nil, err
	}
	return store.Ranked(stats), nil
}

func scanStats(rows *sql.Rows) ([]store.GameStats, error) {
	out := []store.GameStats{}
	for rows.Next() {
		var g store.GameStats
		var bestTime, bestTurns, bestPlacement sql.NullInt64
		var updated int64
		if err := rows.Scan(&g.Scope, &g.Kind, &g.Variant, &g.UserID, &g.DisplayName, &g.GamesPlayed,
			&g.Wins, &g.Losses, &g.Draws, &g.Escapes, &g.KidnapperCount, &g.TotalTurns, &g.TotalTimeMS,
			&bestTime, &bestTurns, &g.StarCards, &bestPlacement, &g.PlacementSum, &updated); err != nil {
			return nil, err
		}
		g.BestTimeMS = nullable(bestTime)
		g.BestTurns = nullable(bestTurns)
		g.BestPlacement = nullable(bestPlacement)
		g.UpdatedAt = fromMillis(updated)
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) EnsureAccount(ctx context.Context, userID, displayName string, initial int64) error {
	now := toMillis(s.now())
	_, err := s.db.ExecContext(ctx, `
INSERT INTO accounts (user_id, display_name, balance, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET display_name = excluded.display_name
WHERE excluded.display_name <> ''`, userID, displayName, initial, now, now)
	return err
}

func (s *Store) GetBalance(ctx context.Context, userID string) (int64, error) {
	var bal int64
	if err := s.db.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE user_id = ?`, userID).Scan(&bal); err != nil {
		return 0, mapNotFound(err)
	}
	return bal, nil
}

func (s *Store) Credit(ctx context.Context, userID string, amount int64, entryType, refType, refID string) (int64, error) {
	return s.adjust(ctx, userID, amount, entryType, refType, refID)
}

func (s *Store) Debit(ctx context.Context, userID string, amount int64, entryType, refType, refID string) (int64, error) {
	return s.adjust(ctx, userID, -amount, entryType, refType, refID)
}

func (s *Store) adjust(ctx context.Context, userID string, delta int64, entryType, refType, refID string) (int64, error) {
	if delta == 0 {
		return 0, store.ErrInvalidAmount
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var bal int64
	if err := tx.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE user_id = ?`, userID).Scan(&bal); err != nil {
		return 0, mapNotFound(err)
	}
	newBal := bal + delta
	if newBal < 0 {
		return 0, store.ErrInsufficientBalance
	}
	now := toMillis(s.now())
	if _, err := tx.ExecContext(ctx, `UPDATE accounts SET balance = ?, updated_at = ? WHERE user_id = ?`, newBal, now, userID); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO ledger_entries (id, user_id, type, amount, ref_type, ref_id, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`, store.NewID(), userID, entryType, delta, refType, refID, now); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return newBal, nil
}

func (s *Store) BalanceLeaderboard(ctx context.Context, limit int) ([]store.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT user_id, display_name, balance, updated_at
FROM accounts
ORDER BY balance DESC, user_id ASC
LIMIT ?`, store.NormalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []store.Account{}
	for rows.Next() {
		var a store.Account
		var updated int64
		if err := rows.Scan(&a.UserID, &a.DisplayName, &a.Balance, &updated); err != nil {
			return nil, err
		}
		a.UpdatedAt = fromMillis(updated)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) ListLedgerEntries(ctx context.Context, userID string, limit int) ([]store.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, user_id, type, amount, ref_type, ref_id, created_at
FROM ledger_entries
WHERE user_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?`, userID, store.NormalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []store.LedgerEntry{}
	for rows.Next() {
		var e store.LedgerEntry
		var created int64
		if err := rows.Scan(&e.ID, &e.UserID, &e.Type, &e.Amount, &e.RefType, &e.RefID, &created); err != nil {
			return nil, err
		}
		e.CreatedAt = fromMillis(created)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) RecordSessionResult(ctx context.Context, r store.SessionResult) error {
	ids := r.Participants
	if ids == nil {
		ids = []string{}
	}
	participants, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO session_results (session_id, scope, game_kind, variant, outcome_kind, reason, winner_id, loser_id,
  participants, turns, started_at, ended_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (session_id) DO NOTHING`,
		r.SessionID, r.Scope, r.Kind, r.Variant, r.OutcomeKind, r.Reason, r.WinnerID, r.LoserID,
		string(participants), r.Turns, toMillis(r.StartedAt), toMillis(r.EndedAt))
	return err
}

func (s *Store) GetSessionResult(ctx context.Context, sessionID string) (*store.SessionResult, error) {
	var r store.SessionResult
	var participants string
	var started, ended int64
	err := s.db.QueryRowContext(ctx, `
SELECT session_id, scope, game_kind, variant, outcome_kind, reason, winner_id, loser_id,
  participants, turns, started_at, ended_at
FROM session_results WHERE session_id = ?`, sessionID).Scan(
		&r.SessionID, &r.Scope, &r.Kind, &r.Variant, &r.OutcomeKind, &r.Reason, &r.WinnerID, &r.LoserID,
		&participants, &r.Turns, &started, &ended)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if err := json.Unmarshal([]byte(participants), &r.Participants); err != nil {
		return nil, err
	}
	r.StartedAt = fromMillis(started)
	r.EndedAt = fromMillis(ended)
	return &r, nil
}

func nullable(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
