package store

import (
	"context"

	"github.com/jackc/pgx/v5"
)

const statsColumns = `scope, game_kind, variant, user_id, display_name, games_played, wins, losses, draws,
  escapes, kidnapper_count, total_turns, total_time_ms, best_time_ms, best_turns, star_cards,
  best_placement, placement_sum, updated_at`

// UpsertStats folds one stat line into its accumulated row.
func (s *Store) UpsertStats(ctx context.Context, line StatLine) error {
	bestTime, bestTurns, placement := line.Bests()
	var placementSum int64
	if placement != nil {
		placementSum = *placement
	}
	_, err := s.Pool.Exec(ctx, `
INSERT INTO game_stats (scope, game_kind, variant, user_id, display_name, games_played, wins, losses, draws,
  escapes, kidnapper_count, total_turns, total_time_ms, best_time_ms, best_turns, star_cards,
  best_placement, placement_sum, updated_at)
VALUES ($1, $2, $3, $4, $5, 1, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, now())
ON CONFLICT (scope, game_kind, variant, user_id) DO UPDATE SET
  display_name = EXCLUDED.display_name,
  games_played = game_stats.games_played + 1,
  wins = game_stats.wins + EXCLUDED.wins,
  losses = game_stats.losses + EXCLUDED.losses,
  draws = game_stats.draws + EXCLUDED.draws,
  escapes = game_stats.escapes + EXCLUDED.escapes,
  kidnapper_count = game_stats.kidnapper_count + EXCLUDED.kidnapper_count,
  total_turns = game_stats.total_turns + EXCLUDED.total_turns,
  total_time_ms = game_stats.total_time_ms + EXCLUDED.total_time_ms,
  best_time_ms = LEAST(game_stats.best_time_ms, EXCLUDED.best_time_ms),
  best_turns = LEAST(game_stats.best_turns, EXCLUDED.best_turns),
  star_cards = game_stats.star_cards + EXCLUDED.star_cards,
  best_placement = LEAST(game_stats.best_placement, EXCLUDED.best_placement),
  placement_sum = game_stats.placement_sum + EXCLUDED.placement_sum,
  updated_at = now()`,
		line.Scope, line.Kind, line.Variant, line.UserID, line.DisplayName,
		boolInt(line.Win), boolInt(line.Loss), boolInt(line.Draw), boolInt(line.Escaped), boolInt(line.Kidnapper),
		int64(line.Turns), line.Duration.Milliseconds(), bestTime, bestTurns, int64(line.Stars),
		placement, placementSum,
	)
	return err
}

// GetStats returns every variant row a user has for one kind in one scope.
func (s *Store) GetStats(ctx context.Context, scope, kind, userID string) ([]GameStats, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+statsColumns+`
FROM game_stats
WHERE scope = $1 AND game_kind = $2 AND user_id = $3
ORDER BY variant ASC`, scope, kind, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out, err := collectStats(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

func (s *Store) Leaderboard(ctx context.Context, q LeaderboardQuery) ([]LeaderboardEntry, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+statsColumns+`
FROM game_stats
WHERE scope = $1 AND game_kind = $2 AND variant = $3
ORDER BY `+OrderClause(q.Order)+`
LIMIT $4`, q.Scope, q.Kind, q.Variant, NormalizeLimit(q.Limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	stats, err := collectStats(rows)
	if err != nil {
		return nil, err
	}
	return Ranked(stats), nil
}

func collectStats(rows pgx.Rows) ([]GameStats, error) {
	out := []GameStats{}
	for rows.Next() {
		var g GameStats
		if err := rows.Scan(&g.Scope, &g.Kind, &g.Variant, &g.UserID, &g.DisplayName, &g.GamesPlayed,
			&g.Wins, &g.Losses, &g.Draws, &g.Escapes, &g.KidnapperCount, &g.TotalTurns, &g.TotalTimeMS,
			&g.BestTimeMS, &g.BestTurns, &g.StarCards, &g.BestPlacement, &g.PlacementSum, &g.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Ranked numbers already-ordered rows starting at 1.
func Ranked(stats []GameStats) []LeaderboardEntry {
	out := make([]LeaderboardEntry, 0, len(stats))
	for i, g := range stats {
		out = append(out, LeaderboardEntry{Rank: i + 1, GameStats: g})
	}
	return out
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
