package store

import (
	"context"
	"encoding/json"
)

// RecordSessionResult archives an outcome. Recording the same session twice is a no-op.
func (s *Store) RecordSessionResult(ctx context.Context, r SessionResult) error {
	participants, err := json.Marshal(nonNil(r.Participants))
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, `
INSERT INTO session_results (session_id, scope, game_kind, variant, outcome_kind, reason, winner_id, loser_id,
  participants, turns, started_at, ended_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (session_id) DO NOTHING`,
		r.SessionID, r.Scope, r.Kind, r.Variant, r.OutcomeKind, r.Reason, r.WinnerID, r.LoserID,
		participants, r.Turns, r.StartedAt, r.EndedAt)
	return err
}

func (s *Store) GetSessionResult(ctx context.Context, sessionID string) (*SessionResult, error) {
	var r SessionResult
	var participants []byte
	err := s.Pool.QueryRow(ctx, `
SELECT session_id, scope, game_kind, variant, outcome_kind, reason, winner_id, loser_id,
  participants, turns, started_at, ended_at
FROM session_results WHERE session_id = $1`, sessionID).Scan(
		&r.SessionID, &r.Scope, &r.Kind, &r.Variant, &r.OutcomeKind, &r.Reason, &r.WinnerID, &r.LoserID,
		&participants, &r.Turns, &r.StartedAt, &r.EndedAt)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if err := json.Unmarshal(participants, &r.Participants); err != nil {
		return nil, err
	}
	return &r, nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
