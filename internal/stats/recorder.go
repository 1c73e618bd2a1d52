// Package stats turns finished sessions into per-player statistics and answers stat and
// leaderboard queries.
package stats

import (
	"context"
	"errors"
	"fmt"

	"hexa-arcade/internal/engine"
	"hexa-arcade/internal/games/flipfind"
	"hexa-arcade/internal/games/jack"
	"hexa-arcade/internal/store"

	"github.com/rs/zerolog/log"
)

// Writer is the repository surface the recorder needs.
type Writer interface {
	UpsertStats(ctx context.Context, line store.StatLine) error
	RecordSessionResult(ctx context.Context, r store.SessionResult) error
}

// Rewarder pays session winners.
type Rewarder interface {
	CreditWin(ctx context.Context, userID, displayName, sessionID string) (int64, error)
}

// Recorder implements engine.Recorder.
type Recorder struct {
	writer   Writer
	rewarder Rewarder
}

func NewRecorder(w Writer, r Rewarder) *Recorder {
	return &Recorder{writer: w, rewarder: r}
}

func (r *Recorder) RecordOutcome(ctx context.Context, rec engine.Record) error {
	if rec.StartedAt.IsZero() {
		return nil
	}
	var errs []error
	if err := r.writer.RecordSessionResult(ctx, Result(rec)); err != nil {
		errs = append(errs, fmt.Errorf("session result: %w", err))
	}
	for _, line := range Lines(rec) {
		if err := r.writer.UpsertStats(ctx, line); err != nil {
			errs = append(errs, fmt.Errorf("stats %s: %w", line.UserID, err))
		}
	}
	if w := rec.Outcome.Winner; w != nil && !w.Automated && r.rewarder != nil {
		bal, err := r.rewarder.CreditWin(ctx, w.ID, w.DisplayName(), rec.SessionID)
		if err != nil {
			errs = append(errs, fmt.Errorf("reward %s: %w", w.ID, err))
		} else {
			log.Debug().Str("session_id", rec.SessionID).Str("user_id", w.ID).Int64("balance", bal).Msg("win reward credited")
		}
	}
	return errors.Join(errs...)
}

// Result flattens a record into its archived form.
func Result(rec engine.Record) store.SessionResult {
	out := store.SessionResult{
		SessionID:   rec.SessionID,
		Scope:       rec.Scope,
		Kind:        rec.Kind,
		Variant:     rec.Variant,
		OutcomeKind: string(rec.Outcome.Kind),
		Reason:      string(rec.Outcome.Reason),
		Turns:       rec.Turns,
		StartedAt:   rec.StartedAt,
		EndedAt:     rec.EndedAt,
	}
	if rec.Outcome.Winner != nil {
		out.WinnerID = rec.Outcome.Winner.ID
	}
	if rec.Outcome.Loser != nil {
		out.LoserID = rec.Outcome.Loser.ID
	}
	for _, p := range rec.Participants {
		out.Participants = append(out.Participants, p.ID)
	}
	return out
}

// Lines returns one stat line per human participant. Aborted sessions count for nobody.
func Lines(rec engine.Record) []store.StatLine {
	if rec.Outcome.Kind == engine.OutcomeAborted {
		return nil
	}
	var out []store.StatLine
	for _, p := range rec.Participants {
		if p.Automated {
			continue
		}
		line := store.StatLine{
			Scope:       rec.Scope,
			Kind:        rec.Kind,
			Variant:     VariantKey(rec.Kind, rec.Variant),
			UserID:      p.ID,
			DisplayName: p.DisplayName(),
			Turns:       rec.Turns,
			Duration:    rec.Duration(),
		}
		won := rec.Outcome.Winner != nil && rec.Outcome.Winner.ID == p.ID
		lost := rec.Outcome.Loser != nil && rec.Outcome.Loser.ID == p.ID
		tally := rec.Tallies[p.ID]

		switch rec.Kind {
		case flipfind.Kind:
			// A tie on pairs is a loss for both players.
			line.Win = won
			line.Loss = !won
			line.Stars = int(tally[flipfind.TallyStars])
			if n, ok := tally[flipfind.TallyTurns]; ok {
				line.Turns = int(n)
			}
			line.RecordBest = won
		case jack.Kind:
			line.Win = won
			line.Escaped = tally[jack.TallyEscaped] > 0
			line.Kidnapper = tally[jack.TallyKidnapper] > 0
			line.Loss = lost || line.Kidnapper
			line.Turns = int(tally[jack.TallyDraws])
			line.Placement = placement(rec.Outcome.Standings, p.ID)
		default:
			line.Win = won
			line.Draw = rec.Outcome.Kind == engine.OutcomeDraw
			line.Loss = !won && !line.Draw
		}
		out = append(out, line)
	}
	return out
}

// VariantKey is the variant stats are bucketed under. Only flipfind splits by difficulty.
func VariantKey(kind, variant string) string {
	if kind == flipfind.Kind {
		if variant == "" {
			return flipfind.Easy
		}
		return variant
	}
	return ""
}

func placement(standings []engine.Participant, id string) int {
	for i, p := range standings {
		if p.ID == id {
			return i + 1
		}
	}
	return 0
}
