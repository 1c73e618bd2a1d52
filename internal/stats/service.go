package stats

import (
	"context"
	"errors"

	"hexa-arcade/internal/games/duel"
	"hexa-arcade/internal/games/flipfind"
	"hexa-arcade/internal/games/jack"
	"hexa-arcade/internal/games/tictactoe"
	"hexa-arcade/internal/store"
)

var (
	ErrUnknownKind    = errors.New("unknown_kind")
	ErrUnknownVariant = errors.New("unknown_variant")
	ErrNoStats        = errors.New("no_stats")
)

// Reader is the repository surface the query service needs.
type Reader interface {
	GetStats(ctx context.Context, scope, kind, userID string) ([]store.GameStats, error)
	Leaderboard(ctx context.Context, q store.LeaderboardQuery) ([]store.LeaderboardEntry, error)
}

type Service struct {
	reader Reader
}

func NewService(r Reader) *Service {
	return &Service{reader: r}
}

// Stats returns every variant row a user has for kind.
func (s *Service) Stats(ctx context.Context, scope, kind, userID string) ([]store.GameStats, error) {
	if _, ok := orders[kind]; !ok {
		return nil, ErrUnknownKind
	}
	rows, err := s.reader.GetStats(ctx, scope, kind, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoStats
	}
	return rows, err
}

func (s *Service) Leaderboard(ctx context.Context, scope, kind, variant string, limit int) ([]store.LeaderboardEntry, error) {
	order, ok := orders[kind]
	if !ok {
		return nil, ErrUnknownKind
	}
	if kind == flipfind.Kind && variant != "" && !validDifficulty(variant) {
		return nil, ErrUnknownVariant
	}
	return s.reader.Leaderboard(ctx, store.LeaderboardQuery{
		Scope:   scope,
		Kind:    kind,
		Variant: VariantKey(kind, variant),
		Order:   order,
		Limit:   limit,
	})
}

var orders = map[string]store.LeaderboardOrder{
	duel.Kind:      store.OrderWins,
	tictactoe.Kind: store.OrderWins,
	flipfind.Kind:  store.OrderWinsStars,
	jack.Kind:      store.OrderEscapes,
}

func validDifficulty(v string) bool {
	for _, d := range flipfind.NewRules(0).Variants() {
		if d == v {
			return true
		}
	}
	return false
}
