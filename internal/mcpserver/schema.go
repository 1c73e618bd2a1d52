package mcpserver

import (
	"strings"

	"hexa-arcade/internal/engine"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

func clampLimit(limit, maxLimit int) int {
	if limit <= 0 {
		return defaultLeaderboardLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func normalizeTier(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return engine.TierSimple
	}
	return v
}

// actionFor builds the engine action for a tool call. An empty kind is a move.
func actionFor(kind, moveType string, index int, turn uint64) (engine.Action, bool) {
	k := engine.ActionMove
	if kind = strings.TrimSpace(kind); kind != "" {
		parsed, ok := engine.ParseActionKind(kind)
		if !ok {
			return engine.Action{}, false
		}
		k = parsed
	}
	if k == engine.ActionMove && strings.TrimSpace(moveType) == "" {
		return engine.Action{}, false
	}
	return engine.Action{Kind: k, Move: engine.Move{Type: strings.TrimSpace(moveType), Index: index}, Turn: turn}, true
}
