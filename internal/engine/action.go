package engine

import "strings"

type ActionKind string

const (
	ActionMove    ActionKind = "move"
	ActionForfeit ActionKind = "forfeit"
	ActionJoin    ActionKind = "join"
	ActionStart   ActionKind = "start"
	ActionLeave   ActionKind = "leave"
)

func ParseActionKind(v string) (ActionKind, bool) {
	switch k := ActionKind(strings.ToLower(strings.TrimSpace(v))); k {
	case ActionMove, ActionForfeit, ActionJoin, ActionStart, ActionLeave:
		return k, true
	default:
		return "", false
	}
}

// Move is the game-specific part of an action. Type names the move ("punch", "mark",
// "flip", "draw") and Index carries a cell or a target seat where the game needs one.
type Move struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
}

type Action struct {
	Kind ActionKind `json:"kind"`
	Move Move       `json:"move"`
	// Turn, when non-zero, must equal the turn token the actor last saw.
	Turn uint64 `json:"turn,omitempty"`
}

func MoveAction(moveType string, index int) Action {
	return Action{Kind: ActionMove, Move: Move{Type: moveType, Index: index}}
}

// Applied describes an accepted action.
type Applied struct {
	TurnEnded    bool     `json:"turn_ended"`
	SessionEnded bool     `json:"session_ended"`
	Outcome      *Outcome `json:"outcome,omitempty"`
	Note         string   `json:"note,omitempty"`
}
