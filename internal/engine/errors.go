package engine

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotActive          = errors.New("session_not_active")
	ErrNotYourTurn        = errors.New("not_your_turn")
	ErrNotParticipant     = errors.New("not_a_participant")
	ErrNotForming         = errors.New("lobby_not_open")
	ErrNotHost            = errors.New("not_host")
	ErrLobbyFull          = errors.New("lobby_full")
	ErrAlreadyJoined      = errors.New("already_joined")
	ErrNotEnoughPlayers   = errors.New("not_enough_players")
	ErrBotsNotAllowed     = errors.New("bots_not_allowed")
	ErrUnknownKind        = errors.New("unknown_game")
	ErrUnknownVariant     = errors.New("unknown_variant")
	ErrLobbyGame          = errors.New("lobby_game")
	ErrNotLobbyGame       = errors.New("not_a_lobby_game")
	ErrInvalidAction      = errors.New("invalid_action")
	ErrInvalidParticipant = errors.New("invalid_participant")
	ErrSelfChallenge      = errors.New("cannot_challenge_self")
	ErrNotInvitee         = errors.New("not_invitee")
	ErrNotOver            = errors.New("session_not_over")
	ErrCooldown           = errors.New("cooldown_active")

	ErrStaleTurn      = errors.New("stale_turn")
	ErrInviteResolved = errors.New("invite_already_resolved")

	ErrSessionNotFound = errors.New("session_not_found")
	ErrInviteNotFound  = errors.New("invite_not_found")
)

// AlreadyInSessionError is returned when a participant is already mapped to another session.
type AlreadyInSessionError struct {
	ParticipantID string
	SessionID     string
}

func (e *AlreadyInSessionError) Error() string {
	return fmt.Sprintf("participant_already_in_session: %s in %s", e.ParticipantID, e.SessionID)
}

// RuleError is a game-specific rejection such as marking a taken cell.
type RuleError struct {
	Reason string
}

func (e *RuleError) Error() string {
	return e.Reason
}

func Rule(reason string) error {
	return &RuleError{Reason: reason}
}

type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("cooldown_active: %ds left", int(e.Remaining.Round(time.Second)/time.Second))
}

func (e *CooldownError) Is(target error) bool {
	return target == ErrCooldown
}

// CollaboratorError wraps a presenter or recorder failure.
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

type ErrorClass int

const (
	ClassNone ErrorClass = iota
	ClassValidation
	ClassConflict
	ClassCollaborator
	ClassInvariant
)

func (c ErrorClass) String() string {
	switch c {
	case ClassValidation:
		return "validation"
	case ClassConflict:
		return "conflict"
	case ClassCollaborator:
		return "collaborator"
	case ClassInvariant:
		return "invariant"
	default:
		return "none"
	}
}

func Classify(err error) ErrorClass {
	if err == nil {
		return ClassNone
	}
	var already *AlreadyInSessionError
	var ruleErr *RuleError
	var collab *CollaboratorError
	switch {
	case errors.As(err, &already),
		errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrInviteNotFound):
		return ClassInvariant
	case errors.Is(err, ErrStaleTurn), errors.Is(err, ErrInviteResolved):
		return ClassConflict
	case errors.As(err, &collab):
		return ClassCollaborator
	case errors.As(err, &ruleErr):
		return ClassValidation
	default:
		return ClassValidation
	}
}

var codedErrors = []error{
	ErrNotActive, ErrNotYourTurn, ErrNotParticipant, ErrNotForming, ErrNotHost, ErrLobbyFull,
	ErrAlreadyJoined, ErrNotEnoughPlayers, ErrBotsNotAllowed, ErrUnknownKind, ErrUnknownVariant,
	ErrLobbyGame, ErrNotLobbyGame, ErrInvalidAction, ErrInvalidParticipant, ErrSelfChallenge,
	ErrNotInvitee, ErrNotOver, ErrCooldown, ErrStaleTurn, ErrInviteResolved, ErrSessionNotFound,
	ErrInviteNotFound,
}

// Code returns the stable snake_case code clients see for err.
func Code(err error) string {
	if err == nil {
		return ""
	}
	var already *AlreadyInSessionError
	if errors.As(err, &already) {
		return "participant_already_in_session"
	}
	var ruleErr *RuleError
	if errors.As(err, &ruleErr) {
		return ruleErr.Reason
	}
	for _, known := range codedErrors {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	var collab *CollaboratorError
	if errors.As(err, &collab) {
		return collab.Op + "_failed"
	}
	return "internal_error"
}
