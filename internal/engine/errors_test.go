package engine

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorClass
	}{
		{nil, ClassNone},
		{ErrNotYourTurn, ClassValidation},
		{Rule("cell_taken"), ClassValidation},
		{&CooldownError{Remaining: time.Second}, ClassValidation},
		{ErrStaleTurn, ClassConflict},
		{fmt.Errorf("accept: %w", ErrInviteResolved), ClassConflict},
		{&CollaboratorError{Op: "render", Err: errors.New("boom")}, ClassCollaborator},
		{&AlreadyInSessionError{ParticipantID: "p", SessionID: "s"}, ClassInvariant},
		{ErrSessionNotFound, ClassInvariant},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Fatalf("Classify(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}

func TestCode(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrNotYourTurn, "not_your_turn"},
		{fmt.Errorf("wrapped: %w", ErrLobbyFull), "lobby_full"},
		{Rule("cell_taken"), "cell_taken"},
		{&CooldownError{Remaining: 3 * time.Second}, "cooldown_active"},
		{&AlreadyInSessionError{ParticipantID: "p", SessionID: "s"}, "participant_already_in_session"},
		{&CollaboratorError{Op: "render", Err: errors.New("boom")}, "render_failed"},
		{errors.New("something else"), "internal_error"},
	}
	for _, tc := range cases {
		if got := Code(tc.err); got != tc.want {
			t.Fatalf("Code(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestCooldownErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("challenge: %w", &CooldownError{Remaining: 1500 * time.Millisecond})
	if !errors.Is(err, ErrCooldown) {
		t.Fatal("expected errors.Is to match ErrCooldown")
	}
	var ce *CooldownError
	if !errors.As(err, &ce) || ce.Remaining != 1500*time.Millisecond {
		t.Fatalf("unexpected cooldown error: %v", ce)
	}
}
