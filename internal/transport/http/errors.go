package httptransport

import (
	"errors"
	"net/http"

	"hexa-arcade/internal/engine"
	"hexa-arcade/internal/stats"
)

// mapEngineErr returns the HTTP status and stable code for a coordinator error.
func mapEngineErr(err error) (int, string) {
	code := engine.Code(err)
	var already *engine.AlreadyInSessionError
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, engine.ErrSessionNotFound),
		errors.Is(err, engine.ErrInviteNotFound),
		errors.Is(err, engine.ErrUnknownKind):
		return http.StatusNotFound, code
	case errors.Is(err, engine.ErrCooldown):
		return http.StatusTooManyRequests, code
	case errors.Is(err, engine.ErrNotParticipant),
		errors.Is(err, engine.ErrNotHost),
		errors.Is(err, engine.ErrNotInvitee):
		return http.StatusForbidden, code
	case errors.As(err, &already),
		errors.Is(err, engine.ErrNotActive),
		errors.Is(err, engine.ErrNotForming),
		errors.Is(err, engine.ErrLobbyFull),
		errors.Is(err, engine.ErrAlreadyJoined),
		errors.Is(err, engine.ErrNotOver):
		return http.StatusConflict, code
	}
	switch engine.Classify(err) {
	case engine.ClassConflict:
		return http.StatusConflict, code
	case engine.ClassCollaborator:
		return http.StatusBadGateway, code
	}
	if code == "internal_error" {
		return http.StatusInternalServerError, code
	}
	return http.StatusBadRequest, code
}

func writeEngineError(w http.ResponseWriter, err error) {
	status, code := mapEngineErr(err)
	WriteHTTPError(w, status, code)
}

func mapStatsErr(err error) (int, string) {
	switch {
	case errors.Is(err, stats.ErrUnknownKind):
		return http.StatusNotFound, "unknown_game"
	case errors.Is(err, stats.ErrUnknownVariant):
		return http.StatusBadRequest, "unknown_variant"
	case errors.Is(err, stats.ErrNoStats):
		return http.StatusNotFound, "no_stats"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
