package httptransport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"hexa-arcade/internal/engine"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type AdminHandlers struct {
	db     Pinger
	arcade Arcade
}

func NewAdminHandlers(db Pinger, arcade Arcade) *AdminHandlers {
	return &AdminHandlers{db: db, arcade: arcade}
}

func (h *AdminHandlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.db == nil {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true, "db": "none"})
			return
		}
		if err := h.db.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "db": "down"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "db": "up"})
	}
}

// AbortSession ends a session with no winner. The body is optional.
func (h *AdminHandlers) AbortSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Reason string `json:"reason"`
		}
		if r.ContentLength != 0 {
			if err := decodeBody(r, &body); err != nil && !errors.Is(err, io.EOF) {
				WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
				return
			}
		}
		sessionID := chi.URLParam(r, "session_id")
		reason := engine.ReasonAdmin
		if v := strings.TrimSpace(body.Reason); v != "" {
			reason = engine.Reason(v)
		}
		if err := h.arcade.Abort(r.Context(), sessionID, reason); err != nil {
			writeEngineError(w, err)
			return
		}
		log.Warn().Str("session_id", sessionID).Str("reason", string(reason)).Msg("session aborted by admin")
		snap, _ := h.arcade.Snapshot(sessionID)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "session": snap})
	}
}
