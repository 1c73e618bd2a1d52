package httptransport

import (
	"context"
	"net/http"

	"hexa-arcade/internal/store"
	"hexa-arcade/internal/stream"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// StatsQueries answers the stats and leaderboard routes.
type StatsQueries interface {
	Stats(ctx context.Context, scope, kind, userID string) ([]store.GameStats, error)
	Leaderboard(ctx context.Context, scope, kind, variant string, limit int) ([]store.LeaderboardEntry, error)
}

// Economy answers the balance routes.
type Economy interface {
	Balance(ctx context.Context, userID string) (int64, error)
	Richest(ctx context.Context, limit int) ([]store.Account, error)
}

type PublicHandlers struct {
	arcade  Arcade
	stats   StatsQueries
	economy Economy
	feed    *stream.Feed
}

func NewPublicHandlers(arcade Arcade, stats StatsQueries, economy Economy, feed *stream.Feed) *PublicHandlers {
	return &PublicHandlers{arcade: arcade, stats: stats, economy: economy, feed: feed}
}

func (h *PublicHandlers) Stats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind := chi.URLParam(r, "kind")
		userID := chi.URLParam(r, "user_id")
		rows, err := h.stats.Stats(r.Context(), r.URL.Query().Get("scope"), kind, userID)
		if err != nil {
			status, code := mapStatsErr(err)
			WriteHTTPError(w, status, code)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"kind": kind, "user_id": userID, "items": rows})
	}
}

func (h *PublicHandlers) Leaderboard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind := chi.URLParam(r, "kind")
		q := r.URL.Query()
		limit := ParseLimit(r, 10, 100)
		rows, err := h.stats.Leaderboard(r.Context(), q.Get("scope"), kind, q.Get("variant"), limit)
		if err != nil {
			status, code := mapStatsErr(err)
			WriteHTTPError(w, status, code)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"kind": kind, "items": rows, "limit": limit})
	}
}

func (h *PublicHandlers) Balance() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "user_id")
		bal, err := h.economy.Balance(r.Context(), userID)
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user_id": userID, "balance": bal})
	}
}

func (h *PublicHandlers) BalanceLeaderboard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := ParseLimit(r, 10, 100)
		rows, err := h.economy.Richest(r.Context(), limit)
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": rows, "limit": limit})
	}
}

func (h *PublicHandlers) SessionEvents() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "session_id")
		snap, err := h.arcade.Snapshot(sessionID)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		h.serveStream(w, r, h.feed.Attach(snap), sessionID)
	}
}

func (h *PublicHandlers) LobbyEvents() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.serveStream(w, r, h.feed.Lobby(), "")
	}
}

func (h *PublicHandlers) serveStream(w http.ResponseWriter, r *http.Request, buf *stream.Buffer, sessionID string) {
	if _, ok := w.(http.Flusher); !ok {
		WriteHTTPError(w, http.StatusInternalServerError, "stream_not_supported")
		return
	}
	metricSSEConnectionsTotal.Add(1)
	metricSSEConnectionsActive.Add(1)
	defer metricSSEConnectionsActive.Add(-1)

	log.Info().
		Str("request_id", chimw.GetReqID(r.Context())).
		Str("session_id", sessionID).
		Msg("sse stream opened")
	stream.ServeSSE(w, r, buf)
	log.Info().
		Str("request_id", chimw.GetReqID(r.Context())).
		Str("session_id", sessionID).
		Msg("sse stream closed")
}
