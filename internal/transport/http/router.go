package httptransport

import (
	"expvar"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"hexa-arcade/internal/stream"
	"hexa-arcade/internal/ws"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// Deps are the collaborators the router serves. MCP and DB may be nil.
type Deps struct {
	Arcade      Arcade
	Stats       StatsQueries
	Economy     Economy
	Feed        *stream.Feed
	WS          *ws.Server
	DB          Pinger
	MCP         http.Handler
	AdminAPIKey string
}

func NewRouter(d Deps) *chi.Mux {
	sessions := NewSessionHandlers(d.Arcade)
	public := NewPublicHandlers(d.Arcade, d.Stats, d.Economy, d.Feed)
	admin := NewAdminHandlers(d.DB, d.Arcade)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", admin.Health())
	if d.MCP != nil {
		r.With(APILogMiddleware()).MethodFunc(http.MethodOptions, "/mcp", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Allow", "POST, GET, DELETE, OPTIONS")
			w.WriteHeader(http.StatusNoContent)
		})
		for _, m := range []string{http.MethodPost, http.MethodGet, http.MethodDelete} {
			r.With(APILogMiddleware()).Method(m, "/mcp", d.MCP)
		}
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Get("/games", sessions.Games())

		r.Post("/invites", sessions.CreateInvite())
		r.Get("/invites/{invite_id}", sessions.GetInvite())
		r.Post("/invites/{invite_id}/accept", sessions.AcceptInvite())
		r.Post("/invites/{invite_id}/decline", sessions.DeclineInvite())

		r.Post("/sessions/bot", sessions.CreateBotSession())
		r.Post("/lobbies", sessions.OpenLobby())
		r.Route("/sessions/{session_id}", func(r chi.Router) {
			r.Post("/join", sessions.Join())
			r.Post("/start", sessions.Start())
			r.Post("/leave", sessions.Leave())
			r.Post("/actions", sessions.SubmitAction())
			r.Post("/rematch", sessions.Rematch())
			r.Get("/state", sessions.State())
			r.Get("/events", public.SessionEvents())
			if d.WS != nil {
				r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
					d.WS.HandleWS(w, r, chi.URLParam(r, "session_id"))
				})
			}
		})
		r.Get("/participants/{participant_id}/session", sessions.ParticipantSession())

		r.Get("/stats/{kind}/{user_id}", public.Stats())
		r.Get("/leaderboard/{kind}", public.Leaderboard())
		r.Get("/economy/leaderboard", public.BalanceLeaderboard())
		r.Get("/economy/{user_id}", public.Balance())
		r.Get("/lobby/events", public.LobbyEvents())

		r.Route("/admin", func(r chi.Router) {
			r.Use(AdminAuthMiddleware(d.AdminAPIKey))
			r.Post("/sessions/{session_id}/abort", admin.AbortSession())
			r.Route("/debug", func(r chi.Router) {
				r.Use(BodyCaptureMiddleware(4096))
				r.Get("/vars", expvar.Handler().ServeHTTP)
			})
		})
	})
	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	var routes []routeDef
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	fmt.Fprintf(&b, "Registered routes (%d):\n", len(routes))
	for _, rt := range routes {
		fmt.Fprintf(&b, "  %-6s %s\n", rt.Method, rt.Path)
	}
	fmt.Print(b.String())
}
