package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hexa-arcade/internal/engine"
	"hexa-arcade/internal/games/jack"
	"hexa-arcade/internal/games/tictactoe"
	"hexa-arcade/internal/ledger"
	"hexa-arcade/internal/stats"
	"hexa-arcade/internal/store"
	"hexa-arcade/internal/store/sqlite"
	"hexa-arcade/internal/stream"
	"hexa-arcade/internal/ws"
)

const testAdminKey = "admin-secret"

type testEnv struct {
	router http.Handler
	coord  *engine.Coordinator
	st     *sqlite.Store
	ledger *ledger.Ledger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	feed := stream.NewFeed(0)
	coord := engine.NewCoordinator(
		[]engine.Ruleset{tictactoe.NewRules(time.Minute), jack.NewRules(time.Minute, 1)},
		engine.Options{Presenter: feed, Observer: feed, BotThinkDelay: time.Hour},
	)
	led := ledger.New(st, 10)
	router := NewRouter(Deps{
		Arcade:      coord,
		Stats:       stats.NewService(st),
		Economy:     led,
		Feed:        feed,
		WS:          ws.NewServer(coord, feed),
		DB:          st,
		AdminAPIKey: testAdminKey,
	})
	return &testEnv{router: router, coord: coord, st: st, ledger: led}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status=%d want=%d body=%s", rec.Code, want, rec.Body.String())
	}
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, out map[string]any, status int, code string) {
	t.Helper()
	expectStatus(t, rec, status)
	if out["error"] != code {
		t.Fatalf("error=%v want=%s", out["error"], code)
	}
}

func participant(id string) map[string]any {
	return map[string]any{"id": id, "name": id}
}

func TestHealthAndGames(t *testing.T) {
	e := newTestEnv(t)
	rec, out := e.do(t, http.MethodGet, "/healthz", nil)
	expectStatus(t, rec, http.StatusOK)
	if out["db"] != "up" {
		t.Fatalf("unexpected health: %v", out)
	}
	rec, out = e.do(t, http.MethodGet, "/api/games", nil)
	expectStatus(t, rec, http.StatusOK)
	items, _ := out["items"].([]any)
	if len(items) != 2 || items[0].(map[string]any)["kind"] != jack.Kind {
		t.Fatalf("unexpected games: %v", items)
	}
}

func TestInviteToRematchFlow(t *testing.T) {
	e := newTestEnv(t)
	rec, inv := e.do(t, http.MethodPost, "/api/invites", map[string]any{
		"kind":       tictactoe.Kind,
		"challenger": participant("alice"),
		"challenged": participant("bob"),
	})
	expectStatus(t, rec, http.StatusCreated)
	inviteID, _ := inv["invite_id"].(string)

	rec, _ = e.do(t, http.MethodGet, "/api/invites/"+inviteID, nil)
	expectStatus(t, rec, http.StatusOK)

	rec, out := e.do(t, http.MethodPost, "/api/invites/"+inviteID+"/accept", map[string]any{"participant_id": "alice"})
	expectError(t, rec, out, http.StatusForbidden, "not_invitee")

	rec, snap := e.do(t, http.MethodPost, "/api/invites/"+inviteID+"/accept", map[string]any{"participant_id": "bob"})
	expectStatus(t, rec, http.StatusOK)
	sessionID, _ := snap["session_id"].(string)
	current, _ := snap["current"].(map[string]any)
	mover, _ := current["id"].(string)
	other := "alice"
	if mover == "alice" {
		other = "bob"
	}

	rec, bound := e.do(t, http.MethodGet, "/api/participants/"+other+"/session", nil)
	expectStatus(t, rec, http.StatusOK)
	if bound["session_id"] != sessionID {
		t.Fatalf("participant bound to %v", bound["session_id"])
	}

	move := map[string]any{"participant": participant(other), "move": map[string]any{"type": "mark", "index": 4}}
	rec, out = e.do(t, http.MethodPost, "/api/sessions/"+sessionID+"/actions", move)
	expectError(t, rec, out, http.StatusBadRequest, "not_your_turn")

	move["participant"] = participant(mover)
	rec, out = e.do(t, http.MethodPost, "/api/sessions/"+sessionID+"/actions", move)
	expectStatus(t, rec, http.StatusOK)
	session, _ := out["session"].(map[string]any)
	if session["turns"] != float64(1) {
		t.Fatalf("unexpected session after move: %v", session)
	}

	rec, out = e.do(t, http.MethodPost, "/api/sessions/"+sessionID+"/rematch", map[string]any{"participant_id": "alice"})
	expectError(t, rec, out, http.StatusConflict, "session_not_over")

	rec, out = e.do(t, http.MethodPost, "/api/sessions/"+sessionID+"/actions", map[string]any{"participant": participant(mover), "kind": "forfeit"})
	expectStatus(t, rec, http.StatusOK)
	applied, _ := out["applied"].(map[string]any)
	if applied["session_ended"] != true {
		t.Fatalf("expected session to end: %v", out)
	}

	rec, _ = e.do(t, http.MethodGet, "/api/participants/"+other+"/session", nil)
	expectStatus(t, rec, http.StatusNotFound)

	rec, rematch := e.do(t, http.MethodPost, "/api/sessions/"+sessionID+"/rematch", map[string]any{"participant_id": "alice"})
	expectStatus(t, rec, http.StatusCreated)
	if rematch["session_id"] == sessionID || rematch["state"] != string(engine.StateActive) {
		t.Fatalf("unexpected rematch: %v", rematch)
	}
}

func TestLobbyRoutes(t *testing.T) {
	e := newTestEnv(t)
	rec, snap := e.do(t, http.MethodPost, "/api/lobbies", map[string]any{"kind": jack.Kind, "host": participant("host")})
	expectStatus(t, rec, http.StatusCreated)
	sessionID, _ := snap["session_id"].(string)

	rec, out := e.do(t, http.MethodPost, "/api/lobbies", map[string]any{"kind": tictactoe.Kind, "host": participant("x")})
	expectError(t, rec, out, http.StatusBadRequest, "not_a_lobby_game")

	rec, _ = e.do(t, http.MethodPost, "/api/sessions/"+sessionID+"/join", map[string]any{"participant": participant("guest")})
	expectStatus(t, rec, http.StatusOK)
	rec, out = e.do(t, http.MethodPost, "/api/sessions/"+sessionID+"/join", map[string]any{"participant": participant("guest")})
	expectError(t, rec, out, http.StatusConflict, "already_joined")

	rec, out = e.do(t, http.MethodPost, "/api/sessions/"+sessionID+"/start", map[string]any{"participant": participant("guest")})
	expectError(t, rec, out, http.StatusForbidden, "not_host")

	rec, out = e.do(t, http.MethodPost, "/api/sessions/"+sessionID+"/start", map[string]any{"participant": participant("host")})
	expectStatus(t, rec, http.StatusOK)
	session, _ := out["session"].(map[string]any)
	if session["state"] == string(engine.StateForming) {
		t.Fatalf("lobby did not start: %v", session)
	}
}

func TestBotSessionAndErrors(t *testing.T) {
	e := newTestEnv(t)
	rec, snap := e.do(t, http.MethodPost, "/api/sessions/bot", map[string]any{"kind": tictactoe.Kind, "human": participant("solo"), "tier": "main"})
	expectStatus(t, rec, http.StatusCreated)
	players, _ := snap["players"].([]any)
	if len(players) != 2 || players[1].(map[string]any)["automated"] != true {
		t.Fatalf("unexpected players: %v", players)
	}

	rec, out := e.do(t, http.MethodPost, "/api/sessions/bot", map[string]any{"kind": tictactoe.Kind, "human": participant("solo")})
	expectError(t, rec, out, http.StatusConflict, "participant_already_in_session")

	rec, out = e.do(t, http.MethodPost, "/api/sessions/bot", map[string]any{"kind": "chess", "human": participant("x")})
	expectError(t, rec, out, http.StatusNotFound, "unknown_game")

	rec, out = e.do(t, http.MethodPost, "/api/sessions/bot", "{not json")
	expectError(t, rec, out, http.StatusBadRequest, "invalid_json")

	rec, out = e.do(t, http.MethodGet, "/api/sessions/missing/state", nil)
	expectError(t, rec, out, http.StatusNotFound, "session_not_found")

	rec, out = e.do(t, http.MethodGet, "/api/sessions/missing/events", nil)
	expectError(t, rec, out, http.StatusNotFound, "session_not_found")

	rec, out = e.do(t, http.MethodPost, "/api/sessions/missing/actions", map[string]any{"participant": participant("x"), "kind": "dance"})
	expectError(t, rec, out, http.StatusBadRequest, "invalid_action")
}

func TestAdminAbortRequiresKey(t *testing.T) {
	e := newTestEnv(t)
	_, snap := e.do(t, http.MethodPost, "/api/sessions/bot", map[string]any{"kind": tictactoe.Kind, "human": participant("solo")})
	sessionID, _ := snap["session_id"].(string)
	path := "/api/admin/sessions/" + sessionID + "/abort"

	rec, out := e.do(t, http.MethodPost, path, nil)
	expectError(t, rec, out, http.StatusUnauthorized, "unauthorized")

	rec, out = e.do(t, http.MethodPost, path, map[string]any{"reason": "maintenance"}, "X-Admin-Key", testAdminKey)
	expectStatus(t, rec, http.StatusOK)
	session, _ := out["session"].(map[string]any)
	outcome, _ := session["outcome"].(map[string]any)
	if outcome["reason"] != "maintenance" {
		t.Fatalf("unexpected outcome: %v", outcome)
	}

	rec, out = e.do(t, http.MethodPost, path, nil, "Authorization", "Bearer "+testAdminKey)
	expectError(t, rec, out, http.StatusConflict, "session_not_active")

	rec, _ = e.do(t, http.MethodGet, "/api/admin/debug/vars", nil, "X-Admin-Key", testAdminKey)
	expectStatus(t, rec, http.StatusOK)
}

func TestSessionEventsAfterEndReplayFinalState(t *testing.T) {
	e := newTestEnv(t)
	_, snap := e.do(t, http.MethodPost, "/api/sessions/bot", map[string]any{"kind": tictactoe.Kind, "human": participant("solo")})
	sessionID, _ := snap["session_id"].(string)
	rec, _ := e.do(t, http.MethodPost, "/api/admin/sessions/"+sessionID+"/abort", nil, "X-Admin-Key", testAdminKey)
	expectStatus(t, rec, http.StatusOK)

	// The stream must end on its own instead of waiting for the client to leave.
	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+sessionID+"/events", nil)
	ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
	defer cancel()
	rec = httptest.NewRecorder()
	e.router.ServeHTTP(rec, req.WithContext(ctx))
	if ctx.Err() != nil {
		t.Fatal("event stream for an ended session did not close")
	}
	body := rec.Body.String()
	if !strings.Contains(body, "event: state") || !strings.Contains(body, `"state":"over"`) {
		t.Fatalf("expected the final state event, got %q", body)
	}
}

func TestStatsAndEconomyRoutes(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	if err := e.st.UpsertStats(ctx, store.StatLine{Kind: tictactoe.Kind, UserID: "alice", DisplayName: "Alice", Win: true}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := e.ledger.CreditWin(ctx, "alice", "Alice", "s1"); err != nil {
		t.Fatalf("credit: %v", err)
	}

	rec, out := e.do(t, http.MethodGet, "/api/stats/tictactoe/alice", nil)
	expectStatus(t, rec, http.StatusOK)
	if items, _ := out["items"].([]any); len(items) != 1 {
		t.Fatalf("unexpected stats: %v", out)
	}
	rec, out = e.do(t, http.MethodGet, "/api/stats/tictactoe/nobody", nil)
	expectError(t, rec, out, http.StatusNotFound, "no_stats")
	rec, out = e.do(t, http.MethodGet, "/api/leaderboard/poker", nil)
	expectError(t, rec, out, http.StatusNotFound, "unknown_game")
	rec, out = e.do(t, http.MethodGet, "/api/leaderboard/tictactoe?limit=1000", nil)
	expectStatus(t, rec, http.StatusOK)
	if out["limit"] != float64(100) {
		t.Fatalf("limit not capped: %v", out["limit"])
	}

	rec, out = e.do(t, http.MethodGet, "/api/economy/alice", nil)
	expectStatus(t, rec, http.StatusOK)
	if out["balance"] != float64(10) {
		t.Fatalf("unexpected balance: %v", out)
	}
	rec, out = e.do(t, http.MethodGet, "/api/economy/leaderboard", nil)
	expectStatus(t, rec, http.StatusOK)
	if items, _ := out["items"].([]any); len(items) != 1 {
		t.Fatalf("unexpected balance leaderboard: %v", out)
	}
}

func TestMapEngineErr(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{engine.ErrSessionNotFound, http.StatusNotFound, "session_not_found"},
		{&engine.CooldownError{Remaining: time.Second}, http.StatusTooManyRequests, "cooldown_active"},
		{engine.ErrStaleTurn, http.StatusConflict, "stale_turn"},
		{engine.Rule("cell_taken"), http.StatusBadRequest, "cell_taken"},
		{&engine.CollaboratorError{Op: "render", Err: errors.New("down")}, http.StatusBadGateway, "render_failed"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		status, code := mapEngineErr(tc.err)
		if status != tc.status || code != tc.code {
			t.Fatalf("mapEngineErr(%v) = %d %s, want %d %s", tc.err, status, code, tc.status, tc.code)
		}
	}
}
