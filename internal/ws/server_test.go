package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hexa-arcade/internal/engine"
	"hexa-arcade/internal/games/tictactoe"
	"hexa-arcade/internal/stream"

	"github.com/gorilla/websocket"
)

var (
	alice = engine.Participant{ID: "alice", Name: "Alice"}
	bob   = engine.Participant{ID: "bob", Name: "Bob"}
)

type harness struct {
	coord *engine.Coordinator
	snap  engine.Snapshot
	url   string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	feed := stream.NewFeed(0)
	coord := engine.NewCoordinator([]engine.Ruleset{tictactoe.NewRules(time.Minute)}, engine.Options{Presenter: feed, Observer: feed})
	ctx := context.Background()
	inv, err := coord.Challenge(ctx, tictactoe.Kind, alice, bob, engine.SessionOptions{})
	if err != nil {
		t.Fatalf("challenge: %v", err)
	}
	snap, err := coord.Accept(ctx, inv.InviteID, bob.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	srv := NewServer(coord, feed)
	hs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		srv.HandleWS(w, r, strings.TrimPrefix(r.URL.Path, "/ws/"))
	}))
	t.Cleanup(hs.Close)
	return &harness{coord: coord, snap: snap, url: "ws" + strings.TrimPrefix(hs.URL, "http") + "/ws/"}
}

func (h *harness) dial(t *testing.T, sessionID string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(h.url+sessionID, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil returns the first message of type typ.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read waiting for %s: %v", typ, err)
		}
		var msg map[string]any
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if msg["type"] == typ {
			return msg
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	if err := conn.WriteJSON(v); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestWSStateOnConnect(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t, h.snap.SessionID)
	msg := readUntil(t, conn, "state")
	snap, ok := msg["snapshot"].(map[string]any)
	if !ok || snap["session_id"] != h.snap.SessionID || snap["state"] != string(engine.StateActive) {
		t.Fatalf("unexpected state message: %v", msg)
	}
}

func TestWSRejectsUnknownSession(t *testing.T) {
	h := newHarness(t)
	_, resp, err := websocket.DefaultDialer.Dial(h.url+"missing", nil)
	if err == nil {
		t.Fatal("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", resp)
	}
}

func TestWSActionRequiresJoinAndRequestID(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t, h.snap.SessionID)

	send(t, conn, ActionMessage{Type: "action", RequestID: "r1", Move: engine.Move{Type: tictactoe.MoveMark, Index: 4}})
	if res := readUntil(t, conn, "action_result"); res["ok"] != false || res["error"] != "join_required" {
		t.Fatalf("unexpected result: %v", res)
	}
	send(t, conn, ActionMessage{Type: "action", Move: engine.Move{Type: tictactoe.MoveMark, Index: 4}})
	if res := readUntil(t, conn, "action_result"); res["error"] != "invalid_request_id" {
		t.Fatalf("unexpected result: %v", res)
	}
	send(t, conn, JoinMessage{Type: "join", ParticipantID: "mallory"})
	if res := readUntil(t, conn, "join_result"); res["ok"] != false || res["error"] != engine.ErrNotParticipant.Error() {
		t.Fatalf("unexpected join result: %v", res)
	}
}

func TestWSPlayerMoves(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t, h.snap.SessionID)
	current := h.snap.Current
	if current == nil {
		t.Fatal("expected a current player")
	}

	send(t, conn, JoinMessage{Type: "join", ParticipantID: current.ID})
	if res := readUntil(t, conn, "join_result"); res["ok"] != true || res["seat"] != float64(h.snap.Turn) {
		t.Fatalf("unexpected join result: %v", res)
	}
	send(t, conn, ActionMessage{Type: "action", RequestID: "r-1", Move: engine.Move{Type: tictactoe.MoveMark, Index: 4}, TurnToken: h.snap.TurnToken})
	res := readUntil(t, conn, "action_result")
	if res["ok"] != true || res["request_id"] != "r-1" {
		t.Fatalf("unexpected result: %v", res)
	}
	snap, err := h.coord.Snapshot(h.snap.SessionID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Turns != 1 || snap.Current == nil || snap.Current.ID == current.ID {
		t.Fatalf("turn did not pass: %+v", snap)
	}

	send(t, conn, ActionMessage{Type: "action", RequestID: "r-2", Move: engine.Move{Type: tictactoe.MoveMark, Index: 0}})
	if res := readUntil(t, conn, "action_result"); res["error"] != engine.ErrNotYourTurn.Error() {
		t.Fatalf("unexpected result: %v", res)
	}
}

func TestWSClosesWhenSessionEnds(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t, h.snap.SessionID)
	readUntil(t, conn, "state")
	if _, err := h.coord.SubmitAction(context.Background(), h.snap.SessionID, alice, engine.Action{Kind: engine.ActionForfeit}); err != nil {
		t.Fatalf("forfeit: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				t.Fatalf("expected normal close, got %v", err)
			}
			return
		}
	}
}

func TestWSConnectAfterEndReplaysFinalStateAndCloses(t *testing.T) {
	h := newHarness(t)
	if _, err := h.coord.SubmitAction(context.Background(), h.snap.SessionID, alice, engine.Action{Kind: engine.ActionForfeit}); err != nil {
		t.Fatalf("forfeit: %v", err)
	}
	conn := h.dial(t, h.snap.SessionID)
	msg := readUntil(t, conn, "state")
	snap, _ := msg["snapshot"].(map[string]any)
	if snap["state"] != string(engine.StateOver) {
		t.Fatalf("expected the final state, got %v", msg)
	}
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				t.Fatalf("expected normal close, got %v", err)
			}
			return
		}
	}
}
