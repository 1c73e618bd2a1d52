// Package ws serves a per-session websocket: state snapshots out, actions in.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"hexa-arcade/internal/engine"
	"hexa-arcade/internal/stream"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	maxRequestIDLen = 64
	sendQueue       = 16
	writeWait       = 10 * time.Second
	actionTimeout   = 5 * time.Second
)

// Sessions is the coordinator surface the websocket drives.
type Sessions interface {
	Snapshot(sessionID string) (engine.Snapshot, error)
	SubmitAction(ctx context.Context, sessionID string, actor engine.Participant, a engine.Action) (engine.Applied, error)
}

// Client is one websocket connection bound to a session.
type Client struct {
	conn      *websocket.Conn
	send      chan []byte
	sessionID string

	mu    sync.Mutex
	actor *engine.Participant
	done  bool
}

type Server struct {
	sessions Sessions
	feed     *stream.Feed
	upgrader websocket.Upgrader
}

func NewServer(sessions Sessions, feed *stream.Feed) *Server {
	return &Server{
		sessions: sessions,
		feed:     feed,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// HandleWS upgrades the request and binds it to sessionID. Unknown sessions are rejected
// before the upgrade.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request, sessionID string) {
	snap, err := s.sessions.Snapshot(sessionID)
	if err != nil {
		http.Error(w, engine.Code(err), http.StatusNotFound)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &Client{conn: conn, send: make(chan []byte, sendQueue), sessionID: sessionID}
	buf := s.feed.Attach(snap)
	events := buf.Subscribe()

	go s.writeLoop(c)
	// The current state goes out before the feed can close an ended session's socket.
	s.sendCurrent(c)
	go s.forward(c, buf, events)
	s.readLoop(c)
	buf.Unsubscribe(events)
}

func (s *Server) readLoop(c *Client) {
	defer func() {
		c.close()
		_ = c.conn.Close()
	}()
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var base struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(msg, &base); err != nil {
			continue
		}
		switch base.Type {
		case "join":
			var join JoinMessage
			if err := json.Unmarshal(msg, &join); err != nil {
				continue
			}
			s.handleJoin(c, join)
		case "action":
			s.handleAction(c, msg)
		}
	}
}

func (s *Server) writeLoop(c *Client) {
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			_ = c.conn.Close()
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// forward relays feed events until the buffer closes or the client goes away.
func (s *Server) forward(c *Client, buf *stream.Buffer, events chan stream.Event) {
	for ev := range events {
		snap, ok := ev.Data.(engine.Snapshot)
		if !ok {
			continue
		}
		c.deliver(StateMessage{Type: "state", ProtocolVersion: ProtocolVersion, EventID: ev.EventID, Snapshot: snap})
	}
	if buf.Closed() {
		c.close()
	}
}

func (s *Server) sendCurrent(c *Client) {
	snap, err := s.sessions.Snapshot(c.sessionID)
	if err != nil {
		return
	}
	c.deliver(StateMessage{Type: "state", ProtocolVersion: ProtocolVersion, Snapshot: snap})
}

func (s *Server) handleJoin(c *Client, join JoinMessage) {
	snap, err := s.sessions.Snapshot(c.sessionID)
	if err != nil {
		c.deliver(JoinResult{Type: "join_result", ProtocolVersion: ProtocolVersion, Error: engine.Code(err), Seat: -1})
		return
	}
	id := strings.TrimSpace(join.ParticipantID)
	for i, p := range snap.Players {
		if p.ID == id {
			actor := p
			c.mu.Lock()
			c.actor = &actor
			c.mu.Unlock()
			log.Info().Str("session_id", c.sessionID).Str("participant_id", id).Msg("ws participant bound")
			c.deliver(JoinResult{Type: "join_result", ProtocolVersion: ProtocolVersion, Ok: true, Seat: i})
			return
		}
	}
	c.deliver(JoinResult{Type: "join_result", ProtocolVersion: ProtocolVersion, Error: engine.ErrNotParticipant.Error(), Seat: -1})
}

func (s *Server) handleAction(c *Client, raw []byte) {
	var msg ActionMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.deliver(actionResult("", engine.ErrInvalidAction.Error()))
		return
	}
	if msg.RequestID == "" || len(msg.RequestID) > maxRequestIDLen {
		c.deliver(actionResult(msg.RequestID, "invalid_request_id"))
		return
	}
	c.mu.Lock()
	actor := c.actor
	c.mu.Unlock()
	if actor == nil {
		c.deliver(actionResult(msg.RequestID, "join_required"))
		return
	}
	kind := engine.ActionMove
	if msg.Kind != "" {
		k, ok := engine.ParseActionKind(msg.Kind)
		if !ok {
			c.deliver(actionResult(msg.RequestID, engine.ErrInvalidAction.Error()))
			return
		}
		kind = k
	}
	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()
	applied, err := s.sessions.SubmitAction(ctx, c.sessionID, *actor, engine.Action{Kind: kind, Move: msg.Move, Turn: msg.TurnToken})
	if err != nil {
		c.deliver(actionResult(msg.RequestID, engine.Code(err)))
		return
	}
	res := actionResult(msg.RequestID, "")
	res.Applied = &applied
	c.deliver(res)
}

func actionResult(requestID, errCode string) ActionResult {
	return ActionResult{
		Type:            "action_result",
		ProtocolVersion: ProtocolVersion,
		RequestID:       requestID,
		Ok:              errCode == "",
		Error:           errCode,
	}
}

// deliver queues v unless the client is closed or its queue is full.
func (c *Client) deliver(v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return
	}
	select {
	case c.send <- raw:
	default:
		log.Warn().Str("session_id", c.sessionID).Msg("ws send queue full; dropping message")
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return
	}
	c.done = true
	close(c.send)
}
