package stream

import (
	"context"
	"sync"
	"time"

	"hexa-arcade/internal/engine"
)

// Event names published by Feed.
const (
	EventState          = "state"
	EventSessionStarted = "session_started"
	EventSessionEnded   = "session_ended"
	EventInviteResolved = "invite_resolved"
)

// tombstoneGrace keeps an ended session answerable past the linger window until the
// coordinator has pruned it.
const tombstoneGrace = 2 * time.Minute

// Feed is a secondary presenter and lifecycle observer that keeps one buffer per session
// plus a global lobby buffer. Session buffers close when the session ends and are dropped
// after the linger window; a tombstone with the final state outlives them.
type Feed struct {
	linger time.Duration

	mu       sync.Mutex
	sessions map[string]*Buffer
	ended    map[string]tombstone
	lobby    *Buffer
}

type tombstone struct {
	final engine.Snapshot
	until time.Time
}

func NewFeed(linger time.Duration) *Feed {
	return &Feed{
		linger:   linger,
		sessions: map[string]*Buffer{},
		ended:    map[string]tombstone{},
		lobby:    NewBuffer(defaultBufferSize),
	}
}

// Attach returns the buffer a subscriber to snap's session should follow. A session that
// has ended and is no longer buffered yields a closed buffer holding its final state.
func (f *Feed) Attach(snap engine.Snapshot) *Buffer {
	f.mu.Lock()
	defer f.mu.Unlock()
	if buf, ok := f.sessions[snap.SessionID]; ok {
		return buf
	}
	if t, ok := f.ended[snap.SessionID]; ok {
		return finalBuffer(t.final)
	}
	if snap.State == engine.StateOver {
		return finalBuffer(snap)
	}
	buf := NewBuffer(defaultBufferSize)
	f.sessions[snap.SessionID] = buf
	return buf
}

// buffer returns the live buffer for sessionID, or nil once the session has ended.
func (f *Feed) buffer(sessionID string) *Buffer {
	f.mu.Lock()
	defer f.mu.Unlock()
	if buf, ok := f.sessions[sessionID]; ok {
		return buf
	}
	if _, ok := f.ended[sessionID]; ok {
		return nil
	}
	buf := NewBuffer(defaultBufferSize)
	f.sessions[sessionID] = buf
	return buf
}

func finalBuffer(snap engine.Snapshot) *Buffer {
	buf := NewBuffer(1)
	buf.Append(EventState, snap.SessionID, snap)
	buf.Close()
	return buf
}

func (f *Feed) Lobby() *Buffer {
	return f.lobby
}

func (f *Feed) Render(_ context.Context, snap engine.Snapshot) (string, error) {
	f.publish(snap)
	return snap.SessionID, nil
}

func (f *Feed) Update(_ context.Context, _ string, snap engine.Snapshot) error {
	f.publish(snap)
	return nil
}

func (f *Feed) publish(snap engine.Snapshot) {
	if buf := f.buffer(snap.SessionID); buf != nil {
		buf.Append(EventState, snap.SessionID, snap)
	}
}

func (f *Feed) OnSessionStarted(snap engine.Snapshot) {
	f.lobby.Append(EventSessionStarted, snap.SessionID, summarize(snap))
}

func (f *Feed) OnSessionEnded(snap engine.Snapshot) {
	f.lobby.Append(EventSessionEnded, snap.SessionID, summarize(snap))
	buf := f.buffer(snap.SessionID)
	if buf == nil {
		return
	}
	if _, ok := buf.Latest(); !ok {
		buf.Append(EventState, snap.SessionID, snap)
	}
	buf.Close()
	if f.linger <= 0 {
		f.drop(snap, buf)
		return
	}
	time.AfterFunc(f.linger, func() { f.drop(snap, buf) })
}

func (f *Feed) OnInviteResolved(inv engine.InviteSnapshot) {
	f.lobby.Append(EventInviteResolved, inv.SessionID, inv)
}

func (f *Feed) drop(final engine.Snapshot, buf *Buffer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for id, t := range f.ended {
		if now.After(t.until) {
			delete(f.ended, id)
		}
	}
	if f.sessions[final.SessionID] == buf {
		delete(f.sessions, final.SessionID)
	}
	f.ended[final.SessionID] = tombstone{final: final, until: now.Add(f.linger + tombstoneGrace)}
}

func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, buf := range f.sessions {
		buf.Close()
		delete(f.sessions, id)
	}
	clear(f.ended)
	f.lobby.Close()
}

// Summary is the lobby-feed view of a session.
type Summary struct {
	SessionID string               `json:"session_id"`
	Kind      string               `json:"kind"`
	Variant   string               `json:"variant,omitempty"`
	Scope     string               `json:"scope,omitempty"`
	State     engine.State         `json:"state"`
	Players   []engine.Participant `json:"players"`
	Outcome   *engine.Outcome      `json:"outcome,omitempty"`
}

func summarize(snap engine.Snapshot) Summary {
	return Summary{
		SessionID: snap.SessionID,
		Kind:      snap.Kind,
		Variant:   snap.Variant,
		Scope:     snap.Scope,
		State:     snap.State,
		Players:   snap.Players,
		Outcome:   snap.Outcome,
	}
}
