// Package stream fans session and lobby events out to SSE and websocket subscribers.
package stream

import (
	"strconv"
	"sync"
	"time"
)

const (
	defaultBufferSize = 200
	subscriberQueue   = 32
)

type Event struct {
	EventID   string `json:"event_id"`
	Event     string `json:"event"`
	SessionID string `json:"session_id,omitempty"`
	ServerTS  int64  `json:"server_ts"`
	Data      any    `json:"data"`
}

// Buffer keeps the most recent events for replay and pushes new ones to subscribers.
// Slow subscribers miss events rather than block the publisher.
type Buffer struct {
	mu       sync.Mutex
	nextID   int64
	max      int
	events   []Event
	watchers map[chan Event]struct{}
	closed   bool
}

func NewBuffer(max int) *Buffer {
	if max <= 0 {
		max = defaultBufferSize
	}
	return &Buffer{max: max, watchers: map[chan Event]struct{}{}}
}

func (b *Buffer) Append(event, sessionID string, data any) Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return Event{}
	}
	b.nextID++
	ev := Event{
		EventID:   strconv.FormatInt(b.nextID, 10),
		Event:     event,
		SessionID: sessionID,
		ServerTS:  time.Now().UnixMilli(),
		Data:      data,
	}
	b.events = append(b.events, ev)
	if len(b.events) > b.max {
		b.events = b.events[len(b.events)-b.max:]
	}
	for ch := range b.watchers {
		select {
		case ch <- ev:
		default:
		}
	}
	return ev
}

// ReplayAfter returns buffered events newer than lastEventID, or all of them when the id
// is empty or unparseable.
func (b *Buffer) ReplayAfter(lastEventID string) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	last, err := strconv.ParseInt(lastEventID, 10, 64)
	if lastEventID == "" || err != nil {
		last = 0
	}
	out := make([]Event, 0, len(b.events))
	for _, ev := range b.events {
		id, _ := strconv.ParseInt(ev.EventID, 10, 64)
		if id > last {
			out = append(out, ev)
		}
	}
	return out
}

// Latest returns the newest event, if any.
func (b *Buffer) Latest() (Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.events) == 0 {
		return Event{}, false
	}
	return b.events[len(b.events)-1], true
}

func (b *Buffer) Subscribe() chan Event {
	ch := make(chan Event, subscriberQueue)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.watchers[ch] = struct{}{}
	return ch
}

func (b *Buffer) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.watchers[ch]; ok {
		delete(b.watchers, ch)
		close(ch)
	}
}

func (b *Buffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.watchers {
		close(ch)
		delete(b.watchers, ch)
	}
}

func (b *Buffer) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
