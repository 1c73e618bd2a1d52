package stream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

var PingInterval = 15 * time.Second

func WriteSSE(w http.ResponseWriter, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if ev.EventID != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", ev.EventID); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Event, data); err != nil {
		return err
	}
	return nil
}

// SetSSEHeaders applies headers that keep event streams stable across proxies.
func SetSSEHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache, no-transform")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	h.Set("X-Content-Type-Options", "nosniff")
}

// ServeSSE replays buf after the client's Last-Event-ID and then streams until the client
// goes away or the buffer closes. The caller must have checked that w is a Flusher.
func ServeSSE(w http.ResponseWriter, r *http.Request, buf *Buffer) {
	flusher := w.(http.Flusher)
	SetSSEHeaders(w)

	ch := buf.Subscribe()
	defer buf.Unsubscribe(ch)
	var last int64
	for _, ev := range buf.ReplayAfter(r.Header.Get("Last-Event-ID")) {
		if err := WriteSSE(w, ev); err != nil {
			return
		}
		last = eventSeq(ev)
	}
	flusher.Flush()

	ticker := time.NewTicker(PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			// Events queued while replaying were already written.
			if eventSeq(ev) <= last {
				continue
			}
			if err := WriteSSE(w, ev); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			ping := Event{Event: "ping", ServerTS: time.Now().UnixMilli(), Data: map[string]any{}}
			if err := WriteSSE(w, ping); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func eventSeq(ev Event) int64 {
	n, _ := strconv.ParseInt(ev.EventID, 10, 64)
	return n
}
