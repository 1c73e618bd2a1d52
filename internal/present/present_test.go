package present

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"hexa-arcade/internal/engine"
	"hexa-arcade/internal/present/platforms"
)

var (
	alice = engine.Participant{ID: "111", Name: "Alice"}
	bob   = engine.Participant{ID: "222", Name: "Bob"}
	robot = engine.Participant{ID: "bot", Name: "Botty", Automated: true, Tier: engine.TierMain}
)

func activeSnap() engine.Snapshot {
	return engine.Snapshot{
		SessionID:       "01HZXABCDEFGHJKMNPQRSTVWXY",
		Kind:            "duel",
		Variant:         "poison",
		State:           engine.StateActive,
		Players:         []engine.Participant{alice, robot},
		Turn:            0,
		Current:         &alice,
		TurnRemainingMS: 19400,
		Turns:           3,
		Board:           "Alice ████ 80\nBotty ██ 40",
		Notes:           []string{"a", "b", "c", "d"},
		StartedAt:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestFormatActive(t *testing.T) {
	msg := Format(activeSnap())
	if msg.Title != "⚔️ Duel · poison" {
		t.Fatalf("title = %q", msg.Title)
	}
	if msg.Content != "<@111> to move" {
		t.Fatalf("content = %q", msg.Content)
	}
	if msg.Color != colorActive {
		t.Fatalf("color = %x", msg.Color)
	}
	var players, turn, log string
	for _, f := range msg.Fields {
		switch f.Name {
		case "Players":
			players = f.Value
		case "Turn":
			turn = f.Value
		case "Log":
			log = f.Value
		}
	}
	if players != "▶ Alice\nBotty 🤖" {
		t.Fatalf("players = %q", players)
	}
	if turn != "Alice · 20s left" {
		t.Fatalf("turn = %q", turn)
	}
	if log != "b\nc\nd" {
		t.Fatalf("log = %q", log)
	}
	if !strings.Contains(msg.Footer, "QRSTVWXY") || !strings.HasSuffix(msg.Footer, "turn 3") {
		t.Fatalf("footer = %q", msg.Footer)
	}
}

func TestFormatOutcomes(t *testing.T) {
	cases := []struct {
		outcome engine.Outcome
		want    string
		color   int
	}{
		{engine.Outcome{Kind: engine.OutcomeWinner, Reason: engine.ReasonTimeout, Winner: &alice, Loser: &bob}, "🏆 Alice wins (Bob timed out)", colorWon},
		{engine.Outcome{Kind: engine.OutcomeWinner, Reason: engine.ReasonWin, Winner: &bob, Loser: &alice}, "🏆 Bob wins", colorWon},
		{engine.Outcome{Kind: engine.OutcomeDraw, Reason: engine.ReasonDraw}, "🤝 draw", colorDraw},
		{engine.Outcome{Kind: engine.OutcomeAborted, Reason: engine.ReasonInsufficientPlayers}, "game aborted (insufficient_players)", colorAborted},
	}
	for _, tc := range cases {
		snap := activeSnap()
		snap.State = engine.StateOver
		snap.Current = nil
		o := tc.outcome
		snap.Outcome = &o
		msg := Format(snap)
		if msg.Content != tc.want || msg.Color != tc.color {
			t.Fatalf("content=%q color=%x, want %q %x", msg.Content, msg.Color, tc.want, tc.color)
		}
	}
}

func TestFormatForming(t *testing.T) {
	snap := engine.Snapshot{SessionID: "s1", Kind: "jack", State: engine.StateForming, Players: []engine.Participant{alice, bob}}
	msg := Format(snap)
	if msg.Content != "Alice opened a lobby (2 joined)" || msg.Color != colorForming {
		t.Fatalf("unexpected forming panel: %+v", msg)
	}
	if msg.Timestamp != "" {
		t.Fatalf("unstarted lobby should have no timestamp, got %q", msg.Timestamp)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newHook(t *testing.T, fn roundTripFunc) *platforms.Discord {
	t.Helper()
	client := platforms.NewHTTPClient(time.Second).WithTransport(fn)
	return platforms.NewDiscord(client, "https://discord.com/api/webhooks/1/tok")
}

func TestDiscordPresenterSkipsIdenticalEdits(t *testing.T) {
	var mu sync.Mutex
	var posts, patches int
	hook := newHook(t, func(r *http.Request) (*http.Response, error) {
		mu.Lock()
		defer mu.Unlock()
		switch r.Method {
		case http.MethodPost:
			posts++
		case http.MethodPatch:
			patches++
		}
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewBufferString(`{"id":"m-9"}`)), Header: make(http.Header)}, nil
	})
	d := NewDiscord(hook)
	ctx := context.Background()
	snap := activeSnap()

	handle, err := d.Render(ctx, snap)
	if err != nil || handle != "m-9" {
		t.Fatalf("render handle=%q err=%v", handle, err)
	}
	if err := d.Update(ctx, handle, snap); err != nil {
		t.Fatalf("update: %v", err)
	}
	snap.Turns++
	if err := d.Update(ctx, handle, snap); err != nil {
		t.Fatalf("update: %v", err)
	}
	d.Forget(handle)
	if err := d.Update(ctx, handle, snap); err != nil {
		t.Fatalf("update after forget: %v", err)
	}
	if posts != 1 || patches != 2 {
		t.Fatalf("posts=%d patches=%d, want 1 and 2", posts, patches)
	}
}

type stubPresenter struct {
	handle    string
	renderErr error
	updateErr error
	updates   []string
	forgotten []string
}

func (s *stubPresenter) Render(context.Context, engine.Snapshot) (string, error) {
	return s.handle, s.renderErr
}

func (s *stubPresenter) Update(_ context.Context, handle string, _ engine.Snapshot) error {
	s.updates = append(s.updates, handle)
	return s.updateErr
}

func (s *stubPresenter) Forget(handle string) {
	s.forgotten = append(s.forgotten, handle)
}

func TestFanoutPrimaryDecides(t *testing.T) {
	primary := &stubPresenter{handle: "h1"}
	secondary := &stubPresenter{handle: "ignored", renderErr: errors.New("down"), updateErr: errors.New("down")}
	f := NewFanout(primary, secondary)
	ctx := context.Background()
	snap := activeSnap()

	handle, err := f.Render(ctx, snap)
	if err != nil || handle != "h1" {
		t.Fatalf("render handle=%q err=%v", handle, err)
	}
	if err := f.Update(ctx, handle, snap); err != nil {
		t.Fatalf("secondary failure leaked: %v", err)
	}
	if len(secondary.updates) != 1 || secondary.updates[0] != snap.SessionID {
		t.Fatalf("secondary keyed by %v, want session id", secondary.updates)
	}

	primary.updateErr = fmt.Errorf("webhook gone")
	if err := f.Update(ctx, handle, snap); err == nil {
		t.Fatal("expected primary failure to surface")
	}
	f.Forget("h1")
	if len(primary.forgotten) != 1 {
		t.Fatalf("primary forgotten = %v", primary.forgotten)
	}
}

func TestFanoutDefaultsToNop(t *testing.T) {
	f := NewFanout(nil)
	if h, err := f.Render(context.Background(), activeSnap()); err != nil || h != "" {
		t.Fatalf("nop render h=%q err=%v", h, err)
	}
}
