package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"
)

// stepRules is a minimal ruleset: "step" passes the turn, "win" ends the game for the
// actor, "keep" scores and keeps the turn, "skip" skips the next seat, "out" eliminates
// the seat at Index.
type stepRules struct {
	limits Limits
	agent  Agent
}

func (r *stepRules) Kind() string { return "step" }
func (r *stepRules) Limits() Limits { return r.limits }
func (r *stepRules) Variants() []string { return nil }
func (r *stepRules) Agent(string) Agent { return r.agent }

func (r *stepRules) NewGame(players []Participant, _ string, _ *rand.Rand) (Game, error) {
	return &stepGame{ids: participantIDs(players), out: make([]bool, len(players)), score: make([]int, len(players))}, nil
}

type stepGame struct {
	ids   []string
	out   []bool
	score []int
	moves int
}

type stepView struct {
	Moves int   `json:"moves"`
	Score []int `json:"score"`
}

func (g *stepGame) Validate(seat int, m Move) error {
	switch m.Type {
	case "step", "win", "keep", "skip", "draw":
		return nil
	case "out":
		if m.Index < 0 || m.Index >= len(g.out) || g.out[m.Index] {
			return Rule("invalid_target")
		}
		return nil
	default:
		return Rule("unknown_move")
	}
}

func (g *stepGame) Apply(seat int, m Move) Result {
	g.moves++
	switch m.Type {
	case "win":
		return Win(seat, NoSeat, "won")
	case "draw":
		return Draw("drawn")
	case "keep":
		g.score[seat]++
		res := Continue("scored")
		res.KeepTurn = true
		return res
	case "skip":
		res := Continue("skipping")
		res.SkipNext = true
		return res
	case "out":
		g.out[m.Index] = true
		return Continue(fmt.Sprintf("seat %d out", m.Index))
	}
	return Continue("stepped")
}

func (g *stepGame) Eliminated(seat int) bool { return g.out[seat] }

func (g *stepGame) RemoveSeat(seat int) {
	g.ids = append(g.ids[:seat], g.ids[seat+1:]...)
	g.out = append(g.out[:seat], g.out[seat+1:]...)
	g.score = append(g.score[:seat], g.score[seat+1:]...)
}

func (g *stepGame) View(int) any {
	return stepView{Moves: g.moves, Score: append([]int(nil), g.score...)}
}

func (g *stepGame) Standings() []int {
	seats := make([]int, len(g.score))
	for i := range seats {
		seats[i] = i
	}
	for i := 1; i < len(seats); i++ {
		for j := i; j > 0 && g.score[seats[j]] > g.score[seats[j-1]]; j-- {
			seats[j], seats[j-1] = seats[j-1], seats[j]
		}
	}
	return seats
}

func participantIDs(players []Participant) []string {
	out := make([]string, len(players))
	for i, p := range players {
		out[i] = p.ID
	}
	return out
}

type recordingRecorder struct {
	mu        sync.Mutex
	records   []Record
	deadlines []time.Time
	err       error
}

func (r *recordingRecorder) RecordOutcome(ctx context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	deadline, _ := ctx.Deadline()
	r.deadlines = append(r.deadlines, deadline)
	return r.err
}

func (r *recordingRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

func (r *recordingRecorder) last() Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records[len(r.records)-1]
}

type fakePresenter struct {
	mu        sync.Mutex
	renders   int
	updates   int
	failAfter int
}

func (p *fakePresenter) Render(context.Context, Snapshot) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.renders++
	return fmt.Sprintf("msg-%d", p.renders), nil
}

func (p *fakePresenter) Update(context.Context, string, Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates++
	if p.failAfter > 0 && p.updates >= p.failAfter {
		return errors.New("webhook gone")
	}
	return nil
}

type memCooldowns struct {
	mu    sync.Mutex
	until map[string]time.Time
}

func (m *memCooldowns) Acquire(_ context.Context, key string, ttl time.Duration) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.until == nil {
		m.until = map[string]time.Time{}
	}
	now := time.Now()
	if until, ok := m.until[key]; ok && now.Before(until) {
		return false, until.Sub(now), nil
	}
	m.until[key] = now.Add(ttl)
	return true, 0, nil
}

func twoPlayerRules(timeout time.Duration) *stepRules {
	return &stepRules{limits: Limits{MinPlayers: 2, MaxPlayers: 2, TurnTimeout: timeout, AllowBots: true}}
}

func newTestCoordinator(t *testing.T, rules Ruleset, opts Options) (*Coordinator, *recordingRecorder) {
	t.Helper()
	rec := &recordingRecorder{}
	if opts.Recorder == nil {
		opts.Recorder = rec
	}
	n := 0
	var mu sync.Mutex
	opts.NewID = func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
	opts.NewRand = func() *rand.Rand { return rand.New(rand.NewSource(7)) }
	return NewCoordinator([]Ruleset{rules}, opts), rec
}

func startDuel(t *testing.T, c *Coordinator, a, b Participant) Snapshot {
	t.Helper()
	inv, err := c.Challenge(context.Background(), "step", a, b, SessionOptions{})
	if err != nil {
		t.Fatalf("challenge: %v", err)
	}
	snap, err := c.Accept(context.Background(), inv.InviteID, b.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	return snap
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

var (
	alice = Participant{ID: "u-alice", Name: "Alice"}
	bob   = Participant{ID: "u-bob", Name: "Bob"}
	carol = Participant{ID: "u-carol", Name: "Carol"}
	dave  = Participant{ID: "u-dave", Name: "Dave"}
)
