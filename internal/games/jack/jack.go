// Package jack implements Kidnapped Jack: players draw from each other's hands and shed
// pairs until one player is left holding the lone jack.
package jack

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"hexa-arcade/internal/engine"
)

const (
	Kind     = "jack"
	MoveDraw = "draw"

	MinPlayers = 2
	MaxPlayers = 10

	DefaultPairChance = 0.4
)

// Tally keys reported per participant.
const (
	TallyPlace     = "place"
	TallyEscaped   = "escaped"
	TallyKidnapper = "kidnapper"
	TallyDraws     = "draws"
)

var (
	ranks = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}
	suits = []string{"♠", "♥", "♦", "♣"}
)

type Card struct {
	Rank string `json:"rank"`
	Suit string `json:"suit"`
}

func (c Card) String() string { return c.Rank + c.Suit }

// Deck returns the 49 card deck: every jack except the jack of hearts is removed.
func Deck() []Card {
	deck := make([]Card, 0, 49)
	for _, s := range suits {
		for _, r := range ranks {
			if r == "J" && s != "♥" {
				continue
			}
			deck = append(deck, Card{Rank: r, Suit: s})
		}
	}
	return deck
}

type Rules struct {
	TurnTimeout time.Duration
	PairChance  float64
}

func NewRules(turnTimeout time.Duration, pairChance float64) *Rules {
	if pairChance <= 0 || pairChance > 1 {
		pairChance = DefaultPairChance
	}
	return &Rules{TurnTimeout: turnTimeout, PairChance: pairChance}
}

func (r *Rules) Kind() string { return Kind }

func (r *Rules) Limits() engine.Limits {
	return engine.Limits{
		MinPlayers:  MinPlayers,
		MaxPlayers:  MaxPlayers,
		TurnTimeout: r.TurnTimeout,
		AllowBots:   true,
		Lobby:       true,
	}
}

func (r *Rules) Variants() []string { return nil }

func (r *Rules) NewGame(players []engine.Participant, _ string, rng *rand.Rand) (engine.Game, error) {
	if len(players) < MinPlayers || len(players) > MaxPlayers {
		return nil, engine.ErrNotEnoughPlayers
	}
	g := &Game{pairChance: r.PairChance, rng: rng}
	for _, p := range players {
		g.hands = append(g.hands, &hand{id: p.ID, name: p.DisplayName()})
	}
	deck := Deck()
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	for i, c := range deck {
		h := g.hands[i%len(g.hands)]
		h.cards = append(h.cards, c)
	}
	for _, h := range g.hands {
		h.cards, _ = shedPairs(h.cards)
	}
	for _, h := range g.hands {
		if len(h.cards) == 0 {
			g.escape(h)
		}
	}
	return g, nil
}

func (r *Rules) Agent(tier string) engine.Agent {
	if tier == engine.TierSimple || tier == "" {
		return engine.AgentFunc(decideRandom)
	}
	return nil
}

type hand struct {
	id        string
	name      string
	cards     []Card
	place     int
	kidnapper bool
	draws     int
}

type Game struct {
	hands      []*hand
	places     []*hand
	departed   []*hand
	discarded  int
	pairChance float64
	rng        *rand.Rand
	over       bool
}

type HandView struct {
	Name      string `json:"name"`
	Cards     int    `json:"cards"`
	Place     int    `json:"place,omitempty"`
	Kidnapper bool   `json:"kidnapper,omitempty"`
}

type View struct {
	Hands     []HandView `json:"hands"`
	Discarded int        `json:"discarded"`
}

func (g *Game) Validate(seat int, m engine.Move) error {
	if m.Type != MoveDraw {
		return engine.Rule("unknown_move")
	}
	if m.Index == seat {
		return engine.Rule("cannot_draw_from_self")
	}
	if m.Index < 0 || m.Index >= len(g.hands) {
		return engine.Rule("target_out_of_range")
	}
	if len(g.hands[m.Index].cards) == 0 {
		return engine.Rule("target_has_no_cards")
	}
	return nil
}

func (g *Game) Apply(seat int, m engine.Move) engine.Result {
	drawer := g.hands[seat]
	target := g.hands[m.Index]

	i := g.rng.Intn(len(target.cards))
	card := target.cards[i]
	target.cards = append(target.cards[:i], target.cards[i+1:]...)
	drawer.cards = append(drawer.cards, card)
	drawer.draws++

	note := fmt.Sprintf("%s drew a card from %s", drawer.name, target.name)
	if g.rng.Float64() < g.pairChance {
		var shed []string
		drawer.cards, shed = shedPairs(drawer.cards)
		g.discarded += 2 * len(shed)
		if len(shed) > 0 {
			note = fmt.Sprintf("%s drew from %s and paired %s", drawer.name, target.name, strings.Join(shed, ", "))
		}
	}
	for _, h := range []*hand{target, drawer} {
		if len(h.cards) == 0 && h.place == 0 {
			g.escape(h)
			note = joinNote(note, fmt.Sprintf("%s escaped (place %d)", h.name, h.place))
		}
	}

	if res, done := g.checkOver(note); done {
		return res
	}
	return engine.Continue(note)
}

// checkOver ends the game once at most one hand holds cards.
func (g *Game) checkOver(note string) (engine.Result, bool) {
	var holders []int
	for i, h := range g.hands {
		if len(h.cards) > 0 {
			holders = append(holders, i)
		}
	}
	if len(holders) > 1 {
		return engine.Result{}, false
	}
	g.over = true
	loser := engine.NoSeat
	if len(holders) == 1 {
		k := g.hands[holders[0]]
		k.kidnapper = true
		g.escape(k)
		loser = holders[0]
		note = joinNote(note, fmt.Sprintf("%s is the Kidnapper", k.name))
	}
	winner := g.seatOf(g.places[0].id)
	if winner < 0 || winner == loser {
		return engine.Draw(note), true
	}
	return engine.Win(winner, loser, note), true
}

// Conclude settles the game when at most one hand holds cards and someone has already
// escaped. A lone survivor with no escapees is left to the engine.
func (g *Game) Conclude() (engine.Result, bool) {
	if g.over || len(g.places) == 0 || len(g.Holding(-1)) > 1 {
		return engine.Result{}, false
	}
	return g.checkOver("")
}

func (g *Game) escape(h *hand) {
	g.places = append(g.places, h)
	h.place = len(g.places)
}

func (g *Game) seatOf(id string) int {
	for i, h := range g.hands {
		if h.id == id {
			return i
		}
	}
	return -1
}

// Eliminated reports whether the seat has escaped.
func (g *Game) Eliminated(seat int) bool {
	return seat < 0 || seat >= len(g.hands) || len(g.hands[seat].cards) == 0
}

// RemoveSeat discards the leaver's cards.
func (g *Game) RemoveSeat(seat int) {
	if seat < 0 || seat >= len(g.hands) {
		return
	}
	h := g.hands[seat]
	g.discarded += len(h.cards)
	h.cards = nil
	g.departed = append(g.departed, h)
	g.hands = append(g.hands[:seat], g.hands[seat+1:]...)
	kept := g.places[:0]
	for _, p := range g.places {
		if p != h {
			kept = append(kept, p)
		}
	}
	g.places = kept
	for i, p := range g.places {
		p.place = i + 1
	}
}

// Standings lists escaped seats in place order, then holders by fewest cards.
func (g *Game) Standings() []int {
	var out []int
	for _, p := range g.places {
		if seat := g.seatOf(p.id); seat >= 0 {
			out = append(out, seat)
		}
	}
	var holders []int
	for i, h := range g.hands {
		if h.place == 0 {
			holders = append(holders, i)
		}
	}
	sort.SliceStable(holders, func(a, b int) bool {
		return len(g.hands[holders[a]].cards) < len(g.hands[holders[b]].cards)
	})
	return append(out, holders...)
}

func (g *Game) Tallies() map[string]engine.Tally {
	out := map[string]engine.Tally{}
	for _, h := range g.hands {
		t := engine.Tally{TallyDraws: int64(h.draws)}
		if h.place > 0 {
			t[TallyPlace] = int64(h.place)
		}
		switch {
		case h.kidnapper:
			t[TallyKidnapper] = 1
		case h.place > 0:
			t[TallyEscaped] = 1
		}
		out[h.id] = t
	}
	return out
}

// Holding returns the seats other than seat that still hold cards.
func (g *Game) Holding(seat int) []int {
	var out []int
	for i, h := range g.hands {
		if i != seat && len(h.cards) > 0 {
			out = append(out, i)
		}
	}
	return out
}

func (g *Game) View(int) any {
	v := View{Discarded: g.discarded}
	for _, h := range g.hands {
		v.Hands = append(v.Hands, HandView{Name: h.name, Cards: len(h.cards), Place: h.place, Kidnapper: h.kidnapper})
	}
	return v
}

func (g *Game) Describe(turn int) string {
	var b strings.Builder
	for i, h := range g.hands {
		if i > 0 {
			b.WriteString("\n")
		}
		marker := " "
		if i == turn && !g.over {
			marker = ">"
		}
		switch {
		case h.kidnapper:
			fmt.Fprintf(&b, "%s %d. %s: kidnapper", marker, i, h.name)
		case h.place > 0:
			fmt.Fprintf(&b, "%s %d. %s: escaped #%d", marker, i, h.name, h.place)
		default:
			fmt.Fprintf(&b, "%s %d. %s: %d cards", marker, i, h.name, len(h.cards))
		}
	}
	return b.String()
}

// shedPairs removes every pair of equal rank from cards and returns the ranks shed.
func shedPairs(cards []Card) ([]Card, []string) {
	byRank := map[string][]int{}
	for i, c := range cards {
		byRank[c.Rank] = append(byRank[c.Rank], i)
	}
	drop := map[int]bool{}
	var shed []string
	for _, r := range ranks {
		idx := byRank[r]
		for len(idx) >= 2 {
			drop[idx[0]], drop[idx[1]] = true, true
			idx = idx[2:]
			shed = append(shed, r)
		}
	}
	if len(drop) == 0 {
		return cards, nil
	}
	kept := make([]Card, 0, len(cards)-len(drop))
	for i, c := range cards {
		if !drop[i] {
			kept = append(kept, c)
		}
	}
	return kept, shed
}

func joinNote(note, more string) string {
	if note == "" {
		return more
	}
	return note + ". " + more
}
