// Package duel implements a two player fighting game: punches, kicks, defense and a
// limited number of heals, with optional modes that change the rules.
package duel

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"hexa-arcade/internal/engine"
)

const Kind = "duel"

const (
	MaxHP      = 100
	MaxDefense = 5
	MaxHeals   = 3
	HealAmount = 20

	punchDamage     = 10
	punchCritDamage = 20
	punchHitChance  = 0.8
	punchCritChance = 0.2
	punchDefReduce  = 1

	kickDamage     = 20
	kickCritDamage = 40
	kickHitChance  = 0.6
	kickCritChance = 0.125
	kickDefReduce  = 3

	defendMin = 1
	defendMax = 5

	poisonAmount = 5
	regenAmount  = 5
	stunChance   = 0.25
)

const (
	MovePunch  = "punch"
	MoveKick   = "kick"
	MoveDefend = "defend"
	MoveHeal   = "heal"
)

const (
	ModeNormal    = "normal"
	ModeNoHealing = "nohealing"
	ModePoison    = "poison"
	ModeRegen     = "regen"
	ModeStun      = "stun"
	ModeBlind     = "blind"
)

var modes = []string{ModeNormal, ModeNoHealing, ModePoison, ModeRegen, ModeStun, ModeBlind}

type Rules struct {
	TurnTimeout   time.Duration
	StartCooldown time.Duration
}

func NewRules(turnTimeout, startCooldown time.Duration) *Rules {
	return &Rules{TurnTimeout: turnTimeout, StartCooldown: startCooldown}
}

func (r *Rules) Kind() string { return Kind }

func (r *Rules) Limits() engine.Limits {
	return engine.Limits{
		MinPlayers:    2,
		MaxPlayers:    2,
		TurnTimeout:   r.TurnTimeout,
		StartCooldown: r.StartCooldown,
		AllowBots:     true,
	}
}

func (r *Rules) Variants() []string {
	return append([]string(nil), modes...)
}

func (r *Rules) NewGame(players []engine.Participant, variant string, rng *rand.Rand) (engine.Game, error) {
	if len(players) != 2 {
		return nil, engine.ErrNotEnoughPlayers
	}
	if variant == "" {
		variant = ModeNormal
	}
	g := &Game{mode: variant, rng: rng}
	for _, p := range players {
		g.fighters = append(g.fighters, &fighter{
			name:      p.DisplayName(),
			hp:        MaxHP,
			heals:     MaxHeals,
			critBoost: p.Automated && p.Tier == engine.TierMain,
		})
	}
	return g, nil
}

func (r *Rules) Agent(tier string) engine.Agent {
	switch tier {
	case engine.TierMain:
		return mainAgent{}
	case engine.TierSimple, "":
		return simpleAgent{}
	default:
		return nil
	}
}

type fighter struct {
	name      string
	hp        int
	defense   int
	heals     int
	critBoost bool
}

// Fighter is a read-only copy of one side's stats.
type Fighter struct {
	Name    string `json:"name"`
	HP      int    `json:"hp"`
	Defense int    `json:"defense"`
	Heals   int    `json:"heals"`
	Hidden  bool   `json:"hidden,omitempty"`
}

type View struct {
	Mode     string    `json:"mode"`
	Fighters []Fighter `json:"fighters"`
}

type Game struct {
	mode     string
	fighters []*fighter
	rng      *rand.Rand
}

func (g *Game) Mode() string { return g.mode }

func (g *Game) Fighter(seat int) Fighter {
	f := g.fighters[seat]
	return Fighter{Name: f.name, HP: f.hp, Defense: f.defense, Heals: f.heals}
}

func (g *Game) CanHeal(seat int) bool {
	f := g.fighters[seat]
	return g.mode != ModeNoHealing && f.heals > 0 && f.hp < MaxHP
}

func (g *Game) Validate(seat int, m engine.Move) error {
	switch m.Type {
	case MovePunch, MoveKick, MoveDefend:
		return nil
	case MoveHeal:
		f := g.fighters[seat]
		switch {
		case g.mode == ModeNoHealing:
			return engine.Rule("healing_disabled")
		case f.heals == 0:
			return engine.Rule("no_heals_left")
		case f.hp >= MaxHP:
			return engine.Rule("hp_full")
		}
		return nil
	default:
		return engine.Rule("unknown_move")
	}
}

func (g *Game) Apply(seat int, m engine.Move) engine.Result {
	attacker := g.fighters[seat]
	other := 1 - seat
	defender := g.fighters[other]

	var note string
	stunned := false
	switch m.Type {
	case MovePunch:
		note, stunned = g.attack(attacker, defender, punchHitChance, punchCritChance, punchDamage, punchCritDamage, punchDefReduce, "punch")
	case MoveKick:
		note, stunned = g.attack(attacker, defender, kickHitChance, kickCritChance, kickDamage, kickCritDamage, kickDefReduce, "kick")
	case MoveDefend:
		gain := defendMin + g.rng.Intn(defendMax-defendMin+1)
		before := attacker.defense
		attacker.defense = min(attacker.defense+gain, MaxDefense)
		note = fmt.Sprintf("%s raises their guard (+%d defense)", attacker.name, attacker.defense-before)
	case MoveHeal:
		healed := min(HealAmount, MaxHP-attacker.hp)
		attacker.hp += healed
		attacker.heals--
		note = fmt.Sprintf("%s heals %d HP", attacker.name, healed)
	}

	switch g.mode {
	case ModePoison:
		for _, f := range g.fighters {
			f.hp = max(0, f.hp-poisonAmount)
		}
	case ModeRegen:
		for _, f := range g.fighters {
			if f.hp > 0 {
				f.hp = min(MaxHP, f.hp+regenAmount)
			}
		}
	}

	switch {
	case defender.hp <= 0:
		return engine.Win(seat, other, note+fmt.Sprintf(". %s is knocked out", defender.name))
	case attacker.hp <= 0:
		return engine.Win(other, seat, note+fmt.Sprintf(". %s collapses", attacker.name))
	}
	res := engine.Continue(note)
	if stunned {
		res.SkipNext = true
	}
	return res
}

func (g *Game) attack(attacker, defender *fighter, hitChance, critChance float64, dmg, critDmg, defReduce int, verb string) (string, bool) {
	if g.rng.Float64() >= hitChance {
		return fmt.Sprintf("%s misses the %s", attacker.name, verb), false
	}
	if attacker.critBoost {
		critChance *= 2
	}
	crit := g.rng.Float64() < critChance
	if crit {
		dmg = critDmg
	}
	reduced := min(defender.defense, dmg)
	taken := dmg - reduced
	defender.hp -= taken
	defender.defense = max(0, defender.defense-defReduce)

	note := fmt.Sprintf("%s lands a %s on %s for %d", attacker.name, verb, defender.name, taken)
	if crit {
		note = fmt.Sprintf("%s lands a critical %s on %s for %d", attacker.name, verb, defender.name, taken)
	}
	if reduced > 0 {
		note += fmt.Sprintf(" (%d blocked)", reduced)
	}
	if g.mode == ModeStun && g.rng.Float64() < stunChance {
		return note + fmt.Sprintf(". %s is stunned", defender.name), true
	}
	return note, false
}

func (g *Game) Eliminated(int) bool { return false }

func (g *Game) RemoveSeat(seat int) {
	if seat >= 0 && seat < len(g.fighters) {
		g.fighters = append(g.fighters[:seat], g.fighters[seat+1:]...)
	}
}

func (g *Game) View(turn int) any {
	v := View{Mode: g.mode}
	for i := range g.fighters {
		f := g.Fighter(i)
		if g.mode == ModeBlind && i != turn {
			f = Fighter{Name: f.Name, Hidden: true}
		}
		v.Fighters = append(v.Fighters, f)
	}
	return v
}

func (g *Game) Describe(turn int) string {
	var b strings.Builder
	for i, f := range g.View(turn).(View).Fighters {
		if i > 0 {
			b.WriteString("\n")
		}
		if f.Hidden {
			fmt.Fprintf(&b, "%s: ???", f.Name)
			continue
		}
		fmt.Fprintf(&b, "%s: %s %d/%d | DEF %d/%d | heals %d", f.Name, hpBar(f.HP), max(0, f.HP), MaxHP, f.Defense, MaxDefense, f.Heals)
	}
	return b.String()
}

func hpBar(hp int) string {
	hp = min(max(hp, 0), MaxHP)
	return strings.Repeat("#", hp/10) + strings.Repeat(".", (MaxHP-hp)/10)
}
