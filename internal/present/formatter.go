package present

import (
	"fmt"
	"strings"
	"time"

	"hexa-arcade/internal/engine"
	"hexa-arcade/internal/present/platforms"
)

const (
	colorForming = 0xFEE75C
	colorActive  = 0x5865F2
	colorWon     = 0x57F287
	colorDraw    = 0x99AAB5
	colorAborted = 0xED4245

	defaultFooter = "hexa-arcade"
	notesShown    = 3
)

var titles = map[string]string{
	"duel":      "⚔️ Duel",
	"tictactoe": "❌⭕ Tic-Tac-Toe",
	"flipfind":  "🃏 Flip & Find",
	"jack":      "🂫 Kidnapped Jack",
}

// Format renders a snapshot as a single chat panel.
func Format(snap engine.Snapshot) platforms.Message {
	msg := platforms.Message{
		Title:       title(snap),
		Description: snap.Board,
		Footer:      footer(snap),
	}
	if !snap.StartedAt.IsZero() {
		msg.Timestamp = snap.StartedAt.UTC().Format(time.RFC3339)
	}
	msg.Fields = append(msg.Fields, platforms.Field{Name: "Players", Value: playerList(snap), Inline: false})

	switch snap.State {
	case engine.StateForming:
		msg.Color = colorForming
		host, _ := snap.Host()
		msg.Content = fmt.Sprintf("%s opened a lobby (%d joined)", host.DisplayName(), len(snap.Players))
	case engine.StateActive:
		msg.Color = colorActive
		if snap.Current != nil {
			msg.Content = fmt.Sprintf("%s to move", mention(*snap.Current))
			msg.Fields = append(msg.Fields, platforms.Field{
				Name:   "Turn",
				Value:  fmt.Sprintf("%s · %s left", snap.Current.DisplayName(), seconds(snap.TurnRemainingMS)),
				Inline: true,
			})
		}
		if snap.GameRemainingMS > 0 {
			msg.Fields = append(msg.Fields, platforms.Field{Name: "Game clock", Value: seconds(snap.GameRemainingMS), Inline: true})
		}
	case engine.StateOver:
		msg.Content, msg.Color = outcomeText(snap.Outcome)
	}
	if notes := lastNotes(snap.Notes); notes != "" {
		msg.Fields = append(msg.Fields, platforms.Field{Name: "Log", Value: notes, Inline: false})
	}
	return msg
}

func title(snap engine.Snapshot) string {
	t, ok := titles[snap.Kind]
	if !ok {
		t = snap.Kind
	}
	if snap.Variant != "" {
		t += " · " + snap.Variant
	}
	return t
}

func footer(snap engine.Snapshot) string {
	return fmt.Sprintf("%s · session %s · turn %d", defaultFooter, shortID(snap.SessionID), snap.Turns)
}

func playerList(snap engine.Snapshot) string {
	if len(snap.Players) == 0 {
		return "-"
	}
	names := make([]string, 0, len(snap.Players))
	for i, p := range snap.Players {
		name := p.DisplayName()
		if p.Automated {
			name += " 🤖"
		}
		if snap.State == engine.StateActive && i == snap.Turn {
			name = "▶ " + name
		}
		names = append(names, name)
	}
	return strings.Join(names, "\n")
}

func outcomeText(o *engine.Outcome) (string, int) {
	if o == nil {
		return "game over", colorDraw
	}
	switch o.Kind {
	case engine.OutcomeWinner:
		if o.Winner == nil {
			return "game over", colorWon
		}
		text := fmt.Sprintf("🏆 %s wins", o.Winner.DisplayName())
		if suffix := reasonSuffix(o.Reason, o.Loser); suffix != "" {
			text += " " + suffix
		}
		return text, colorWon
	case engine.OutcomeDraw:
		return "🤝 draw", colorDraw
	default:
		return fmt.Sprintf("game aborted (%s)", o.Reason), colorAborted
	}
}

func reasonSuffix(r engine.Reason, loser *engine.Participant) string {
	name := "opponent"
	if loser != nil {
		name = loser.DisplayName()
	}
	switch r {
	case engine.ReasonTimeout:
		return fmt.Sprintf("(%s timed out)", name)
	case engine.ReasonForfeit:
		return fmt.Sprintf("(%s forfeited)", name)
	case engine.ReasonLastStanding:
		return "(last player standing)"
	case engine.ReasonTimeLimit:
		return "(time limit)"
	default:
		return ""
	}
}

func mention(p engine.Participant) string {
	if p.Automated {
		return p.DisplayName()
	}
	return "<@" + p.ID + ">"
}

func lastNotes(notes []string) string {
	if len(notes) > notesShown {
		notes = notes[len(notes)-notesShown:]
	}
	return strings.Join(notes, "\n")
}

func seconds(ms int64) string {
	return fmt.Sprintf("%ds", (ms+999)/1000)
}

func shortID(id string) string {
	if len(id) <= 10 {
		return id
	}
	return id[len(id)-10:]
}
