package engine

import "strings"

// Bot tiers understood by the bundled rulesets.
const (
	TierSimple = "simple"
	TierMain   = "main"
)

// Participant is a player bound to a session. It is passed by value and never mutated
// once a session holds it.
type Participant struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Automated bool   `json:"automated"`
	Tier      string `json:"tier,omitempty"`
}

func (p Participant) Valid() bool {
	return strings.TrimSpace(p.ID) != ""
}

func (p Participant) DisplayName() string {
	if strings.TrimSpace(p.Name) != "" {
		return p.Name
	}
	return p.ID
}

func participantPtr(p Participant) *Participant {
	return &p
}

// BotFor returns the bot opponent for human. The id is derived from the human so two
// concurrent bot games never share a registry entry.
func BotFor(humanID, tier string) Participant {
	if tier == "" {
		tier = TierSimple
	}
	return Participant{ID: "bot:" + tier + ":" + humanID, Name: "Arcade Bot (" + tier + ")", Automated: true, Tier: tier}
}
