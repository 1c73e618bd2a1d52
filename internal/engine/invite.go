package engine

import (
	"sync"
	"time"
)

type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteDeclined InviteStatus = "declined"
	InviteExpired  InviteStatus = "expired"
)

// Invite is a pending challenge between two participants. The first of accept, decline or
// expire resolves it; later attempts fail with ErrInviteResolved.
type Invite struct {
	mu sync.Mutex

	id         string
	kind       string
	opts       SessionOptions
	challenger Participant
	challenged Participant
	createdAt  time.Time
	expiresAt  time.Time
	status     InviteStatus
	resolvedAt time.Time
	sessionID  string

	clock *TurnClock
}

type InviteSnapshot struct {
	InviteID   string       `json:"invite_id"`
	Kind       string       `json:"kind"`
	Variant    string       `json:"variant,omitempty"`
	Scope      string       `json:"scope,omitempty"`
	Challenger Participant  `json:"challenger"`
	Challenged Participant  `json:"challenged"`
	Status     InviteStatus `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	ExpiresAt  time.Time    `json:"expires_at"`
	SessionID  string       `json:"session_id,omitempty"`
}

func newInvite(id, kind string, opts SessionOptions, challenger, challenged Participant, timeout time.Duration, now time.Time) *Invite {
	return &Invite{
		id:         id,
		kind:       kind,
		opts:       opts,
		challenger: challenger,
		challenged: challenged,
		createdAt:  now,
		expiresAt:  now.Add(timeout),
		status:     InvitePending,
		clock:      NewTurnClock(),
	}
}

func (i *Invite) ID() string {
	return i.id
}

func (i *Invite) Accept(actorID string, now time.Time) error {
	_, err := i.resolve(actorID, InviteAccepted, now)
	return err
}

func (i *Invite) Decline(actorID string, now time.Time) error {
	_, err := i.resolve(actorID, InviteDeclined, now)
	return err
}

// expire resolves the invite if the deadline generation gen is still current.
func (i *Invite) expire(gen uint64, now time.Time) bool {
	if !i.clock.Claim(gen) {
		return false
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.status != InvitePending {
		return false
	}
	i.status = InviteExpired
	i.resolvedAt = now
	return true
}

// resolve moves a pending invite to status. An attempt at or past the deadline expires
// the invite instead and reports lapsed so the caller can announce it.
func (i *Invite) resolve(actorID string, to InviteStatus, now time.Time) (lapsed bool, err error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if actorID != i.challenged.ID {
		return false, ErrNotInvitee
	}
	if i.status != InvitePending {
		return false, ErrInviteResolved
	}
	i.clock.Cancel()
	i.resolvedAt = now
	if !now.Before(i.expiresAt) {
		i.status = InviteExpired
		return true, ErrInviteResolved
	}
	i.status = to
	return false, nil
}

func (i *Invite) setSession(id string) {
	i.mu.Lock()
	i.sessionID = id
	i.mu.Unlock()
}

func (i *Invite) resolvedBefore(cutoff time.Time) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.status != InvitePending && i.resolvedAt.Before(cutoff)
}

func (i *Invite) Snapshot() InviteSnapshot {
	i.mu.Lock()
	defer i.mu.Unlock()
	return InviteSnapshot{
		InviteID:   i.id,
		Kind:       i.kind,
		Variant:    i.opts.Variant,
		Scope:      i.opts.Scope,
		Challenger: i.challenger,
		Challenged: i.challenged,
		Status:     i.status,
		CreatedAt:  i.createdAt,
		ExpiresAt:  i.expiresAt,
		SessionID:  i.sessionID,
	}
}
