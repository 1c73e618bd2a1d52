package engine

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"hexa-arcade/internal/store"

	"github.com/rs/zerolog/log"
)

const (
	defaultInviteTimeout = 60 * time.Second
	defaultLobbyTimeout  = 120 * time.Second
	defaultBotDelay      = time.Second
	defaultRetention     = 10 * time.Minute

	recordTimeout = 5 * time.Second
)

type Options struct {
	InviteTimeout time.Duration
	LobbyTimeout  time.Duration
	BotThinkDelay time.Duration
	Retention     time.Duration

	Presenter Presenter
	Recorder  Recorder
	Observer  LifecycleObserver
	Cooldowns CooldownStore

	NewID   func() string
	NewRand func() *rand.Rand
	Now     func() time.Time
}

// Coordinator owns every session and invite of the process.
type Coordinator struct {
	rulesets   map[string]Ruleset
	registry   *Registry
	dispatcher *Dispatcher
	presenter  Presenter
	recorder   Recorder
	observer   LifecycleObserver
	cooldowns  CooldownStore

	inviteTimeout time.Duration
	lobbyTimeout  time.Duration
	botDelay      time.Duration
	retention     time.Duration

	newID   func() string
	newRand func() *rand.Rand
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	invites  map[string]*Invite
}

type GameInfo struct {
	Kind          string   `json:"kind"`
	MinPlayers    int      `json:"min_players"`
	MaxPlayers    int      `json:"max_players"`
	TurnTimeoutMS int64    `json:"turn_timeout_ms"`
	AllowBots     bool     `json:"allow_bots"`
	Lobby         bool     `json:"lobby"`
	Variants      []string `json:"variants,omitempty"`
	BotTiers      []string `json:"bot_tiers,omitempty"`
}

func NewCoordinator(rulesets []Ruleset, opts Options) *Coordinator {
	c := &Coordinator{
		rulesets:      map[string]Ruleset{},
		registry:      NewRegistry(),
		presenter:     opts.Presenter,
		recorder:      opts.Recorder,
		observer:      opts.Observer,
		cooldowns:     opts.Cooldowns,
		inviteTimeout: opts.InviteTimeout,
		lobbyTimeout:  opts.LobbyTimeout,
		botDelay:      opts.BotThinkDelay,
		retention:     opts.Retention,
		newID:         opts.NewID,
		newRand:       opts.NewRand,
		now:           opts.Now,
		sessions:      map[string]*Session{},
		invites:       map[string]*Invite{},
	}
	for _, r := range rulesets {
		c.rulesets[r.Kind()] = r
	}
	if c.presenter == nil {
		c.presenter = NopPresenter{}
	}
	if c.recorder == nil {
		c.recorder = NopRecorder{}
	}
	if c.observer == nil {
		c.observer = NopObserver{}
	}
	if c.inviteTimeout <= 0 {
		c.inviteTimeout = defaultInviteTimeout
	}
	if c.lobbyTimeout <= 0 {
		c.lobbyTimeout = defaultLobbyTimeout
	}
	if c.botDelay < 0 {
		c.botDelay = defaultBotDelay
	}
	if c.retention <= 0 {
		c.retention = defaultRetention
	}
	if c.newID == nil {
		c.newID = store.NewID
	}
	if c.newRand == nil {
		c.newRand = func() *rand.Rand { return rand.New(rand.NewSource(time.Now().UnixNano())) }
	}
	if c.now == nil {
		c.now = time.Now
	}
	c.dispatcher = NewDispatcher(c.registry)
	c.dispatcher.now = c.now
	c.dispatcher.onTurnTimeout = c.scheduleTurnTimeout
	c.dispatcher.onTimeLimit = c.scheduleTimeLimit
	c.dispatcher.onBotTurn = c.scheduleBotTurn
	return c
}

func (c *Coordinator) Registry() *Registry {
	return c.registry
}

func (c *Coordinator) Games() []GameInfo {
	out := make([]GameInfo, 0, len(c.rulesets))
	for kind, r := range c.rulesets {
		l := r.Limits()
		info := GameInfo{
			Kind:          kind,
			MinPlayers:    l.MinPlayers,
			MaxPlayers:    l.MaxPlayers,
			TurnTimeoutMS: l.TurnTimeout.Milliseconds(),
			AllowBots:     l.AllowBots,
			Lobby:         l.Lobby,
			Variants:      r.Variants(),
		}
		if l.AllowBots {
			for _, tier := range []string{TierSimple, TierMain} {
				if r.Agent(tier) != nil {
					info.BotTiers = append(info.BotTiers, tier)
				}
			}
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// Challenge opens an invite from challenger to challenged.
func (c *Coordinator) Challenge(ctx context.Context, kind string, challenger, challenged Participant, opts SessionOptions) (InviteSnapshot, error) {
	rules, opts, err := c.prepare(kind, opts)
	if err != nil {
		return InviteSnapshot{}, err
	}
	if rules.Limits().Lobby {
		return InviteSnapshot{}, ErrLobbyGame
	}
	if !challenger.Valid() || !challenged.Valid() || challenger.Automated || challenged.Automated {
		return InviteSnapshot{}, ErrInvalidParticipant
	}
	if challenger.ID == challenged.ID {
		return InviteSnapshot{}, ErrSelfChallenge
	}
	if err := c.ensureFree(challenger, challenged); err != nil {
		return InviteSnapshot{}, err
	}
	if err := c.acquireCooldown(ctx, rules, challenger); err != nil {
		return InviteSnapshot{}, err
	}

	inv := newInvite(c.newID(), rules.Kind(), opts, challenger, challenged, c.inviteTimeout, c.now())
	c.mu.Lock()
	c.invites[inv.id] = inv
	c.mu.Unlock()
	inv.clock.Start(c.inviteTimeout, func(gen uint64) { c.expireInvite(inv, gen) })

	log.Info().
		Str("invite_id", inv.id).
		Str("kind", inv.kind).
		Str("challenger", challenger.ID).
		Str("challenged", challenged.ID).
		Msg("invite created")
	return inv.Snapshot(), nil
}

// Accept resolves the invite and starts the session between both participants.
func (c *Coordinator) Accept(ctx context.Context, inviteID, actorID string) (Snapshot, error) {
	inv, err := c.invite(inviteID)
	if err != nil {
		return Snapshot{}, err
	}
	if err := c.resolveInvite(inv, actorID, InviteAccepted); err != nil {
		return Snapshot{}, err
	}
	c.observer.OnInviteResolved(inv.Snapshot())
	rules := c.rulesets[inv.kind]
	s, snap, err := c.createActive(ctx, rules, []Participant{inv.challenger, inv.challenged}, inv.opts)
	if err != nil {
		log.Warn().Err(err).Str("invite_id", inv.id).Msg("accepted invite could not start")
		return Snapshot{}, err
	}
	inv.setSession(s.id)
	return snap, nil
}

func (c *Coordinator) Decline(ctx context.Context, inviteID, actorID string) (InviteSnapshot, error) {
	inv, err := c.invite(inviteID)
	if err != nil {
		return InviteSnapshot{}, err
	}
	if err := c.resolveInvite(inv, actorID, InviteDeclined); err != nil {
		return InviteSnapshot{}, err
	}
	snap := inv.Snapshot()
	log.Info().Str("invite_id", inv.id).Msg("invite declined")
	c.observer.OnInviteResolved(snap)
	return snap, nil
}

func (c *Coordinator) Invite(inviteID string) (InviteSnapshot, error) {
	inv, err := c.invite(inviteID)
	if err != nil {
		return InviteSnapshot{}, err
	}
	return inv.Snapshot(), nil
}

// CreateAgainstBot starts an active session between human and a bot of the given tier.
func (c *Coordinator) CreateAgainstBot(ctx context.Context, kind string, human, bot Participant, opts SessionOptions) (Snapshot, error) {
	rules, opts, err := c.prepare(kind, opts)
	if err != nil {
		return Snapshot{}, err
	}
	if !human.Valid() || !bot.Valid() || human.Automated || human.ID == bot.ID {
		return Snapshot{}, ErrInvalidParticipant
	}
	bot.Automated = true
	if bot.Tier == "" {
		bot.Tier = TierSimple
	}
	if !rules.Limits().AllowBots || rules.Agent(bot.Tier) == nil {
		return Snapshot{}, ErrBotsNotAllowed
	}
	if err := c.ensureFree(human, bot); err != nil {
		return Snapshot{}, err
	}
	if err := c.acquireCooldown(ctx, rules, human); err != nil {
		return Snapshot{}, err
	}
	_, snap, err := c.createActive(ctx, rules, []Participant{human, bot}, opts)
	return snap, err
}

// SubmitAction routes an action for actor into the session.
func (c *Coordinator) SubmitAction(ctx context.Context, sessionID string, actor Participant, a Action) (Applied, error) {
	s, err := c.session(sessionID)
	if err != nil {
		return Applied{}, err
	}
	s.mu.Lock()
	before := s.state
	applied, err := c.dispatcher.Apply(s, actor, a)
	changed := err == nil || s.state != before
	if changed {
		c.publishLocked(ctx, s)
	}
	started := before == StateForming && s.state == StateActive
	ended := s.state == StateOver
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err != nil {
		log.Debug().Err(err).Str("session_id", sessionID).Str("participant_id", actor.ID).Str("action", string(a.Kind)).Msg("action rejected")
	}
	if started {
		c.started(snap)
	}
	if ended {
		c.finish(s)
	}
	if err == nil && applied.SessionEnded && snap.Outcome != nil {
		applied.Outcome = snap.Outcome
	}
	return applied, err
}

// Abort ends a running or forming session without a winner.
func (c *Coordinator) Abort(ctx context.Context, sessionID string, reason Reason) error {
	s, err := c.session(sessionID)
	if err != nil {
		return err
	}
	if reason == "" {
		reason = ReasonAdmin
	}
	s.mu.Lock()
	if s.state == StateOver {
		s.mu.Unlock()
		return ErrNotActive
	}
	c.dispatcher.Abort(s, reason)
	c.publishLocked(ctx, s)
	s.mu.Unlock()
	log.Info().Str("session_id", sessionID).Str("reason", string(reason)).Msg("session aborted")
	c.finish(s)
	return nil
}

// Rematch starts a new session with the players of a finished one.
func (c *Coordinator) Rematch(ctx context.Context, sessionID, actorID string) (Snapshot, error) {
	old, err := c.session(sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	old.mu.Lock()
	if old.state != StateOver {
		old.mu.Unlock()
		return Snapshot{}, ErrNotOver
	}
	seat := old.seatOf(actorID)
	if seat < 0 {
		old.mu.Unlock()
		return Snapshot{}, ErrNotParticipant
	}
	players := append([]Participant(nil), old.players...)
	// The requester hosts the rematch.
	players[0], players[seat] = players[seat], players[0]
	opts := SessionOptions{Variant: old.variant, Scope: old.scope}
	rules := old.rules
	old.mu.Unlock()

	if err := c.ensureFree(players...); err != nil {
		return Snapshot{}, err
	}
	if !rules.Limits().Lobby && len(players) < rules.Limits().MinPlayers {
		return Snapshot{}, ErrNotEnoughPlayers
	}
	if err := c.acquireCooldown(ctx, rules, players[0]); err != nil {
		return Snapshot{}, err
	}
	if rules.Limits().Lobby {
		return c.openLobby(ctx, rules, players, opts)
	}
	_, snap, err := c.createActive(ctx, rules, players, opts)
	return snap, err
}

func (c *Coordinator) Snapshot(sessionID string) (Snapshot, error) {
	s, err := c.session(sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	return s.Snapshot(), nil
}

// SessionFor returns the session participantID is currently bound to.
func (c *Coordinator) SessionFor(participantID string) (Snapshot, bool) {
	id, ok := c.registry.SessionFor(participantID)
	if !ok {
		return Snapshot{}, false
	}
	snap, err := c.Snapshot(id)
	if err != nil {
		return Snapshot{}, false
	}
	return snap, true
}

func (c *Coordinator) prepare(kind string, opts SessionOptions) (Ruleset, SessionOptions, error) {
	rules, ok := c.rulesets[strings.ToLower(strings.TrimSpace(kind))]
	if !ok {
		return nil, opts, ErrUnknownKind
	}
	variants := rules.Variants()
	if len(variants) == 0 {
		opts.Variant = ""
		return rules, opts, nil
	}
	if opts.Variant == "" {
		opts.Variant = variants[0]
		return rules, opts, nil
	}
	opts.Variant = strings.ToLower(strings.TrimSpace(opts.Variant))
	for _, v := range variants {
		if v == opts.Variant {
			return rules, opts, nil
		}
	}
	return nil, opts, ErrUnknownVariant
}

func (c *Coordinator) ensureFree(participants ...Participant) error {
	for _, p := range participants {
		if current, ok := c.registry.SessionFor(p.ID); ok {
			return &AlreadyInSessionError{ParticipantID: p.ID, SessionID: current}
		}
	}
	return nil
}

func (c *Coordinator) acquireCooldown(ctx context.Context, rules Ruleset, p Participant) error {
	ttl := rules.Limits().StartCooldown
	if ttl <= 0 || c.cooldowns == nil {
		return nil
	}
	ok, remaining, err := c.cooldowns.Acquire(ctx, rules.Kind()+":"+p.ID, ttl)
	if err != nil {
		log.Error().Err(err).Str("kind", rules.Kind()).Str("participant_id", p.ID).Msg("cooldown store failed")
		return nil
	}
	if !ok {
		return &CooldownError{Remaining: remaining}
	}
	return nil
}

func (c *Coordinator) createActive(ctx context.Context, rules Ruleset, players []Participant, opts SessionOptions) (*Session, Snapshot, error) {
	s := newSession(c.newID(), rules, players, opts, c.newRand(), c.now())
	c.mu.Lock()
	c.sessions[s.id] = s
	c.mu.Unlock()

	s.mu.Lock()
	if err := c.dispatcher.Activate(s); err != nil {
		s.mu.Unlock()
		c.drop(s.id)
		return nil, Snapshot{}, err
	}
	renderErr := c.renderLocked(ctx, s)
	if renderErr != nil {
		c.dispatcher.Abort(s, ReasonPresentationFailure)
	}
	ended := s.state == StateOver
	snap := s.snapshotLocked()
	s.mu.Unlock()

	log.Info().Str("session_id", s.id).Str("kind", rules.Kind()).Int("players", len(players)).Msg("session started")
	c.started(snap)
	if ended {
		c.finish(s)
	}
	if renderErr != nil {
		return s, snap, &CollaboratorError{Op: "render", Err: renderErr}
	}
	return s, snap, nil
}

func (c *Coordinator) started(snap Snapshot) {
	sessionsStarted.Add(1)
	c.observer.OnSessionStarted(snap)
}

// publishLocked pushes the current snapshot to the presenter. A failed update of a
// live session aborts it.
func (c *Coordinator) publishLocked(ctx context.Context, s *Session) {
	if s.handle == "" {
		if err := c.renderLocked(ctx, s); err != nil && s.state != StateOver {
			c.dispatcher.Abort(s, ReasonPresentationFailure)
		}
		return
	}
	if err := c.presenter.Update(ctx, s.handle, s.snapshotLocked()); err != nil {
		presentationFailures.Add(1)
		log.Error().Err(err).Str("session_id", s.id).Msg("presentation update failed")
		if s.state != StateOver {
			c.dispatcher.Abort(s, ReasonPresentationFailure)
		}
	}
}

func (c *Coordinator) renderLocked(ctx context.Context, s *Session) error {
	handle, err := c.presenter.Render(ctx, s.snapshotLocked())
	if err != nil {
		presentationFailures.Add(1)
		log.Error().Err(err).Str("session_id", s.id).Msg("presentation render failed")
		return err
	}
	s.handle = handle
	return nil
}

// finish runs the end of session side effects exactly once.
func (c *Coordinator) finish(s *Session) {
	s.finishOnce.Do(func() {
		rec := s.record()
		snap := s.Snapshot()
		sessionsEnded.Add(1)
		ev := log.Info().Str("session_id", rec.SessionID).Str("kind", rec.Kind).Str("reason", string(rec.Outcome.Reason))
		if rec.Outcome.Winner != nil {
			ev = ev.Str("winner", rec.Outcome.Winner.ID)
		}
		ev.Msg("session ended")

		c.observer.OnSessionEnded(snap)
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := c.recorder.RecordOutcome(ctx, rec); err != nil {
			log.Error().Err(err).Str("session_id", rec.SessionID).Msg("record outcome failed")
		}
	})
}

func (c *Coordinator) resolveInvite(inv *Invite, actorID string, to InviteStatus) error {
	lapsed, err := inv.resolve(actorID, to, c.now())
	if lapsed {
		c.inviteExpired(inv)
	}
	return err
}

func (c *Coordinator) expireInvite(inv *Invite, gen uint64) {
	if !inv.expire(gen, c.now()) {
		return
	}
	c.inviteExpired(inv)
}

func (c *Coordinator) inviteExpired(inv *Invite) {
	invitesExpired.Add(1)
	log.Info().Str("invite_id", inv.id).Msg("invite expired")
	c.observer.OnInviteResolved(inv.Snapshot())
}

func (c *Coordinator) scheduleTurnTimeout(s *Session, gen uint64) {
	s.mu.Lock()
	if s.state != StateActive || !s.clock.Claim(gen) {
		s.mu.Unlock()
		return
	}
	turnTimeouts.Add(1)
	log.Info().Str("session_id", s.id).Str("participant_id", s.players[s.turn].ID).Msg("turn timed out")
	c.dispatcher.Timeout(s)
	c.publishLocked(context.Background(), s)
	s.mu.Unlock()
	c.finish(s)
}

func (c *Coordinator) scheduleTimeLimit(s *Session, gen uint64) {
	s.mu.Lock()
	if s.state != StateActive || !s.gameClock.Claim(gen) {
		s.mu.Unlock()
		return
	}
	log.Info().Str("session_id", s.id).Msg("game time limit reached")
	c.dispatcher.TimeLimit(s)
	c.publishLocked(context.Background(), s)
	s.mu.Unlock()
	c.finish(s)
}

// scheduleBotTurn is called with the session lock held; the move itself runs later.
func (c *Coordinator) scheduleBotTurn(s *Session, gen uint64) {
	time.AfterFunc(c.botDelay, func() { c.playBot(s, gen) })
}

func (c *Coordinator) playBot(s *Session, gen uint64) {
	s.mu.Lock()
	if s.state != StateActive || s.clock.Generation() != gen {
		s.mu.Unlock()
		return
	}
	bot := s.players[s.turn]
	agent := s.rules.Agent(bot.Tier)
	var err error
	if agent == nil {
		err = ErrBotsNotAllowed
	} else {
		a := agent.Decide(s.game, s.turn, s.rng)
		a.Turn = gen
		_, err = c.dispatcher.Apply(s, bot, a)
	}
	if err != nil && s.state == StateActive {
		// A bot that cannot produce a legal move gives up the game.
		log.Warn().Err(err).Str("session_id", s.id).Str("participant_id", bot.ID).Msg("bot action rejected")
		_, _ = c.dispatcher.Apply(s, bot, Action{Kind: ActionForfeit})
	}
	c.publishLocked(context.Background(), s)
	ended := s.state == StateOver
	s.mu.Unlock()
	if ended {
		c.finish(s)
	}
}

func (c *Coordinator) session(id string) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (c *Coordinator) invite(id string) (*Invite, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	inv, ok := c.invites[id]
	if !ok {
		return nil, ErrInviteNotFound
	}
	return inv, nil
}

func (c *Coordinator) drop(sessionID string) {
	c.mu.Lock()
	delete(c.sessions, sessionID)
	c.mu.Unlock()
}
