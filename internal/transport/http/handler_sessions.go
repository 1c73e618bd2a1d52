package httptransport

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"hexa-arcade/internal/engine"

	"github.com/go-chi/chi/v5"
)

// Arcade is the coordinator surface the command routes drive.
type Arcade interface {
	Games() []engine.GameInfo
	Challenge(ctx context.Context, kind string, challenger, challenged engine.Participant, opts engine.SessionOptions) (engine.InviteSnapshot, error)
	Accept(ctx context.Context, inviteID, actorID string) (engine.Snapshot, error)
	Decline(ctx context.Context, inviteID, actorID string) (engine.InviteSnapshot, error)
	Invite(inviteID string) (engine.InviteSnapshot, error)
	CreateAgainstBot(ctx context.Context, kind string, human, bot engine.Participant, opts engine.SessionOptions) (engine.Snapshot, error)
	OpenLobby(ctx context.Context, kind string, host engine.Participant, opts engine.SessionOptions) (engine.Snapshot, error)
	JoinLobby(ctx context.Context, sessionID string, p engine.Participant) (engine.Applied, error)
	StartLobby(ctx context.Context, sessionID string, host engine.Participant) (engine.Applied, error)
	Leave(ctx context.Context, sessionID string, p engine.Participant) (engine.Applied, error)
	SubmitAction(ctx context.Context, sessionID string, actor engine.Participant, a engine.Action) (engine.Applied, error)
	Rematch(ctx context.Context, sessionID, actorID string) (engine.Snapshot, error)
	Abort(ctx context.Context, sessionID string, reason engine.Reason) error
	Snapshot(sessionID string) (engine.Snapshot, error)
	SessionFor(participantID string) (engine.Snapshot, bool)
}

type participantBody struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (p participantBody) participant() engine.Participant {
	return engine.Participant{ID: strings.TrimSpace(p.ID), Name: strings.TrimSpace(p.Name)}
}

type sessionOptionsBody struct {
	Variant string `json:"variant"`
	Scope   string `json:"scope"`
}

func (o sessionOptionsBody) options() engine.SessionOptions {
	return engine.SessionOptions{Variant: strings.TrimSpace(o.Variant), Scope: strings.TrimSpace(o.Scope)}
}

type actorBody struct {
	ParticipantID string `json:"participant_id"`
}

type appliedResponse struct {
	Applied engine.Applied  `json:"applied"`
	Session engine.Snapshot `json:"session"`
}

type SessionHandlers struct {
	arcade Arcade
}

func NewSessionHandlers(arcade Arcade) *SessionHandlers {
	return &SessionHandlers{arcade: arcade}
}

func (h *SessionHandlers) Games() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		games := h.arcade.Games()
		sort.Slice(games, func(i, j int) bool { return games[i].Kind < games[j].Kind })
		writeJSON(w, http.StatusOK, map[string]any{"items": games})
	}
}

func (h *SessionHandlers) CreateInvite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Kind       string          `json:"kind"`
			Challenger participantBody `json:"challenger"`
			Challenged participantBody `json:"challenged"`
			sessionOptionsBody
		}
		if !decodeJSON(w, r, &body) {
			return
		}
		inv, err := h.arcade.Challenge(r.Context(), body.Kind, body.Challenger.participant(), body.Challenged.participant(), body.options())
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, inv)
	}
}

func (h *SessionHandlers) GetInvite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inv, err := h.arcade.Invite(chi.URLParam(r, "invite_id"))
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, inv)
	}
}

func (h *SessionHandlers) AcceptInvite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricSessionCreateTotal.Add(1)
		var body actorBody
		if !decodeJSON(w, r, &body) {
			metricSessionCreateErrors.Add(1)
			return
		}
		snap, err := h.arcade.Accept(r.Context(), chi.URLParam(r, "invite_id"), strings.TrimSpace(body.ParticipantID))
		if err != nil {
			metricSessionCreateErrors.Add(1)
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func (h *SessionHandlers) DeclineInvite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body actorBody
		if !decodeJSON(w, r, &body) {
			return
		}
		inv, err := h.arcade.Decline(r.Context(), chi.URLParam(r, "invite_id"), strings.TrimSpace(body.ParticipantID))
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, inv)
	}
}

func (h *SessionHandlers) CreateBotSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricSessionCreateTotal.Add(1)
		var body struct {
			Kind  string          `json:"kind"`
			Human participantBody `json:"human"`
			Tier  string          `json:"tier"`
			sessionOptionsBody
		}
		if !decodeJSON(w, r, &body) {
			metricSessionCreateErrors.Add(1)
			return
		}
		human := body.Human.participant()
		bot := engine.BotFor(human.ID, strings.ToLower(strings.TrimSpace(body.Tier)))
		snap, err := h.arcade.CreateAgainstBot(r.Context(), body.Kind, human, bot, body.options())
		if err != nil {
			metricSessionCreateErrors.Add(1)
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, snap)
	}
}

func (h *SessionHandlers) OpenLobby() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricSessionCreateTotal.Add(1)
		var body struct {
			Kind string          `json:"kind"`
			Host participantBody `json:"host"`
			sessionOptionsBody
		}
		if !decodeJSON(w, r, &body) {
			metricSessionCreateErrors.Add(1)
			return
		}
		snap, err := h.arcade.OpenLobby(r.Context(), body.Kind, body.Host.participant(), body.options())
		if err != nil {
			metricSessionCreateErrors.Add(1)
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, snap)
	}
}

// lobbyOp adapts join, start and leave, which share a body and response.
func (h *SessionHandlers) lobbyOp(op func(context.Context, string, engine.Participant) (engine.Applied, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Participant participantBody `json:"participant"`
		}
		if !decodeJSON(w, r, &body) {
			return
		}
		sessionID := chi.URLParam(r, "session_id")
		applied, err := op(r.Context(), sessionID, body.Participant.participant())
		if err != nil {
			writeEngineError(w, err)
			return
		}
		h.writeApplied(w, sessionID, applied)
	}
}

func (h *SessionHandlers) Join() http.HandlerFunc  { return h.lobbyOp(h.arcade.JoinLobby) }
func (h *SessionHandlers) Start() http.HandlerFunc { return h.lobbyOp(h.arcade.StartLobby) }
func (h *SessionHandlers) Leave() http.HandlerFunc { return h.lobbyOp(h.arcade.Leave) }

func (h *SessionHandlers) SubmitAction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricActionSubmitTotal.Add(1)
		var body struct {
			Participant participantBody `json:"participant"`
			Kind        string          `json:"kind"`
			Move        engine.Move     `json:"move"`
			TurnToken   uint64          `json:"turn_token"`
		}
		if !decodeJSON(w, r, &body) {
			metricActionSubmitErrors.Add(1)
			return
		}
		kind := engine.ActionMove
		if body.Kind != "" {
			k, ok := engine.ParseActionKind(body.Kind)
			if !ok {
				metricActionSubmitErrors.Add(1)
				WriteHTTPError(w, http.StatusBadRequest, engine.ErrInvalidAction.Error())
				return
			}
			kind = k
		}
		sessionID := chi.URLParam(r, "session_id")
		actor := body.Participant.participant()
		if snap, err := h.arcade.Snapshot(sessionID); err == nil {
			for _, p := range snap.Players {
				if p.ID == actor.ID {
					actor = p
					break
				}
			}
		}
		applied, err := h.arcade.SubmitAction(r.Context(), sessionID, actor, engine.Action{Kind: kind, Move: body.Move, Turn: body.TurnToken})
		if err != nil {
			metricActionSubmitErrors.Add(1)
			writeEngineError(w, err)
			return
		}
		h.writeApplied(w, sessionID, applied)
	}
}

func (h *SessionHandlers) Rematch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body actorBody
		if !decodeJSON(w, r, &body) {
			return
		}
		snap, err := h.arcade.Rematch(r.Context(), chi.URLParam(r, "session_id"), strings.TrimSpace(body.ParticipantID))
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, snap)
	}
}

func (h *SessionHandlers) State() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := h.arcade.Snapshot(chi.URLParam(r, "session_id"))
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func (h *SessionHandlers) ParticipantSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, ok := h.arcade.SessionFor(chi.URLParam(r, "participant_id"))
		if !ok {
			WriteHTTPError(w, http.StatusNotFound, "no_active_session")
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func (h *SessionHandlers) writeApplied(w http.ResponseWriter, sessionID string, applied engine.Applied) {
	snap, err := h.arcade.Snapshot(sessionID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appliedResponse{Applied: applied, Session: snap})
}
