package mcpserver

import (
	"context"

	"hexa-arcade/internal/engine"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerGameplayTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_state",
			mcp.WithDescription("Current session snapshot. Without session_id, returns the session the participant is bound to."),
			mcp.WithString("participant_id", mcp.Required(), mcp.Description("Participant id")),
			mcp.WithString("session_id", mcp.Description("Session id")),
		),
		s.handleGetState,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"submit_action",
			mcp.WithDescription("Submit an action for the participant's seat."),
			mcp.WithString("participant_id", mcp.Required(), mcp.Description("Participant id")),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
			mcp.WithString("kind", mcp.Description("move|forfeit|join|start|leave, default move")),
			mcp.WithString("move", mcp.Description("Move type, e.g. mark, punch, flip, draw")),
			mcp.WithNumber("index", mcp.Description("Cell, card or seat index the move targets")),
			mcp.WithNumber("turn_token", mcp.Description("Turn token from the last snapshot; stale tokens are rejected")),
		),
		s.handleSubmitAction,
	)
}

func (s *Server) handleGetState(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, errResp := participant(request)
	if errResp != nil {
		return errResp, nil
	}
	sessionID := request.GetString("session_id", "")
	if sessionID == "" {
		snap, ok := s.games.SessionFor(p.ID)
		if !ok {
			return toolResult(map[string]any{"status": "idle"}), nil
		}
		return toolResult(map[string]any{"status": "playing", "session": snap, "your_turn": yourTurn(snap.Current, p.ID)}), nil
	}
	snap, _, errResp := s.seated(sessionID, p.ID)
	if errResp != nil {
		return errResp, nil
	}
	return toolResult(map[string]any{"status": string(snap.State), "session": snap, "your_turn": yourTurn(snap.Current, p.ID)}), nil
}

func (s *Server) handleSubmitAction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, errResp := participant(request)
	if errResp != nil {
		return errResp, nil
	}
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	action, ok := actionFor(
		request.GetString("kind", ""),
		request.GetString("move", ""),
		request.GetInt("index", 0),
		uint64(request.GetInt("turn_token", 0)),
	)
	if !ok {
		return toolError("invalid_action", "kind must be move|forfeit|join|start|leave and moves need a move type"), nil
	}
	actor := p
	if _, seated, errResp := s.seated(sessionID, p.ID); errResp == nil {
		actor = seated
	}
	applied, err := s.games.SubmitAction(ctx, sessionID, actor, action)
	if err != nil {
		return engineError(err), nil
	}
	snap, _ := s.games.Snapshot(sessionID)
	return toolResult(map[string]any{"applied": applied, "session": snap}), nil
}

func yourTurn(current *engine.Participant, id string) bool {
	return current != nil && current.ID == id
}
