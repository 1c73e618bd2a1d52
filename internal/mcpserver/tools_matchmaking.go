package mcpserver

import (
	"context"
	"errors"

	"hexa-arcade/internal/engine"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerMatchmakingTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"start_bot_game",
			mcp.WithDescription("Start a game against a bot. Returns the existing session if the participant is already playing."),
			mcp.WithString("participant_id", mcp.Required(), mcp.Description("Participant id")),
			mcp.WithString("name", mcp.Description("Display name")),
			mcp.WithString("kind", mcp.Required(), mcp.Description("Game kind that allows bots: duel|tictactoe|jack")),
			mcp.WithString("tier", mcp.Description("simple|main, default simple")),
			mcp.WithString("variant", mcp.Description("Game variant, e.g. duel mode")),
			mcp.WithString("scope", mcp.Description("Guild or channel scope")),
		),
		s.handleStartBotGame,
	)
}

func (s *Server) handleStartBotGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	human, errResp := participant(request)
	if errResp != nil {
		return errResp, nil
	}
	kind, err := request.RequireString("kind")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	bot := engine.BotFor(human.ID, normalizeTier(request.GetString("tier", "")))
	opts := engine.SessionOptions{Variant: request.GetString("variant", ""), Scope: request.GetString("scope", "")}

	snap, err := s.games.CreateAgainstBot(ctx, kind, human, bot, opts)
	if err != nil {
		var already *engine.AlreadyInSessionError
		if errors.As(err, &already) && already.ParticipantID == human.ID {
			if existing, ok := s.games.SessionFor(human.ID); ok {
				return toolResult(map[string]any{"status": "already_in_session", "session": existing}), nil
			}
		}
		return engineError(err), nil
	}
	return toolResult(map[string]any{"status": "started", "session": snap}), nil
}
