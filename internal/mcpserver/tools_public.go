package mcpserver

import (
	"context"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPublicTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_games",
			mcp.WithDescription("List playable game kinds with their player limits, variants and bot tiers"),
		),
		s.handleListGames,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"leaderboard",
			mcp.WithDescription("Leaderboard for a game kind"),
			mcp.WithString("kind", mcp.Required(), mcp.Description("duel|tictactoe|flipfind|jack")),
			mcp.WithString("variant", mcp.Description("Difficulty for flipfind: easy|medium|hard|extreme")),
			mcp.WithString("scope", mcp.Description("Guild or channel scope, empty for global")),
			mcp.WithNumber("limit", mcp.Description("Rows, default 10, max 100")),
		),
		s.handleLeaderboard,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"my_stats",
			mcp.WithDescription("Stats for a participant in one game kind"),
			mcp.WithString("participant_id", mcp.Required(), mcp.Description("Participant id")),
			mcp.WithString("kind", mcp.Required(), mcp.Description("duel|tictactoe|flipfind|jack")),
			mcp.WithString("scope", mcp.Description("Guild or channel scope, empty for global")),
		),
		s.handleMyStats,
	)
}

func (s *Server) handleListGames(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	games := s.games.Games()
	sort.Slice(games, func(i, j int) bool { return games[i].Kind < games[j].Kind })
	return toolResult(map[string]any{"items": games}), nil
}

func (s *Server) handleLeaderboard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := request.RequireString("kind")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	limit := clampLimit(request.GetInt("limit", defaultLeaderboardLimit), maxLeaderboardLimit)
	rows, err := s.stats.Leaderboard(ctx, request.GetString("scope", ""), kind, request.GetString("variant", ""), limit)
	if err != nil {
		return statsError(err), nil
	}
	return toolResult(map[string]any{"kind": kind, "items": rows}), nil
}

func (s *Server) handleMyStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, errResp := participant(request)
	if errResp != nil {
		return errResp, nil
	}
	kind, err := request.RequireString("kind")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	rows, err := s.stats.Stats(ctx, request.GetString("scope", ""), kind, p.ID)
	if err != nil {
		return statsError(err), nil
	}
	return toolResult(map[string]any{"participant_id": p.ID, "kind": kind, "items": rows}), nil
}
