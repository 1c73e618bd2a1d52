// Package mcpserver exposes the arcade to AI agents as MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"hexa-arcade/internal/engine"
	"hexa-arcade/internal/store"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Games is the coordinator surface the tools drive.
type Games interface {
	Games() []engine.GameInfo
	CreateAgainstBot(ctx context.Context, kind string, human, bot engine.Participant, opts engine.SessionOptions) (engine.Snapshot, error)
	Snapshot(sessionID string) (engine.Snapshot, error)
	SessionFor(participantID string) (engine.Snapshot, bool)
	SubmitAction(ctx context.Context, sessionID string, actor engine.Participant, a engine.Action) (engine.Applied, error)
}

// Stats answers the stats and leaderboard tools.
type Stats interface {
	Stats(ctx context.Context, scope, kind, userID string) ([]store.GameStats, error)
	Leaderboard(ctx context.Context, scope, kind, variant string, limit int) ([]store.LeaderboardEntry, error)
}

type Server struct {
	games Games
	stats Stats

	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
}

func New(games Games, stats Stats) *Server {
	mcpSrv := server.NewMCPServer(
		"hexa-arcade",
		"0.1.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
		server.WithResourceRecovery(),
	)
	s := &Server{
		games:      games,
		stats:      stats,
		mcpServer:  mcpSrv,
		httpServer: server.NewStreamableHTTPServer(mcpSrv, server.WithStateLess(true), server.WithDisableStreaming(true)),
	}
	s.registerPublicTools()
	s.registerMatchmakingTools()
	s.registerGameplayTools()
	s.registerResources()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.httpServer
}

func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"session://{session_id}/state",
			"session_state",
			mcp.WithTemplateDescription("Current snapshot of a game session"),
			mcp.WithTemplateMIMEType("application/json"),
		),
		func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			raw := request.Params.URI
			if !strings.HasPrefix(raw, "session://") || !strings.HasSuffix(raw, "/state") {
				return nil, nil
			}
			sessionID := strings.TrimSuffix(strings.TrimPrefix(raw, "session://"), "/state")
			if sessionID == "" {
				return nil, nil
			}
			snap, err := s.games.Snapshot(sessionID)
			if err != nil {
				return nil, err
			}
			payload, err := json.Marshal(snap)
			if err != nil {
				return nil, err
			}
			return []mcp.ResourceContents{
				mcp.TextResourceContents{
					URI:      raw,
					MIMEType: "application/json",
					Text:     string(payload),
				},
			}, nil
		},
	)
}

// participant reads the caller identity every tool takes.
func participant(request mcp.CallToolRequest) (engine.Participant, *mcp.CallToolResult) {
	id, err := request.RequireString("participant_id")
	if err != nil {
		return engine.Participant{}, toolError("invalid_request", err.Error())
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return engine.Participant{}, toolError("invalid_request", "participant_id is required")
	}
	return engine.Participant{ID: id, Name: strings.TrimSpace(request.GetString("name", ""))}, nil
}

// seated resolves the caller's seat in sessionID.
func (s *Server) seated(sessionID, participantID string) (engine.Snapshot, engine.Participant, *mcp.CallToolResult) {
	snap, err := s.games.Snapshot(sessionID)
	if err != nil {
		return engine.Snapshot{}, engine.Participant{}, engineError(err)
	}
	for _, p := range snap.Players {
		if p.ID == participantID {
			return snap, p, nil
		}
	}
	return engine.Snapshot{}, engine.Participant{}, toolError(engine.ErrNotParticipant.Error(), "participant is not seated in this session")
}
