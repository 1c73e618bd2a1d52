package mcpserver

import (
	"errors"
	"fmt"

	"hexa-arcade/internal/engine"
	"hexa-arcade/internal/stats"

	"github.com/mark3labs/mcp-go/mcp"
)

func toolResult(data any) *mcp.CallToolResult {
	return mcp.NewToolResultStructuredOnly(data)
}

func toolError(code, message string) *mcp.CallToolResult {
	result := mcp.NewToolResultStructured(
		map[string]any{
			"error": map[string]any{
				"code":    code,
				"message": message,
			},
		},
		fmt.Sprintf("%s: %s", code, message),
	)
	result.IsError = true
	return result
}

func engineError(err error) *mcp.CallToolResult {
	if err == nil {
		return toolError("internal_error", "unknown error")
	}
	return toolError(engine.Code(err), err.Error())
}

func statsError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return toolError("internal_error", "unknown error")
	case errors.Is(err, stats.ErrUnknownKind):
		return toolError("unknown_game", err.Error())
	case errors.Is(err, stats.ErrUnknownVariant):
		return toolError("unknown_variant", err.Error())
	case errors.Is(err, stats.ErrNoStats):
		return toolError("no_stats", "no games recorded yet")
	default:
		return toolError("internal_error", err.Error())
	}
}
