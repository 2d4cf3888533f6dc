package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// registerPresetTools registers the alias resolution tool
func (s *MCPServer) registerPresetTools() {
	// preset_resolve - Resolve a configured alias
	s.server.AddTool(
		mcp.NewTool("preset_resolve",
			mcp.WithDescription("Resolve a configured alias to its full entry: a contact alias to name and phone, or an app alias to a package id"),
			mcp.WithString("kind",
				mcp.Required(),
				mcp.Description("Preset kind: contacts or apps"),
			),
			mcp.WithString("alias",
				mcp.Required(),
				mcp.Description("Alias to resolve, e.g. \"mom\" or \"wa\""),
			),
		),
		s.handlePresetResolve,
	)
}

func (s *MCPServer) handlePresetResolve(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	kind, ok := args["kind"].(string)
	if !ok || kind == "" {
		return nil, fmt.Errorf("kind is required")
	}
	alias, ok := args["alias"].(string)
	if !ok || alias == "" {
		return nil, fmt.Errorf("alias is required")
	}

	entry, err := s.app.ResolvePreset(kind, alias)
	if err != nil {
		return nil, err
	}
	return textResult("%s", entry), nil
}
