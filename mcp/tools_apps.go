package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// registerAppTools registers app listing, resolution and launching tools
func (s *MCPServer) registerAppTools() {
	// app_list - List launchable apps
	s.server.AddTool(
		mcp.NewTool("app_list",
			mcp.WithDescription("List installed apps that have a launcher entry"),
		),
		s.handleAppList,
	)

	// app_resolve - Resolve a query to an app
	s.server.AddTool(
		mcp.NewTool("app_resolve",
			mcp.WithDescription("Resolve a package id or free-text app name to an installed app. Unresolved queries return scored suggestions instead of failing."),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("Package id (com.example.app) or app name (\"whatsapp\")"),
			),
		),
		s.handleAppResolve,
	)

	// app_launch - Resolve, launch and wait for foreground
	s.server.AddTool(
		mcp.NewTool("app_launch",
			mcp.WithDescription("Resolve an app by package id or name, launch it, and wait until it reaches the foreground"),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("Package id or app name"),
			),
		),
		s.handleAppLaunch,
	)
}

func (s *MCPServer) handleAppList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	apps, err := s.app.ListApps(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list apps: %w", err)
	}
	if len(apps) == 0 {
		return textResult("No launchable apps found"), nil
	}
	return jsonResult(apps)
}

func (s *MCPServer) handleAppResolve(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, fmt.Errorf("query is required")
	}

	res, err := s.app.ResolveApp(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve app: %w", err)
	}
	return jsonResult(res)
}

func (s *MCPServer) handleAppLaunch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, fmt.Errorf("query is required")
	}

	res, err := s.app.LaunchApp(ctx, query)
	if err != nil {
		// Suggestions still help the caller pick the right app.
		if len(res.Suggestions) > 0 {
			result, jerr := jsonResult(res)
			if jerr == nil {
				return result, nil
			}
		}
		return nil, err
	}
	return textResult("Launched %s (%s)", res.Match.AppName, res.Match.PackageName), nil
}
