package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// registerAutomationTools registers screen capture and UI interaction tools
func (s *MCPServer) registerAutomationTools() {
	// ui_snapshot - Capture the current screen
	s.server.AddTool(
		mcp.NewTool("ui_snapshot",
			mcp.WithDescription("Capture the current screen as a structured snapshot: foreground package plus visible text elements with bounds"),
		),
		s.handleUISnapshot,
	)

	// ui_find - Find elements by text
	s.server.AddTool(
		mcp.NewTool("ui_find",
			mcp.WithDescription("Find on-screen elements whose text or description matches a query"),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("Text to match against element text and content description"),
			),
			mcp.WithBoolean("exact",
				mcp.Description("Require an exact (case-insensitive) match instead of substring"),
			),
		),
		s.handleUIFind,
	)

	// ui_tap - Tap an element or coordinates
	s.server.AddTool(
		mcp.NewTool("ui_tap",
			mcp.WithDescription("Tap an element found by text, or raw screen coordinates. If the matched element is not clickable, its nearest clickable ancestor is tapped."),
			mcp.WithString("text",
				mcp.Description("Element text to tap (preferred over coordinates)"),
			),
			mcp.WithNumber("occurrence",
				mcp.Description("Which match to tap when several elements share the text (1-based, default 1)"),
			),
			mcp.WithNumber("x",
				mcp.Description("X coordinate (used when text is not given)"),
			),
			mcp.WithNumber("y",
				mcp.Description("Y coordinate (used when text is not given)"),
			),
			mcp.WithNumber("duration_ms",
				mcp.Description("Press duration in milliseconds; > 0 makes it a long press"),
			),
		),
		s.handleUITap,
	)

	// ui_swipe - Directional swipe
	s.server.AddTool(
		mcp.NewTool("ui_swipe",
			mcp.WithDescription("Perform a directional swipe centered on the screen"),
			mcp.WithString("direction",
				mcp.Required(),
				mcp.Description("Swipe direction: up, down, left, right"),
			),
			mcp.WithNumber("distance_ratio",
				mcp.Description("Swipe distance as a fraction of the screen (0-1, default 0.5)"),
			),
			mcp.WithNumber("duration_ms",
				mcp.Description("Swipe duration in milliseconds (default 300)"),
			),
		),
		s.handleUISwipe,
	)

	// ui_type - Type into the focused editable field
	s.server.AddTool(
		mcp.NewTool("ui_type",
			mcp.WithDescription("Type text into the focused editable field, falling back to the first editable field on screen"),
			mcp.WithString("text",
				mcp.Required(),
				mcp.Description("Text to type"),
			),
		),
		s.handleUIType,
	)

	// ui_key - Global navigation action
	s.server.AddTool(
		mcp.NewTool("ui_key",
			mcp.WithDescription("Press a global navigation key"),
			mcp.WithString("code",
				mcp.Required(),
				mcp.Description("Key action: back, home, recents, enter"),
			),
		),
		s.handleUIKey,
	)

	// ui_search - Guarded in-app search flow
	s.server.AddTool(
		mcp.NewTool("ui_search",
			mcp.WithDescription("Run a guarded in-app search: find or open the search input, type the query, and verify the query is visible on screen. Returns the attempt outcome with screen checkpoints."),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("Search query to type"),
			),
			mcp.WithString("expected_package",
				mcp.Required(),
				mcp.Description("Package that must stay in the foreground for the search to count"),
			),
			mcp.WithNumber("max_attempts",
				mcp.Description("Attempt budget (default 8, clamped to 1-20)"),
			),
			mcp.WithBoolean("submit_search",
				mcp.Description("Submit the search after typing (tap a submit control or press enter)"),
			),
			mcp.WithBoolean("close_popups",
				mcp.Description("Dismiss one blocking popup per attempt before looking for the input"),
			),
		),
		s.handleUISearchFlow,
	)
}

// Tool handlers

func (s *MCPServer) handleUISnapshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := s.app.CaptureSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to capture screen: %w", err)
	}
	return jsonResult(snap)
}

func (s *MCPServer) handleUIFind(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, fmt.Errorf("query is required")
	}
	exact, _ := args["exact"].(bool)

	elements, err := s.app.FindElements(ctx, query, exact)
	if err != nil {
		return nil, fmt.Errorf("failed to find elements: %w", err)
	}
	if len(elements) == 0 {
		return textResult("No elements found matching %q", query), nil
	}
	return jsonResult(elements)
}

func (s *MCPServer) handleUITap(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	durationMs := intArg(args, "duration_ms")

	if text, _ := args["text"].(string); text != "" {
		occurrence := intArg(args, "occurrence")
		if err := s.app.TapElement(ctx, text, false, occurrence); err != nil {
			return nil, err
		}
		return textResult("Tapped element %q", text), nil
	}

	x, hasX := args["x"]
	y, hasY := args["y"]
	if !hasX || !hasY {
		return nil, fmt.Errorf("either text or both x and y are required")
	}
	xi, yi := toInt(x), toInt(y)
	if err := s.app.TapCoordinates(ctx, xi, yi, durationMs); err != nil {
		return nil, err
	}
	return textResult("Tapped at (%d, %d)", xi, yi), nil
}

func (s *MCPServer) handleUISwipe(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	direction, ok := args["direction"].(string)
	if !ok || direction == "" {
		return nil, fmt.Errorf("direction is required")
	}
	ratio, _ := args["distance_ratio"].(float64)
	durationMs := intArg(args, "duration_ms")

	if err := s.app.SwipeScreen(ctx, direction, ratio, durationMs); err != nil {
		return nil, err
	}
	return textResult("Swiped %s", direction), nil
}

func (s *MCPServer) handleUIType(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	text, ok := args["text"].(string)
	if !ok || text == "" {
		return nil, fmt.Errorf("text is required")
	}
	if err := s.app.TypeText(ctx, text); err != nil {
		return nil, err
	}
	return textResult("Typed %d characters", len(text)), nil
}

func (s *MCPServer) handleUIKey(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	code, ok := args["code"].(string)
	if !ok || code == "" {
		return nil, fmt.Errorf("code is required")
	}
	if err := s.app.PressKey(ctx, code); err != nil {
		return nil, err
	}
	return textResult("Pressed %s", code), nil
}

func (s *MCPServer) handleUISearchFlow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, fmt.Errorf("query is required")
	}
	expectedPackage, ok := args["expected_package"].(string)
	if !ok || expectedPackage == "" {
		return nil, fmt.Errorf("expected_package is required")
	}

	req := UISearchRequest{
		Query:           query,
		ExpectedPackage: expectedPackage,
		MaxAttempts:     intArg(args, "max_attempts"),
	}
	req.SubmitSearch, _ = args["submit_search"].(bool)
	req.ClosePopups, _ = args["close_popups"].(bool)

	exec := s.app.RunUISearch(ctx, req)
	return jsonResult(exec)
}

// intArg reads a numeric argument; JSON numbers arrive as float64.
func intArg(args map[string]interface{}, key string) int {
	return toInt(args[key])
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}
