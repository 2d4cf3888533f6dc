// Package mcp exposes the device automation core as a tool-calling server
// over stdio, so AI clients can capture screens, drive the UI, and run
// stored workflows through structured tool calls.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"

	"Tether/pkg/types"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Type aliases from the shared types package. This avoids duplication and
// keeps the wire shapes consistent between core and tool surface.
type (
	Rect           = types.Rect
	ScreenSnapshot = types.ScreenSnapshot
	ScreenNode     = types.ScreenNode
	Checkpoint     = types.Checkpoint

	LaunchableApp = types.LaunchableApp
	AppMatch      = types.AppMatch
	AppResolution = types.AppResolution

	UISearchRequest   = types.UISearchRequest
	UISearchExecution = types.UISearchExecution

	SendMessageRequest = types.SendMessageRequest
	SendMessageResult  = types.SendMessageResult

	Workflow          = types.Workflow
	WorkflowStep      = types.WorkflowStep
	StepResult        = types.StepResult
	WorkflowRunResult = types.WorkflowRunResult
)

// DeviceApp is the capability surface the tool server needs from the main
// application. The indirection keeps this package testable with a mock.
type DeviceApp interface {
	// Screen
	CaptureSnapshot(ctx context.Context) (*ScreenSnapshot, error)
	FindElements(ctx context.Context, query string, exact bool) ([]ScreenNode, error)
	TapElement(ctx context.Context, query string, exact bool, occurrence int) error
	TapCoordinates(ctx context.Context, x, y, durationMs int) error
	SwipeScreen(ctx context.Context, direction string, distanceRatio float64, durationMs int) error
	TypeText(ctx context.Context, text string) error
	PressKey(ctx context.Context, code string) error

	// Guarded flows
	RunUISearch(ctx context.Context, req UISearchRequest) UISearchExecution
	SendMessage(ctx context.Context, req SendMessageRequest) SendMessageResult

	// Apps
	ListApps(ctx context.Context) ([]LaunchableApp, error)
	ResolveApp(ctx context.Context, query string) (AppResolution, error)
	LaunchApp(ctx context.Context, query string) (AppResolution, error)

	// Workflows
	ListWorkflows() []Workflow
	GetWorkflow(id string) (Workflow, bool)
	SaveWorkflow(wf Workflow) (Workflow, error)
	DeleteWorkflow(id string) error
	RunWorkflow(ctx context.Context, wf Workflow) WorkflowRunResult

	// Presets
	ResolvePreset(kind, alias string) (string, error)

	Version() string
}

// MCPServer wraps the protocol server around a DeviceApp.
type MCPServer struct {
	app       DeviceApp
	server    *server.MCPServer
	stdio     *server.StdioServer
	mu        sync.Mutex
	isRunning bool
}

// NewMCPServer creates a tool server with all tools and resources
// registered.
func NewMCPServer(app DeviceApp) *MCPServer {
	mcpServer := server.NewMCPServer(
		"tether-device-automation",
		app.Version(),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, true),
		server.WithLogging(),
	)

	s := &MCPServer{
		app:    app,
		server: mcpServer,
	}
	s.registerTools()
	s.registerResources()
	return s
}

func (s *MCPServer) registerTools() {
	s.registerAutomationTools()
	s.registerMessagingTools()
	s.registerAppTools()
	s.registerWorkflowTools()
	s.registerPresetTools()
}

func (s *MCPServer) registerResources() {
	s.server.AddResource(
		mcp.NewResource(
			"tether://screen",
			"Current screen snapshot",
			mcp.WithMIMEType("application/json"),
		),
		s.handleScreenResource,
	)

	s.server.AddResource(
		mcp.NewResource(
			"workflow://list",
			"All saved workflows",
			mcp.WithMIMEType("application/json"),
		),
		s.handleWorkflowsResource,
	)

	s.server.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"workflow://{workflowId}",
			"Workflow details",
		),
		s.handleWorkflowResource,
	)
}

// Start runs the server on stdio until stdin closes or an interrupt
// arrives. Blocking.
func (s *MCPServer) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	return s.run()
}

func (s *MCPServer) run() error {
	s.stdio = server.NewStdioServer(s.server)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		cancel()
	}()

	fmt.Fprintln(os.Stderr, "[MCP] Tether tool server started")
	err := s.stdio.Listen(ctx, os.Stdin, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[MCP] Server error: %v\n", err)
	}

	s.mu.Lock()
	s.isRunning = false
	s.mu.Unlock()
	return err
}

// IsRunning reports whether the server loop is active.
func (s *MCPServer) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// jsonResult serializes v as an indented JSON tool result.
func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(string(data)),
		},
	}, nil
}

// textResult wraps plain text as a tool result.
func textResult(format string, args ...interface{}) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(fmt.Sprintf(format, args...)),
		},
	}
}
