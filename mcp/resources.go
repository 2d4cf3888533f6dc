package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// handleScreenResource handles the tether://screen resource
func (s *MCPServer) handleScreenResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	snap, err := s.app.CaptureSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to capture screen: %w", err)
	}

	jsonData, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}

// handleWorkflowsResource handles the workflow://list resource
func (s *MCPServer) handleWorkflowsResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	workflows := s.app.ListWorkflows()

	jsonData, err := json.MarshalIndent(workflows, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workflows: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}

// handleWorkflowResource handles the workflow://{workflowId} resource template
func (s *MCPServer) handleWorkflowResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	id := strings.TrimPrefix(request.Params.URI, "workflow://")
	if id == "" || id == "list" {
		return nil, fmt.Errorf("invalid workflow URI: %s", request.Params.URI)
	}

	wf, ok := s.app.GetWorkflow(id)
	if !ok {
		return nil, fmt.Errorf("workflow %s not found", id)
	}

	jsonData, err := json.MarshalIndent(wf, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workflow: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
