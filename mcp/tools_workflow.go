package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// registerWorkflowTools registers workflow management and execution tools
func (s *MCPServer) registerWorkflowTools() {
	// workflow_list - List workflows
	s.server.AddTool(
		mcp.NewTool("workflow_list",
			mcp.WithDescription("List all saved workflows"),
		),
		s.handleWorkflowList,
	)

	// workflow_get - Get workflow details
	s.server.AddTool(
		mcp.NewTool("workflow_get",
			mcp.WithDescription("Get a workflow definition including all steps"),
			mcp.WithString("workflow_id",
				mcp.Required(),
				mcp.Description("Workflow ID"),
			),
		),
		s.handleWorkflowGet,
	)

	// workflow_save - Create or update a workflow
	s.server.AddTool(
		mcp.NewTool("workflow_save",
			mcp.WithDescription("Create or update a workflow. Steps are validated against the workflow schema before anything is written."),
			mcp.WithString("workflow_json",
				mcp.Required(),
				mcp.Description("Full workflow document as JSON: {name, steps: [{type, ...}], timeoutMs?, continueOnError?}. Step types: launch_app, search, tap, wait, swipe, type. Include id to update an existing workflow."),
			),
		),
		s.handleWorkflowSave,
	)

	// workflow_delete - Delete a workflow
	s.server.AddTool(
		mcp.NewTool("workflow_delete",
			mcp.WithDescription("Delete a saved workflow"),
			mcp.WithString("workflow_id",
				mcp.Required(),
				mcp.Description("Workflow ID to delete"),
			),
		),
		s.handleWorkflowDelete,
	)

	// workflow_run - Run a workflow
	s.server.AddTool(
		mcp.NewTool("workflow_run",
			mcp.WithDescription("Run a saved workflow and return per-step results"),
			mcp.WithString("workflow_id",
				mcp.Required(),
				mcp.Description("Workflow ID to run"),
			),
		),
		s.handleWorkflowRun,
	)
}

// Tool handlers

func (s *MCPServer) handleWorkflowList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workflows := s.app.ListWorkflows()
	if len(workflows) == 0 {
		return textResult("No workflows found"), nil
	}

	result := fmt.Sprintf("Found %d workflow(s):\n\n", len(workflows))
	for i, wf := range workflows {
		result += fmt.Sprintf("%d. %s (ID: %s)\n", i+1, wf.Name, wf.ID)
		if wf.Description != "" {
			result += fmt.Sprintf("   Description: %s\n", wf.Description)
		}
		result += fmt.Sprintf("   Steps: %d\n", len(wf.Steps))
	}
	return textResult("%s", result), nil
}

func (s *MCPServer) handleWorkflowGet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	id, ok := args["workflow_id"].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("workflow_id is required")
	}

	wf, found := s.app.GetWorkflow(id)
	if !found {
		return nil, fmt.Errorf("workflow %s not found", id)
	}
	return jsonResult(wf)
}

func (s *MCPServer) handleWorkflowSave(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	raw, ok := args["workflow_json"].(string)
	if !ok || raw == "" {
		return nil, fmt.Errorf("workflow_json is required")
	}

	var wf Workflow
	if err := json.Unmarshal([]byte(raw), &wf); err != nil {
		return nil, fmt.Errorf("workflow_json is not valid JSON: %w", err)
	}

	saved, err := s.app.SaveWorkflow(wf)
	if err != nil {
		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}
	return textResult("Saved workflow %q (ID: %s, %d steps)", saved.Name, saved.ID, len(saved.Steps)), nil
}

func (s *MCPServer) handleWorkflowDelete(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	id, ok := args["workflow_id"].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("workflow_id is required")
	}

	if err := s.app.DeleteWorkflow(id); err != nil {
		return nil, fmt.Errorf("failed to delete workflow: %w", err)
	}
	return textResult("Deleted workflow %s", id), nil
}

func (s *MCPServer) handleWorkflowRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	id, ok := args["workflow_id"].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("workflow_id is required")
	}

	wf, found := s.app.GetWorkflow(id)
	if !found {
		return nil, fmt.Errorf("workflow %s not found", id)
	}

	run := s.app.RunWorkflow(ctx, wf)
	return jsonResult(run)
}
