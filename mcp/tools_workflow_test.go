package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// ==================== workflow_list ====================

func TestHandleWorkflowList_Success(t *testing.T) {
	mock := NewMockDeviceApp()
	mock.ListWorkflowsResult = []Workflow{
		SampleWorkflow("wf1", "Login Flow"),
		SampleWorkflow("wf2", "Purchase Flow"),
	}
	server := NewMCPServer(mock)

	result, err := server.handleWorkflowList(context.Background(), makeToolRequest(nil))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	text := getTextContent(result)
	if !strings.Contains(text, "Login Flow") || !strings.Contains(text, "Purchase Flow") {
		t.Error("Result should contain both workflow names")
	}
	if !strings.Contains(text, "wf1") {
		t.Error("Result should contain workflow IDs")
	}
}

func TestHandleWorkflowList_Empty(t *testing.T) {
	mock := NewMockDeviceApp()
	server := NewMCPServer(mock)

	result, err := server.handleWorkflowList(context.Background(), makeToolRequest(nil))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(strings.ToLower(getTextContent(result)), "no workflows") {
		t.Error("Result should indicate no workflows")
	}
}

// ==================== workflow_get ====================

func TestHandleWorkflowGet_Success(t *testing.T) {
	mock := NewMockDeviceApp()
	mock.GetWorkflowResult = SampleWorkflow("wf1", "Login Flow")
	mock.GetWorkflowFound = true
	server := NewMCPServer(mock)

	result, err := server.handleWorkflowGet(context.Background(), makeToolRequest(map[string]interface{}{
		"workflow_id": "wf1",
	}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(getTextContent(result), "launch_app") {
		t.Error("Result should include the workflow steps")
	}
}

func TestHandleWorkflowGet_NotFound(t *testing.T) {
	mock := NewMockDeviceApp()
	server := NewMCPServer(mock)

	_, err := server.handleWorkflowGet(context.Background(), makeToolRequest(map[string]interface{}{
		"workflow_id": "nonexistent",
	}))
	if err == nil {
		t.Error("Expected error for nonexistent workflow")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("Error should mention 'not found', got: %v", err)
	}
}

// ==================== workflow_save ====================

func TestHandleWorkflowSave_Success(t *testing.T) {
	mock := NewMockDeviceApp()
	server := NewMCPServer(mock)

	result, err := server.handleWorkflowSave(context.Background(), makeToolRequest(map[string]interface{}{
		"workflow_json": `{"name": "Morning Routine", "steps": [{"type": "launch_app", "packageName": "com.spotify.music"}]}`,
	}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(getTextContent(result), "Morning Routine") {
		t.Error("Result should name the saved workflow")
	}
	if !mock.WasMethodCalled("SaveWorkflow") {
		t.Error("SaveWorkflow should have been called")
	}
}

func TestHandleWorkflowSave_InvalidJSON(t *testing.T) {
	mock := NewMockDeviceApp()
	server := NewMCPServer(mock)

	_, err := server.handleWorkflowSave(context.Background(), makeToolRequest(map[string]interface{}{
		"workflow_json": `{not json`,
	}))
	if err == nil {
		t.Error("Expected error for invalid JSON")
	}
	if mock.WasMethodCalled("SaveWorkflow") {
		t.Error("SaveWorkflow should not be called with invalid JSON")
	}
}

func TestHandleWorkflowSave_StoreRejects(t *testing.T) {
	mock := NewMockDeviceApp()
	mock.SetupWithError("SaveWorkflow", errors.New("schema validation failed"))
	server := NewMCPServer(mock)

	_, err := server.handleWorkflowSave(context.Background(), makeToolRequest(map[string]interface{}{
		"workflow_json": `{"name": "Bad", "steps": [{"type": "explode"}]}`,
	}))
	if err == nil {
		t.Error("Expected error when the store rejects the workflow")
	}
}

// ==================== workflow_delete ====================

func TestHandleWorkflowDelete_Success(t *testing.T) {
	mock := NewMockDeviceApp()
	server := NewMCPServer(mock)

	result, err := server.handleWorkflowDelete(context.Background(), makeToolRequest(map[string]interface{}{
		"workflow_id": "wf1",
	}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(getTextContent(result), "wf1") {
		t.Error("Result should name the deleted workflow")
	}
}

func TestHandleWorkflowDelete_NotFound(t *testing.T) {
	mock := NewMockDeviceApp()
	mock.SetupWithError("DeleteWorkflow", errors.New("workflow not found"))
	server := NewMCPServer(mock)

	_, err := server.handleWorkflowDelete(context.Background(), makeToolRequest(map[string]interface{}{
		"workflow_id": "nonexistent",
	}))
	if err == nil {
		t.Error("Expected error for nonexistent workflow")
	}
}

// ==================== workflow_run ====================

func TestHandleWorkflowRun_Success(t *testing.T) {
	mock := NewMockDeviceApp()
	mock.GetWorkflowResult = SampleWorkflow("wf1", "Login Flow")
	mock.GetWorkflowFound = true
	mock.RunWorkflowResultValue = WorkflowRunResult{
		RunID:      "run-1",
		WorkflowID: "wf1",
		Success:    true,
		Steps: []StepResult{
			{Type: "launch_app", Success: true, DurationMs: 900},
			{Type: "wait", Success: true, DurationMs: 500},
		},
	}
	server := NewMCPServer(mock)

	result, err := server.handleWorkflowRun(context.Background(), makeToolRequest(map[string]interface{}{
		"workflow_id": "wf1",
	}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	text := getTextContent(result)
	if !strings.Contains(text, "run-1") {
		t.Error("Result should carry the run ID")
	}
	if !strings.Contains(text, "launch_app") {
		t.Error("Result should carry per-step results")
	}
}

func TestHandleWorkflowRun_NotFound(t *testing.T) {
	mock := NewMockDeviceApp()
	server := NewMCPServer(mock)

	_, err := server.handleWorkflowRun(context.Background(), makeToolRequest(map[string]interface{}{
		"workflow_id": "nonexistent",
	}))
	if err == nil {
		t.Error("Expected error for nonexistent workflow")
	}
	if mock.WasMethodCalled("RunWorkflow") {
		t.Error("RunWorkflow should not be called for a missing workflow")
	}
}

func TestHandleWorkflowRun_FailedRunIsResultNotError(t *testing.T) {
	mock := NewMockDeviceApp()
	mock.GetWorkflowResult = SampleWorkflow("wf1", "Login Flow")
	mock.GetWorkflowFound = true
	mock.RunWorkflowResultValue = WorkflowRunResult{
		RunID:      "run-2",
		WorkflowID: "wf1",
		Success:    false,
		Error:      "step 1 (launch_app) failed: com.example.app is not installed",
		Steps: []StepResult{
			{Type: "launch_app", Success: false, Error: "com.example.app is not installed"},
		},
	}
	server := NewMCPServer(mock)

	result, err := server.handleWorkflowRun(context.Background(), makeToolRequest(map[string]interface{}{
		"workflow_id": "wf1",
	}))
	if err != nil {
		t.Fatalf("A failed run should be a structured result, not a protocol error: %v", err)
	}
	if !strings.Contains(getTextContent(result), "not installed") {
		t.Error("Result should carry the step failure")
	}
}
