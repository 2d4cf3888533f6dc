package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

// Helper to create a CallToolRequest with arguments
func makeToolRequest(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// Helper to get text content from result
func getTextContent(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// ==================== ui_snapshot ====================

func TestHandleUISnapshot_Success(t *testing.T) {
	mock := NewMockDeviceApp()
	mock.CaptureSnapshotResult = SampleSnapshot("com.whatsapp", "Chats", "Status", "Calls")
	server := NewMCPServer(mock)

	result, err := server.handleUISnapshot(context.Background(), makeToolRequest(nil))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	text := getTextContent(result)
	if !strings.Contains(text, "com.whatsapp") {
		t.Error("Result should contain the foreground package")
	}
	if !strings.Contains(text, "Chats") {
		t.Error("Result should contain node text")
	}
}

func TestHandleUISnapshot_NoScreen(t *testing.T) {
	mock := NewMockDeviceApp()
	mock.SetupWithError("CaptureSnapshot", ErrDeviceUnavailable)
	server := NewMCPServer(mock)

	_, err := server.handleUISnapshot(context.Background(), makeToolRequest(nil))
	if err == nil {
		t.Error("Expected error when no screen is available")
	}
}

// ==================== ui_find ====================

func TestHandleUIFind_Success(t *testing.T) {
	mock := NewMockDeviceApp()
	mock.FindElementsResult = []ScreenNode{
		{Text: "Settings", ClassName: "android.widget.TextView", Clickable: true},
	}
	server := NewMCPServer(mock)

	result, err := server.handleUIFind(context.Background(), makeToolRequest(map[string]interface{}{
		"query": "Settings",
	}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	text := getTextContent(result)
	if !strings.Contains(text, "Settings") {
		t.Error("Result should contain the matched element text")
	}

	call := mock.GetLastCallByMethod("FindElements")
	if call == nil {
		t.Fatal("FindElements should have been called")
	}
	if call.Args[1].(bool) != false {
		t.Error("exact should default to false")
	}
}

func TestHandleUIFind_NoMatches(t *testing.T) {
	mock := NewMockDeviceApp()
	server := NewMCPServer(mock)

	result, err := server.handleUIFind(context.Background(), makeToolRequest(map[string]interface{}{
		"query": "Nonexistent",
	}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(strings.ToLower(getTextContent(result)), "no elements") {
		t.Error("Result should state that nothing matched")
	}
}

func TestHandleUIFind_MissingQuery(t *testing.T) {
	mock := NewMockDeviceApp()
	server := NewMCPServer(mock)

	_, err := server.handleUIFind(context.Background(), makeToolRequest(nil))
	if err == nil {
		t.Error("Expected error for missing query")
	}
}

// ==================== ui_tap ====================

func TestHandleUITap_ByText(t *testing.T) {
	mock := NewMockDeviceApp()
	server := NewMCPServer(mock)

	result, err := server.handleUITap(context.Background(), makeToolRequest(map[string]interface{}{
		"text":       "Send",
		"occurrence": float64(2),
	}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(getTextContent(result), "Send") {
		t.Error("Result should mention the tapped element")
	}

	call := mock.GetLastCallByMethod("TapElement")
	if call == nil {
		t.Fatal("TapElement should have been called")
	}
	if call.Args[2].(int) != 2 {
		t.Errorf("Expected occurrence 2, got %v", call.Args[2])
	}
}

func TestHandleUITap_ByCoordinates(t *testing.T) {
	mock := NewMockDeviceApp()
	server := NewMCPServer(mock)

	_, err := server.handleUITap(context.Background(), makeToolRequest(map[string]interface{}{
		"x": float64(540),
		"y": float64(1200),
	}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	call := mock.GetLastCallByMethod("TapCoordinates")
	if call == nil {
		t.Fatal("TapCoordinates should have been called")
	}
	if call.Args[0].(int) != 540 || call.Args[1].(int) != 1200 {
		t.Errorf("Unexpected coordinates: %v", call.Args)
	}
}

func TestHandleUITap_MissingTarget(t *testing.T) {
	mock := NewMockDeviceApp()
	server := NewMCPServer(mock)

	_, err := server.handleUITap(context.Background(), makeToolRequest(map[string]interface{}{
		"x": float64(100),
	}))
	if err == nil {
		t.Error("Expected error when neither text nor both coordinates are given")
	}
}

// ==================== ui_swipe ====================

func TestHandleUISwipe_Success(t *testing.T) {
	mock := NewMockDeviceApp()
	server := NewMCPServer(mock)

	_, err := server.handleUISwipe(context.Background(), makeToolRequest(map[string]interface{}{
		"direction":      "up",
		"distance_ratio": 0.7,
	}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	call := mock.GetLastCallByMethod("SwipeScreen")
	if call == nil {
		t.Fatal("SwipeScreen should have been called")
	}
	if call.Args[0].(string) != "up" {
		t.Errorf("Expected direction up, got %v", call.Args[0])
	}
	if call.Args[1].(float64) != 0.7 {
		t.Errorf("Expected ratio 0.7, got %v", call.Args[1])
	}
}

func TestHandleUISwipe_MissingDirection(t *testing.T) {
	mock := NewMockDeviceApp()
	server := NewMCPServer(mock)

	_, err := server.handleUISwipe(context.Background(), makeToolRequest(nil))
	if err == nil {
		t.Error("Expected error for missing direction")
	}
}

// ==================== ui_type / ui_key ====================

func TestHandleUIType_Success(t *testing.T) {
	mock := NewMockDeviceApp()
	server := NewMCPServer(mock)

	_, err := server.handleUIType(context.Background(), makeToolRequest(map[string]interface{}{
		"text": "hello world",
	}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	call := mock.GetLastCallByMethod("TypeText")
	if call == nil || call.Args[0].(string) != "hello world" {
		t.Error("TypeText should have been called with the given text")
	}
}

func TestHandleUIKey_Success(t *testing.T) {
	mock := NewMockDeviceApp()
	server := NewMCPServer(mock)

	_, err := server.handleUIKey(context.Background(), makeToolRequest(map[string]interface{}{
		"code": "back",
	}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !mock.WasMethodCalled("PressKey") {
		t.Error("PressKey should have been called")
	}
}

// ==================== ui_search ====================

func TestHandleUISearchFlow_Success(t *testing.T) {
	mock := NewMockDeviceApp()
	mock.RunUISearchResultValue = UISearchExecution{
		Success:      true,
		Typed:        true,
		QueryVisible: true,
		InputFound:   true,
		Checkpoints: []Checkpoint{
			{Step: "query_verification", ExpectedPackage: "com.spotify.music", ActualPackage: "com.spotify.music", Matched: true},
		},
	}
	server := NewMCPServer(mock)

	result, err := server.handleUISearchFlow(context.Background(), makeToolRequest(map[string]interface{}{
		"query":            "discover weekly",
		"expected_package": "com.spotify.music",
		"max_attempts":     float64(5),
		"submit_search":    true,
	}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	text := getTextContent(result)
	if !strings.Contains(text, "query_verification") {
		t.Error("Result should carry the checkpoint trail")
	}

	call := mock.GetLastCallByMethod("RunUISearch")
	if call == nil {
		t.Fatal("RunUISearch should have been called")
	}
	req := call.Args[0].(UISearchRequest)
	if req.MaxAttempts != 5 {
		t.Errorf("Expected max_attempts 5, got %d", req.MaxAttempts)
	}
	if !req.SubmitSearch {
		t.Error("SubmitSearch should be set")
	}
}

func TestHandleUISearchFlow_MissingPackage(t *testing.T) {
	mock := NewMockDeviceApp()
	server := NewMCPServer(mock)

	_, err := server.handleUISearchFlow(context.Background(), makeToolRequest(map[string]interface{}{
		"query": "anything",
	}))
	if err == nil {
		t.Error("Expected error for missing expected_package")
	}
}

func TestHandleUISearchFlow_FailureIsResultNotError(t *testing.T) {
	mock := NewMockDeviceApp()
	mock.RunUISearchResultValue = UISearchExecution{
		Success: false,
		Error:   "search input was never found in com.spotify.music",
	}
	server := NewMCPServer(mock)

	result, err := server.handleUISearchFlow(context.Background(), makeToolRequest(map[string]interface{}{
		"query":            "discover weekly",
		"expected_package": "com.spotify.music",
	}))
	if err != nil {
		t.Fatalf("A failed search should be a structured result, not a protocol error: %v", err)
	}
	if !strings.Contains(getTextContent(result), "never found") {
		t.Error("Result should carry the diagnostic")
	}
}
