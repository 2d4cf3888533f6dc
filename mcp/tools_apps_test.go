package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// ==================== app_list ====================

func TestHandleAppList_Success(t *testing.T) {
	mock := NewMockDeviceApp()
	mock.ListAppsResult = []LaunchableApp{
		SampleApp("com.whatsapp", "WhatsApp"),
		SampleApp("com.spotify.music", "Spotify"),
	}
	server := NewMCPServer(mock)

	result, err := server.handleAppList(context.Background(), makeToolRequest(nil))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	text := getTextContent(result)
	if !strings.Contains(text, "com.whatsapp") || !strings.Contains(text, "Spotify") {
		t.Error("Result should list both apps")
	}
}

func TestHandleAppList_Empty(t *testing.T) {
	mock := NewMockDeviceApp()
	server := NewMCPServer(mock)

	result, err := server.handleAppList(context.Background(), makeToolRequest(nil))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(strings.ToLower(getTextContent(result)), "no launchable apps") {
		t.Error("Result should state that no apps were found")
	}
}

// ==================== app_resolve ====================

func TestHandleAppResolve_Match(t *testing.T) {
	mock := NewMockDeviceApp()
	mock.ResolveAppResult = AppResolution{
		Query: "whatsapp",
		Match: &AppMatch{PackageName: "com.whatsapp", AppName: "WhatsApp", Score: 800},
	}
	server := NewMCPServer(mock)

	result, err := server.handleAppResolve(context.Background(), makeToolRequest(map[string]interface{}{
		"query": "whatsapp",
	}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(getTextContent(result), "com.whatsapp") {
		t.Error("Result should contain the matched package")
	}
}

func TestHandleAppResolve_SuggestionsOnly(t *testing.T) {
	mock := NewMockDeviceApp()
	mock.ResolveAppResult = AppResolution{
		Query: "com.whatsap",
		Suggestions: []AppMatch{
			{PackageName: "com.whatsapp", AppName: "WhatsApp", Score: 140},
		},
	}
	server := NewMCPServer(mock)

	result, err := server.handleAppResolve(context.Background(), makeToolRequest(map[string]interface{}{
		"query": "com.whatsap",
	}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	text := getTextContent(result)
	if strings.Contains(text, `"match"`) {
		t.Error("A near-miss package query should not carry a match")
	}
	if !strings.Contains(text, "suggestions") {
		t.Error("Result should carry suggestions")
	}
}

func TestHandleAppResolve_MissingQuery(t *testing.T) {
	mock := NewMockDeviceApp()
	server := NewMCPServer(mock)

	_, err := server.handleAppResolve(context.Background(), makeToolRequest(nil))
	if err == nil {
		t.Error("Expected error for missing query")
	}
}

// ==================== app_launch ====================

func TestHandleAppLaunch_Success(t *testing.T) {
	mock := NewMockDeviceApp()
	mock.LaunchAppResult = AppResolution{
		Query: "spotify",
		Match: &AppMatch{PackageName: "com.spotify.music", AppName: "Spotify", Score: 800},
	}
	server := NewMCPServer(mock)

	result, err := server.handleAppLaunch(context.Background(), makeToolRequest(map[string]interface{}{
		"query": "spotify",
	}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(getTextContent(result), "com.spotify.music") {
		t.Error("Result should name the launched package")
	}
}

func TestHandleAppLaunch_NoMatchReturnsSuggestions(t *testing.T) {
	mock := NewMockDeviceApp()
	mock.LaunchAppResult = AppResolution{
		Query: "com.whatsap",
		Suggestions: []AppMatch{
			{PackageName: "com.whatsapp", AppName: "WhatsApp", Score: 140},
		},
	}
	mock.LaunchAppError = errors.New(`no app matching "com.whatsap"`)
	server := NewMCPServer(mock)

	result, err := server.handleAppLaunch(context.Background(), makeToolRequest(map[string]interface{}{
		"query": "com.whatsap",
	}))
	if err != nil {
		t.Fatalf("Suggestions should come back as a result, not an error: %v", err)
	}
	if !strings.Contains(getTextContent(result), "com.whatsapp") {
		t.Error("Result should include the suggestion")
	}
}

func TestHandleAppLaunch_FailureWithoutSuggestions(t *testing.T) {
	mock := NewMockDeviceApp()
	mock.LaunchAppError = errors.New("com.spotify.music did not reach the foreground in time")
	server := NewMCPServer(mock)

	_, err := server.handleAppLaunch(context.Background(), makeToolRequest(map[string]interface{}{
		"query": "spotify",
	}))
	if err == nil {
		t.Error("Expected error when launch fails and there are no suggestions")
	}
}
