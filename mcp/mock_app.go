package mcp

import (
	"context"
	"errors"
	"sync"
)

// Common errors for test configuration
var (
	ErrDeviceUnavailable = errors.New("no screen available")
	ErrNotFound          = errors.New("not found")
)

// MockCall records a method call for verification
type MockCall struct {
	Method string
	Args   []interface{}
}

// MockDeviceApp is a mock implementation of DeviceApp for testing
type MockDeviceApp struct {
	mu    sync.Mutex
	Calls []MockCall

	// Screen
	CaptureSnapshotResult *ScreenSnapshot
	CaptureSnapshotError  error
	FindElementsResult    []ScreenNode
	FindElementsError     error
	TapElementError       error
	TapCoordinatesError   error
	SwipeScreenError      error
	TypeTextError         error
	PressKeyError         error

	// Guarded flows
	RunUISearchResultValue UISearchExecution
	SendMessageResultValue SendMessageResult

	// Apps
	ListAppsResult   []LaunchableApp
	ListAppsError    error
	ResolveAppResult AppResolution
	ResolveAppError  error
	LaunchAppResult  AppResolution
	LaunchAppError   error

	// Workflows
	ListWorkflowsResult    []Workflow
	GetWorkflowResult      Workflow
	GetWorkflowFound       bool
	SaveWorkflowResult     Workflow
	SaveWorkflowError      error
	DeleteWorkflowError    error
	RunWorkflowResultValue WorkflowRunResult

	// Presets
	ResolvePresetResult string
	ResolvePresetError  error

	// Utility
	AppVersion string
}

// NewMockDeviceApp creates a MockDeviceApp with sensible defaults
func NewMockDeviceApp() *MockDeviceApp {
	return &MockDeviceApp{
		Calls:               make([]MockCall, 0),
		AppVersion:          "0.0.0-test",
		FindElementsResult:  []ScreenNode{},
		ListAppsResult:      []LaunchableApp{},
		ListWorkflowsResult: []Workflow{},
	}
}

// recordCall records a method call
func (m *MockDeviceApp) recordCall(method string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockCall{Method: method, Args: args})
}

// GetCalls returns all recorded calls
func (m *MockDeviceApp) GetCalls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall{}, m.Calls...)
}

// WasMethodCalled checks if a method was called
func (m *MockDeviceApp) WasMethodCalled(method string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, call := range m.Calls {
		if call.Method == method {
			return true
		}
	}
	return false
}

// GetLastCallByMethod returns the last call to a specific method
func (m *MockDeviceApp) GetLastCallByMethod(method string) *MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.Calls) - 1; i >= 0; i-- {
		if m.Calls[i].Method == method {
			return &m.Calls[i]
		}
	}
	return nil
}

// SetupWithError configures a specific method to return an error
func (m *MockDeviceApp) SetupWithError(method string, err error) *MockDeviceApp {
	switch method {
	case "CaptureSnapshot":
		m.CaptureSnapshotError = err
	case "FindElements":
		m.FindElementsError = err
	case "TapElement":
		m.TapElementError = err
	case "TapCoordinates":
		m.TapCoordinatesError = err
	case "SwipeScreen":
		m.SwipeScreenError = err
	case "TypeText":
		m.TypeTextError = err
	case "PressKey":
		m.PressKeyError = err
	case "ListApps":
		m.ListAppsError = err
	case "ResolveApp":
		m.ResolveAppError = err
	case "LaunchApp":
		m.LaunchAppError = err
	case "SaveWorkflow":
		m.SaveWorkflowError = err
	case "DeleteWorkflow":
		m.DeleteWorkflowError = err
	case "ResolvePreset":
		m.ResolvePresetError = err
	}
	return m
}

// === Screen ===

func (m *MockDeviceApp) CaptureSnapshot(ctx context.Context) (*ScreenSnapshot, error) {
	m.recordCall("CaptureSnapshot")
	return m.CaptureSnapshotResult, m.CaptureSnapshotError
}

func (m *MockDeviceApp) FindElements(ctx context.Context, query string, exact bool) ([]ScreenNode, error) {
	m.recordCall("FindElements", query, exact)
	return m.FindElementsResult, m.FindElementsError
}

func (m *MockDeviceApp) TapElement(ctx context.Context, query string, exact bool, occurrence int) error {
	m.recordCall("TapElement", query, exact, occurrence)
	return m.TapElementError
}

func (m *MockDeviceApp) TapCoordinates(ctx context.Context, x, y, durationMs int) error {
	m.recordCall("TapCoordinates", x, y, durationMs)
	return m.TapCoordinatesError
}

func (m *MockDeviceApp) SwipeScreen(ctx context.Context, direction string, distanceRatio float64, durationMs int) error {
	m.recordCall("SwipeScreen", direction, distanceRatio, durationMs)
	return m.SwipeScreenError
}

func (m *MockDeviceApp) TypeText(ctx context.Context, text string) error {
	m.recordCall("TypeText", text)
	return m.TypeTextError
}

func (m *MockDeviceApp) PressKey(ctx context.Context, code string) error {
	m.recordCall("PressKey", code)
	return m.PressKeyError
}

// === Guarded flows ===

func (m *MockDeviceApp) RunUISearch(ctx context.Context, req UISearchRequest) UISearchExecution {
	m.recordCall("RunUISearch", req)
	return m.RunUISearchResultValue
}

func (m *MockDeviceApp) SendMessage(ctx context.Context, req SendMessageRequest) SendMessageResult {
	m.recordCall("SendMessage", req)
	return m.SendMessageResultValue
}

// === Apps ===

func (m *MockDeviceApp) ListApps(ctx context.Context) ([]LaunchableApp, error) {
	m.recordCall("ListApps")
	return m.ListAppsResult, m.ListAppsError
}

func (m *MockDeviceApp) ResolveApp(ctx context.Context, query string) (AppResolution, error) {
	m.recordCall("ResolveApp", query)
	return m.ResolveAppResult, m.ResolveAppError
}

func (m *MockDeviceApp) LaunchApp(ctx context.Context, query string) (AppResolution, error) {
	m.recordCall("LaunchApp", query)
	return m.LaunchAppResult, m.LaunchAppError
}

// === Workflows ===

func (m *MockDeviceApp) ListWorkflows() []Workflow {
	m.recordCall("ListWorkflows")
	return m.ListWorkflowsResult
}

func (m *MockDeviceApp) GetWorkflow(id string) (Workflow, bool) {
	m.recordCall("GetWorkflow", id)
	return m.GetWorkflowResult, m.GetWorkflowFound
}

func (m *MockDeviceApp) SaveWorkflow(wf Workflow) (Workflow, error) {
	m.recordCall("SaveWorkflow", wf)
	if m.SaveWorkflowError != nil {
		return wf, m.SaveWorkflowError
	}
	saved := m.SaveWorkflowResult
	if saved.Name == "" {
		saved = wf
		if saved.ID == "" {
			saved.ID = "generated-id"
		}
	}
	return saved, nil
}

func (m *MockDeviceApp) DeleteWorkflow(id string) error {
	m.recordCall("DeleteWorkflow", id)
	return m.DeleteWorkflowError
}

func (m *MockDeviceApp) RunWorkflow(ctx context.Context, wf Workflow) WorkflowRunResult {
	m.recordCall("RunWorkflow", wf)
	return m.RunWorkflowResultValue
}

// === Presets ===

func (m *MockDeviceApp) ResolvePreset(kind, alias string) (string, error) {
	m.recordCall("ResolvePreset", kind, alias)
	return m.ResolvePresetResult, m.ResolvePresetError
}

// === Utility ===

func (m *MockDeviceApp) Version() string {
	return m.AppVersion
}

// === Sample data builders ===

// SampleSnapshot builds a snapshot with one text node per given text
func SampleSnapshot(pkg string, texts ...string) *ScreenSnapshot {
	snap := &ScreenSnapshot{
		ForegroundPackage: pkg,
		RootClassName:     "android.widget.FrameLayout",
	}
	for i, text := range texts {
		snap.Nodes = append(snap.Nodes, ScreenNode{
			Text:      text,
			ClassName: "android.widget.TextView",
			Bounds:    Rect{Left: 0, Top: i * 100, Right: 400, Bottom: i*100 + 80},
		})
	}
	return snap
}

// SampleWorkflow builds a minimal valid workflow
func SampleWorkflow(id, name string) Workflow {
	return Workflow{
		ID:   id,
		Name: name,
		Steps: []WorkflowStep{
			{Type: "launch_app", PackageName: "com.example.app"},
			{Type: "wait", DurationMs: 500},
		},
	}
}

// SampleApp builds a launchable app entry
func SampleApp(pkg, name string) LaunchableApp {
	return LaunchableApp{PackageName: pkg, AppName: name}
}
