package main

import (
	"context"
	"sync"

	"Tether/pkg/types"
)

// fakeBridge is a scripted Bridge for driving the automation flows in
// tests. CaptureScreen serves the scripted captures in order and repeats
// the last one once the script is exhausted; nil entries simulate dump
// failures.
type fakeBridge struct {
	mu       sync.Mutex
	script   []*ScreenCapture
	scriptAt int

	// Recorded actions
	CaptureCount int
	Clicked      []*UINode
	TypedInto    []*UINode
	TypedText    []string
	Taps         [][3]int
	Swipes       []string
	Keys         []string
	Launched     []string

	// Behavior switches (zero value = succeed)
	ClickFails   bool
	SetTextFails bool
	TapFails     bool
	SwipeFails   bool
	KeyFails     bool
	LaunchFails  bool

	// App registry
	Apps      []types.LaunchableApp
	Installed map[string]bool
	ListErr   error

	// OnSetText lets a test mutate the script when text lands, e.g. to
	// make the typed query appear on the next capture.
	OnSetText func(b *fakeBridge, node *UINode, text string)
}

func newFakeBridge(script ...*ScreenCapture) *fakeBridge {
	return &fakeBridge{script: script, Installed: make(map[string]bool)}
}

// pushCapture appends a capture to the script.
func (b *fakeBridge) pushCapture(c *ScreenCapture) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.script = append(b.script, c)
}

func (b *fakeBridge) CaptureScreen(ctx context.Context, maxNodes int) *ScreenCapture {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.CaptureCount++
	if len(b.script) == 0 {
		return nil
	}
	if b.scriptAt >= len(b.script) {
		return b.script[len(b.script)-1]
	}
	c := b.script[b.scriptAt]
	b.scriptAt++
	return c
}

func (b *fakeBridge) ClickNode(ctx context.Context, node *UINode) bool {
	b.mu.Lock()
	b.Clicked = append(b.Clicked, node)
	b.mu.Unlock()
	return !b.ClickFails
}

func (b *fakeBridge) SetText(ctx context.Context, node *UINode, text string) bool {
	b.mu.Lock()
	b.TypedInto = append(b.TypedInto, node)
	b.TypedText = append(b.TypedText, text)
	hook := b.OnSetText
	b.mu.Unlock()
	if b.SetTextFails {
		return false
	}
	if hook != nil {
		hook(b, node, text)
	}
	return true
}

func (b *fakeBridge) Tap(ctx context.Context, x, y, durationMs int) bool {
	b.mu.Lock()
	b.Taps = append(b.Taps, [3]int{x, y, durationMs})
	b.mu.Unlock()
	return !b.TapFails
}

func (b *fakeBridge) Swipe(ctx context.Context, direction string, distanceRatio float64, durationMs int) bool {
	b.mu.Lock()
	b.Swipes = append(b.Swipes, direction)
	b.mu.Unlock()
	return !b.SwipeFails
}

func (b *fakeBridge) RunGlobalAction(ctx context.Context, code string) bool {
	b.mu.Lock()
	b.Keys = append(b.Keys, code)
	b.mu.Unlock()
	return !b.KeyFails
}

func (b *fakeBridge) ListLaunchableApps(ctx context.Context) ([]types.LaunchableApp, error) {
	return b.Apps, b.ListErr
}

func (b *fakeBridge) Launch(ctx context.Context, packageName string) bool {
	b.mu.Lock()
	b.Launched = append(b.Launched, packageName)
	b.mu.Unlock()
	return !b.LaunchFails
}

func (b *fakeBridge) IsInstalled(ctx context.Context, packageName string) bool {
	return b.Installed[packageName]
}

// testConfig returns a config with millisecond-scale waits so flows that
// poll or time out stay fast under test.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Flow.PollIntervalMs = 1
	cfg.Flow.ForegroundWaitMs = 30
	cfg.Flow.ComposeWaitMs = 20
	cfg.Flow.MaxContactAttempts = 3
	cfg.Flow.MaxTypeAttempts = 3
	return cfg
}

func newTestApp(bridge Bridge) *App {
	return NewApp(testConfig(), bridge, nil, nil, "0.0.0-test")
}

// Tree builders. UINode children live in the Nodes slice by value, so
// trees are assembled bottom-up and pointers taken only after assembly.

func textNode(pkg, text string) UINode {
	return UINode{
		Package: pkg,
		Class:   "android.widget.TextView",
		Text:    text,
		Bounds:  "[0,0][400,80]",
	}
}

func buttonNode(pkg, text string) UINode {
	n := textNode(pkg, text)
	n.Class = "android.widget.Button"
	n.Clickable = true
	return n
}

func editNode(pkg, resourceID string) UINode {
	return UINode{
		Package:    pkg,
		Class:      "android.widget.EditText",
		ResourceID: resourceID,
		Clickable:  true,
		Bounds:     "[0,1800][900,1900]",
	}
}

func screen(pkg string, children ...UINode) *UINode {
	return &UINode{
		Package: pkg,
		Class:   "android.widget.FrameLayout",
		Bounds:  "[0,0][1080,1920]",
		Nodes:   children,
	}
}

// captureOf wraps a tree in a ScreenCapture with its snapshot projection.
func captureOf(root *UINode) *ScreenCapture {
	return &ScreenCapture{
		Snapshot: buildSnapshot(root, 120),
		Root:     root,
	}
}
