package main

import (
	"context"
	"fmt"
	"strings"

	"Tether/pkg/types"
)

// App wires the device bridge, workflow store and presets behind the
// capability surface the tool server exposes. All automation flows hang
// off this struct; the bridge is an interface so tests drive the flows
// with scripted screens.
type App struct {
	cfg     Config
	bridge  Bridge
	store   *WorkflowStore
	presets *PresetStore
	version string
}

// NewApp creates the application core. store and presets may be nil when
// the corresponding features are not configured.
func NewApp(cfg Config, bridge Bridge, store *WorkflowStore, presets *PresetStore, version string) *App {
	return &App{
		cfg:     cfg,
		bridge:  bridge,
		store:   store,
		presets: presets,
		version: version,
	}
}

// Version returns the application version string.
func (a *App) Version() string {
	return a.version
}

// Close releases background resources.
func (a *App) Close() {
	if a.store != nil {
		a.store.Close()
	}
}

// CaptureSnapshot captures the current foreground window as a snapshot.
func (a *App) CaptureSnapshot(ctx context.Context) (*types.ScreenSnapshot, error) {
	capture := a.bridge.CaptureScreen(ctx, a.cfg.Flow.SnapshotMaxNodes)
	if capture == nil {
		return nil, fmt.Errorf("no screen available; is the device connected and awake?")
	}
	return capture.Snapshot, nil
}

// FindElements returns every on-screen element whose text or description
// matches the query.
func (a *App) FindElements(ctx context.Context, query string, exact bool) ([]types.ScreenNode, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	capture := a.bridge.CaptureScreen(ctx, a.cfg.Flow.SnapshotMaxNodes)
	if capture == nil {
		return nil, fmt.Errorf("no screen available")
	}

	var matches []types.ScreenNode
	for _, node := range collectNodes(capture.Root, func(n *UINode) bool {
		return matchesQueryText(n, query, exact)
	}) {
		matches = append(matches, types.ScreenNode{
			Text:        node.Text,
			Description: node.ContentDesc,
			ClassName:   node.Class,
			Clickable:   node.Clickable,
			Bounds:      nodeRect(node),
		})
	}
	return matches, nil
}

// TapElement finds an element by text and taps it, walking up to the
// nearest clickable ancestor when the matched node itself is not.
func (a *App) TapElement(ctx context.Context, query string, exact bool, occurrence int) error {
	capture := a.bridge.CaptureScreen(ctx, a.cfg.Flow.SnapshotMaxNodes)
	if capture == nil {
		return fmt.Errorf("no screen available")
	}
	node := findByText(capture.Root, query, exact, occurrence)
	if node == nil {
		return fmt.Errorf("no element matching %q on screen", query)
	}
	if !clickNodeOrAncestor(ctx, a.bridge, capture.Root, node) {
		return fmt.Errorf("element %q has no clickable node in its ancestor chain", query)
	}
	return nil
}

// TapCoordinates taps raw screen coordinates, with an optional long-press
// duration.
func (a *App) TapCoordinates(ctx context.Context, x, y, durationMs int) error {
	if !a.bridge.Tap(ctx, x, y, durationMs) {
		return fmt.Errorf("tap at (%d,%d) failed", x, y)
	}
	return nil
}

// SwipeScreen performs a directional swipe centered on the screen.
func (a *App) SwipeScreen(ctx context.Context, direction string, distanceRatio float64, durationMs int) error {
	if !a.bridge.Swipe(ctx, direction, distanceRatio, durationMs) {
		return fmt.Errorf("swipe %s failed", direction)
	}
	return nil
}

// TypeText types into the focused editable field, falling back to the
// first editable field on screen.
func (a *App) TypeText(ctx context.Context, text string) error {
	if text == "" {
		return fmt.Errorf("text must not be empty")
	}
	capture := a.bridge.CaptureScreen(ctx, a.cfg.Flow.SnapshotMaxNodes)
	if capture == nil {
		return fmt.Errorf("no screen available")
	}
	target := findByPredicate(capture.Root, func(n *UINode) bool {
		return isEditable(n) && n.Focused
	})
	if target == nil {
		target = findByPredicate(capture.Root, isEditable)
	}
	if target == nil {
		return fmt.Errorf("no editable field on screen")
	}
	if !a.bridge.SetText(ctx, target, text) {
		return fmt.Errorf("failed to type into field")
	}
	return nil
}

// PressKey issues a global navigation action: back, home, recents, enter.
func (a *App) PressKey(ctx context.Context, code string) error {
	if !a.bridge.RunGlobalAction(ctx, code) {
		return fmt.Errorf("unsupported or failed key action %q", code)
	}
	return nil
}

// ListApps enumerates the installed launchable apps.
func (a *App) ListApps(ctx context.Context) ([]types.LaunchableApp, error) {
	return a.bridge.ListLaunchableApps(ctx)
}

// LaunchApp resolves a query to an installed app, launches it, and waits
// until it reaches the foreground. The resolution is returned either way
// so callers can surface suggestions when nothing launched.
func (a *App) LaunchApp(ctx context.Context, query string) (types.AppResolution, error) {
	res, err := a.ResolveApp(ctx, query)
	if err != nil {
		return res, err
	}
	if res.Match == nil {
		return res, fmt.Errorf("no app matching %q", query)
	}
	if !a.bridge.Launch(ctx, res.Match.PackageName) {
		return res, fmt.Errorf("failed to launch %s", res.Match.PackageName)
	}
	capture := a.waitForForegroundPackage(ctx, map[string]bool{res.Match.PackageName: true},
		a.cfg.Flow.ForegroundWait(), a.cfg.Flow.PollInterval())
	if capture == nil {
		return res, fmt.Errorf("%s did not reach the foreground in time", res.Match.PackageName)
	}
	return res, nil
}

// ListWorkflows returns all stored workflows.
func (a *App) ListWorkflows() []types.Workflow {
	if a.store == nil {
		return nil
	}
	return a.store.List()
}

// GetWorkflow returns a stored workflow by id.
func (a *App) GetWorkflow(id string) (types.Workflow, bool) {
	if a.store == nil {
		return types.Workflow{}, false
	}
	return a.store.Get(id)
}

// SaveWorkflow validates and persists a workflow definition.
func (a *App) SaveWorkflow(wf types.Workflow) (types.Workflow, error) {
	if a.store == nil {
		return wf, fmt.Errorf("workflow storage is not configured")
	}
	return a.store.Save(wf)
}

// DeleteWorkflow removes a stored workflow.
func (a *App) DeleteWorkflow(id string) error {
	if a.store == nil {
		return fmt.Errorf("workflow storage is not configured")
	}
	return a.store.Delete(id)
}

// ResolvePreset resolves a contact or app alias to its configured entry.
func (a *App) ResolvePreset(kind, alias string) (string, error) {
	if a.presets == nil {
		return "", fmt.Errorf("no presets configured")
	}
	return a.presets.Resolve(kind, alias)
}

// matchesQueryText matches a node's text or description against a query.
func matchesQueryText(n *UINode, query string, exact bool) bool {
	if exact {
		return strings.EqualFold(n.Text, query) || strings.EqualFold(n.ContentDesc, query)
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(n.Text), q) ||
		strings.Contains(strings.ToLower(n.ContentDesc), q)
}
