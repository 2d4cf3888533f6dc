package main

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"Tether/pkg/cache"
	"Tether/pkg/types"
)

// ScreenCapture pairs the immutable snapshot projection with the parsed
// tree it was built from. The tree is what queries and actions operate on;
// the snapshot is what gets reported and verified against.
type ScreenCapture struct {
	Snapshot *types.ScreenSnapshot
	Root     *UINode
}

// SnapshotProvider captures the current foreground window. Returns nil
// (never an error) when no window or device connection is available.
type SnapshotProvider interface {
	CaptureScreen(ctx context.Context, maxNodes int) *ScreenCapture
}

// ActionDispatcher performs gestures and input against the device. All
// methods report success as a bare bool; callers must re-capture to verify
// visible effect, since a true return only means the dispatch went through.
type ActionDispatcher interface {
	ClickNode(ctx context.Context, node *UINode) bool
	SetText(ctx context.Context, node *UINode, text string) bool
	Tap(ctx context.Context, x, y, durationMs int) bool
	Swipe(ctx context.Context, direction string, distanceRatio float64, durationMs int) bool
	RunGlobalAction(ctx context.Context, code string) bool
}

// AppRegistry queries and launches installed applications.
type AppRegistry interface {
	ListLaunchableApps(ctx context.Context) ([]types.LaunchableApp, error)
	Launch(ctx context.Context, packageName string) bool
	IsInstalled(ctx context.Context, packageName string) bool
}

// Bridge is the full capability surface the automation core consumes.
type Bridge interface {
	SnapshotProvider
	ActionDispatcher
	AppRegistry
}

// AdbBridge implements Bridge over the adb CLI. uiautomator dumps are
// throttled because back-to-back dumps stall the device's UI thread.
type AdbBridge struct {
	adbPath string
	serial  string
	limiter *rate.Limiter
	labels  *cache.Service

	screenW int
	screenH int
}

// NewAdbBridge creates a bridge for one device. labels may be nil.
func NewAdbBridge(adbPath, serial string, dumpMinInterval time.Duration, labels *cache.Service) *AdbBridge {
	if dumpMinInterval <= 0 {
		dumpMinInterval = 500 * time.Millisecond
	}
	return &AdbBridge{
		adbPath: adbPath,
		serial:  serial,
		limiter: rate.NewLimiter(rate.Every(dumpMinInterval), 1),
		labels:  labels,
	}
}

func (b *AdbBridge) runAdb(ctx context.Context, args ...string) (string, error) {
	full := args
	if b.serial != "" {
		full = append([]string{"-s", b.serial}, args...)
	}
	cmd := exec.CommandContext(ctx, b.adbPath, full...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("adb %s: %w", strings.Join(args, " "), err)
	}
	return string(out), nil
}

// CaptureScreen dumps the UI hierarchy and projects it into a snapshot.
// The dump is retried because uiautomator is flaky right after screen
// transitions.
func (b *AdbBridge) CaptureScreen(ctx context.Context, maxNodes int) *ScreenCapture {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil
	}

	const dumpFile = "/data/local/tmp/tether_view.xml"
	var raw string
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			_, _ = b.runAdb(ctx, "shell", "pkill", "uiautomator")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(500 * time.Millisecond):
			}
		}
		raw, err = b.runAdb(ctx, "shell", fmt.Sprintf("uiautomator dump %s && cat %s", dumpFile, dumpFile))
		if err == nil && strings.Contains(raw, "<?xml") {
			break
		}
		LogDebug("bridge").Int("attempt", attempt+1).Err(err).Msg("UI dump retry")
	}
	if err != nil || !strings.Contains(raw, "<?xml") {
		LogWarn("bridge").Err(err).Msg("UI dump failed, no snapshot")
		return nil
	}

	root, err := parseHierarchyXML(raw)
	if err != nil {
		LogWarn("bridge").Err(err).Msg("UI dump unparseable")
		return nil
	}

	return &ScreenCapture{
		Snapshot: buildSnapshot(root, maxNodes),
		Root:     root,
	}
}

// ClickNode taps the center of the node's bounds.
func (b *AdbBridge) ClickNode(ctx context.Context, node *UINode) bool {
	bounds, err := ParseBounds(node.Bounds)
	if err != nil {
		return false
	}
	x, y := bounds.Center()
	return b.Tap(ctx, x, y, 0)
}

// SetText focuses the node with a tap, then types the text. The input
// keyevent path has no way to report "text landed in the wrong field", so
// callers re-snapshot to confirm.
func (b *AdbBridge) SetText(ctx context.Context, node *UINode, text string) bool {
	if !b.ClickNode(ctx, node) {
		return false
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(300 * time.Millisecond):
	}
	_, err := b.runAdb(ctx, "shell", "input", "text", escapeInputText(text))
	return err == nil
}

// Tap issues a tap (or long press when durationMs > 0) at coordinates.
func (b *AdbBridge) Tap(ctx context.Context, x, y, durationMs int) bool {
	var err error
	if durationMs > 0 {
		_, err = b.runAdb(ctx, "shell", "input", "swipe",
			strconv.Itoa(x), strconv.Itoa(y), strconv.Itoa(x), strconv.Itoa(y), strconv.Itoa(durationMs))
	} else {
		_, err = b.runAdb(ctx, "shell", "input", "tap", strconv.Itoa(x), strconv.Itoa(y))
	}
	return err == nil
}

// Swipe performs a directional swipe centered on the screen.
func (b *AdbBridge) Swipe(ctx context.Context, direction string, distanceRatio float64, durationMs int) bool {
	w, h := b.resolution(ctx)
	if w == 0 || h == 0 {
		return false
	}
	if distanceRatio <= 0 || distanceRatio > 1 {
		distanceRatio = 0.5
	}
	if durationMs <= 0 {
		durationMs = 300
	}

	cx, cy := w/2, h/2
	dx, dy := 0, 0
	switch direction {
	case "up":
		dy = -int(float64(h) * distanceRatio / 2)
	case "down":
		dy = int(float64(h) * distanceRatio / 2)
	case "left":
		dx = -int(float64(w) * distanceRatio / 2)
	case "right":
		dx = int(float64(w) * distanceRatio / 2)
	default:
		return false
	}

	_, err := b.runAdb(ctx, "shell", "input", "swipe",
		strconv.Itoa(cx-dx), strconv.Itoa(cy-dy), strconv.Itoa(cx+dx), strconv.Itoa(cy+dy), strconv.Itoa(durationMs))
	return err == nil
}

// RunGlobalAction issues a navigation key event: back, home, recents.
func (b *AdbBridge) RunGlobalAction(ctx context.Context, code string) bool {
	key := ""
	switch code {
	case "back":
		key = "KEYCODE_BACK"
	case "home":
		key = "KEYCODE_HOME"
	case "recents":
		key = "KEYCODE_APP_SWITCH"
	case "enter":
		key = "KEYCODE_ENTER"
	default:
		return false
	}
	_, err := b.runAdb(ctx, "shell", "input", "keyevent", key)
	return err == nil
}

var launcherActivityPattern = regexp.MustCompile(`(?m)^\s*([\w.]+)/[\w.$]+`)

// ListLaunchableApps enumerates packages with a launcher activity. Display
// labels come from the label cache, refreshed from the package manager when
// entries are missing or expired; packages whose label the device cannot
// report fall back to the package name.
func (b *AdbBridge) ListLaunchableApps(ctx context.Context) ([]types.LaunchableApp, error) {
	out, err := b.runAdb(ctx, "shell",
		"cmd package query-activities --brief -a android.intent.action.MAIN -c android.intent.category.LAUNCHER")
	if err != nil {
		return nil, fmt.Errorf("failed to list launchable apps: %w", err)
	}

	seen := make(map[string]bool)
	var pkgs []string
	for _, match := range launcherActivityPattern.FindAllStringSubmatch(out, -1) {
		pkg := match[1]
		if pkg == "" || seen[pkg] || !strings.Contains(pkg, ".") {
			continue
		}
		seen[pkg] = true
		pkgs = append(pkgs, pkg)
	}

	if b.labels != nil {
		for _, pkg := range pkgs {
			if b.labels.Label(pkg) == "" {
				b.learnLabels(ctx)
				break
			}
		}
	}

	apps := make([]types.LaunchableApp, 0, len(pkgs))
	for _, pkg := range pkgs {
		label := ""
		if b.labels != nil {
			label = b.labels.Label(pkg)
		}
		if label == "" {
			label = pkg
		}
		apps = append(apps, types.LaunchableApp{PackageName: pkg, AppName: label})
	}
	return apps, nil
}

// learnLabels runs the verbose launcher-activity query once and caches every
// display label the package manager reports. Only activities declaring a
// non-localized label are covered; the rest keep the package-name fallback.
func (b *AdbBridge) learnLabels(ctx context.Context) {
	out, err := b.runAdb(ctx, "shell",
		"cmd package query-activities -a android.intent.action.MAIN -c android.intent.category.LAUNCHER")
	if err != nil {
		LogDebug("bridge").Err(err).Msg("Label query failed, keeping package-name fallback")
		return
	}
	learned := parseActivityLabels(out)
	if len(learned) == 0 {
		return
	}
	for pkg, label := range learned {
		b.labels.SetLabel(pkg, label)
	}
	if err := b.labels.Flush(); err != nil {
		LogWarn("bridge").Err(err).Msg("Failed to persist label cache")
	}
	LogDebug("bridge").Int("count", len(learned)).Msg("Learned app labels")
}

// parseActivityLabels extracts packageName/nonLocalizedLabel pairs from the
// verbose query-activities dump. The label line follows its package line
// within the same ActivityInfo block.
func parseActivityLabels(out string) map[string]string {
	labels := make(map[string]string)
	pkg := ""
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if v, ok := strings.CutPrefix(line, "packageName="); ok {
			pkg = strings.TrimSpace(v)
			continue
		}
		if v, ok := strings.CutPrefix(line, "nonLocalizedLabel="); ok {
			label := strings.TrimSpace(v)
			if pkg != "" && label != "" && label != "null" {
				labels[pkg] = label
			}
		}
	}
	return labels
}

// Launch starts the package's launcher activity.
func (b *AdbBridge) Launch(ctx context.Context, packageName string) bool {
	out, err := b.runAdb(ctx, "shell", "monkey", "-p", packageName,
		"-c", "android.intent.category.LAUNCHER", "1")
	if err != nil {
		return false
	}
	return !strings.Contains(out, "No activities found")
}

// IsInstalled reports whether the exact package is installed.
func (b *AdbBridge) IsInstalled(ctx context.Context, packageName string) bool {
	out, err := b.runAdb(ctx, "shell", "pm", "list", "packages", packageName)
	if err != nil {
		return false
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == "package:"+packageName {
			return true
		}
	}
	return false
}

func (b *AdbBridge) resolution(ctx context.Context) (int, int) {
	if b.screenW > 0 && b.screenH > 0 {
		return b.screenW, b.screenH
	}
	out, err := b.runAdb(ctx, "shell", "wm", "size")
	if err != nil {
		return 0, 0
	}
	matches := regexp.MustCompile(`(\d+)x(\d+)`).FindStringSubmatch(out)
	if len(matches) < 3 {
		return 0, 0
	}
	b.screenW, _ = strconv.Atoi(matches[1])
	b.screenH, _ = strconv.Atoi(matches[2])
	return b.screenW, b.screenH
}

// escapeInputText prepares text for `input text`: spaces become %s and
// shell metacharacters get backslash-escaped.
func escapeInputText(text string) string {
	var sb strings.Builder
	for _, r := range text {
		switch r {
		case ' ':
			sb.WriteString("%s")
		case '\'', '"', '`', '\\', '$', '&', '|', ';', '(', ')', '<', '>', '*', '?', '#', '~':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
