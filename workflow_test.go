package main

import (
	"context"
	"strings"
	"testing"

	"Tether/pkg/types"
)

func TestRunWorkflow_StepsRunInOrder(t *testing.T) {
	chat := captureOf(screen(spotifyPkg, buttonNode(spotifyPkg, "Play"), editNode(spotifyPkg, spotifyPkg+":id/search_input")))
	bridge := newFakeBridge(chat)
	bridge.Installed[spotifyPkg] = true
	app := newTestApp(bridge)

	wf := types.Workflow{
		ID:   "wf-1",
		Name: "open and tap",
		Steps: []types.WorkflowStep{
			{Type: "launch_app", PackageName: spotifyPkg},
			{Type: "tap", Text: "Play"},
			{Type: "swipe", Direction: "up"},
		},
	}
	result := app.RunWorkflow(context.Background(), wf)

	if !result.Success {
		t.Fatalf("expected success, got %q", result.Error)
	}
	if result.WorkflowID != "wf-1" || result.RunID == "" {
		t.Errorf("run identity wrong: %+v", result)
	}
	if len(result.Steps) != 3 {
		t.Fatalf("expected 3 step results, got %d", len(result.Steps))
	}
	for i, sr := range result.Steps {
		if !sr.Success {
			t.Errorf("step %d failed: %q", i, sr.Error)
		}
	}
	if len(bridge.Launched) != 1 || bridge.Launched[0] != spotifyPkg {
		t.Errorf("launched: %v", bridge.Launched)
	}
	if len(bridge.Clicked) != 1 || len(bridge.Swipes) != 1 {
		t.Errorf("actions: clicked=%d swipes=%d", len(bridge.Clicked), len(bridge.Swipes))
	}
	if result.FinishedAt < result.StartedAt {
		t.Error("timestamps out of order")
	}
}

func TestRunWorkflow_StopsOnFirstFailure(t *testing.T) {
	bridge := newFakeBridge() // no screens: tap cannot find anything
	app := newTestApp(bridge)

	wf := types.Workflow{
		Name: "failing",
		Steps: []types.WorkflowStep{
			{Type: "tap", Text: "missing"},
			{Type: "swipe", Direction: "up"},
		},
	}
	result := app.RunWorkflow(context.Background(), wf)

	if result.Success {
		t.Fatal("expected failure")
	}
	if len(result.Steps) != 1 {
		t.Fatalf("run must stop after the failed step, got %d results", len(result.Steps))
	}
	if !strings.Contains(result.Error, "step 1 (tap) failed") {
		t.Errorf("error: %q", result.Error)
	}
	if len(bridge.Swipes) != 0 {
		t.Error("later steps must not run")
	}
}

func TestRunWorkflow_ContinueOnErrorRunsAllSteps(t *testing.T) {
	bridge := newFakeBridge()
	app := newTestApp(bridge)

	wf := types.Workflow{
		Name:            "tolerant",
		ContinueOnError: true,
		Steps: []types.WorkflowStep{
			{Type: "tap", Text: "missing"},
			{Type: "swipe", Direction: "up"},
		},
	}
	result := app.RunWorkflow(context.Background(), wf)

	if result.Success {
		t.Fatal("a failed step still fails the run")
	}
	if len(result.Steps) != 2 {
		t.Fatalf("all steps should run, got %d results", len(result.Steps))
	}
	if !result.Steps[1].Success {
		t.Error("the swipe step should have succeeded")
	}
	if result.Error != "" {
		t.Errorf("continue-on-error leaves no run-level error: %q", result.Error)
	}
}

func TestRunWorkflow_StepLevelOnErrorContinue(t *testing.T) {
	bridge := newFakeBridge()
	app := newTestApp(bridge)

	wf := types.Workflow{
		Name: "per-step",
		Steps: []types.WorkflowStep{
			{Type: "tap", Text: "missing", OnError: "continue"},
			{Type: "swipe", Direction: "up"},
		},
	}
	result := app.RunWorkflow(context.Background(), wf)

	if len(result.Steps) != 2 {
		t.Fatalf("the per-step override should keep the run going, got %d results", len(result.Steps))
	}
}

func TestRunWorkflow_UnknownStepType(t *testing.T) {
	app := newTestApp(newFakeBridge())

	result := app.RunWorkflow(context.Background(), types.Workflow{
		Name:  "bad",
		Steps: []types.WorkflowStep{{Type: "teleport"}},
	})
	if result.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Steps[0].Error, `unknown step type "teleport"`) {
		t.Errorf("error: %q", result.Steps[0].Error)
	}
}

func TestRunWorkflow_Timeout(t *testing.T) {
	app := newTestApp(newFakeBridge())

	wf := types.Workflow{
		Name:            "slow",
		TimeoutMs:       5,
		ContinueOnError: true,
		Steps: []types.WorkflowStep{
			{Type: "wait", DurationMs: 50},
			{Type: "swipe", Direction: "up"},
		},
	}
	result := app.RunWorkflow(context.Background(), wf)

	if result.Success {
		t.Fatal("expected timeout")
	}
	if result.Error != "workflow timed out" {
		t.Errorf("error: %q", result.Error)
	}
	if len(result.Steps) != 1 {
		t.Errorf("the second step must not start after the timeout, got %d results", len(result.Steps))
	}
}

func TestStepLaunchApp_Validation(t *testing.T) {
	bridge := newFakeBridge()
	app := newTestApp(bridge)

	err := app.stepLaunchApp(context.Background(), types.WorkflowStep{Type: "launch_app"})
	if err == nil || !strings.Contains(err.Error(), "requires packageName") {
		t.Errorf("error: %v", err)
	}

	err = app.stepLaunchApp(context.Background(), types.WorkflowStep{Type: "launch_app", PackageName: spotifyPkg})
	if err == nil || !strings.Contains(err.Error(), "not installed") {
		t.Errorf("error: %v", err)
	}
	if len(bridge.Launched) != 0 {
		t.Error("uninstalled packages must not be launched")
	}
}

func TestStepLaunchApp_ForegroundTimeout(t *testing.T) {
	launcher := captureOf(screen("com.android.launcher", textNode("com.android.launcher", "Home")))
	bridge := newFakeBridge(launcher)
	bridge.Installed[spotifyPkg] = true
	app := newTestApp(bridge)

	err := app.stepLaunchApp(context.Background(), types.WorkflowStep{Type: "launch_app", PackageName: spotifyPkg})
	if err == nil || !strings.Contains(err.Error(), "did not reach the foreground") {
		t.Errorf("error: %v", err)
	}
}

func TestStepWait_ForText(t *testing.T) {
	empty := captureOf(screen(spotifyPkg, textNode(spotifyPkg, "Loading")))
	ready := captureOf(screen(spotifyPkg, textNode(spotifyPkg, "Discover Weekly")))
	bridge := newFakeBridge(empty, empty, ready)
	app := newTestApp(bridge)

	err := app.stepWait(context.Background(), types.WorkflowStep{
		Type: "wait", WaitForText: "discover", TimeoutMs: 100,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bridge.CaptureCount != 3 {
		t.Errorf("expected 3 polls, got %d", bridge.CaptureCount)
	}
}

func TestStepWait_ForTextTimesOut(t *testing.T) {
	empty := captureOf(screen(spotifyPkg, textNode(spotifyPkg, "Loading")))
	app := newTestApp(newFakeBridge(empty))

	err := app.stepWait(context.Background(), types.WorkflowStep{
		Type: "wait", WaitForText: "never", TimeoutMs: 10,
	})
	if err == nil || !strings.Contains(err.Error(), "did not appear within") {
		t.Errorf("error: %v", err)
	}
}

func TestStepType_RequiresValue(t *testing.T) {
	app := newTestApp(newFakeBridge())
	err := app.stepType(context.Background(), types.WorkflowStep{Type: "type"})
	if err == nil || !strings.Contains(err.Error(), "requires a value") {
		t.Errorf("error: %v", err)
	}
}

func TestRunWorkflow_SearchStepRequiresRequest(t *testing.T) {
	app := newTestApp(newFakeBridge())
	result := app.RunWorkflow(context.Background(), types.Workflow{
		Name:  "s",
		Steps: []types.WorkflowStep{{Type: "search"}},
	})
	if result.Success || !strings.Contains(result.Steps[0].Error, "requires a search request") {
		t.Errorf("result: %+v", result)
	}
}

func TestRunWorkflow_SearchStepFailureMessage(t *testing.T) {
	launcher := captureOf(screen("com.android.launcher", textNode("com.android.launcher", "Home")))
	bridge := newFakeBridge(launcher)
	app := newTestApp(bridge)

	result := app.RunWorkflow(context.Background(), types.Workflow{
		Name: "s",
		Steps: []types.WorkflowStep{{
			Type: "search",
			Search: &types.UISearchRequest{
				Query: "x", ExpectedPackage: spotifyPkg, MaxAttempts: 1,
			},
		}},
	})
	if result.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Steps[0].Error, "search failed:") {
		t.Errorf("error: %q", result.Steps[0].Error)
	}
}
