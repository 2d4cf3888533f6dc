package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"Tether/pkg/types"
)

const defaultWorkflowTimeout = 2 * time.Minute

// RunWorkflow executes the workflow's steps in order against an overall
// wall-clock timeout. The runner is pure sequencing and error aggregation;
// all verification lives in the primitives it composes.
func (a *App) RunWorkflow(ctx context.Context, wf types.Workflow) types.WorkflowRunResult {
	result := types.WorkflowRunResult{
		RunID:      uuid.NewString(),
		WorkflowID: wf.ID,
		StartedAt:  time.Now().UnixMilli(),
	}

	timeout := defaultWorkflowTimeout
	if wf.TimeoutMs > 0 {
		timeout = time.Duration(wf.TimeoutMs) * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result.Success = true
	for i, step := range wf.Steps {
		stepStart := time.Now()
		err := a.executeWorkflowStep(ctx, step)
		sr := types.StepResult{
			ID:         step.ID,
			Type:       step.Type,
			Success:    err == nil,
			DurationMs: time.Since(stepStart).Milliseconds(),
		}
		if err != nil {
			sr.Error = err.Error()
			result.Success = false
			LogWarn("workflow").Int("step", i).Str("type", step.Type).Err(err).Msg("Workflow step failed")
		}
		result.Steps = append(result.Steps, sr)

		if err != nil && !wf.ContinueOnError && step.OnError != "continue" {
			result.Error = fmt.Sprintf("step %d (%s) failed: %v", i+1, step.Type, err)
			break
		}
		if ctx.Err() != nil {
			result.Success = false
			result.Error = "workflow timed out"
			break
		}
	}

	result.FinishedAt = time.Now().UnixMilli()
	return result
}

func (a *App) executeWorkflowStep(ctx context.Context, step types.WorkflowStep) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	switch step.Type {
	case "launch_app":
		return a.stepLaunchApp(ctx, step)
	case "search":
		if step.Search == nil {
			return fmt.Errorf("search step requires a search request")
		}
		exec := a.RunUISearch(ctx, *step.Search)
		if !exec.Success {
			return fmt.Errorf("search failed: %s", exec.Error)
		}
		return nil
	case "tap":
		return a.stepTap(ctx, step)
	case "wait":
		return a.stepWait(ctx, step)
	case "swipe":
		if !a.bridge.Swipe(ctx, step.Direction, step.DistanceRatio, step.DurationMs) {
			return fmt.Errorf("swipe %s failed", step.Direction)
		}
		return nil
	case "type":
		return a.stepType(ctx, step)
	default:
		return fmt.Errorf("unknown step type %q", step.Type)
	}
}

func (a *App) stepLaunchApp(ctx context.Context, step types.WorkflowStep) error {
	if step.PackageName == "" {
		return fmt.Errorf("launch_app step requires packageName")
	}
	if !a.bridge.IsInstalled(ctx, step.PackageName) {
		return fmt.Errorf("%s is not installed", step.PackageName)
	}
	if !a.bridge.Launch(ctx, step.PackageName) {
		return fmt.Errorf("failed to launch %s", step.PackageName)
	}
	capture := a.waitForForegroundPackage(ctx, map[string]bool{step.PackageName: true},
		a.cfg.Flow.ForegroundWait(), a.cfg.Flow.PollInterval())
	if capture == nil {
		return fmt.Errorf("%s did not reach the foreground in time", step.PackageName)
	}
	return nil
}

func (a *App) stepTap(ctx context.Context, step types.WorkflowStep) error {
	if step.Text != "" {
		return a.TapElement(ctx, step.Text, false, step.Occurrence)
	}
	return a.TapCoordinates(ctx, step.X, step.Y, step.DurationMs)
}

// stepWait supports a fixed sleep or polling until a text becomes visible.
func (a *App) stepWait(ctx context.Context, step types.WorkflowStep) error {
	if step.WaitForText == "" {
		d := time.Duration(step.DurationMs) * time.Millisecond
		if d <= 0 {
			d = time.Second
		}
		sleepFor(ctx, d)
		return ctx.Err()
	}

	timeout := time.Duration(step.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	poll := a.cfg.Flow.PollInterval()
	deadline := time.Now().Add(timeout)
	for {
		capture := a.bridge.CaptureScreen(ctx, a.cfg.Flow.SnapshotMaxNodes)
		if capture != nil && snapshotContainsText(capture.Snapshot, step.WaitForText) {
			return nil
		}
		if time.Now().Add(poll).After(deadline) {
			return fmt.Errorf("text %q did not appear within %v", step.WaitForText, timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(poll):
		}
	}
}

func (a *App) stepType(ctx context.Context, step types.WorkflowStep) error {
	if step.Value == "" {
		return fmt.Errorf("type step requires a value")
	}
	return a.TypeText(ctx, step.Value)
}
