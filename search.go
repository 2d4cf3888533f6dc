package main

import (
	"context"
	"time"

	"Tether/pkg/types"
)

// RunUISearch drives an in-app search: find (or surface) a search input,
// type the query, optionally submit, and verify the query text actually
// appears on screen in the expected app. Verification always re-reads the
// screen after acting; action return values alone are never trusted.
func (a *App) RunUISearch(ctx context.Context, req types.UISearchRequest) types.UISearchExecution {
	maxAttempts := req.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = a.cfg.Flow.MaxSearchAttempts
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if maxAttempts > 20 {
		maxAttempts = 20
	}

	inputHints := req.InputHints
	if len(inputHints) == 0 {
		inputHints = a.cfg.Flow.InputHints
	}
	triggerHints := req.TriggerHints
	if len(triggerHints) == 0 {
		triggerHints = a.cfg.Flow.TriggerHints
	}
	dismissHints := req.DismissHints
	if len(dismissHints) == 0 {
		dismissHints = a.cfg.Flow.DismissHints
	}
	submitHints := req.SubmitHints
	if len(submitHints) == 0 {
		submitHints = a.cfg.Flow.SubmitHints
	}

	exec := types.UISearchExecution{ExpectedPackage: req.ExpectedPackage}
	poll := a.cfg.Flow.PollInterval()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			exec.Error = "search cancelled"
			return exec
		default:
		}

		// Verification is per attempt; a stale positive from an earlier
		// snapshot must never survive into this attempt's verdict.
		exec.QueryVisible = false

		capture := a.bridge.CaptureScreen(ctx, a.cfg.Flow.SnapshotMaxNodes)
		if capture == nil {
			exec.ActualPackage = ""
			sleepFor(ctx, poll)
			continue
		}
		exec.ActualPackage = capture.Snapshot.ForegroundPackage

		// Never act on the wrong app.
		if exec.ActualPackage != req.ExpectedPackage {
			LogDebug("search").Str("expected", req.ExpectedPackage).Str("actual", exec.ActualPackage).
				Int("attempt", attempt).Msg("Foreground mismatch, waiting")
			sleepFor(ctx, poll)
			continue
		}

		if req.ClosePopups {
			if dismiss := findDismissTarget(capture.Root, dismissHints); dismiss != nil {
				if clickNodeOrAncestor(ctx, a.bridge, capture.Root, dismiss) {
					exec.PopupDismissed = true
					LogDebug("search").Str("text", dismiss.Text).Msg("Dismissed popup")
					sleepFor(ctx, poll)
					if fresh := a.bridge.CaptureScreen(ctx, a.cfg.Flow.SnapshotMaxNodes); fresh != nil {
						capture = fresh
					}
				}
			}
		}

		input := findSearchInput(capture.Root, inputHints)
		if input == nil {
			if trigger := findSearchTrigger(capture.Root, triggerHints); trigger != nil {
				if clickNodeOrAncestor(ctx, a.bridge, capture.Root, trigger) {
					exec.TriggerTapped = true
					sleepFor(ctx, poll)
					if fresh := a.bridge.CaptureScreen(ctx, a.cfg.Flow.SnapshotMaxNodes); fresh != nil {
						capture = fresh
						input = findSearchInput(capture.Root, inputHints)
					}
				}
			}
		}
		if input == nil {
			sleepFor(ctx, poll)
			continue
		}
		exec.InputFound = true

		if a.bridge.SetText(ctx, input, req.Query) {
			exec.Typed = true
		}

		if req.SubmitSearch {
			exec.Submitted = a.submitSearch(ctx, capture.Root, submitHints)
		}

		sleepFor(ctx, poll)
		verify := a.bridge.CaptureScreen(ctx, a.cfg.Flow.SnapshotMaxNodes)
		cp := checkpointFromCapture(verify, "query_verification", req.ExpectedPackage)
		exec.Checkpoints = append(exec.Checkpoints, cp)
		if verify != nil {
			exec.ActualPackage = verify.Snapshot.ForegroundPackage
			exec.QueryVisible = queryVisibleInSnapshot(verify.Snapshot, req.Query)
		}

		if cp.Matched && exec.QueryVisible && (!req.SubmitSearch || exec.Submitted) {
			exec.Success = true
			return exec
		}
	}

	exec.Error = searchFailureDiagnostic(&exec, req)
	return exec
}

// searchFailureDiagnostic picks the most specific failure reason, in fixed
// priority order: package drift, input never found, typed but unverified,
// submit failed.
func searchFailureDiagnostic(exec *types.UISearchExecution, req types.UISearchRequest) string {
	switch {
	case exec.ActualPackage != req.ExpectedPackage:
		return "expected app " + req.ExpectedPackage + " never stayed in the foreground (saw " + orNone(exec.ActualPackage) + ")"
	case !exec.InputFound:
		return "no search input could be found in " + req.ExpectedPackage
	case exec.Typed && !exec.QueryVisible:
		return "query was typed but could not be verified on screen"
	case req.SubmitSearch && !exec.Submitted:
		return "search input found but submission failed"
	default:
		return "search did not complete within the attempt budget"
	}
}

func orNone(s string) string {
	if s == "" {
		return "no foreground window"
	}
	return s
}

// findSearchInput locates an editable node matching the input hints by
// resource id, hint text, or content description, or any currently focused
// editable field.
func findSearchInput(root *UINode, hints []string) *UINode {
	if node := findByPredicate(root, func(n *UINode) bool {
		return isEditable(n) && matchesAnyHint(n, hints)
	}); node != nil {
		return node
	}
	return findByPredicate(root, func(n *UINode) bool {
		return isEditable(n) && n.Focused
	})
}

// findSearchTrigger locates a non-editable clickable or focusable node
// matching the trigger hints, i.e. the affordance that reveals the search
// input.
func findSearchTrigger(root *UINode, hints []string) *UINode {
	return findByPredicate(root, func(n *UINode) bool {
		return !isEditable(n) && (n.Clickable || n.Focusable) && matchesAnyHint(n, hints)
	})
}

// findDismissTarget locates a clickable or focusable node matching the
// configured dismiss hints (e.g. "Close", "Not now", "Skip").
func findDismissTarget(root *UINode, hints []string) *UINode {
	return findByPredicate(root, func(n *UINode) bool {
		return (n.Clickable || n.Focusable) && matchesAnyHint(n, hints)
	})
}

// submitSearch tries a submit-labeled clickable first, then falls back to
// the IME action key.
func (a *App) submitSearch(ctx context.Context, root *UINode, submitHints []string) bool {
	if submit := findByPredicate(root, func(n *UINode) bool {
		return n.Clickable && !isEditable(n) && matchesAnyHint(n, submitHints)
	}); submit != nil {
		if a.bridge.ClickNode(ctx, submit) {
			return true
		}
	}
	return a.bridge.RunGlobalAction(ctx, "enter")
}

func sleepFor(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
