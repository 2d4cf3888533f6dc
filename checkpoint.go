package main

import (
	"context"
	"time"

	"Tether/pkg/types"
)

// checkpointHighlightCap bounds the highlight list carried on a checkpoint.
const checkpointHighlightCap = 10

// waitForForegroundPackage polls the snapshot provider until the foreground
// package is in the expected set, or the timeout elapses. Returns nil on
// timeout. This is the automation core's only blocking primitive; every
// other wait is built on it or on the same sleep-then-recheck shape.
func (a *App) waitForForegroundPackage(ctx context.Context, expected map[string]bool, timeout, poll time.Duration) *ScreenCapture {
	if poll <= 0 {
		poll = a.cfg.Flow.PollInterval()
	}
	deadline := time.Now().Add(timeout)
	for {
		capture := a.bridge.CaptureScreen(ctx, a.cfg.Flow.SnapshotMaxNodes)
		if capture != nil && expected[capture.Snapshot.ForegroundPackage] {
			return capture
		}
		if time.Now().Add(poll).After(deadline) {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(poll):
		}
	}
}

// captureCheckpoint takes a one-shot snapshot and records expected vs
// actual package plus visible highlights. A nil snapshot produces a
// checkpoint with an empty actual package and matched=false rather than an
// error, so the audit trail never has holes.
func (a *App) captureCheckpoint(ctx context.Context, step, expectedPackage string) types.Checkpoint {
	capture := a.bridge.CaptureScreen(ctx, a.cfg.Flow.SnapshotMaxNodes)
	return checkpointFromCapture(capture, step, expectedPackage)
}

func checkpointFromCapture(capture *ScreenCapture, step, expectedPackage string) types.Checkpoint {
	cp := types.Checkpoint{
		Step:            step,
		ExpectedPackage: expectedPackage,
	}
	if capture != nil && capture.Snapshot != nil {
		cp.ActualPackage = capture.Snapshot.ForegroundPackage
		cp.Highlights = snapshotHighlights(capture.Snapshot, checkpointHighlightCap)
	}
	cp.Matched = cp.ActualPackage == expectedPackage && expectedPackage != ""
	return cp
}
