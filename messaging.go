package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"Tether/pkg/types"
)

const (
	whatsAppPackage         = "com.whatsapp"
	whatsAppBusinessPackage = "com.whatsapp.w4b"

	// messageVerifyPrefixLen is how much of a long message must be visible
	// to count as typed; chat UIs ellipsize long drafts.
	messageVerifyPrefixLen = 18

	// phoneSuffixLen is the digit suffix used for phone matching; leading
	// digits vary with country-code formatting.
	phoneSuffixLen = 7
)

var (
	composeIDHints = []string{"entry", "compose", "input"}
	sendIDHints    = []string{"send"}
)

// SendMessage runs the contact-safe messaging state machine: open the app,
// resolve the contact, verify the contact is on screen, type the message,
// re-verify, then send. Every phase records a checkpoint, and under strict
// matching the flow aborts rather than sends whenever the contact cannot be
// positively confirmed.
func (a *App) SendMessage(ctx context.Context, req types.SendMessageRequest) types.SendMessageResult {
	result := types.SendMessageResult{}
	strict := req.StrictContactMatch == nil || *req.StrictContactMatch

	if strings.TrimSpace(req.Contact) == "" && strings.TrimSpace(req.Phone) == "" {
		result.Error = "a contact name or phone number is required"
		return result
	}
	if strings.TrimSpace(req.Message) == "" {
		result.Error = "message must not be empty"
		return result
	}

	pkg, err := a.resolveMessagingPackage(ctx, req.AppType)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Package = pkg

	record := func(step string) types.Checkpoint {
		cp := a.captureCheckpoint(ctx, step, pkg)
		result.Checkpoints = append(result.Checkpoints, cp)
		return cp
	}

	// Open.
	before := record("before_open")
	if !before.Matched {
		if !a.bridge.Launch(ctx, pkg) {
			result.Error = fmt.Sprintf("failed to launch %s", pkg)
			return result
		}
	}
	capture := a.waitForForegroundPackage(ctx, map[string]bool{pkg: true},
		a.cfg.Flow.ForegroundWait(), a.cfg.Flow.PollInterval())
	record("after_open")
	if capture == nil {
		result.Error = fmt.Sprintf("%s did not reach the foreground in time", pkg)
		return result
	}

	// Contact selection.
	chatOpened := a.selectContact(ctx, pkg, req)
	record("contact_selection")

	// Contact verification: the primary wrong-recipient guard.
	verifyCapture := a.bridge.CaptureScreen(ctx, a.cfg.Flow.SnapshotMaxNodes)
	if verifyCapture != nil {
		result.ContactVisible = contactLikelyVisible(verifyCapture.Snapshot, req.Contact, req.Phone)
	}
	result.Checkpoints = append(result.Checkpoints,
		checkpointFromCapture(verifyCapture, "contact_verified", pkg))
	if strict && !result.ContactVisible {
		result.Error = fmt.Sprintf("contact %q could not be confidently verified on screen; aborting before typing",
			contactLabel(req))
		return result
	}
	if !chatOpened && verifyCapture != nil && findComposeField(verifyCapture.Root) == nil {
		result.Error = fmt.Sprintf("no chat with %q could be opened", contactLabel(req))
		return result
	}

	// Message typing.
	compose := a.typeMessage(ctx, pkg, req.Message, &result)
	record("message_typed")
	if compose == nil {
		if result.Error == "" {
			result.Error = "message could not be verified as typed"
		}
		return result
	}
	result.MessageTyped = true

	// Pre-send re-verification catches the chat changing between the
	// contact check and the end of typing.
	preSend := a.bridge.CaptureScreen(ctx, a.cfg.Flow.SnapshotMaxNodes)
	result.Checkpoints = append(result.Checkpoints,
		checkpointFromCapture(preSend, "pre_send", pkg))
	if strict {
		if preSend == nil || !contactLikelyVisible(preSend.Snapshot, req.Contact, req.Phone) {
			result.Error = fmt.Sprintf("contact %q was no longer verifiable just before sending; aborting",
				contactLabel(req))
			return result
		}
	}

	// Send.
	root := compose
	if preSend != nil {
		root = preSend.Root
	} else if c := a.bridge.CaptureScreen(ctx, a.cfg.Flow.SnapshotMaxNodes); c != nil {
		root = c.Root
	}
	if !a.tapSend(ctx, root) {
		record("after_send")
		result.Error = "send control could not be found"
		return result
	}
	result.SendTapped = true
	record("after_send")
	result.Success = true
	return result
}

// resolveMessagingPackage picks the WhatsApp variant: explicit type first,
// then whichever variant is already foregrounded, then installed-app
// priority (personal before business).
func (a *App) resolveMessagingPackage(ctx context.Context, appType string) (string, error) {
	switch strings.ToLower(appType) {
	case "business":
		if !a.bridge.IsInstalled(ctx, whatsAppBusinessPackage) {
			return "", fmt.Errorf("%s is not installed", whatsAppBusinessPackage)
		}
		return whatsAppBusinessPackage, nil
	case "personal":
		if !a.bridge.IsInstalled(ctx, whatsAppPackage) {
			return "", fmt.Errorf("%s is not installed", whatsAppPackage)
		}
		return whatsAppPackage, nil
	}

	if capture := a.bridge.CaptureScreen(ctx, a.cfg.Flow.SnapshotMaxNodes); capture != nil {
		fg := capture.Snapshot.ForegroundPackage
		if fg == whatsAppPackage || fg == whatsAppBusinessPackage {
			return fg, nil
		}
	}
	if a.bridge.IsInstalled(ctx, whatsAppPackage) {
		return whatsAppPackage, nil
	}
	if a.bridge.IsInstalled(ctx, whatsAppBusinessPackage) {
		return whatsAppBusinessPackage, nil
	}
	return "", fmt.Errorf("neither %s nor %s is installed", whatsAppPackage, whatsAppBusinessPackage)
}

// selectContact gets the target chat open: either the right chat is already
// on screen, or the in-app search finds the contact and opens it. Returns
// whether a chat with a compose field was confirmed.
func (a *App) selectContact(ctx context.Context, pkg string, req types.SendMessageRequest) bool {
	poll := a.cfg.Flow.PollInterval()
	for attempt := 1; attempt <= a.cfg.Flow.MaxContactAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return false
		default:
		}

		capture := a.bridge.CaptureScreen(ctx, a.cfg.Flow.SnapshotMaxNodes)
		if capture == nil || capture.Snapshot.ForegroundPackage != pkg {
			sleepFor(ctx, poll)
			continue
		}

		// Already inside the right chat?
		if findComposeField(capture.Root) != nil &&
			contactLikelyVisible(capture.Snapshot, req.Contact, req.Phone) {
			return true
		}

		// Surface and use the in-app search.
		input := findSearchInput(capture.Root, a.cfg.Flow.InputHints)
		if input == nil {
			if trigger := findSearchTrigger(capture.Root, a.cfg.Flow.TriggerHints); trigger != nil {
				clickNodeOrAncestor(ctx, a.bridge, capture.Root, trigger)
				sleepFor(ctx, poll)
			}
			capture = a.bridge.CaptureScreen(ctx, a.cfg.Flow.SnapshotMaxNodes)
			if capture == nil || capture.Snapshot.ForegroundPackage != pkg {
				continue
			}
			input = findSearchInput(capture.Root, a.cfg.Flow.InputHints)
		}
		if input != nil && req.Contact != "" {
			a.bridge.SetText(ctx, input, req.Contact)
			sleepFor(ctx, poll)
			capture = a.bridge.CaptureScreen(ctx, a.cfg.Flow.SnapshotMaxNodes)
			if capture == nil || capture.Snapshot.ForegroundPackage != pkg {
				continue
			}
		}

		resultNode := findContactResult(capture.Root, req.Contact, req.Phone)
		if resultNode == nil {
			sleepFor(ctx, poll)
			continue
		}
		if !clickNodeOrAncestor(ctx, a.bridge, capture.Root, resultNode) {
			sleepFor(ctx, poll)
			continue
		}

		// A compose field appearing is the confirmation that a chat opened.
		if a.waitForComposeField(ctx, pkg) {
			return true
		}
	}
	return false
}

// findContactResult picks a search result node for the contact: exact text
// match, then substring, then phone digit suffix, in that priority.
// Editable nodes are excluded so the search input holding the typed query
// never counts as a result.
func findContactResult(root *UINode, contact, phone string) *UINode {
	candidate := func(n *UINode) bool { return !isEditable(n) }

	if contact != "" {
		lower := strings.ToLower(contact)
		if node := findByPredicate(root, func(n *UINode) bool {
			return candidate(n) && (strings.EqualFold(n.Text, contact) || strings.EqualFold(n.ContentDesc, contact))
		}); node != nil {
			return node
		}
		if node := findByPredicate(root, func(n *UINode) bool {
			return candidate(n) && (strings.Contains(strings.ToLower(n.Text), lower) ||
				strings.Contains(strings.ToLower(n.ContentDesc), lower))
		}); node != nil {
			return node
		}
	}

	if suffix := phoneSuffix(phone); suffix != "" {
		return findByPredicate(root, func(n *UINode) bool {
			return candidate(n) && (strings.Contains(digitsOnly(n.Text), suffix) ||
				strings.Contains(digitsOnly(n.ContentDesc), suffix))
		})
	}
	return nil
}

// waitForComposeField polls until a message-compose input appears, bounded
// by the compose wait budget.
func (a *App) waitForComposeField(ctx context.Context, pkg string) bool {
	deadline := time.Now().Add(a.cfg.Flow.ComposeWait())
	poll := a.cfg.Flow.PollInterval()
	for {
		capture := a.bridge.CaptureScreen(ctx, a.cfg.Flow.SnapshotMaxNodes)
		if capture != nil && capture.Snapshot.ForegroundPackage == pkg &&
			findComposeField(capture.Root) != nil {
			return true
		}
		if time.Now().Add(poll).After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(poll):
		}
	}
}

// typeMessage locates the compose field and types the message, verifying
// by re-reading the screen that the message (or its leading characters for
// long texts) is visible. Returns the tree the verified state was read
// from, or nil when typing could not be verified.
func (a *App) typeMessage(ctx context.Context, pkg, message string, result *types.SendMessageResult) *UINode {
	poll := a.cfg.Flow.PollInterval()
	for attempt := 1; attempt <= a.cfg.Flow.MaxTypeAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		capture := a.bridge.CaptureScreen(ctx, a.cfg.Flow.SnapshotMaxNodes)
		if capture == nil || capture.Snapshot.ForegroundPackage != pkg {
			sleepFor(ctx, poll)
			continue
		}

		compose := findComposeField(capture.Root)
		if compose == nil {
			sleepFor(ctx, poll)
			continue
		}

		if !a.bridge.SetText(ctx, compose, message) {
			sleepFor(ctx, poll)
			continue
		}

		sleepFor(ctx, poll)
		verify := a.bridge.CaptureScreen(ctx, a.cfg.Flow.SnapshotMaxNodes)
		if verify == nil || verify.Snapshot.ForegroundPackage != pkg {
			continue
		}
		if messageLikelyVisible(verify.Snapshot, message) {
			return verify.Root
		}
	}
	return nil
}

// tapSend locates and taps the send control: send id hints first, then a
// "Send"-labeled node, then a coordinate tap just right of the compose
// field, since many chat UIs give the send affordance no accessible label.
func (a *App) tapSend(ctx context.Context, root *UINode) bool {
	if node := findByPredicate(root, func(n *UINode) bool {
		return matchesIDHints(n, sendIDHints) && !isEditable(n)
	}); node != nil {
		if clickNodeOrAncestor(ctx, a.bridge, root, node) {
			return true
		}
	}

	if node := findByText(root, "send", false, 1); node != nil && !isEditable(node) {
		if clickNodeOrAncestor(ctx, a.bridge, root, node) {
			return true
		}
	}

	compose := findComposeField(root)
	if compose == nil {
		return false
	}
	bounds, err := ParseBounds(compose.Bounds)
	if err != nil {
		return false
	}
	_, cy := bounds.Center()
	x := bounds.X2 + (bounds.Y2-bounds.Y1)/2

	// The guessed point must still be on screen; a compose field flush
	// against the right edge leaves no room for an unlabeled send control.
	// Synthetic multi-window roots carry zero-area bounds and are skipped.
	if screenBounds, err := ParseBounds(root.Bounds); err == nil &&
		screenBounds.X2 > screenBounds.X1 && screenBounds.Y2 > screenBounds.Y1 &&
		!screenBounds.Contains(x, cy) {
		return false
	}
	return a.bridge.Tap(ctx, x, cy, 0)
}

// findComposeField locates the message input, by id hints first and by
// EditText class as fallback.
func findComposeField(root *UINode) *UINode {
	if node := findByPredicate(root, func(n *UINode) bool {
		return isEditable(n) && matchesIDHints(n, composeIDHints)
	}); node != nil {
		return node
	}
	return findByPredicate(root, isEditable)
}

// contactLikelyVisible derives the wrong-recipient guard: any visible
// highlight contains a token (>= 3 chars) of the contact name, or contains
// the phone number's digit suffix. This is a heuristic, not a guarantee; a
// name token can coincidentally appear in unrelated UI text.
func contactLikelyVisible(snap *types.ScreenSnapshot, contact, phone string) bool {
	if snap == nil {
		return false
	}
	for _, token := range significantTokens(contact) {
		if snapshotContainsText(snap, token) {
			return true
		}
	}
	if suffix := phoneSuffix(phone); suffix != "" {
		for _, h := range snapshotHighlights(snap, 0) {
			if strings.Contains(digitsOnly(h), suffix) {
				return true
			}
		}
	}
	return false
}

// messageLikelyVisible checks that the typed message (or its leading
// characters for long messages) appears on screen.
func messageLikelyVisible(snap *types.ScreenSnapshot, message string) bool {
	if snapshotContainsText(snap, message) {
		return true
	}
	runes := []rune(message)
	if len(runes) > messageVerifyPrefixLen {
		return snapshotContainsText(snap, string(runes[:messageVerifyPrefixLen]))
	}
	return false
}

func phoneSuffix(phone string) string {
	digits := digitsOnly(phone)
	if len(digits) == 0 {
		return ""
	}
	if len(digits) > phoneSuffixLen {
		return digits[len(digits)-phoneSuffixLen:]
	}
	return digits
}

func contactLabel(req types.SendMessageRequest) string {
	if strings.TrimSpace(req.Contact) != "" {
		return req.Contact
	}
	return req.Phone
}
