package main

import (
	"strings"

	"Tether/pkg/types"
)

// buildSnapshot projects a parsed UI tree into an immutable snapshot.
// Traversal is breadth-first so top-level, higher-salience nodes survive
// the maxNodes cap. Only nodes with non-blank text or description are
// collected.
func buildSnapshot(root *UINode, maxNodes int) *types.ScreenSnapshot {
	if root == nil {
		return nil
	}
	if maxNodes <= 0 {
		maxNodes = 120
	}

	snap := &types.ScreenSnapshot{
		ForegroundPackage: foregroundPackage(root),
		RootClassName:     root.Class,
	}

	queue := []*UINode{root}
	for len(queue) > 0 && len(snap.Nodes) < maxNodes {
		node := queue[0]
		queue = queue[1:]
		if node == nil {
			continue
		}

		if strings.TrimSpace(node.Text) != "" || strings.TrimSpace(node.ContentDesc) != "" {
			snap.Nodes = append(snap.Nodes, types.ScreenNode{
				Text:        node.Text,
				Description: node.ContentDesc,
				ClassName:   node.Class,
				Clickable:   node.Clickable,
				Bounds:      nodeRect(node),
			})
		}

		for i := range node.Nodes {
			queue = append(queue, &node.Nodes[i])
		}
	}

	return snap
}

// foregroundPackage picks the owning package of the window. The synthetic
// wrapper root can carry an empty package, so the first non-empty package
// in breadth-first order wins.
func foregroundPackage(root *UINode) string {
	queue := []*UINode{root}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		if node.Package != "" {
			return node.Package
		}
		for i := range node.Nodes {
			queue = append(queue, &node.Nodes[i])
		}
	}
	return ""
}

// snapshotHighlights extracts deduplicated short text/description values
// from a snapshot in node order. limit <= 0 means no cap.
func snapshotHighlights(snap *types.ScreenSnapshot, limit int) []string {
	if snap == nil {
		return nil
	}
	seen := make(map[string]bool)
	var highlights []string
	add := func(s string) bool {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			return false
		}
		seen[s] = true
		highlights = append(highlights, s)
		return limit > 0 && len(highlights) >= limit
	}
	for _, node := range snap.Nodes {
		if add(node.Text) {
			break
		}
		if add(node.Description) {
			break
		}
	}
	return highlights
}

// snapshotContainsText reports whether any highlight contains the given
// text, case-insensitive.
func snapshotContainsText(snap *types.ScreenSnapshot, text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" || snap == nil {
		return false
	}
	for _, h := range snapshotHighlights(snap, 0) {
		if strings.Contains(strings.ToLower(h), text) {
			return true
		}
	}
	return false
}

// queryVisibleInSnapshot implements the query re-verification rule: the
// literal query is visible, or at least two of its tokens of three or more
// characters are. Queries with a single usable token fall back to requiring
// that one token.
func queryVisibleInSnapshot(snap *types.ScreenSnapshot, query string) bool {
	if snapshotContainsText(snap, query) {
		return true
	}
	tokens := significantTokens(query)
	if len(tokens) == 0 {
		return false
	}
	matched := 0
	for _, token := range tokens {
		if snapshotContainsText(snap, token) {
			matched++
		}
	}
	if len(tokens) == 1 {
		return matched == 1
	}
	return matched >= 2
}

// significantTokens splits text into lowercase tokens of length >= 3.
func significantTokens(text string) []string {
	var tokens []string
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r >= 0x80)
	}) {
		if len([]rune(tok)) >= 3 {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// digitsOnly strips everything but digits, for phone suffix matching.
func digitsOnly(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
