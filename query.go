package main

import (
	"context"
	"strings"
)

// Node Query Engine: pure traversals over a parsed UI tree. All queries
// return nil on no-match; "not found" is never an error.

// collectNodes walks the tree depth-first and returns nodes matching the
// predicate, in traversal order.
func collectNodes(root *UINode, predicate func(*UINode) bool) []*UINode {
	if root == nil {
		return nil
	}
	var results []*UINode
	if predicate(root) {
		results = append(results, root)
	}
	for i := range root.Nodes {
		results = append(results, collectNodes(&root.Nodes[i], predicate)...)
	}
	return results
}

// findByPredicate returns the first node matching the predicate.
func findByPredicate(root *UINode, predicate func(*UINode) bool) *UINode {
	nodes := collectNodes(root, predicate)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// findByText finds a node whose text or content description matches query.
// exact requires case-insensitive full-string equality, otherwise a
// case-insensitive substring suffices. occurrence selects the Nth match
// (1-based) to disambiguate repeated labels.
func findByText(root *UINode, query string, exact bool, occurrence int) *UINode {
	lowerQuery := strings.ToLower(query)
	match := func(value string) bool {
		if value == "" {
			return false
		}
		lower := strings.ToLower(value)
		if exact {
			return lower == lowerQuery
		}
		return strings.Contains(lower, lowerQuery)
	}

	nodes := collectNodes(root, func(n *UINode) bool {
		return match(n.Text) || match(n.ContentDesc)
	})
	if occurrence < 1 {
		occurrence = 1
	}
	if len(nodes) < occurrence {
		return nil
	}
	return nodes[occurrence-1]
}

// findByIDHints finds a node whose resource id contains any hint,
// case-insensitive.
func findByIDHints(root *UINode, hints []string) *UINode {
	return findByPredicate(root, func(n *UINode) bool {
		return matchesIDHints(n, hints)
	})
}

func matchesIDHints(node *UINode, hints []string) bool {
	if node.ResourceID == "" {
		return false
	}
	lowerID := strings.ToLower(node.ResourceID)
	for _, hint := range hints {
		if hint != "" && strings.Contains(lowerID, strings.ToLower(hint)) {
			return true
		}
	}
	return false
}

// findByClassName finds a node whose class contains the given name,
// case-insensitive, so both "EditText" and the full widget path work.
func findByClassName(root *UINode, className string) *UINode {
	lower := strings.ToLower(className)
	return findByPredicate(root, func(n *UINode) bool {
		return strings.Contains(strings.ToLower(n.Class), lower)
	})
}

// findParent returns the parent of target within root's tree, or nil.
func findParent(root, target *UINode) *UINode {
	if root == nil || target == nil {
		return nil
	}
	for i := range root.Nodes {
		if &root.Nodes[i] == target {
			return root
		}
		if p := findParent(&root.Nodes[i], target); p != nil {
			return p
		}
	}
	return nil
}

// clickNodeOrAncestor clicks the node, or when it is not clickable walks up
// the parent chain and clicks the first clickable ancestor. Returns false
// when no clickable node exists in the chain.
func clickNodeOrAncestor(ctx context.Context, actions ActionDispatcher, root, node *UINode) bool {
	for current := node; current != nil; current = findParent(root, current) {
		if current.Clickable {
			return actions.ClickNode(ctx, current)
		}
	}
	return false
}

// isEditable reports whether the node accepts text input.
func isEditable(node *UINode) bool {
	return strings.Contains(strings.ToLower(node.Class), "edittext")
}

// matchesAnyHint checks a node's text, description, and resource id against
// a hint list, case-insensitive substring.
func matchesAnyHint(node *UINode, hints []string) bool {
	fields := []string{node.Text, node.ContentDesc, node.ResourceID}
	for _, hint := range hints {
		if hint == "" {
			continue
		}
		lowerHint := strings.ToLower(hint)
		for _, field := range fields {
			if field != "" && strings.Contains(strings.ToLower(field), lowerHint) {
				return true
			}
		}
	}
	return false
}
