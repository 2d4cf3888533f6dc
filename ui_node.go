package main

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"Tether/pkg/types"
)

// UI hierarchy structures for parsing uiautomator dump output.
type UINode struct {
	XMLName       xml.Name `xml:"node" json:"-"`
	Text          string   `xml:"text,attr" json:"text"`
	ResourceID    string   `xml:"resource-id,attr" json:"resourceId"`
	Class         string   `xml:"class,attr" json:"class"`
	Package       string   `xml:"package,attr" json:"package"`
	ContentDesc   string   `xml:"content-desc,attr" json:"contentDesc"`
	Checkable     bool     `xml:"checkable,attr" json:"checkable"`
	Checked       bool     `xml:"checked,attr" json:"checked"`
	Clickable     bool     `xml:"clickable,attr" json:"clickable"`
	Enabled       bool     `xml:"enabled,attr" json:"enabled"`
	Focusable     bool     `xml:"focusable,attr" json:"focusable"`
	Focused       bool     `xml:"focused,attr" json:"focused"`
	Scrollable    bool     `xml:"scrollable,attr" json:"scrollable"`
	LongClickable bool     `xml:"long-clickable,attr" json:"longClickable"`
	Password      bool     `xml:"password,attr" json:"password"`
	Selected      bool     `xml:"selected,attr" json:"selected"`
	Bounds        string   `xml:"bounds,attr" json:"bounds"`
	Nodes         []UINode `xml:"node" json:"nodes,omitempty"`
}

type UIHierarchy struct {
	XMLName xml.Name `xml:"hierarchy"`
	Nodes   []UINode `xml:"node"`
}

// BoundsRect represents parsed bounds coordinates.
type BoundsRect struct {
	X1, Y1, X2, Y2 int
}

var boundsPattern = regexp.MustCompile(`\[(-?\d+),(-?\d+)\]\[(-?\d+),(-?\d+)\]`)

// ParseBounds parses an Android bounds string "[x1,y1][x2,y2]".
func ParseBounds(bounds string) (*BoundsRect, error) {
	matches := boundsPattern.FindStringSubmatch(bounds)
	if len(matches) != 5 {
		return nil, fmt.Errorf("invalid bounds format: %s", bounds)
	}

	x1, _ := strconv.Atoi(matches[1])
	y1, _ := strconv.Atoi(matches[2])
	x2, _ := strconv.Atoi(matches[3])
	y2, _ := strconv.Atoi(matches[4])

	return &BoundsRect{X1: x1, Y1: y1, X2: x2, Y2: y2}, nil
}

// Center returns the center point of the bounds.
func (b *BoundsRect) Center() (int, int) {
	return b.X1 + (b.X2-b.X1)/2, b.Y1 + (b.Y2-b.Y1)/2
}

// Contains checks if point (x, y) is inside the bounds.
func (b *BoundsRect) Contains(x, y int) bool {
	return x >= b.X1 && x <= b.X2 && y >= b.Y1 && y <= b.Y2
}

// Rect converts the bounds to the wire rectangle type.
func (b *BoundsRect) Rect() types.Rect {
	return types.Rect{Left: b.X1, Top: b.Y1, Right: b.X2, Bottom: b.Y2}
}

// nodeRect parses a node's bounds, returning a zero rect on malformed input.
func nodeRect(node *UINode) types.Rect {
	b, err := ParseBounds(node.Bounds)
	if err != nil {
		return types.Rect{}
	}
	return b.Rect()
}

// parseHierarchyXML cleans and parses raw uiautomator dump output. The dump
// sometimes carries adb banners around the document and unescaped
// ampersands inside attribute values.
func parseHierarchyXML(raw string) (*UINode, error) {
	startIdx := strings.Index(raw, "<?xml")
	if startIdx != -1 {
		raw = raw[startIdx:]
	}
	endIdx := strings.LastIndex(raw, ">")
	if endIdx != -1 && endIdx < len(raw)-1 {
		raw = raw[:endIdx+1]
	}

	// Escape bare ampersands, then undo the damage to entities that were
	// already escaped.
	raw = strings.ReplaceAll(raw, "&", "&amp;")
	raw = strings.ReplaceAll(raw, "&amp;amp;", "&amp;")
	raw = strings.ReplaceAll(raw, "&amp;lt;", "&lt;")
	raw = strings.ReplaceAll(raw, "&amp;gt;", "&gt;")
	raw = strings.ReplaceAll(raw, "&amp;quot;", "&quot;")
	raw = strings.ReplaceAll(raw, "&amp;apos;", "&apos;")
	raw = strings.ReplaceAll(raw, "&amp;#", "&#")

	var hierarchy UIHierarchy
	if err := xml.Unmarshal([]byte(raw), &hierarchy); err != nil {
		return nil, fmt.Errorf("failed to parse UI XML (length %d): %w", len(raw), err)
	}
	if len(hierarchy.Nodes) == 0 {
		return nil, fmt.Errorf("UI hierarchy has no nodes")
	}

	if len(hierarchy.Nodes) == 1 {
		return &hierarchy.Nodes[0], nil
	}
	// Multiple top-level windows: wrap them under a synthetic container so
	// traversals always start from a single root.
	return &UINode{
		Class:   "android.view.View",
		Package: hierarchy.Nodes[0].Package,
		Bounds:  "[0,0][0,0]",
		Nodes:   hierarchy.Nodes,
	}, nil
}
