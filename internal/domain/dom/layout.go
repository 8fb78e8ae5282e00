package dom

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// estimateLayout derives a layout from markup alone. Only pixel lengths from the
// inline style (top, left, width, height) and width/height attributes are used;
// an element without any of them has no rect.
func estimateLayout(n *html.Node, vp Viewport) *Layout {
	inline := ParseInlineStyle(getAttr(n, "style"))
	if _, hidden := lookupAttr(n, "hidden"); hidden && inline.Get("display") == "" {
		inline["display"] = "none"
	}

	l := &Layout{Styles: map[string]Style{"": inline}}

	left, hasLeft := parseLength(inline.Get("left"))
	top, hasTop := parseLength(inline.Get("top"))
	width, hasWidth := parseLength(inline.Get("width"))
	if !hasWidth {
		width, hasWidth = parseLength(getAttr(n, "width"))
	}
	height, hasHeight := parseLength(inline.Get("height"))
	if !hasHeight {
		height, hasHeight = parseLength(getAttr(n, "height"))
	}

	if hasLeft || hasTop || hasWidth || hasHeight {
		if !hasWidth {
			width = 1
		}
		if !hasHeight {
			height = 1
		}
		l.Rect = &Rect{X: left - vp.ScrollX, Y: top - vp.ScrollY, Width: width, Height: height}
	}

	switch n.Data {
	case "img", "video", "canvas":
		l.NaturalWidth = atoi(getAttr(n, "width"))
		l.NaturalHeight = atoi(getAttr(n, "height"))
	}

	return l
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
