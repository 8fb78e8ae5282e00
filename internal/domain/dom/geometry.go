package dom

import (
	"strconv"
	"strings"
)

// Rect is a bounding box in viewport coordinates (like getBoundingClientRect).
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Right() float64 { return r.X + r.Width }
func (r Rect) Bottom() float64 { return r.Y + r.Height }
func (r Rect) Area() float64 { return r.Width * r.Height }

func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.Right() && y >= r.Y && y <= r.Bottom()
}

// Center returns the midpoint of the box.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

type Viewport struct {
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	ScrollX float64 `json:"scrollX"`
	ScrollY float64 `json:"scrollY"`
	DPR     float64 `json:"dpr"`
}

func DefaultViewport() Viewport {
	return Viewport{Width: 1280, Height: 800, DPR: 1}
}

func (v Viewport) normalized() Viewport {
	def := DefaultViewport()
	if v.Width <= 0 {
		v.Width = def.Width
	}
	if v.Height <= 0 {
		v.Height = def.Height
	}
	if v.DPR <= 0 {
		v.DPR = def.DPR
	}
	return v
}

// Style holds computed (or inline-estimated) CSS properties keyed by lower-case name.
type Style map[string]string

func (s Style) Get(prop string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(s[strings.ToLower(prop)])
}

// Opacity returns the numeric opacity, 1 when unset or unparsable.
func (s Style) Opacity() float64 {
	v := s.Get("opacity")
	if v == "" {
		return 1
	}
	if strings.HasSuffix(v, "%") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(v, "%"), 64)
		if err != nil {
			return 1
		}
		return f / 100
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 1
	}
	return f
}

// ZIndex returns the integer z-index, 0 for auto or unparsable values.
func (s Style) ZIndex() int {
	n, err := strconv.Atoi(s.Get("z-index"))
	if err != nil {
		return 0
	}
	return n
}

// ParseInlineStyle splits a style attribute into declarations. Semicolons
// inside parentheses or quotes (data: URLs) do not end a declaration.
func ParseInlineStyle(text string) Style {
	st := Style{}
	for _, decl := range splitTopLevel(text, ';') {
		idx := strings.IndexByte(decl, ':')
		if idx <= 0 {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(decl[:idx]))
		value := strings.TrimSpace(decl[idx+1:])
		value = strings.TrimSpace(strings.TrimSuffix(value, "!important"))
		if name == "" {
			continue
		}
		st[name] = value
	}
	return st
}

func splitTopLevel(s string, sep byte) []string {
	var (
		parts []string
		depth int
		quote byte
		start int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case c == sep && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	if start <= len(s) {
		parts = append(parts, s[start:])
	}
	return parts
}

// parseLength reads a CSS pixel length ("12px", "12", "-9999px"). Other units are rejected.
func parseLength(v string) (float64, bool) {
	v = strings.TrimSpace(strings.ToLower(v))
	if v == "" || v == "auto" {
		return 0, false
	}
	v = strings.TrimSuffix(v, "px")
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
