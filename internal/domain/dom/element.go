package dom

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Element is a handle on one element node. Handles are cached per document,
// so two handles for the same node compare equal.
type Element struct {
	node *html.Node
	doc  *Document
}

type Attribute struct {
	Name  string
	Value string
}

var selectorCache sync.Map

func compileSelector(sel string) (cascadia.Selector, error) {
	if cached, ok := selectorCache.Load(sel); ok {
		return cached.(cascadia.Selector), nil
	}
	compiled, err := cascadia.Compile(sel)
	if err != nil {
		return nil, fmt.Errorf("compile selector %q: %w", sel, err)
	}
	selectorCache.Store(sel, compiled)
	return compiled, nil
}

func (e *Element) Node() *html.Node { return e.node }
func (e *Element) Document() *Document { return e.doc }

// Tag returns the lower-case local name.
func (e *Element) Tag() string {
	return strings.ToLower(e.node.Data)
}

func (e *Element) Attr(name string) (string, bool) {
	return lookupAttr(e.node, name)
}

func (e *Element) AttrOr(name, def string) string {
	if v, ok := lookupAttr(e.node, name); ok {
		return v
	}
	return def
}

// Attrs lists the page's own attributes in source order.
func (e *Element) Attrs() []Attribute {
	out := make([]Attribute, 0, len(e.node.Attr))
	for _, a := range e.node.Attr {
		key := strings.ToLower(a.Key)
		if strings.HasPrefix(key, bookkeepingPrefix) {
			continue
		}
		if a.Namespace != "" {
			key = a.Namespace + ":" + key
		}
		out = append(out, Attribute{Name: key, Value: a.Val})
	}
	return out
}

func (e *Element) ID() string { return getAttr(e.node, "id") }

// SnapshotID is the live collector's id, empty for static documents.
func (e *Element) SnapshotID() string { return getAttr(e.node, IDAttr) }

// Parent returns the parent element, or nil at the top of a tree.
func (e *Element) Parent() *Element {
	return e.doc.wrap(e.node.Parent)
}

// Children lists light-DOM child elements. Shadow root templates are excluded.
func (e *Element) Children() []*Element {
	var out []*Element
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || isShadowTemplate(c) {
			continue
		}
		out = append(out, e.doc.wrap(c))
	}
	return out
}

// ChildCount counts light-DOM child elements.
func (e *Element) ChildCount() int {
	return len(e.Children())
}

// ShadowRoot returns the open shadow root, or nil. Closed roots are not reachable.
func (e *Element) ShadowRoot() *Element {
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "template" {
			continue
		}
		mode, ok := shadowMode(c)
		if !ok {
			continue
		}
		if mode == "open" {
			return e.doc.wrap(c)
		}
		return nil
	}
	return nil
}

// IsShadowRoot reports whether e is a declarative shadow root container.
func (e *Element) IsShadowRoot() bool {
	return isShadowTemplate(e.node)
}

// FrameDocument returns the document of an iframe. Cross-origin frames return ErrCrossOrigin.
func (e *Element) FrameDocument() (*Document, error) {
	if tag := e.Tag(); tag != "iframe" && tag != "frame" {
		return nil, fmt.Errorf("<%s> has no frame document", tag)
	}
	if f, ok := e.doc.frames[e.node]; ok {
		return f.doc, f.err
	}
	f := e.doc.staticFrame(e)
	e.doc.frames[e.node] = f
	return f.doc, f.err
}

func (d *Document) staticFrame(e *Element) frame {
	if srcdoc, ok := e.Attr("srcdoc"); ok {
		child, err := Parse(strings.NewReader(srcdoc), d.URL(), d.viewport)
		return frame{doc: child, err: err}
	}
	src := strings.TrimSpace(e.AttrOr("src", ""))
	if src == "" || src == "about:blank" {
		return frame{err: ErrNotRendered}
	}
	u, err := url.Parse(d.Resolve(src))
	if err != nil {
		return frame{err: fmt.Errorf("frame src: %w", err)}
	}
	if !strings.EqualFold(u.Host, d.pageURL.Host) || u.Scheme != d.pageURL.Scheme {
		return frame{err: fmt.Errorf("%w: %s", ErrCrossOrigin, u.Host)}
	}
	return frame{err: ErrNotRendered}
}

// Rect returns the bounding box when the renderer reported one.
func (e *Element) Rect() (Rect, bool) {
	l := e.doc.layoutOf(e.node)
	if l == nil || l.Rect == nil {
		return Rect{}, false
	}
	return *l.Rect, true
}

// Style returns the computed style for the element ("") or a pseudo-element ("::before", "::after").
func (e *Element) Style(pseudo string) (Style, error) {
	l := e.doc.layoutOf(e.node)
	if l == nil {
		return Style{}, nil
	}
	if l.StyleError != "" {
		return nil, fmt.Errorf("%w: %s", ErrStyleAccess, l.StyleError)
	}
	if st, ok := l.Styles[pseudo]; ok && st != nil {
		return st, nil
	}
	return Style{}, nil
}

func (e *Element) NaturalSize() (int, int) {
	l := e.doc.layoutOf(e.node)
	if l == nil {
		return 0, 0
	}
	return l.NaturalWidth, l.NaturalHeight
}

func (e *Element) CurrentSrc() string {
	l := e.doc.layoutOf(e.node)
	if l == nil {
		return ""
	}
	return l.CurrentSrc
}

// CanvasDataURL returns the PNG data URL of a canvas. Tainted canvases return ErrTainted.
func (e *Element) CanvasDataURL() (string, error) {
	if e.Tag() != "canvas" {
		return "", fmt.Errorf("<%s> is not a canvas", e.Tag())
	}
	l := e.doc.layoutOf(e.node)
	switch {
	case l != nil && l.CanvasData != "":
		return l.CanvasData, nil
	case l != nil && l.CanvasError != "":
		return "", fmt.Errorf("%w: %s", ErrTainted, l.CanvasError)
	default:
		return "", ErrNotRendered
	}
}

// PagePosition converts the rect origin to document coordinates.
func (e *Element) PagePosition() (float64, float64, bool) {
	r, ok := e.Rect()
	if !ok {
		return 0, 0, false
	}
	return r.X + e.doc.viewport.ScrollX, r.Y + e.doc.viewport.ScrollY, true
}

func (e *Element) Matches(selector string) bool {
	sel, err := compileSelector(selector)
	if err != nil {
		return false
	}
	return sel.Match(e.node)
}

// Closest walks from e up through its ancestors and returns the first match.
func (e *Element) Closest(selector string) *Element {
	sel, err := compileSelector(selector)
	if err != nil {
		return nil
	}
	for n := e.node; n != nil && n.Type == html.ElementNode; n = n.Parent {
		if sel.Match(n) {
			return e.doc.wrap(n)
		}
	}
	return nil
}

// Find returns matching descendants (e itself excluded).
func (e *Element) Find(selector string) []*Element {
	sel := goquery.NewDocumentFromNode(e.node).Find(selector)
	return e.doc.wrapAll(sel.Nodes)
}

func (e *Element) Text() string {
	return textOf(e.node)
}

func (e *Element) String() string {
	var sb strings.Builder
	sb.WriteString("<" + e.Tag())
	if id := e.ID(); id != "" {
		sb.WriteString(" id=" + id)
	}
	if cls := e.AttrOr("class", ""); cls != "" {
		sb.WriteString(" class=" + cls)
	}
	sb.WriteString(">")
	return sb.String()
}

func shadowMode(n *html.Node) (string, bool) {
	if v, ok := lookupAttr(n, "shadowrootmode"); ok {
		return strings.ToLower(strings.TrimSpace(v)), true
	}
	if v, ok := lookupAttr(n, "shadowroot"); ok {
		return strings.ToLower(strings.TrimSpace(v)), true
	}
	return "", false
}

func isShadowTemplate(n *html.Node) bool {
	if n.Type != html.ElementNode || n.Data != "template" {
		return false
	}
	_, ok := shadowMode(n)
	return ok
}
