package dom

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// IDAttr is stamped on every element by the live collector script.
const IDAttr = "data-imgx-id"

const bookkeepingPrefix = "data-imgx-"

var (
	ErrCrossOrigin = errors.New("cross-origin access denied")
	ErrTainted     = errors.New("canvas is tainted")
	ErrStyleAccess = errors.New("computed style unavailable")
	ErrNotRendered = errors.New("not rendered in snapshot")
)

type StyleSheet struct {
	Href  string
	Rules []string
	Err   error
}

// Layout is what the renderer knows about one element.
type Layout struct {
	Rect          *Rect            `json:"rect,omitempty"`
	Styles        map[string]Style `json:"styles,omitempty"`
	StyleError    string           `json:"styleError,omitempty"`
	NaturalWidth  int              `json:"naturalWidth,omitempty"`
	NaturalHeight int              `json:"naturalHeight,omitempty"`
	CurrentSrc    string           `json:"currentSrc,omitempty"`
	CanvasData    string           `json:"canvasData,omitempty"`
	CanvasError   string           `json:"canvasError,omitempty"`
}

// PointLocator answers elementsFromPoint from an external source, front to back.
type PointLocator func(x, y float64) ([]*Element, error)

type frame struct {
	doc *Document
	err error
}

type Document struct {
	root     *html.Node
	pageURL  *url.URL
	baseURL  string
	viewport Viewport
	sheets   []StyleSheet
	layout   map[*html.Node]*Layout
	frames   map[*html.Node]frame
	ids      map[string]*html.Node
	elements map[*html.Node]*Element
	locator  PointLocator
	live     bool
}

// Parse builds a static document. Layout is estimated from inline styles.
func Parse(r io.Reader, pageURL string, vp Viewport) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}

	doc := newDocument(root, u, vp)
	doc.sheets = doc.inlineSheets()
	return doc, nil
}

// ParseString is Parse over a string.
func ParseString(src, pageURL string) (*Document, error) {
	return Parse(strings.NewReader(src), pageURL, DefaultViewport())
}

func newDocument(root *html.Node, u *url.URL, vp Viewport) *Document {
	doc := &Document{
		root:     root,
		pageURL:  u,
		viewport: vp.normalized(),
		layout:   make(map[*html.Node]*Layout),
		frames:   make(map[*html.Node]frame),
		ids:      make(map[string]*html.Node),
		elements: make(map[*html.Node]*Element),
	}
	doc.baseURL = doc.resolveBase()
	return doc
}

func (d *Document) resolveBase() string {
	page := d.pageURL.String()
	base := findFirst(d.root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "base" && getAttr(n, "href") != ""
	})
	if base == nil {
		return page
	}
	ref, err := url.Parse(strings.TrimSpace(getAttr(base, "href")))
	if err != nil {
		return page
	}
	return d.pageURL.ResolveReference(ref).String()
}

func (d *Document) inlineSheets() []StyleSheet {
	var sheets []StyleSheet
	walkElements(d.root, func(n *html.Node) bool {
		switch n.Data {
		case "style":
			sheets = append(sheets, StyleSheet{Rules: []string{textOf(n)}})
		case "link":
			rel := strings.ToLower(getAttr(n, "rel"))
			href := strings.TrimSpace(getAttr(n, "href"))
			if href != "" && containsToken(rel, "stylesheet") {
				sheets = append(sheets, StyleSheet{Href: d.Resolve(href), Err: ErrNotRendered})
			}
		case "template":
			return isShadowTemplate(n)
		}
		return true
	})
	return sheets
}

func (d *Document) URL() string { return d.pageURL.String() }
func (d *Document) BaseURL() string { return d.baseURL }
func (d *Document) Viewport() Viewport { return d.viewport }
func (d *Document) IsLive() bool { return d.live }

func (d *Document) Hostname() string {
	return strings.ToLower(d.pageURL.Hostname())
}

// Resolve makes ref absolute against the document base. Unparsable refs come back unchanged.
func (d *Document) Resolve(ref string) string {
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	b, err := url.Parse(d.baseURL)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

func (d *Document) StyleSheets() []StyleSheet { return d.sheets }

func (d *Document) DocumentElement() *Element {
	return d.wrap(findFirst(d.root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "html"
	}))
}

func (d *Document) Body() *Element {
	return d.wrap(findFirst(d.root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "body"
	}))
}

// ByID finds an element by its snapshot id.
func (d *Document) ByID(id string) *Element {
	return d.wrap(d.ids[id])
}

func (d *Document) QueryAll(selector string) []*Element {
	sel := goquery.NewDocumentFromNode(d.root).Find(selector)
	return d.wrapAll(sel.Nodes)
}

func (d *Document) QueryOne(selector string) *Element {
	els := d.QueryAll(selector)
	if len(els) == 0 {
		return nil
	}
	return els[0]
}

// SetLayout overrides what is known about an element's rendering.
func (d *Document) SetLayout(e *Element, l *Layout) {
	if e == nil {
		return
	}
	d.layout[e.node] = l
}

func (d *Document) SetPointLocator(fn PointLocator) {
	d.locator = fn
}

func (d *Document) layoutOf(n *html.Node) *Layout {
	if l, ok := d.layout[n]; ok {
		return l
	}
	l := estimateLayout(n, d.viewport)
	d.layout[n] = l
	return l
}

func (d *Document) wrap(n *html.Node) *Element {
	if n == nil || n.Type != html.ElementNode {
		return nil
	}
	if el, ok := d.elements[n]; ok {
		return el
	}
	el := &Element{node: n, doc: d}
	d.elements[n] = el
	return el
}

func (d *Document) wrapAll(nodes []*html.Node) []*Element {
	out := make([]*Element, 0, len(nodes))
	for _, n := range nodes {
		if el := d.wrap(n); el != nil {
			out = append(out, el)
		}
	}
	return out
}

// Snapshot is the wire format produced by the live collector script.
type Snapshot struct {
	URL      string                   `json:"url"`
	Viewport Viewport                 `json:"viewport"`
	HTML     string                   `json:"html"`
	Elements map[string]*Layout       `json:"elements"`
	Sheets   []SheetSnapshot          `json:"sheets"`
	Frames   map[string]FrameSnapshot `json:"frames"`
}

type SheetSnapshot struct {
	Href  string   `json:"href"`
	Rules []string `json:"rules"`
	Error string   `json:"error,omitempty"`
}

type FrameSnapshot struct {
	Error    string    `json:"error,omitempty"`
	Snapshot *Snapshot `json:"snapshot,omitempty"`
}

// Document materializes the snapshot into a queryable tree.
func (s *Snapshot) Document() (*Document, error) {
	root, err := html.Parse(strings.NewReader(s.HTML))
	if err != nil {
		return nil, fmt.Errorf("parse snapshot html: %w", err)
	}
	u, err := url.Parse(s.URL)
	if err != nil {
		return nil, fmt.Errorf("parse snapshot url: %w", err)
	}

	doc := newDocument(root, u, s.Viewport)
	doc.live = true

	walkAll(root, func(n *html.Node) {
		id := getAttr(n, IDAttr)
		if id == "" {
			return
		}
		doc.ids[id] = n
		if l, ok := s.Elements[id]; ok && l != nil {
			doc.layout[n] = l
		}
		f, ok := s.Frames[id]
		if !ok {
			return
		}
		if f.Snapshot == nil {
			doc.frames[n] = frame{err: fmt.Errorf("%w: %s", ErrCrossOrigin, f.Error)}
			return
		}
		child, err := f.Snapshot.Document()
		doc.frames[n] = frame{doc: child, err: err}
	})

	for _, sh := range s.Sheets {
		sheet := StyleSheet{Href: sh.Href, Rules: sh.Rules}
		if sh.Error != "" {
			sheet.Err = fmt.Errorf("%w: %s", ErrCrossOrigin, sh.Error)
		}
		doc.sheets = append(doc.sheets, sheet)
	}

	return doc, nil
}

func getAttr(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

func containsToken(list, token string) bool {
	for _, f := range strings.Fields(list) {
		if f == token {
			return true
		}
	}
	return false
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func walkAll(n *html.Node, fn func(*html.Node)) {
	if n.Type == html.ElementNode {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkAll(c, fn)
	}
}

// walkElements visits elements in document order; returning false skips the subtree.
func walkElements(n *html.Node, fn func(*html.Node) bool) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			walkElements(c, fn)
			continue
		}
		if fn(c) {
			walkElements(c, fn)
		}
	}
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return sb.String()
}

// ParseFragment parses markup (noscript text, template bodies) as a detached
// document sharing this document's URL, base and viewport.
func (d *Document) ParseFragment(markup string) (*Document, error) {
	frag, err := Parse(strings.NewReader(markup), d.URL(), d.viewport)
	if err != nil {
		return nil, err
	}
	frag.baseURL = d.baseURL
	return frag, nil
}

// InnerHTML serializes the children of e.
func (e *Element) InnerHTML() string {
	var sb strings.Builder
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(renderNode(cloneClean(c)))
	}
	return sb.String()
}
