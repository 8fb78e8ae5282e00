package sites

import (
	"context"
	"regexp"

	"imgscout/internal/domain/dom"
	"imgscout/internal/domain/entity"
)

// DefaultPriority is shared by every built-in handler, so registration order breaks ties.
const DefaultPriority = 10

// Handler is a per-site strategy. ExtractImages is required; the optional
// capabilities below are detected with type assertions.
type Handler interface {
	Name() string
	HostPatterns() []*regexp.Regexp
	Priority() int
	ExtractImages(ctx context.Context, scope Scope) ([]Found, error)
}

// PageExtractor handles whole-document scans.
type PageExtractor interface {
	ExtractPageImages(ctx context.Context, scope Scope) ([]Found, error)
}

// OriginalDeriver knows the site's CDN URL grammar.
type OriginalDeriver interface {
	DeriveOriginalURL(raw string) (string, bool)
}

type OverlayDetector interface {
	IsOverlayElement(el *dom.Element) bool
}

// SelectionEnhancer redirects a raw click target to a more useful element,
// or returns nil to keep it.
type SelectionEnhancer interface {
	EnhanceSelection(el *dom.Element) *dom.Element
}

type AlternativeURLProvider interface {
	AlternativeURLs(el *dom.Element) []string
}

// URLSweeper runs a site-specific sweep over the whole document during deep scans.
type URLSweeper interface {
	SweepURLs(doc *dom.Document) []string
}

// Refresher re-reads the page, used by handlers that wait for content to settle.
type Refresher interface {
	Refresh(ctx context.Context) (*dom.Document, error)
}

// Scope is what a handler extracts from. Root is nil for page-wide scans.
type Scope struct {
	Doc       *dom.Document
	Root      *dom.Element
	Options   entity.ExtractOptions
	Refresher Refresher
}

// Container returns Root, or the body when the scope is page-wide.
func (s Scope) Container() *dom.Element {
	if s.Root != nil {
		return s.Root
	}
	if body := s.Doc.Body(); body != nil {
		return body
	}
	return s.Doc.DocumentElement()
}

// Found is a handler result. Element is the node it was read from, if any.
type Found struct {
	entity.Candidate
	Element *dom.Element
}

type base struct {
	name     string
	patterns []*regexp.Regexp
	priority int
}

func newBase(name string, patterns ...string) base {
	b := base{name: name, priority: DefaultPriority}
	for _, p := range patterns {
		b.patterns = append(b.patterns, regexp.MustCompile(p))
	}
	return b
}

func (b base) Name() string                   { return b.name }
func (b base) HostPatterns() []*regexp.Regexp { return b.patterns }
func (b base) Priority() int                  { return b.priority }
