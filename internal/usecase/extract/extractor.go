package extract

import (
	"context"
	"fmt"

	"imgscout/internal/application/port/output"
	"imgscout/internal/domain/dom"
	"imgscout/internal/domain/entity"
	"imgscout/internal/usecase/sites"
)

// Extractor walks DOM roots and turns every image signal it finds into
// ExtractedImage values. It never fails: broken elements and handlers are
// logged and skipped.
type Extractor struct {
	registry  *sites.Registry
	logger    output.LoggerPort
	refresher sites.Refresher
}

func New(registry *sites.Registry, logger output.LoggerPort) *Extractor {
	return &Extractor{
		registry: registry,
		logger:   logger,
	}
}

// WithRefresher returns a copy whose handlers can re-read a live page while
// they wait for it to settle.
func (x *Extractor) WithRefresher(r sites.Refresher) *Extractor {
	cp := *x
	cp.refresher = r
	return &cp
}

// ActiveHandler is the handler for the document's hostname, or nil.
func (x *Extractor) ActiveHandler(doc *dom.Document) sites.Handler {
	if x.registry == nil || doc == nil {
		return nil
	}
	return x.registry.Active(doc.Hostname())
}

// ExtractImagesFromRoots runs the site handler, the whole-document sweep (deep
// scans of the body or root element only) and the per-element walk, then
// filters and deduplicates the merged result.
func (x *Extractor) ExtractImagesFromRoots(ctx context.Context, roots []*dom.Element, opts entity.ExtractOptions) []entity.ExtractedImage {
	roots = compactRoots(roots)
	if len(roots) == 0 {
		return []entity.ExtractedImage{}
	}

	doc := roots[0].Document()
	r := newRun(x, doc, opts)
	whole := coversDocument(roots)

	handler := x.ActiveHandler(doc)
	if handler != nil {
		if d, ok := handler.(sites.OriginalDeriver); ok {
			r.deriver = d
		}
		if a, ok := handler.(sites.AlternativeURLProvider); ok {
			r.alternates = a
		}
		r.runHandler(ctx, handler, roots, whole)
	}

	if opts.DeepScan && whole {
		r.sweepDocument(handler)
	}

	for _, root := range roots {
		r.walk(root)
	}

	images := r.finalize()
	x.logger.Debug("Extraction finished",
		"page", doc.URL(),
		"roots", len(roots),
		"deep", opts.DeepScan,
		"raw", len(r.items),
		"images", len(images),
	)
	return images
}

func compactRoots(roots []*dom.Element) []*dom.Element {
	out := make([]*dom.Element, 0, len(roots))
	seen := make(map[*dom.Element]bool, len(roots))
	for _, root := range roots {
		if root == nil || seen[root] {
			continue
		}
		seen[root] = true
		out = append(out, root)
	}
	return out
}

func coversDocument(roots []*dom.Element) bool {
	for _, root := range roots {
		if root.Tag() == "body" || root.Tag() == "html" {
			return true
		}
	}
	return false
}

// guard runs fn and converts a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn()
}
