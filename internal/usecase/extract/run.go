package extract

import (
	"context"
	"fmt"

	"imgscout/internal/domain/dom"
	"imgscout/internal/domain/entity"
	"imgscout/internal/usecase/collect"
	"imgscout/internal/usecase/derive"
	"imgscout/internal/usecase/parse"
	"imgscout/internal/usecase/scoring"
	"imgscout/internal/usecase/sites"
)

// run holds the state of one ExtractImagesFromRoots call.
type run struct {
	x          *Extractor
	doc        *dom.Document
	opts       entity.ExtractOptions
	padding    float64
	deriver    derive.Deriver
	alternates sites.AlternativeURLProvider
	visited    map[*dom.Element]bool
	items      []entity.ExtractedImage
}

func newRun(x *Extractor, doc *dom.Document, opts entity.ExtractOptions) *run {
	return &run{
		x:       x,
		doc:     doc,
		opts:    opts,
		padding: opts.Padding(doc.Viewport().Height),
		visited: make(map[*dom.Element]bool),
	}
}

// runHandler merges the site handler's findings. Any failure discards the
// handler's output; generic extraction still runs.
func (r *run) runHandler(ctx context.Context, h sites.Handler, roots []*dom.Element, whole bool) {
	var buf []entity.ExtractedImage
	err := guard(func() error {
		scope := sites.Scope{Doc: r.doc, Options: r.opts, Refresher: r.x.refresher}

		var found []sites.Found
		if pe, ok := h.(sites.PageExtractor); ok && whole {
			f, err := pe.ExtractPageImages(ctx, scope)
			if err != nil {
				return err
			}
			found = f
		} else {
			for _, root := range roots {
				scope.Root = root
				f, err := h.ExtractImages(ctx, scope)
				if err != nil {
					return fmt.Errorf("root %s: %w", root, err)
				}
				found = append(found, f...)
			}
		}

		for _, f := range found {
			if f.Element != nil && r.opts.VisibleOnly && !r.visible(f.Element) {
				continue
			}
			buf = append(buf, r.images(f.Element, r.expand(f.Element, []entity.Candidate{f.Candidate}))...)
		}
		return nil
	})
	if err != nil {
		r.x.logger.Warn("Site handler failed, falling back to generic extraction",
			"handler", h.Name(),
			"page", r.doc.URL(),
			"error", err,
		)
		return
	}
	r.x.logger.Debug("Site handler finished", "handler", h.Name(), "found", len(buf))
	r.items = append(r.items, buf...)
}

type sweep struct {
	name  string
	found func() []entity.Candidate
}

// sweepDocument runs the whole-document collectors of a deep scan.
func (r *run) sweepDocument(handler sites.Handler) {
	sweeps := []sweep{
		{"document-linked", func() []entity.Candidate {
			return candidatesOf(collect.DocumentLinkedURLs(r.doc), entity.OriginLinkHref, 4)
		}},
		{"stylesheets", func() []entity.Candidate {
			return candidatesOf(collect.StyleSheetURLs(r.doc), entity.OriginCSSBackground, 3)
		}},
		{"html-embedded", func() []entity.Candidate {
			return candidatesOf(collect.HTMLEmbeddedURLs(r.doc), entity.OriginDataAttr, 2)
		}},
		{"fragments", func() []entity.Candidate {
			var out []entity.Candidate
			for _, f := range collect.FragmentURLs(r.doc) {
				out = append(out, entity.Candidate{URL: f.URL, OriginType: f.Origin, Priority: 3})
			}
			return out
		}},
	}
	if sw, ok := handler.(sites.URLSweeper); ok {
		sweeps = append(sweeps, sweep{"site:" + handler.Name(), func() []entity.Candidate {
			return candidatesOf(sw.SweepURLs(r.doc), entity.OriginDataAttr, 3)
		}})
	}

	for _, s := range sweeps {
		var buf []entity.ExtractedImage
		err := guard(func() error {
			buf = r.images(nil, r.expand(nil, s.found()))
			return nil
		})
		if err != nil {
			r.x.logger.Warn("Document sweep failed", "sweep", s.name, "error", err)
			continue
		}
		r.items = append(r.items, buf...)
	}
}

// walk visits el, its open shadow root, same-origin frames (deep scans) and
// its light-DOM children.
func (r *run) walk(el *dom.Element) {
	if el == nil || r.visited[el] {
		return
	}
	r.visited[el] = true

	if r.opts.VisibleOnly && displayNone(el) {
		return
	}

	r.processElement(el)

	if shadow := el.ShadowRoot(); shadow != nil {
		for _, child := range shadow.Children() {
			r.walk(child)
		}
	}

	switch el.Tag() {
	case "iframe", "frame":
		if r.opts.DeepScan {
			r.walkFrame(el)
		}
		return
	case "template", "noscript", "script", "style":
		return
	}

	for _, child := range el.Children() {
		r.walk(child)
	}
}

func (r *run) walkFrame(el *dom.Element) {
	fdoc, err := el.FrameDocument()
	if err != nil {
		r.x.logger.Debug("Skipping frame", "frame", el.String(), "error", err)
		return
	}
	if root := fdoc.DocumentElement(); root != nil {
		r.walk(root)
	}
}

// processElement extracts one element atomically: on error or panic nothing
// from it is kept.
func (r *run) processElement(el *dom.Element) {
	var buf []entity.ExtractedImage
	err := guard(func() error {
		if r.opts.VisibleOnly && !r.visible(el) {
			return nil
		}
		cands, err := r.elementCandidates(el)
		if err != nil {
			return err
		}
		buf = r.finish(el, cands)
		return nil
	})
	if err != nil {
		r.x.logger.Warn("Skipping element", "element", el.String(), "error", err)
		return
	}
	r.items = append(r.items, buf...)
}

// finish keeps the best viable candidate of a shallow scan, or every
// candidate plus derived originals of a deep one.
func (r *run) finish(el *dom.Element, cands []entity.Candidate) []entity.ExtractedImage {
	if len(cands) == 0 {
		return nil
	}
	if r.opts.DeepScan {
		return r.images(el, r.expand(el, cands))
	}

	cands = r.absolute(el, cands)
	viable := cands[:0]
	for _, c := range cands {
		if r.allowed(c.URL, c.OriginType) {
			viable = append(viable, c)
		}
	}
	best, ok := scoring.PickBestCandidate(viable)
	if !ok {
		return nil
	}
	return r.images(el, []entity.Candidate{best})
}

// expand canonicalizes candidates and, in deep scans, appends derived originals.
func (r *run) expand(el *dom.Element, cands []entity.Candidate) []entity.Candidate {
	cands = r.absolute(el, cands)
	if !r.opts.DeepScan {
		return cands
	}
	out := make([]entity.Candidate, 0, len(cands)*2)
	for _, c := range cands {
		out = append(out, c)
		if orig, ok := derive.Resolve(r.deriver, c.URL); ok {
			d := c
			d.URL = orig
			d.SrcsetCandidates = nil
			d.Width, d.Height = 0, 0
			out = append(out, d)
		}
	}
	return dedupeCandidates(out)
}

func (r *run) absolute(el *dom.Element, cands []entity.Candidate) []entity.Candidate {
	base := r.doc.BaseURL()
	if el != nil {
		base = el.Document().BaseURL()
	}
	out := cands[:0]
	for _, c := range cands {
		if c.URL == "" {
			continue
		}
		c.URL = parse.Canonicalize(c.URL, base)
		if len(c.SrcsetCandidates) > 0 {
			abs := make([]string, len(c.SrcsetCandidates))
			for i, s := range c.SrcsetCandidates {
				abs[i] = parse.Canonicalize(s, base)
			}
			c.SrcsetCandidates = abs
		}
		out = append(out, c)
	}
	return out
}

func (r *run) images(el *dom.Element, cands []entity.Candidate) []entity.ExtractedImage {
	out := make([]entity.ExtractedImage, 0, len(cands))
	for _, c := range cands {
		img := entity.ExtractedImage{
			URL:              c.URL,
			OriginType:       c.OriginType,
			Width:            c.Width,
			Height:           c.Height,
			FilenameHint:     parse.FilenameHint(c.URL),
			IsDataURL:        parse.IsDataURL(c.URL),
			IsInlineSVG:      c.OriginType == entity.OriginInlineSVG,
			IsCanvas:         c.OriginType == entity.OriginCanvas,
			SrcsetCandidates: c.SrcsetCandidates,
			LazyHint:         c.LazyHint,
		}
		if el != nil {
			if x, y, ok := el.PagePosition(); ok {
				img.PageX, img.PageY = x, y
			}
		}
		out = append(out, img)
	}
	return out
}

func candidatesOf(urls []string, origin entity.OriginType, priority int) []entity.Candidate {
	out := make([]entity.Candidate, 0, len(urls))
	for _, u := range urls {
		out = append(out, entity.Candidate{URL: u, OriginType: origin, Priority: priority})
	}
	return out
}

func dedupeCandidates(in []entity.Candidate) []entity.Candidate {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, c := range in {
		if seen[c.URL] {
			continue
		}
		seen[c.URL] = true
		out = append(out, c)
	}
	return out
}
