package extract

import (
	"fmt"
	"strings"

	"imgscout/internal/domain/dom"
	"imgscout/internal/domain/entity"
	"imgscout/internal/usecase/collect"
	"imgscout/internal/usecase/parse"
	"imgscout/internal/usecase/scoring"
)

const (
	priorityLink    = 5
	prioritySrcset  = 4
	priorityElement = 3
	priorityText    = 2
)

var lazyAttrSet = func() map[string]bool {
	m := make(map[string]bool, len(collect.LazyAttrs))
	for _, a := range collect.LazyAttrs {
		m[a] = true
	}
	return m
}()

// elementCandidates gathers the raw candidates of one element. A computed
// style failure fails the whole element.
func (r *run) elementCandidates(el *dom.Element) ([]entity.Candidate, error) {
	var cands []entity.Candidate
	base := el.Document().BaseURL()

	switch el.Tag() {
	case "img":
		cands = append(cands, r.imgCandidates(el)...)
		if r.opts.DeepScan && r.alternates != nil {
			for _, u := range r.alternates.AlternativeURLs(el) {
				cands = append(cands, entity.Candidate{URL: u, OriginType: entity.OriginImg, Priority: prioritySrcset})
			}
		}
	case "canvas":
		data, err := el.CanvasDataURL()
		if err != nil {
			r.x.logger.Debug("Skipping canvas", "element", el.String(), "error", err)
			break
		}
		w, h := el.NaturalSize()
		cands = append(cands, entity.Candidate{URL: data, OriginType: entity.OriginCanvas, Priority: priorityElement, Width: w, Height: h})
	case "svg":
		if r.opts.IncludeDataURLs {
			cands = append(cands, entity.Candidate{URL: el.SVGDataURL(), OriginType: entity.OriginInlineSVG, Priority: priorityElement})
		}
	case "video":
		if poster := strings.TrimSpace(el.AttrOr("poster", "")); poster != "" {
			cands = append(cands, entity.Candidate{URL: poster, OriginType: entity.OriginVideoPoster, Priority: priorityElement})
		}
	case "input":
		if strings.EqualFold(el.AttrOr("type", ""), "image") {
			if src := strings.TrimSpace(el.AttrOr("src", "")); src != "" {
				cands = append(cands, entity.Candidate{URL: src, OriginType: entity.OriginImg, Priority: priorityElement})
			}
		}
	case "source":
		if r.opts.DeepScan {
			set := parse.ParseSrcset(el.AttrOr("srcset", ""))
			for _, c := range set {
				cands = append(cands, srcsetCandidate(c, entity.OriginSrcset, set))
			}
		}
	case "script":
		if r.opts.DeepScan && isJSONScript(el) {
			for _, u := range collect.ScriptURLs(el.Text(), base) {
				cands = append(cands, entity.Candidate{URL: u, OriginType: entity.OriginDataAttr, Priority: priorityText})
			}
		}
	}

	styles, err := collect.StyleURLs(el)
	if err != nil {
		return nil, fmt.Errorf("computed style: %w", err)
	}
	for _, s := range styles {
		cands = append(cands, entity.Candidate{URL: s.URL, OriginType: s.Origin, Priority: priorityElement})
	}

	if !r.opts.DeepScan {
		for _, a := range collect.LazyAttributeURLs(el) {
			cands = append(cands, lazyCandidate(a))
		}
		return cands, nil
	}

	for _, u := range collect.AnchorURLs(el, base) {
		cands = append(cands, entity.Candidate{URL: u, OriginType: entity.OriginLinkHref, Priority: priorityLink})
	}
	for _, a := range collect.AttributeURLs(el) {
		if lazyAttrSet[a.Attr] {
			cands = append(cands, lazyCandidate(a))
			continue
		}
		cands = append(cands, entity.Candidate{
			URL:        a.URL,
			OriginType: entity.OriginDataAttr,
			Priority:   scoring.AttributePriority(a.Attr, a.URL),
		})
	}
	return cands, nil
}

// imgCandidates reads <picture> sources, srcset, currentSrc, src and an
// enclosing link.
func (r *run) imgCandidates(img *dom.Element) []entity.Candidate {
	var out []entity.Candidate

	displayWidth := 0.0
	if rect, ok := img.Rect(); ok {
		displayWidth = rect.Width
	}
	dpr := img.Document().Viewport().DPR
	nw, nh := img.NaturalSize()

	if parent := img.Parent(); parent != nil && parent.Tag() == "picture" {
		var set []parse.SrcsetCandidate
		for _, child := range parent.Children() {
			if child.Tag() == "source" {
				set = append(set, parse.ParseSrcset(child.AttrOr("srcset", ""))...)
			}
		}
		if best, ok := scoring.PickSrcsetCandidate(set, displayWidth, dpr); ok {
			out = append(out, srcsetCandidate(best, entity.OriginPicture, set))
		}
	}

	if set := parse.ParseSrcset(img.AttrOr("srcset", "")); len(set) > 0 {
		if best, ok := scoring.PickSrcsetCandidate(set, displayWidth, dpr); ok {
			out = append(out, srcsetCandidate(best, entity.OriginSrcset, set))
		}
		// Deep scans keep every rendition, like <source> does.
		if r.opts.DeepScan {
			for _, c := range set {
				out = append(out, srcsetCandidate(c, entity.OriginSrcset, set))
			}
		}
	}

	src := strings.TrimSpace(img.AttrOr("src", ""))
	quality := float64(nw * nh)
	if cur := strings.TrimSpace(img.CurrentSrc()); cur != "" && cur != src {
		out = append(out, entity.Candidate{URL: cur, OriginType: entity.OriginImg, Priority: priorityElement, Quality: quality, Width: nw, Height: nh})
	}
	if src != "" {
		out = append(out, entity.Candidate{URL: src, OriginType: entity.OriginImg, Priority: priorityElement, Quality: quality, Width: nw, Height: nh})
	}

	if a := img.Closest("a[href]"); a != nil {
		for _, u := range scoring.ExtractLinkedImageURLs(a.AttrOr("href", ""), img.Document().BaseURL()) {
			out = append(out, entity.Candidate{URL: u, OriginType: entity.OriginLinkHref, Priority: priorityLink})
		}
	}
	return out
}

func lazyCandidate(a collect.AttrURL) entity.Candidate {
	return entity.Candidate{
		URL:        a.URL,
		OriginType: entity.OriginLazyAttr,
		Priority:   scoring.AttributePriority(a.Attr, a.URL),
		LazyHint:   true,
	}
}

func srcsetCandidate(c parse.SrcsetCandidate, origin entity.OriginType, set []parse.SrcsetCandidate) entity.Candidate {
	return entity.Candidate{
		URL:              c.URL,
		OriginType:       origin,
		Priority:         prioritySrcset,
		Quality:          srcsetQuality(c),
		Width:            c.Width,
		SrcsetCandidates: srcsetURLs(set),
	}
}

func srcsetQuality(c parse.SrcsetCandidate) float64 {
	if c.Width > 0 {
		return float64(c.Width)
	}
	if c.Density > 0 {
		return c.Density * 1000
	}
	return 1000
}

func srcsetURLs(set []parse.SrcsetCandidate) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for _, c := range set {
		out = append(out, c.URL)
	}
	return out
}

func isJSONScript(el *dom.Element) bool {
	return strings.Contains(strings.ToLower(el.AttrOr("type", "")), "json")
}
