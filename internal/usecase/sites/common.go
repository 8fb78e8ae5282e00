package sites

import (
	"net/url"
	"strings"

	"imgscout/internal/domain/dom"
	"imgscout/internal/domain/entity"
	"imgscout/internal/usecase/parse"
	"imgscout/internal/usecase/scoring"
)

// imagesIn lists el itself when it is an <img>, then every <img> below it.
func imagesIn(el *dom.Element) []*dom.Element {
	if el == nil {
		return nil
	}
	var out []*dom.Element
	if el.Tag() == "img" {
		out = append(out, el)
	}
	return append(out, el.Find("img")...)
}

// largestImageURL prefers the widest srcset entry, then currentSrc, then src.
func largestImageURL(img *dom.Element) (string, entity.OriginType, []string) {
	cands := parse.ParseSrcset(img.AttrOr("srcset", ""))
	if best, ok := scoring.PickSrcsetCandidate(cands, 0, img.Document().Viewport().DPR); ok {
		siblings := make([]string, 0, len(cands))
		for _, c := range cands {
			siblings = append(siblings, c.URL)
		}
		return best.URL, entity.OriginSrcset, siblings
	}
	if cur := img.CurrentSrc(); cur != "" {
		return cur, entity.OriginImg, nil
	}
	return strings.TrimSpace(img.AttrOr("src", "")), entity.OriginImg, nil
}

func foundImage(img *dom.Element, raw string, origin entity.OriginType, priority int) Found {
	w, h := img.NaturalSize()
	return Found{
		Candidate: entity.Candidate{
			URL:        img.Document().Resolve(raw),
			OriginType: origin,
			Priority:   priority,
			Width:      w,
			Height:     h,
		},
		Element: img,
	}
}

// hostHasSuffix parses raw and checks its host against suffix.
func hostHasSuffix(raw, suffix string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == suffix || strings.HasSuffix(host, "."+suffix)
}

// firstMatchingAncestor walks up from el, el included.
func firstMatchingAncestor(el *dom.Element, selector string) *dom.Element {
	if el == nil {
		return nil
	}
	return el.Closest(selector)
}

func dedupeFound(in []Found) []Found {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, f := range in {
		if f.URL == "" || seen[f.URL] {
			continue
		}
		seen[f.URL] = true
		out = append(out, f)
	}
	return out
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
