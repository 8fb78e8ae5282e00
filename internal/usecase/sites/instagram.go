package sites

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"imgscout/internal/domain/dom"
)

var instagramSizeSegment = regexp.MustCompile(`/[sp]\d+x\d+/`)

const (
	instagramOverlay = `div._aagw, [aria-label="Next"], [aria-label="Go back"], [aria-label="Like"], [aria-label="Share"]`
	instagramPost    = `article, div[role="dialog"]`
)

var (
	_ OriginalDeriver   = (*Instagram)(nil)
	_ OverlayDetector   = (*Instagram)(nil)
	_ SelectionEnhancer = (*Instagram)(nil)
)

// Instagram images carry a size segment (s640x640, p480x480) in the CDN path.
type Instagram struct {
	base
}

func NewInstagram() *Instagram {
	return &Instagram{base: newBase("instagram", `(^|\.)instagram\.com$`, `(^|\.)cdninstagram\.com$`)}
}

func (i *Instagram) ExtractImages(_ context.Context, scope Scope) ([]Found, error) {
	var out []Found
	for _, img := range imagesIn(scope.Container()) {
		raw, origin, siblings := largestImageURL(img)
		abs := img.Document().Resolve(raw)
		if !hostHasSuffix(abs, "cdninstagram.com") && !hostHasSuffix(abs, "fbcdn.net") {
			continue
		}
		priority := 3
		if img.Closest(instagramPost) != nil {
			priority = 4
		}
		f := foundImage(img, raw, origin, priority)
		f.SrcsetCandidates = siblings
		out = append(out, f)
	}
	return dedupeFound(out), nil
}

func (i *Instagram) DeriveOriginalURL(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !(hostHasSuffix(raw, "cdninstagram.com") || hostHasSuffix(raw, "fbcdn.net")) {
		return "", false
	}
	if !instagramSizeSegment.MatchString(u.Path) {
		return "", false
	}
	u.Path = instagramSizeSegment.ReplaceAllString(u.Path, "/p1080x1080/")
	u.RawPath = ""
	out := u.String()
	return out, out != raw
}

// IsOverlayElement matches the transparent layer laid over every post image
// and the post controls.
func (i *Instagram) IsOverlayElement(el *dom.Element) bool {
	return el.Matches(instagramOverlay)
}

// EnhanceSelection maps a click on the transparent layer to the image below it.
func (i *Instagram) EnhanceSelection(el *dom.Element) *dom.Element {
	if el == nil || !el.Matches("div._aagw") {
		return nil
	}
	parent := el.Parent()
	if parent == nil {
		return nil
	}
	if imgs := parent.Find("img"); len(imgs) > 0 {
		return imgs[0]
	}
	return nil
}
