package sites

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"imgscout/internal/domain/dom"
)

// fbcdn paths may carry size (s720x720, p320x320) and crop (c0.0.320.320a) segments.
var facebookTransformSegment = regexp.MustCompile(`/(?:[sp]\d+x\d+|c\d+\.\d+\.\d+\.\d+[a-z]?)(?:/|$)`)

const facebookOverlay = `[aria-label="Close"], [aria-label="Next photo"], [aria-label="Previous photo"], [aria-label="Like"], [aria-label="Share"]`

var (
	_ OriginalDeriver   = (*Facebook)(nil)
	_ OverlayDetector   = (*Facebook)(nil)
	_ SelectionEnhancer = (*Facebook)(nil)
)

type Facebook struct {
	base
}

func NewFacebook() *Facebook {
	return &Facebook{base: newBase("facebook", `(^|\.)facebook\.com$`, `(^|\.)fbcdn\.net$`)}
}

func (f *Facebook) ExtractImages(_ context.Context, scope Scope) ([]Found, error) {
	var out []Found
	for _, img := range imagesIn(scope.Container()) {
		raw, origin, _ := largestImageURL(img)
		if !hostHasSuffix(img.Document().Resolve(raw), "fbcdn.net") {
			continue
		}
		priority := 3
		if img.Matches(`[data-visualcompletion="media-vc-image"]`) {
			priority = 4
		}
		out = append(out, foundImage(img, raw, origin, priority))
	}
	return dedupeFound(out), nil
}

func (f *Facebook) DeriveOriginalURL(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !hostHasSuffix(raw, "fbcdn.net") {
		return "", false
	}
	path := u.Path
	for facebookTransformSegment.MatchString(path) {
		path = facebookTransformSegment.ReplaceAllString(path, "/")
	}
	if path == u.Path {
		return "", false
	}
	u.Path = path
	u.RawPath = ""
	return u.String(), true
}

func (f *Facebook) IsOverlayElement(el *dom.Element) bool {
	return el.Matches(facebookOverlay)
}

// EnhanceSelection moves from the photo viewer chrome to the spotlight image.
func (f *Facebook) EnhanceSelection(el *dom.Element) *dom.Element {
	viewer := firstMatchingAncestor(el, `[role="main"] [data-pagelet="MediaViewerPhoto"], [data-name="media-viewer-nav-container"]`)
	if viewer == nil {
		return nil
	}
	if imgs := viewer.Find(`img[data-visualcompletion="media-vc-image"]`); len(imgs) > 0 {
		return imgs[0]
	}
	return nil
}
