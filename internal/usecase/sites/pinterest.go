package sites

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"imgscout/internal/domain/dom"
	"imgscout/internal/domain/entity"
	"imgscout/internal/usecase/collect"
)

var (
	pinimgURL        = regexp.MustCompile(`https?://i\.pinimg\.com/[^\s"'<>\\]+?\.(?:jpe?g|png|webp|gif)`)
	pinimgSizeClass  = regexp.MustCompile(`^/(?:\d+x\d*|\d+x)(?:_[A-Za-z]+)?/`)
	pinterestStates  = []string{`script#__PWS_DATA__`, `script#__PWS_INITIAL_PROPS__`, `script[data-relay-response="true"]`}
	pinterestOverlay = `[data-test-id="closeup-action-bar"], [data-test-id="pin-action-bar"], [data-test-id*="overlay"], [aria-label="Save"], [aria-label="Share"], [aria-label="More options"]`
)

var (
	_ PageExtractor     = (*Pinterest)(nil)
	_ OriginalDeriver   = (*Pinterest)(nil)
	_ OverlayDetector   = (*Pinterest)(nil)
	_ SelectionEnhancer = (*Pinterest)(nil)
	_ URLSweeper        = (*Pinterest)(nil)
)

// Pinterest serves pins from i.pinimg.com, where the first path segment is a
// size class (236x, 474x, 736x) and "originals" holds the upload.
type Pinterest struct {
	base
}

func NewPinterest() *Pinterest {
	return &Pinterest{base: newBase("pinterest", `(^|\.)pinterest\.[a-z.]+$`, `(^|\.)pinimg\.com$`)}
}

func (p *Pinterest) ExtractImages(_ context.Context, scope Scope) ([]Found, error) {
	var out []Found
	for _, img := range imagesIn(scope.Container()) {
		raw, origin, siblings := largestImageURL(img)
		if !hostHasSuffix(img.Document().Resolve(raw), "pinimg.com") {
			continue
		}
		f := foundImage(img, raw, origin, 4)
		f.SrcsetCandidates = siblings
		out = append(out, f)
	}
	return dedupeFound(out), nil
}

// ExtractPageImages adds the pins listed in the embedded page state.
func (p *Pinterest) ExtractPageImages(ctx context.Context, scope Scope) ([]Found, error) {
	out, err := p.ExtractImages(ctx, scope)
	if err != nil {
		return nil, err
	}

	var parseErr error
	for _, sel := range pinterestStates {
		for _, script := range scope.Doc.QueryAll(sel) {
			urls, err := collect.ParseJSONURLs(script.Text(), scope.Doc.BaseURL())
			if err != nil {
				parseErr = fmt.Errorf("pinterest state %s: %w", sel, err)
				continue
			}
			for _, u := range urls {
				if hostHasSuffix(u, "pinimg.com") {
					out = append(out, Found{Candidate: entity.Candidate{URL: u, OriginType: entity.OriginDataAttr, Priority: 3}})
				}
			}
		}
	}
	if len(out) == 0 && parseErr != nil {
		return nil, parseErr
	}
	return dedupeFound(out), nil
}

func (p *Pinterest) DeriveOriginalURL(raw string) (string, bool) {
	if !hostHasSuffix(raw, "pinimg.com") {
		return "", false
	}
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return "", false
	}
	host, path, ok := strings.Cut(rest, "/")
	if !ok {
		return "", false
	}
	path = "/" + path
	if strings.HasPrefix(path, "/originals/") || !pinimgSizeClass.MatchString(path) {
		return "", false
	}
	return scheme + "://" + host + pinimgSizeClass.ReplaceAllString(path, "/originals/"), true
}

func (p *Pinterest) IsOverlayElement(el *dom.Element) bool {
	return el.Matches(pinterestOverlay)
}

// EnhanceSelection widens a click inside a pin to the whole pin card.
func (p *Pinterest) EnhanceSelection(el *dom.Element) *dom.Element {
	return firstMatchingAncestor(el, `[data-test-id="pin"], [data-test-id="pinWrapper"], [data-test-id="closeup-image"]`)
}

func (p *Pinterest) SweepURLs(doc *dom.Document) []string {
	text := strings.ReplaceAll(doc.HTML(), `\/`, "/")
	return uniqueStrings(pinimgURL.FindAllString(text, -1))
}
