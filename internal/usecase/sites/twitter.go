package sites

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"imgscout/internal/domain/dom"
	"imgscout/internal/domain/entity"
	"imgscout/internal/usecase/collect"
)

var (
	twimgColonSize   = regexp.MustCompile(`:(?:thumb|small|medium|large|orig)$`)
	twimgProfileSize = regexp.MustCompile(`_(?:normal|bigger|mini|x96|\d+x\d+)(\.(?i:jpe?g|png|webp))$`)
	twitterOverlay   = `[data-testid="app-bar-close"], [data-testid="Carousel-NavLeft"], [data-testid="Carousel-NavRight"], [aria-label="Close"], [role="group"]`
)

var twitterVariants = []string{"orig", "4096x4096", "large"}

var (
	_ OriginalDeriver        = (*Twitter)(nil)
	_ OverlayDetector        = (*Twitter)(nil)
	_ SelectionEnhancer      = (*Twitter)(nil)
	_ AlternativeURLProvider = (*Twitter)(nil)
)

// Twitter covers twitter.com and x.com. Media lives on pbs.twimg.com where the
// name= parameter (or a legacy :size suffix) selects the rendition.
type Twitter struct {
	base
}

func NewTwitter() *Twitter {
	return &Twitter{base: newBase("twitter", `(^|\.)twitter\.com$`, `(^|\.)x\.com$`, `(^|\.)twimg\.com$`)}
}

func (t *Twitter) ExtractImages(_ context.Context, scope Scope) ([]Found, error) {
	root := scope.Container()
	var out []Found
	for _, img := range imagesIn(root) {
		raw, origin, _ := largestImageURL(img)
		if !hostHasSuffix(img.Document().Resolve(raw), "twimg.com") {
			continue
		}
		out = append(out, foundImage(img, raw, origin, 4))
	}

	// Photos are also painted as backgrounds behind the <img>.
	photos := root.Find(`[data-testid="tweetPhoto"] [style]`)
	for _, el := range photos {
		styles, err := collect.StyleURLs(el)
		if err != nil {
			return nil, err
		}
		for _, s := range styles {
			if hostHasSuffix(s.URL, "twimg.com") {
				out = append(out, Found{
					Candidate: entity.Candidate{URL: el.Document().Resolve(s.URL), OriginType: s.Origin, Priority: 3},
					Element:   el,
				})
			}
		}
	}
	return dedupeFound(out), nil
}

func (t *Twitter) DeriveOriginalURL(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !strings.EqualFold(u.Hostname(), "pbs.twimg.com") {
		return "", false
	}

	switch {
	case strings.HasPrefix(u.Path, "/profile_images/") && twimgProfileSize.MatchString(u.Path):
		u.Path = twimgProfileSize.ReplaceAllString(u.Path, "$1")
	case twimgColonSize.MatchString(u.Path):
		u.Path = twimgColonSize.ReplaceAllString(u.Path, ":orig")
	case strings.HasPrefix(u.Path, "/media/"):
		q := u.Query()
		if q.Get("name") == "" && q.Get("format") == "" {
			return "", false
		}
		q.Set("name", "orig")
		u.RawQuery = q.Encode()
	default:
		return "", false
	}
	u.RawPath = ""
	out := u.String()
	return out, out != raw
}

func (t *Twitter) IsOverlayElement(el *dom.Element) bool {
	return el.Matches(twitterOverlay)
}

func (t *Twitter) EnhanceSelection(el *dom.Element) *dom.Element {
	return firstMatchingAncestor(el, `[data-testid="tweetPhoto"]`)
}

// AlternativeURLs lists the other renditions of each media image under el.
func (t *Twitter) AlternativeURLs(el *dom.Element) []string {
	var out []string
	for _, img := range imagesIn(el) {
		u, err := url.Parse(img.Document().Resolve(img.AttrOr("src", "")))
		if err != nil || !strings.HasPrefix(u.Path, "/media/") {
			continue
		}
		for _, name := range twitterVariants {
			q := u.Query()
			q.Set("name", name)
			v := *u
			v.RawQuery = q.Encode()
			out = append(out, v.String())
		}
	}
	return uniqueStrings(out)
}
