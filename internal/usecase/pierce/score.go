package pierce

import (
	"math"
	"regexp"
	"strings"

	"imgscout/internal/domain/dom"
	"imgscout/internal/domain/entity"
	"imgscout/internal/usecase/collect"
	"imgscout/internal/usecase/parse"
	"imgscout/internal/usecase/sites"
)

// Scoring rubric.
const (
	weightDirectImage  = 100
	weightBackground   = 60
	weightLazy         = 20
	weightContainerSel = 15
	weightNestedImages = 30
	weightCentered     = 15
	maxAreaBonus       = 25
	areaPerPoint       = 5000
	centerRadius       = 50

	zIndexHigh       = 1000
	zIndexVeryHigh   = 10000
	penaltyZHigh     = -20
	penaltyZVeryHigh = -40
	penaltyControl   = -200
	penaltyOverlay   = -50
)

const (
	imageSelector     = "img, picture, canvas, video[poster]"
	containerSelector = `figure, picture, article, [class*="image"], [class*="Image"], [class*="photo"], [class*="Photo"], [class*="img"], [class*="media"], [class*="gallery"], [class*="thumb"], [data-testid*="photo"], [data-testid*="image"]`
)

var (
	controlWords = regexp.MustCompile(`(?i)(?:^|[\s_-])(?:close|next|prev|previous|like|share|dismiss)(?:$|[\s_-])`)
	overlayWords = regexp.MustCompile(`(?i)overlay|modal|backdrop|scrim|lightbox-mask|curtain|shade|veil`)
)

func scoreElement(el *dom.Element, index int, x, y float64, handler sites.Handler) entity.ScoredElement {
	s := entity.ScoredElement{Element: el, Index: index}
	st, err := el.Style("")
	if err != nil {
		st = dom.Style{}
	}

	s.DirectImage = isDirectImage(el)
	hasBackground := backgroundURL(st) != ""
	hasLazy := len(collect.LazyAttributeURLs(el)) > 0
	s.HasImage = s.DirectImage || hasBackground || hasLazy

	var score float64
	if s.DirectImage {
		score += weightDirectImage
		s.ImageElements = []*dom.Element{el}
	}
	if hasBackground {
		score += weightBackground
		if !s.DirectImage {
			s.ImageElements = []*dom.Element{el}
		}
	}
	if hasLazy {
		score += weightLazy
	}
	if el.Matches(containerSelector) {
		score += weightContainerSel
	}
	if !s.DirectImage {
		if nested := nestedImagesAt(el, x, y); len(nested) > 0 {
			score += weightNestedImages
			if len(s.ImageElements) == 0 {
				s.ImageElements = nested
			}
		}
	}

	if rect, ok := el.Rect(); ok {
		score += math.Min(rect.Area()/areaPerPoint, maxAreaBonus)
		cx, cy := rect.Center()
		if math.Hypot(cx-x, cy-y) <= centerRadius {
			score += weightCentered
		}
	}

	switch z := st.ZIndex(); {
	case z > zIndexVeryHigh:
		score += penaltyZVeryHigh
	case z > zIndexHigh:
		score += penaltyZHigh
	}

	switch {
	case isOverlayControl(el) || handlerOverlay(handler, el):
		s.IsOverlay = true
		score += penaltyControl
	case isGeneralOverlay(el):
		s.IsOverlay = true
		if !containsDirectImage(el) {
			score += penaltyOverlay
		}
	}

	s.Score = score
	return s
}

func isDirectImage(el *dom.Element) bool {
	switch el.Tag() {
	case "img":
		return el.AttrOr("src", "") != "" || el.AttrOr("srcset", "") != "" || el.CurrentSrc() != ""
	case "picture", "canvas":
		return true
	case "video":
		return strings.TrimSpace(el.AttrOr("poster", "")) != ""
	}
	return false
}

func backgroundURL(st dom.Style) string {
	for _, prop := range []string{"background-image", "background"} {
		for _, u := range parse.CSSURLs(st.Get(prop)) {
			if u != "" {
				return u
			}
		}
	}
	return ""
}

// nestedImagesAt lists image descendants, narrowed to those under the point
// when layout says so.
func nestedImagesAt(el *dom.Element, x, y float64) []*dom.Element {
	all := el.Find(imageSelector)
	var under []*dom.Element
	for _, img := range all {
		if r, ok := img.Rect(); ok && r.Contains(x, y) {
			under = append(under, img)
		}
	}
	if len(under) > 0 {
		return under
	}
	return all
}

func containsDirectImage(el *dom.Element) bool {
	for _, child := range el.Children() {
		if isDirectImage(child) {
			return true
		}
	}
	return false
}

func isOverlayControl(el *dom.Element) bool {
	label := strings.Join([]string{el.AttrOr("aria-label", ""), el.AttrOr("title", ""), el.AttrOr("class", "")}, " ")
	if controlWords.MatchString(label) {
		return true
	}
	if el.Tag() == "button" || el.AttrOr("role", "") == "button" {
		return controlWords.MatchString(strings.TrimSpace(el.Text()))
	}
	return false
}

func isGeneralOverlay(el *dom.Element) bool {
	return overlayWords.MatchString(el.AttrOr("class", "")) || overlayWords.MatchString(el.ID())
}

func handlerOverlay(h sites.Handler, el *dom.Element) bool {
	od, ok := h.(sites.OverlayDetector)
	return ok && od.IsOverlayElement(el)
}
