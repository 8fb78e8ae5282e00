package pierce

import (
	"imgscout/internal/domain/dom"
)

const (
	maxContainerImages   = 3
	maxContainerChildren = 3
	minImageRatio        = 0.5
	maxViewportShare     = 0.9
)

const containerTagSelector = `article, figure, [class*="image"], [class*="photo"], [class*="img"], [class*="media"], [class*="card"], [class*="pin"]`

// expandToContainer climbs at most depth ancestors of img and returns the
// best-scoring one holding no more than three images, or nil.
func expandToContainer(img *dom.Element, depth int, vp dom.Viewport) *dom.Element {
	imgArea := 0.0
	if r, ok := img.Rect(); ok {
		imgArea = r.Area()
	}
	maxArea := vp.Width * vp.Height * maxViewportShare

	var best *dom.Element
	bestScore := 0
	el := img.Parent()
	for i := 0; i < depth && el != nil; i, el = i+1, el.Parent() {
		if tag := el.Tag(); tag == "body" || tag == "html" {
			break
		}
		images := imagesWithin(el)
		if len(images) > maxContainerImages {
			continue
		}

		score := 0
		if el.Matches(containerTagSelector) {
			score += 3
		}
		children := el.ChildCount()
		if children <= maxContainerChildren {
			score += 2
		} else if float64(len(images))/float64(children) >= minImageRatio {
			score++
		}
		if r, ok := el.Rect(); ok && r.Area() >= imgArea && r.Area() <= maxArea {
			score += 2
		}

		if score > bestScore {
			best, bestScore = el, score
		}
	}
	return best
}

// imagesWithin returns el itself when it is an image, else its image descendants.
func imagesWithin(el *dom.Element) []*dom.Element {
	if isDirectImage(el) {
		return []*dom.Element{el}
	}
	return el.Find(imageSelector)
}
