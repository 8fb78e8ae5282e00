package pierce

import (
	"fmt"
	"math"
	"sort"

	"imgscout/internal/application/port/output"
	"imgscout/internal/domain/dom"
	"imgscout/internal/domain/entity"
	"imgscout/internal/usecase/sites"
)

const (
	proximityConfidence = 0.3
	fallbackConfidence  = 0.1
)

// Piercer ranks the elements under a viewport point and picks the most likely
// image target behind overlays and modals.
type Piercer struct {
	registry *sites.Registry
	logger   output.LoggerPort
}

func New(registry *sites.Registry, logger output.LoggerPort) *Piercer {
	return &Piercer{
		registry: registry,
		logger:   logger,
	}
}

// CandidatesAtPoint returns every element at (x, y) that is not excluded,
// scored and sorted best first. Index keeps the front-to-back position.
func (p *Piercer) CandidatesAtPoint(doc *dom.Document, x, y float64, opts entity.PierceOptions) []entity.ScoredElement {
	if doc == nil {
		return nil
	}
	handler := p.handler(doc)

	var scored []entity.ScoredElement
	for _, el := range doc.ElementsFromPoint(x, y) {
		if skipAtPoint(el) || excluded(el, opts.Exclude) {
			continue
		}
		scored = append(scored, scoreElement(el, len(scored), x, y, handler))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// PierceToImage selects the image target at (x, y), or nil when nothing
// usable is there. It never panics.
func (p *Piercer) PierceToImage(doc *dom.Document, x, y float64, opts entity.PierceOptions) (res *entity.PiercedResult) {
	defer func() {
		if rec := recover(); rec != nil {
			p.logger.Warn("Pierce failed", "x", x, "y", y, "error", fmt.Errorf("panic: %v", rec))
			res = nil
		}
	}()

	scored := p.CandidatesAtPoint(doc, x, y, opts)
	res = selectTarget(scored)
	if res == nil {
		p.logger.Debug("Nothing to pierce", "x", x, "y", y, "elements", len(scored))
		return nil
	}

	if opts.ExpandToContainer && len(scored) > 0 && scored[0].Score > 0 && scored[0].DirectImage {
		if c := expandToContainer(res.Element, opts.ContainerDepth(), doc.Viewport()); c != nil {
			res.Element = c
			res.ImageElements = imagesWithin(c)
		}
	}

	if enh, ok := p.handler(doc).(sites.SelectionEnhancer); ok {
		if el := enh.EnhanceSelection(res.Element); el != nil && el != res.Element {
			res.Element = el
			if imgs := imagesWithin(el); len(imgs) > 0 {
				res.ImageElements = imgs
			}
		}
	}

	p.logger.Debug("Pierced",
		"element", res.Element.String(),
		"method", res.Method,
		"confidence", res.Confidence,
	)
	return res
}

func (p *Piercer) handler(doc *dom.Document) sites.Handler {
	if p.registry == nil {
		return nil
	}
	return p.registry.Active(doc.Hostname())
}

// selectTarget applies the ranking, then the proximity and fallback rules.
func selectTarget(scored []entity.ScoredElement) *entity.PiercedResult {
	if len(scored) == 0 {
		return nil
	}

	if top := scored[0]; top.Score > 0 {
		second := 0.0
		if len(scored) > 1 {
			second = scored[1].Score
		}
		method := entity.MethodContainer
		switch {
		case top.Index == 0:
			method = entity.MethodDirect
		case top.HasImage:
			method = entity.MethodPierced
		}
		return &entity.PiercedResult{
			Element:       top.Element,
			Confidence:    clamp01((top.Score-second)/100 + 0.5),
			Method:        method,
			ImageElements: top.ImageElements,
		}
	}

	byIndex := make([]entity.ScoredElement, len(scored))
	copy(byIndex, scored)
	sort.SliceStable(byIndex, func(i, j int) bool { return byIndex[i].Index < byIndex[j].Index })

	for _, s := range byIndex {
		if s.HasImage || len(s.ImageElements) > 0 {
			return &entity.PiercedResult{
				Element:       s.Element,
				Confidence:    proximityConfidence,
				Method:        entity.MethodProximity,
				ImageElements: s.ImageElements,
			}
		}
	}
	for _, s := range byIndex {
		if !s.IsOverlay {
			return &entity.PiercedResult{
				Element:       s.Element,
				Confidence:    fallbackConfidence,
				Method:        entity.MethodFallback,
				ImageElements: s.ImageElements,
			}
		}
	}
	return nil
}

func skipAtPoint(el *dom.Element) bool {
	switch el.Tag() {
	case "html", "body", "head":
		return true
	}
	return false
}

func excluded(el *dom.Element, selectors []string) bool {
	for _, sel := range selectors {
		if sel != "" && el.Closest(sel) != nil {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
