package entity

import "imgscout/internal/domain/dom"

type PierceMethod string

const (
	MethodDirect    PierceMethod = "direct"
	MethodPierced   PierceMethod = "pierced"
	MethodProximity PierceMethod = "proximity"
	MethodContainer PierceMethod = "container"
	MethodFallback  PierceMethod = "fallback"
)

type PiercedResult struct {
	Element       *dom.Element
	Confidence    float64
	Method        PierceMethod
	ImageElements []*dom.Element
}

// ScoredElement is one entry of the ranking behind a PiercedResult.
type ScoredElement struct {
	Element       *dom.Element
	Score         float64
	Index         int
	HasImage      bool
	IsOverlay     bool
	DirectImage   bool
	ImageElements []*dom.Element
}
