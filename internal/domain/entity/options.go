package entity

import (
	"math"
	"time"
)

const maxViewportPadding = 500

type ExtractOptions struct {
	DeepScan        bool     `json:"deepScan" yaml:"deepScan"`
	VisibleOnly     bool     `json:"visibleOnly" yaml:"visibleOnly"`
	ViewportPadding *float64 `json:"viewportPadding,omitempty" yaml:"viewportPadding,omitempty"`
	IncludeDataURLs bool     `json:"includeDataUrls" yaml:"includeDataUrls"`
	IncludeBlobURLs bool     `json:"includeBlobUrls" yaml:"includeBlobUrls"`
}

// Padding returns the configured padding or min(500, 25% of the viewport height).
func (o ExtractOptions) Padding(viewportHeight float64) float64 {
	if o.ViewportPadding != nil {
		return math.Max(0, *o.ViewportPadding)
	}
	return math.Min(maxViewportPadding, viewportHeight*0.25)
}

// WithPadding is a helper for literal options.
func WithPadding(px float64) *float64 {
	return &px
}

const DefaultMaxContainerDepth = 3

type PierceOptions struct {
	// Exclude lists selectors of elements to ignore at the point (the caller's own overlay).
	Exclude           []string
	ExpandToContainer bool
	MaxContainerDepth int
}

func (o PierceOptions) ContainerDepth() int {
	if o.MaxContainerDepth <= 0 {
		return DefaultMaxContainerDepth
	}
	return o.MaxContainerDepth
}

// SnapshotOptions tunes a live capture. AwaitDecode waits up to DecodeBudget
// for pending images to decode so natural sizes are known.
type SnapshotOptions struct {
	AwaitDecode  bool
	DecodeBudget time.Duration
}
