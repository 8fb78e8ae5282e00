package entity

// OriginType records which DOM signal produced a candidate.
type OriginType string

const (
	OriginImg           OriginType = "img"
	OriginSrcset        OriginType = "srcset"
	OriginPicture       OriginType = "picture"
	OriginCSSBackground OriginType = "css-background"
	OriginCSSMask       OriginType = "css-mask"
	OriginCSSContent    OriginType = "css-content"
	OriginImageSet      OriginType = "image-set"
	OriginLinkHref      OriginType = "link-href"
	OriginDataAttr      OriginType = "data-attr"
	OriginInlineSVG     OriginType = "inline-svg"
	OriginCanvas        OriginType = "canvas"
	OriginVideoPoster   OriginType = "video-poster"
	OriginLazyAttr      OriginType = "lazy-attr"
	OriginDataURL       OriginType = "data-url"
)

func (o OriginType) String() string {
	return string(o)
}

// blobOrigins are the origin types whose blob: URLs survive the final filter.
var blobOrigins = map[OriginType]bool{
	OriginImg:           true,
	OriginSrcset:        true,
	OriginPicture:       true,
	OriginCSSBackground: true,
	OriginCSSMask:       true,
	OriginCSSContent:    true,
	OriginImageSet:      true,
	OriginVideoPoster:   true,
	OriginLazyAttr:      true,
	OriginCanvas:        true,
}

// TrustsBlob reports whether a blob: URL from this origin may be kept.
func (o OriginType) TrustsBlob() bool {
	return blobOrigins[o]
}
