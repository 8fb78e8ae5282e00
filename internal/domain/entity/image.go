package entity

// ExtractedImage is one finalized result of an extraction call.
type ExtractedImage struct {
	ID               string     `json:"id"`
	URL              string     `json:"url"`
	OriginType       OriginType `json:"originType"`
	Width            int        `json:"width,omitempty"`
	Height           int        `json:"height,omitempty"`
	FilenameHint     string     `json:"filenameHint,omitempty"`
	IsDataURL        bool       `json:"isDataUrl"`
	IsInlineSVG      bool       `json:"isInlineSVG"`
	IsCanvas         bool       `json:"isCanvas"`
	SrcsetCandidates []string   `json:"srcsetCandidates,omitempty"`
	LazyHint         bool       `json:"lazyHint"`
	PageX            float64    `json:"pageX"`
	PageY            float64    `json:"pageY"`
}

// Candidate is a provisional URL found on one element, before selection.
type Candidate struct {
	URL              string
	OriginType       OriginType
	Priority         int
	Quality          float64
	LazyHint         bool
	SrcsetCandidates []string
	Width            int
	Height           int
}
