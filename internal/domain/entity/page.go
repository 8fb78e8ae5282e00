package entity

type Screenshot struct {
	Data   []byte
	Format string
	Width  int
	Height int
}

type PiercedSummary struct {
	Element    string       `json:"element"`
	Method     PierceMethod `json:"method"`
	Confidence float64      `json:"confidence"`
	Images     []string     `json:"images,omitempty"`
}

// ScanResult is what one page scan produces.
type ScanResult struct {
	BatchID    string           `json:"batchId"`
	PageURL    string           `json:"pageUrl"`
	Handler    string           `json:"handler,omitempty"`
	Images     []ExtractedImage `json:"images"`
	Pierced    *PiercedSummary  `json:"pierced,omitempty"`
	Screenshot *Screenshot      `json:"-"`
	DurationMS int64            `json:"durationMs"`
}
