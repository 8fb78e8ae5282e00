package entity

// Point is a viewport coordinate in CSS pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ScanRequest describes one page scan. Exactly one of HTML, File or URL is
// the source; HTML and File are parsed statically, URL needs a browser.
type ScanRequest struct {
	HTML    string
	File    string
	URL     string
	PageURL string // base for HTML and File sources

	Selector string
	Extract  ExtractOptions

	PierceAt *Point
	Pierce   PierceOptions

	Screenshot bool
	Snapshot   SnapshotOptions
}

func (r ScanRequest) Source() string {
	switch {
	case r.HTML != "":
		return "html"
	case r.File != "":
		return "file"
	case r.URL != "":
		return "url"
	}
	return ""
}

type BatchItem struct {
	Page   string      `json:"page"`
	Result *ScanResult `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}
