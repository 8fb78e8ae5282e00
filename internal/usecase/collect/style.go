package collect

import (
	"imgscout/internal/domain/dom"
	"imgscout/internal/domain/entity"
	"imgscout/internal/usecase/parse"
)

// StyleURL is a URL read from a computed style property.
type StyleURL struct {
	URL      string
	Origin   entity.OriginType
	Pseudo   string
	Property string
}

var pseudoElements = []string{"", "::before", "::after"}

var styleProperties = []struct {
	name   string
	origin entity.OriginType
}{
	{"background-image", entity.OriginCSSBackground},
	{"background", entity.OriginCSSBackground},
	{"mask-image", entity.OriginCSSMask},
	{"-webkit-mask-image", entity.OriginCSSMask},
	{"content", entity.OriginCSSContent},
}

// StyleURLs reads image references from the element's computed style and its
// ::before/::after pseudo-elements. Values coming from image-set() are tagged
// image-set. A style access failure aborts with the error.
func StyleURLs(el *dom.Element) ([]StyleURL, error) {
	var out []StyleURL
	for _, pseudo := range pseudoElements {
		st, err := el.Style(pseudo)
		if err != nil {
			return nil, err
		}
		for _, prop := range styleProperties {
			v := st.Get(prop.name)
			if v == "" || v == "none" {
				continue
			}
			for _, c := range parse.ParseCSSValue(v) {
				origin := prop.origin
				if c.FromImageSet {
					origin = entity.OriginImageSet
				}
				out = append(out, StyleURL{URL: c.URL, Origin: origin, Pseudo: pseudo, Property: prop.name})
			}
		}
	}
	return dedupeStyle(out), nil
}

func dedupeStyle(in []StyleURL) []StyleURL {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s.URL] {
			seen[s.URL] = true
			out = append(out, s)
		}
	}
	return out
}
