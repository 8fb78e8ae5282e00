package scoring

import (
	"net/url"
	"strings"

	"imgscout/internal/usecase/parse"
)

var linkedImageParams = []string{"url", "imgurl", "image", "media", "photo", "src", "u", "uri", "href"}

const maxUnescapeRounds = 3

// ExtractLinkedImageURLs unwraps an href. Image URLs are returned as they are;
// otherwise well-known query parameters are searched for a nested image URL.
func ExtractLinkedImageURLs(href, base string) []string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return nil
	}
	if parse.LooksLikeImageURL(href) {
		return []string{href}
	}

	u, err := url.Parse(parse.Canonicalize(href, base))
	if err != nil {
		return nil
	}
	q := u.Query()

	var (
		out  []string
		seen = map[string]bool{}
	)
	for _, key := range linkedImageParams {
		for _, v := range q[key] {
			v = unescapeRepeated(v)
			if !isNestedURL(v) || !parse.LooksLikeImageURL(v) {
				continue
			}
			abs := parse.Canonicalize(v, u.String())
			if !seen[abs] {
				seen[abs] = true
				out = append(out, abs)
			}
		}
	}
	return out
}

func unescapeRepeated(v string) string {
	for i := 0; i < maxUnescapeRounds && strings.Contains(v, "%"); i++ {
		next, err := url.QueryUnescape(v)
		if err != nil || next == v {
			break
		}
		v = next
	}
	return strings.TrimSpace(v)
}

func isNestedURL(v string) bool {
	lower := strings.ToLower(v)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "//") || strings.HasPrefix(lower, "/")
}
