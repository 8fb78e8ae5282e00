package parse

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

var (
	imageExtPattern   = regexp.MustCompile(`(?i)\.(?:jpe?g|jfif|pjpeg|png|gif|webp|avif|bmp|svg|tiff?|heic|heif|ico)(?:[?#:@&]|$)`)
	imageQueryPattern = regexp.MustCompile(`(?i)[?&](?:format|fm|ext|f|type)=(?:jpe?g|jfif|png|gif|webp|avif|bmp)(?:&|#|$)`)
	imageHostPattern  = regexp.MustCompile(`(?i)^https?://[^/]*(?:googleusercontent\.com|ggpht\.com|gstatic\.com/images|pbs\.twimg\.com/media|i\.pinimg\.com|cdninstagram\.com|fbcdn\.net)`)
	colonSuffix       = regexp.MustCompile(`:[a-z]+$`)
)

// allowedExtensions is the final allow-list. gif and svg are deliberately absent.
var allowedExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "jfif": true, "png": true, "webp": true, "avif": true,
}

var formatParams = []string{"format", "fm", "ext", "f", "type"}

// Canonicalize resolves raw against base and drops the fragment. data: and blob:
// URIs are returned untouched; anything unparsable is returned as given.
func Canonicalize(raw, base string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return raw
	}
	if IsDataURL(s) || IsBlobURL(s) {
		return s
	}
	if strings.HasPrefix(s, "//") && base == "" {
		s = "https:" + s
	}

	ref, err := url.Parse(s)
	if err != nil {
		return raw
	}
	if base != "" && !ref.IsAbs() {
		b, err := url.Parse(base)
		if err != nil {
			return raw
		}
		ref = b.ResolveReference(ref)
	}
	ref.Fragment = ""
	ref.RawFragment = ""
	return ref.String()
}

func IsDataURL(s string) bool {
	return len(s) >= 5 && strings.EqualFold(s[:5], "data:")
}

func IsBlobURL(s string) bool {
	return len(s) >= 5 && strings.EqualFold(s[:5], "blob:")
}

// LooksLikeImageURL is the loose check used while collecting: an image file
// extension, a format query parameter, a data:image URI or a known image CDN.
func LooksLikeImageURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if IsDataURL(s) {
		return strings.HasPrefix(strings.ToLower(s), "data:image/")
	}
	if imageQueryPattern.MatchString(s) || imageHostPattern.MatchString(s) {
		return true
	}
	u, err := url.Parse(s)
	if err != nil {
		return imageExtPattern.MatchString(s)
	}
	return imageExtPattern.MatchString(u.Path)
}

// Extension returns the lower-case image extension of a URL, from the path
// or from a format-like query parameter.
func Extension(s string) string {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return ""
	}
	p := colonSuffix.ReplaceAllString(u.Path, "")
	if ext := strings.TrimPrefix(strings.ToLower(path.Ext(p)), "."); ext != "" {
		return ext
	}
	q := u.Query()
	for _, key := range formatParams {
		if v := strings.ToLower(strings.TrimSpace(q.Get(key))); v != "" {
			return v
		}
	}
	return ""
}

// HasAllowedExtension reports whether the URL passes the final extension allow-list.
func HasAllowedExtension(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	p := colonSuffix.ReplaceAllString(u.Path, "")
	if ext := strings.TrimPrefix(strings.ToLower(path.Ext(p)), "."); allowedExtensions[ext] {
		return true
	}
	q := u.Query()
	for _, key := range formatParams {
		if allowedExtensions[strings.ToLower(strings.TrimSpace(q.Get(key)))] {
			return true
		}
	}
	return false
}

// IsSVG matches .svg paths, svg format parameters and image/svg+xml data URIs.
func IsSVG(s string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	if IsDataURL(lower) {
		return strings.HasPrefix(lower, "data:image/svg")
	}
	if strings.Contains(lower, "svg+xml") {
		return true
	}
	return Extension(lower) == "svg"
}

// FilenameHint guesses a file name from the last path segment.
func FilenameHint(s string) string {
	if IsDataURL(s) || IsBlobURL(s) {
		return ""
	}
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return ""
	}
	seg := path.Base(colonSuffix.ReplaceAllString(u.Path, ""))
	if seg == "." || seg == "/" {
		return ""
	}
	if unescaped, err := url.PathUnescape(seg); err == nil {
		seg = unescaped
	}
	if path.Ext(seg) == "" {
		q := u.Query()
		for _, key := range formatParams {
			if v := strings.ToLower(q.Get(key)); allowedExtensions[v] {
				return seg + "." + v
			}
		}
	}
	return seg
}
