package derive

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"imgscout/internal/usecase/parse"
)

// Deriver is implemented by site handlers that know their CDN's URL grammar.
type Deriver interface {
	DeriveOriginalURL(raw string) (string, bool)
}

const (
	minSizeParam = 2048
	qualityParam = 95
	dprParam     = 2
)

var (
	pinimgSizeSegment = regexp.MustCompile(`^/(\d+x\d*(?:_[a-zA-Z]+)?)/`)
	googleSizeSuffix  = regexp.MustCompile(`=(?:[wsh]\d+[^/?#]*|w\d+-h\d+[^/?#]*)$`)
	wpSizeSuffix      = regexp.MustCompile(`-\d{2,5}x\d{2,5}(\.(?i:jpe?g|png|webp|avif|gif))$`)
	cloudinaryUpload  = regexp.MustCompile(`(/image/upload/)((?:[a-z]{1,4}_[^/]+/)+)`)
)

var (
	sizeKeys    = map[string]bool{"w": true, "width": true, "h": true, "height": true, "maxwidth": true, "maxheight": true, "mw": true, "mh": true}
	qualityKeys = map[string]bool{"q": true, "quality": true, "qlt": true}
	dprKeys     = map[string]bool{"dpr": true}
)

// DeriveOriginalURL rewrites a URL into a presumed higher-resolution variant.
// Rewrites are structural only; the result is never fetched.
func DeriveOriginalURL(raw string) (string, bool) {
	if raw == "" || parse.IsDataURL(raw) || parse.IsBlobURL(raw) {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}

	for _, rewrite := range []func(*url.URL) (string, bool){
		pinimgOriginal,
		bumpQueryParams,
		stripSizeSuffix,
		stripCloudinaryTransforms,
	} {
		if out, ok := rewrite(u); ok && out != raw {
			return out, true
		}
	}
	return "", false
}

// Resolve prefers the handler's derivation and falls back to the generic one.
func Resolve(d Deriver, raw string) (string, bool) {
	if d != nil {
		if out, ok := d.DeriveOriginalURL(raw); ok && out != "" && out != raw {
			return out, true
		}
	}
	return DeriveOriginalURL(raw)
}

func pinimgOriginal(u *url.URL) (string, bool) {
	if !strings.HasSuffix(strings.ToLower(u.Hostname()), "pinimg.com") {
		return "", false
	}
	m := pinimgSizeSegment.FindStringSubmatch(u.Path)
	if m == nil {
		return "", false
	}
	c := *u
	c.Path = "/originals/" + strings.TrimPrefix(u.Path, "/"+m[1]+"/")
	c.RawPath = ""
	return c.String(), true
}

// bumpQueryParams raises size, quality and dpr parameters that are already
// present. Parameter order and untouched values are preserved.
func bumpQueryParams(u *url.URL) (string, bool) {
	if u.RawQuery == "" {
		return "", false
	}
	parts := strings.Split(u.RawQuery, "&")
	changed := false
	for i, part := range parts {
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		lk := strings.ToLower(key)
		var floor int
		switch {
		case sizeKeys[lk]:
			floor = minSizeParam
		case qualityKeys[lk]:
			floor = qualityParam
		case dprKeys[lk]:
			floor = dprParam
		default:
			continue
		}
		n, err := strconv.ParseFloat(val, 64)
		if err != nil || n >= float64(floor) {
			continue
		}
		parts[i] = key + "=" + strconv.Itoa(floor)
		changed = true
	}
	if !changed {
		return "", false
	}
	c := *u
	c.RawQuery = strings.Join(parts, "&")
	return c.String(), true
}

func stripSizeSuffix(u *url.URL) (string, bool) {
	c := *u
	switch {
	case googleSizeSuffix.MatchString(u.Path):
		c.Path = googleSizeSuffix.ReplaceAllString(u.Path, "")
	case strings.Contains(u.Path, "/wp-content/") && wpSizeSuffix.MatchString(u.Path):
		c.Path = wpSizeSuffix.ReplaceAllString(u.Path, "$1")
	default:
		return "", false
	}
	c.RawPath = ""
	out := c.String()
	if !parse.LooksLikeImageURL(out) {
		return "", false
	}
	return out, true
}

func stripCloudinaryTransforms(u *url.URL) (string, bool) {
	if !cloudinaryUpload.MatchString(u.Path) {
		return "", false
	}
	c := *u
	c.Path = cloudinaryUpload.ReplaceAllString(u.Path, "$1")
	c.RawPath = ""
	return c.String(), true
}
