package sites

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"imgscout/internal/domain/entity"
)

// An i.imgur.com file name is a 7 character id, optionally followed by one
// size letter (s, b, t, m, l, h) before the extension.
var imgurSized = regexp.MustCompile(`^/([A-Za-z0-9]{7})[sbtmlh]\.((?i:jpe?g|png|gif|webp))$`)

var imgurSizeParams = []string{"maxwidth", "maxheight", "fidelity", "shape"}

var _ OriginalDeriver = (*Imgur)(nil)
var _ PageExtractor = (*Imgur)(nil)

type Imgur struct {
	base
}

func NewImgur() *Imgur {
	return &Imgur{base: newBase("imgur", `(^|\.)imgur\.com$`)}
}

func (i *Imgur) ExtractImages(_ context.Context, scope Scope) ([]Found, error) {
	var out []Found
	for _, img := range imagesIn(scope.Container()) {
		raw, origin, _ := largestImageURL(img)
		if !hostHasSuffix(img.Document().Resolve(raw), "i.imgur.com") {
			continue
		}
		out = append(out, foundImage(img, raw, origin, 4))
	}
	return dedupeFound(out), nil
}

// ExtractPageImages also reads the post's og:image, which points at the full file.
func (i *Imgur) ExtractPageImages(ctx context.Context, scope Scope) ([]Found, error) {
	out, err := i.ExtractImages(ctx, scope)
	if err != nil {
		return nil, err
	}
	for _, meta := range scope.Doc.QueryAll(`meta[property="og:image"], meta[name="twitter:image"]`) {
		if v := strings.TrimSpace(meta.AttrOr("content", "")); hostHasSuffix(v, "i.imgur.com") {
			out = append(out, Found{Candidate: entity.Candidate{URL: v, OriginType: entity.OriginLinkHref, Priority: 5}})
		}
	}
	return dedupeFound(out), nil
}

func (i *Imgur) DeriveOriginalURL(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !strings.EqualFold(u.Hostname(), "i.imgur.com") {
		return "", false
	}

	changed := false
	if m := imgurSized.FindStringSubmatch(u.Path); m != nil {
		u.Path = "/" + m[1] + "." + m[2]
		changed = true
	}
	if u.RawQuery != "" {
		q := u.Query()
		for _, key := range imgurSizeParams {
			if q.Has(key) {
				q.Del(key)
				changed = true
			}
		}
		u.RawQuery = q.Encode()
	}
	if !changed {
		return "", false
	}
	u.RawPath = ""
	return u.String(), true
}
