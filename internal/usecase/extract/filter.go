package extract

import (
	"bytes"
	"fmt"
	"hash/fnv"

	"github.com/disintegration/imaging"

	"imgscout/internal/domain/dom"
	"imgscout/internal/domain/entity"
	"imgscout/internal/usecase/parse"
)

const idPrefixLen = 64

var allowedDataMIMEs = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/avif": true,
}

// allowed is the final allow-list.
func (r *run) allowed(u string, origin entity.OriginType) bool {
	switch {
	case parse.IsDataURL(u):
		return r.opts.IncludeDataURLs && !parse.IsSVG(u) && allowedDataMIMEs[parse.DataURLMIME(u)]
	case parse.IsBlobURL(u):
		return r.opts.IncludeBlobURLs && origin.TrustsBlob()
	case parse.IsSVG(u):
		return false
	default:
		return parse.HasAllowedExtension(u)
	}
}

// visible applies the viewport filter. Elements without layout facts pass.
func (r *run) visible(el *dom.Element) bool {
	if st, err := el.Style(""); err == nil {
		if st.Get("display") == "none" {
			return false
		}
		if v := st.Get("visibility"); v == "hidden" || v == "collapse" {
			return false
		}
		if st.Opacity() <= 0.01 {
			return false
		}
	}

	rect, ok := el.Rect()
	if !ok {
		return true
	}
	if rect.Width <= 0 || rect.Height <= 0 {
		return false
	}
	vp := el.Document().Viewport()
	if rect.Bottom() < -r.padding || rect.Y > vp.Height+r.padding {
		return false
	}
	if rect.Right() < -r.padding || rect.X > vp.Width+r.padding {
		return false
	}
	return true
}

func displayNone(el *dom.Element) bool {
	st, err := el.Style("")
	return err == nil && st.Get("display") == "none"
}

// finalize filters, names data URLs and deduplicates, first occurrence wins.
func (r *run) finalize() []entity.ExtractedImage {
	out := make([]entity.ExtractedImage, 0, len(r.items))
	seen := make(map[string]bool, len(r.items))
	for _, img := range r.items {
		if !r.allowed(img.URL, img.OriginType) {
			continue
		}
		if img.IsDataURL && img.FilenameHint == "" {
			img.FilenameHint = parse.DataURLFilename(img.URL)
		}
		if seen[img.URL] {
			continue
		}
		seen[img.URL] = true
		out = append(out, img)
	}

	for i := range out {
		out[i].ID = itemID(i, out[i].URL)
		if out[i].IsDataURL && (out[i].Width == 0 || out[i].Height == 0) {
			if w, h, ok := dataURLSize(out[i].URL); ok {
				out[i].Width, out[i].Height = w, h
			}
		}
	}
	return out
}

func itemID(index int, url string) string {
	prefix := url
	if len(prefix) > idPrefixLen {
		prefix = prefix[:idPrefixLen]
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(prefix))
	return fmt.Sprintf("img-%d-%08x", index, h.Sum32())
}

func dataURLSize(u string) (int, int, bool) {
	payload, err := parse.DecodeDataURL(u)
	if err != nil {
		return 0, 0, false
	}
	img, err := imaging.Decode(bytes.NewReader(payload))
	if err != nil {
		return 0, 0, false
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), true
}
