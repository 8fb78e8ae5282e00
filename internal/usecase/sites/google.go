package sites

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"imgscout/internal/domain/dom"
	"imgscout/internal/domain/entity"
	"imgscout/internal/usecase/parse"
	"imgscout/internal/usecase/scoring"
)

// ViewerWait bounds how long the image viewer gets to swap its thumbnail for
// the full image.
const ViewerWait = 1500 * time.Millisecond

const (
	googleViewerImage = `img.sFlh5c, img.iPVvYb, img.n3VNCb, img.r48jcc, [jsname="kn3ccd"] img, [jsname="HiaYvf"]`
	googleOverlay     = `[aria-label="Close"], [aria-label="Share"], [aria-label="Save"], [aria-label="More actions"], [jsname="tqp7ud"]`
	googleResult      = `div[data-ri], div[jsname="dTDiAc"], div.isv-r`
)

// Result metadata embeds the original as ["https://...",height,width].
var googleMetadataURL = regexp.MustCompile(`\["(https?://[^"]+)",(\d+),(\d+)\]`)

var googleUnescape = strings.NewReplacer(`\u003d`, "=", `\u0026`, "&", `\u003D`, "=", `\/`, "/")

var (
	_ PageExtractor          = (*GoogleImages)(nil)
	_ OriginalDeriver        = (*GoogleImages)(nil)
	_ OverlayDetector        = (*GoogleImages)(nil)
	_ SelectionEnhancer      = (*GoogleImages)(nil)
	_ AlternativeURLProvider = (*GoogleImages)(nil)
	_ URLSweeper             = (*GoogleImages)(nil)
)

// GoogleImages handles the search-engine image viewer. The viewer first shows
// the cached thumbnail and replaces it once the source image loads, so the
// handler polls the page for a bounded time.
type GoogleImages struct {
	base
	wait time.Duration
}

func NewGoogleImages() *GoogleImages {
	return &GoogleImages{
		base: newBase("google-images", `^(www\.|images\.)?google\.[a-z]{2,3}(\.[a-z]{2})?$`),
		wait: ViewerWait,
	}
}

// WithWait returns a copy with another viewer wait budget.
func (g *GoogleImages) WithWait(d time.Duration) *GoogleImages {
	cp := *g
	cp.wait = d
	return &cp
}

func (g *GoogleImages) Wait() time.Duration { return g.wait }

func (g *GoogleImages) ExtractImages(ctx context.Context, scope Scope) ([]Found, error) {
	doc := scope.Doc
	root := scope.Container()

	if scope.Refresher != nil && g.viewerPending(root) {
		err := Poll(ctx, g.wait, func(ctx context.Context) (bool, error) {
			if !g.viewerPending(root) {
				return true, nil
			}
			fresh, err := scope.Refresher.Refresh(ctx)
			if err != nil {
				return false, err
			}
			doc = fresh
			root = rebind(fresh, scope.Root)
			return !g.viewerPending(root), nil
		})
		if err != nil && !errors.Is(err, ErrPollTimeout) {
			return nil, err
		}
	}

	var out []Found
	for _, img := range viewerImages(root) {
		src := img.Document().Resolve(img.AttrOr("src", ""))
		if isGoogleThumbnail(src) {
			continue
		}
		out = append(out, foundImage(img, src, entity.OriginImg, 5))
	}
	for _, a := range anchorsIn(root) {
		for _, u := range scoring.ExtractLinkedImageURLs(a.AttrOr("href", ""), doc.BaseURL()) {
			out = append(out, Found{Candidate: entity.Candidate{URL: u, OriginType: entity.OriginLinkHref, Priority: 5}, Element: a})
		}
	}
	return dedupeFound(out), nil
}

// ExtractPageImages adds every original listed in the result metadata.
func (g *GoogleImages) ExtractPageImages(ctx context.Context, scope Scope) ([]Found, error) {
	out, err := g.ExtractImages(ctx, scope)
	if err != nil {
		return nil, err
	}
	for _, script := range scope.Doc.QueryAll("script") {
		for _, m := range metadataMatches(script.Text()) {
			out = append(out, Found{Candidate: entity.Candidate{
				URL:        m.url,
				OriginType: entity.OriginDataAttr,
				Priority:   4,
				Width:      m.width,
				Height:     m.height,
				Quality:    float64(m.width * m.height),
			}})
		}
	}
	return dedupeFound(out), nil
}

// DeriveOriginalURL unwraps /imgres links to the imgurl they point at.
func (g *GoogleImages) DeriveOriginalURL(raw string) (string, bool) {
	if !strings.Contains(raw, "/imgres") {
		return "", false
	}
	urls := scoring.ExtractLinkedImageURLs(raw, "")
	if len(urls) == 0 || urls[0] == raw {
		return "", false
	}
	return urls[0], true
}

func (g *GoogleImages) IsOverlayElement(el *dom.Element) bool {
	return el.Matches(googleOverlay)
}

// EnhanceSelection maps a click on a result tile to its thumbnail image.
func (g *GoogleImages) EnhanceSelection(el *dom.Element) *dom.Element {
	tile := firstMatchingAncestor(el, googleResult)
	if tile == nil {
		return nil
	}
	if imgs := tile.Find("img"); len(imgs) > 0 {
		return imgs[0]
	}
	return nil
}

// AlternativeURLs returns the linked original of a result tile.
func (g *GoogleImages) AlternativeURLs(el *dom.Element) []string {
	var out []string
	for _, a := range anchorsIn(el) {
		out = append(out, scoring.ExtractLinkedImageURLs(a.AttrOr("href", ""), el.Document().BaseURL())...)
	}
	return uniqueStrings(out)
}

func (g *GoogleImages) SweepURLs(doc *dom.Document) []string {
	var out []string
	for _, script := range doc.QueryAll("script") {
		for _, m := range metadataMatches(script.Text()) {
			out = append(out, m.url)
		}
	}
	return uniqueStrings(out)
}

func (g *GoogleImages) viewerPending(root *dom.Element) bool {
	imgs := viewerImages(root)
	if len(imgs) == 0 {
		return false
	}
	for _, img := range imgs {
		if !isGoogleThumbnail(img.AttrOr("src", "")) {
			return false
		}
	}
	return true
}

func viewerImages(root *dom.Element) []*dom.Element {
	if root == nil {
		return nil
	}
	var out []*dom.Element
	if root.Matches(googleViewerImage) && root.Tag() == "img" {
		out = append(out, root)
	}
	for _, el := range root.Find(googleViewerImage) {
		if el.Tag() == "img" {
			out = append(out, el)
		}
	}
	return out
}

func anchorsIn(root *dom.Element) []*dom.Element {
	if root == nil {
		return nil
	}
	var out []*dom.Element
	if a := root.Closest("a[href]"); a != nil {
		out = append(out, a)
	}
	return append(out, root.Find("a[href]")...)
}

// isGoogleThumbnail is true for the cached tbn thumbnails and inline previews.
func isGoogleThumbnail(src string) bool {
	src = strings.TrimSpace(src)
	if src == "" || parse.IsDataURL(src) {
		return true
	}
	return strings.Contains(src, "encrypted-tbn") || hostHasSuffix(src, "gstatic.com")
}

// rebind finds the refreshed counterpart of an element by snapshot id.
func rebind(doc *dom.Document, el *dom.Element) *dom.Element {
	if el != nil {
		if id := el.SnapshotID(); id != "" {
			if fresh := doc.ByID(id); fresh != nil {
				return fresh
			}
		}
	}
	if body := doc.Body(); body != nil {
		return body
	}
	return doc.DocumentElement()
}

type metadataURL struct {
	url           string
	width, height int
}

func metadataMatches(text string) []metadataURL {
	if !strings.Contains(text, `",`) {
		return nil
	}
	text = googleUnescape.Replace(text)
	var out []metadataURL
	for _, m := range googleMetadataURL.FindAllStringSubmatch(text, -1) {
		u := m[1]
		if isGoogleThumbnail(u) || !parse.LooksLikeImageURL(u) {
			continue
		}
		h, _ := strconv.Atoi(m[2])
		w, _ := strconv.Atoi(m[3])
		out = append(out, metadataURL{url: u, width: w, height: h})
	}
	return out
}
