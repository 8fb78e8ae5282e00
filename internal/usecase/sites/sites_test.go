package sites

import (
	"context"
	"errors"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imgscout/internal/domain/dom"
	"imgscout/internal/domain/entity"
)

type stubHandler struct {
	base
	lookups *atomic.Int32
}

func newStub(name string, priority int, lookups *atomic.Int32, patterns ...string) *stubHandler {
	b := newBase(name, patterns...)
	b.priority = priority
	return &stubHandler{base: b, lookups: lookups}
}

func (s *stubHandler) HostPatterns() []*regexp.Regexp {
	if s.lookups != nil {
		s.lookups.Add(1)
	}
	return s.base.HostPatterns()
}

func (s *stubHandler) ExtractImages(context.Context, Scope) ([]Found, error) { return nil, nil }

func TestRegistry_PriorityAndOrder(t *testing.T) {
	low := newStub("low", 1, nil, `example\.com$`)
	first := newStub("first", 5, nil, `example\.com$`)
	second := newStub("second", 5, nil, `example\.com$`)

	r := NewRegistry(low, first, second)
	assert.Equal(t, "first", r.Active("www.example.com").Name())
	assert.Equal(t, []string{"first", "second", "low"}, names(r.All()))
	assert.Nil(t, r.Active("other.org"))
}

func TestRegistry_CachesByHostname(t *testing.T) {
	var lookups atomic.Int32
	r := NewRegistry(newStub("only", 1, &lookups, `^a\.com$`))

	require.NotNil(t, r.Active("A.com"))
	require.NotNil(t, r.Active("a.com"))
	assert.Equal(t, int32(1), lookups.Load(), "same hostname is served from cache")

	assert.Nil(t, r.Active("b.com"))
	assert.Equal(t, int32(2), lookups.Load(), "hostname change invalidates")

	r.Reset()
	assert.Nil(t, r.Active("b.com"))
	assert.Equal(t, int32(3), lookups.Load(), "reset invalidates")
}

func TestDefaultRegistry_Matching(t *testing.T) {
	r := NewDefaultRegistry()

	tests := map[string]string{
		"www.pinterest.com":   "pinterest",
		"pinterest.co.uk":     "pinterest",
		"x.com":               "twitter",
		"mobile.twitter.com":  "twitter",
		"imgur.com":           "imgur",
		"www.instagram.com":   "instagram",
		"m.facebook.com":      "facebook",
		"www.google.com":      "google-images",
		"images.google.co.jp": "google-images",
	}
	for host, want := range tests {
		h := r.Active(host)
		if assert.NotNil(t, h, host) {
			assert.Equal(t, want, h.Name(), host)
		}
	}
	assert.Nil(t, r.Active("maps.google.com.evil.net"))
	assert.Nil(t, r.Active("example.org"))
}

func TestHandlerDerivation(t *testing.T) {
	tests := []struct {
		name    string
		deriver OriginalDeriver
		in      string
		want    string
	}{
		{"pinterest size class", NewPinterest(), "https://i.pinimg.com/236x/ab/cd/ef/abc.jpg", "https://i.pinimg.com/originals/ab/cd/ef/abc.jpg"},
		{"twitter name", NewTwitter(), "https://pbs.twimg.com/media/Fx1?format=jpg&name=small", "https://pbs.twimg.com/media/Fx1?format=jpg&name=orig"},
		{"twitter colon", NewTwitter(), "https://pbs.twimg.com/media/Fx1.jpg:large", "https://pbs.twimg.com/media/Fx1.jpg:orig"},
		{"twitter profile", NewTwitter(), "https://pbs.twimg.com/profile_images/1/me_normal.jpg", "https://pbs.twimg.com/profile_images/1/me.jpg"},
		{"imgur size letter", NewImgur(), "https://i.imgur.com/AbCdEfGl.jpg", "https://i.imgur.com/AbCdEfG.jpg"},
		{"imgur maxwidth", NewImgur(), "https://i.imgur.com/AbCdEfG.jpg?maxwidth=520", "https://i.imgur.com/AbCdEfG.jpg"},
		{"instagram size", NewInstagram(), "https://scontent.cdninstagram.com/v/t51/s640x640/1_n.jpg?_nc=1", "https://scontent.cdninstagram.com/v/t51/p1080x1080/1_n.jpg?_nc=1"},
		{"facebook crop", NewFacebook(), "https://scontent.xx.fbcdn.net/v/t1/p320x320/c0.0.320.320a/1_n.jpg", "https://scontent.xx.fbcdn.net/v/t1/1_n.jpg"},
		{"google imgres", NewGoogleImages(), "https://www.google.com/imgres?imgurl=https%3A%2F%2Fsite.com%2Fbig.jpg", "https://site.com/big.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.deriver.DeriveOriginalURL(tt.in)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := NewTwitter().DeriveOriginalURL("https://pbs.twimg.com/media/Fx1.jpg")
	assert.False(t, ok)
	_, ok = NewPinterest().DeriveOriginalURL("https://i.pinimg.com/originals/ab/abc.jpg")
	assert.False(t, ok)
	_, ok = NewImgur().DeriveOriginalURL("https://example.com/AbCdEfGl.jpg")
	assert.False(t, ok)
}

func TestPoll(t *testing.T) {
	calls := 0
	err := Poll(context.Background(), time.Second, func(context.Context) (bool, error) {
		calls++
		return calls == 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	start := time.Now()
	err = Poll(context.Background(), 50*time.Millisecond, func(context.Context) (bool, error) { return false, nil })
	assert.ErrorIs(t, err, ErrPollTimeout)
	assert.Less(t, time.Since(start), time.Second)

	boom := errors.New("boom")
	err = Poll(context.Background(), time.Second, func(context.Context) (bool, error) { return false, boom })
	assert.ErrorIs(t, err, boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = Poll(ctx, time.Second, func(context.Context) (bool, error) { return false, nil })
	assert.ErrorIs(t, err, context.Canceled)
}

type sequenceRefresher struct {
	docs  []*dom.Document
	calls int
}

func (s *sequenceRefresher) Refresh(context.Context) (*dom.Document, error) {
	d := s.docs[min(s.calls, len(s.docs)-1)]
	s.calls++
	return d, nil
}

const googleThumb = `<body><div id="viewer"><img class="sFlh5c" src="https://encrypted-tbn0.gstatic.com/images?q=tbn:abc"></div></body>`
const googleLoaded = `<body><div id="viewer"><img class="sFlh5c" src="https://photos.site.com/full.jpg"></div></body>`

func TestGoogleImages_WaitsForViewer(t *testing.T) {
	first := mustParse(t, googleThumb, "https://www.google.com/search?tbm=isch")
	loaded := mustParse(t, googleLoaded, "https://www.google.com/search?tbm=isch")
	ref := &sequenceRefresher{docs: []*dom.Document{first, loaded}}

	found, err := NewGoogleImages().ExtractImages(context.Background(), Scope{Doc: first, Refresher: ref})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "https://photos.site.com/full.jpg", found[0].URL)
	assert.Equal(t, entity.OriginImg, found[0].OriginType)
	assert.Equal(t, 2, ref.calls)
}

func TestGoogleImages_GivesUpAfterBudget(t *testing.T) {
	first := mustParse(t, googleThumb, "https://www.google.com/search?tbm=isch")
	ref := &sequenceRefresher{docs: []*dom.Document{first}}

	start := time.Now()
	found, err := NewGoogleImages().WithWait(40*time.Millisecond).ExtractImages(context.Background(), Scope{Doc: first, Refresher: ref})
	require.NoError(t, err)
	assert.Empty(t, found, "thumbnails are not originals")
	assert.Less(t, time.Since(start), time.Second)
	assert.GreaterOrEqual(t, ref.calls, 1)
}

func TestGoogleImages_WithWaitCopies(t *testing.T) {
	g := NewGoogleImages()
	short := g.WithWait(10 * time.Millisecond)

	assert.NotSame(t, g, short)
	assert.Equal(t, ViewerWait, g.Wait())
	assert.Equal(t, 10*time.Millisecond, short.Wait())
	assert.Equal(t, g.Name(), short.Name())
}

func TestDefaultRegistry_GoogleViewerWait(t *testing.T) {
	find := func(r *Registry) *GoogleImages {
		for _, h := range r.All() {
			if g, ok := h.(*GoogleImages); ok {
				return g
			}
		}
		return nil
	}

	g := find(NewDefaultRegistry(WithGoogleViewerWait(300 * time.Millisecond)))
	require.NotNil(t, g)
	assert.Equal(t, 300*time.Millisecond, g.Wait())

	g = find(NewDefaultRegistry(WithGoogleViewerWait(0)))
	require.NotNil(t, g)
	assert.Equal(t, ViewerWait, g.Wait())
}

func TestGoogleImages_Metadata(t *testing.T) {
	doc := mustParse(t, `<body>
		<a href="/imgres?imgurl=https%3A%2F%2Fa.site.com%2Fa.png&amp;tbnid=1"><img src="data:image/gif;base64,R0lGOD"></a>
		<script>AF_initDataCallback({data:[["https://encrypted-tbn0.gstatic.com/images?q=x",194,259],["https://b.site.com/b.jpg",1080,1920]]});</script>
	</body>`, "https://www.google.com/search")

	g := NewGoogleImages()
	found, err := g.ExtractPageImages(context.Background(), Scope{Doc: doc})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "https://a.site.com/a.png", found[0].URL)
	assert.Equal(t, entity.OriginLinkHref, found[0].OriginType)
	assert.Equal(t, "https://b.site.com/b.jpg", found[1].URL)
	assert.Equal(t, 1920, found[1].Width)
	assert.Equal(t, 1080, found[1].Height)

	assert.Equal(t, []string{"https://b.site.com/b.jpg"}, g.SweepURLs(doc))
}

func TestPinterest_PageState(t *testing.T) {
	doc := mustParse(t, `<body>
		<div data-test-id="pin"><img id="pin" src="https://i.pinimg.com/236x/aa/bb/cc/pin.jpg" srcset="https://i.pinimg.com/236x/aa/bb/cc/pin.jpg 1x, https://i.pinimg.com/736x/aa/bb/cc/pin.jpg 2x"></div>
		<img src="https://other.com/logo.png">
		<script id="__PWS_DATA__" type="application/json">{"props":{"pins":[{"images":{"orig":{"url":"https://i.pinimg.com/originals/dd/state.png"}}}]}}</script>
	</body>`, "https://www.pinterest.com/")

	p := NewPinterest()
	found, err := p.ExtractPageImages(context.Background(), Scope{Doc: doc})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "https://i.pinimg.com/736x/aa/bb/cc/pin.jpg", found[0].URL)
	assert.Equal(t, entity.OriginSrcset, found[0].OriginType)
	assert.Len(t, found[0].SrcsetCandidates, 2)
	assert.Equal(t, "https://i.pinimg.com/originals/dd/state.png", found[1].URL)

	img := doc.QueryOne("#pin")
	card := p.EnhanceSelection(img)
	require.NotNil(t, card)
	assert.Equal(t, "pin", card.AttrOr("data-test-id", ""))
	assert.Contains(t, p.SweepURLs(doc), "https://i.pinimg.com/originals/dd/state.png")
}

func TestInstagram_OverlayAndEnhance(t *testing.T) {
	doc := mustParse(t, `<article><div><div><img id="photo" src="https://scontent.cdninstagram.com/v/s640x640/1_n.jpg"></div><div class="_aagw" id="shield"></div></div></article>`,
		"https://www.instagram.com/p/abc/")
	ig := NewInstagram()

	shield := doc.QueryOne("#shield")
	assert.True(t, ig.IsOverlayElement(shield))
	img := ig.EnhanceSelection(shield)
	require.NotNil(t, img)
	assert.Equal(t, "photo", img.ID())

	found, err := ig.ExtractImages(context.Background(), Scope{Doc: doc})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, 4, found[0].Priority)
}

func TestTwitter_AlternativeURLs(t *testing.T) {
	doc := mustParse(t, `<div data-testid="tweetPhoto"><img id="m" src="https://pbs.twimg.com/media/Fx1?format=jpg&amp;name=small"></div>`, "https://x.com/u/status/1")
	tw := NewTwitter()

	alts := tw.AlternativeURLs(doc.QueryOne("#m"))
	assert.Equal(t, []string{
		"https://pbs.twimg.com/media/Fx1?format=jpg&name=orig",
		"https://pbs.twimg.com/media/Fx1?format=jpg&name=4096x4096",
		"https://pbs.twimg.com/media/Fx1?format=jpg&name=large",
	}, alts)

	enhanced := tw.EnhanceSelection(doc.QueryOne("#m"))
	require.NotNil(t, enhanced)
	assert.Equal(t, "tweetPhoto", enhanced.AttrOr("data-testid", ""))
}

func mustParse(t *testing.T, src, pageURL string) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(src, pageURL)
	require.NoError(t, err)
	return doc
}

func names(hs []Handler) []string {
	out := make([]string, 0, len(hs))
	for _, h := range hs {
		out = append(out, h.Name())
	}
	return out
}
