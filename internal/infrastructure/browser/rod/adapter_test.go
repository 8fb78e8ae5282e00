package rod

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imgscout/internal/domain/entity"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, image.NewRGBA(image.Rect(0, 0, 4, 4))))

	mux := http.NewServeMux()
	page := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, body)
		}
	}
	mux.HandleFunc("/", page(GalleryHTML))
	mux.HandleFunc("/frames", page(FrameHTML))
	mux.HandleFunc("/inner", page(InnerHTML))
	mux.HandleFunc("/overlay", page(OverlayHTML))
	mux.HandleFunc("/img/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBuf.Bytes())
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestAdapter(t *testing.T) *BrowserAdapter {
	t.Helper()
	if testing.Short() {
		t.Skip("browser tests are skipped in short mode")
	}

	adapter, err := NewBrowserAdapter(context.Background(), DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(adapter.Close)
	return adapter
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.Headless)
	assert.False(t, cfg.NoSandbox, "Should be secure by default")
	assert.False(t, cfg.DevTools)
	assert.Equal(t, defaultTimeout, cfg.Timeout)
	assert.Equal(t, defaultDecodeBudget, cfg.DecodeBudget)
	assert.Equal(t, 1280, cfg.Width)
	assert.Equal(t, 800, cfg.Height)
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		ok   bool
	}{
		{"http", "http://example.com/a", true},
		{"https", "https://example.com", true},
		{"file", "file:///tmp/page.html", true},
		{"Empty URL", "", false},
		{"Invalid scheme", "ftp://example.com", false},
		{"JavaScript URL", "javascript:alert(1)", false},
		{"Missing host", "https:///path", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateURL(tt.url)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidURL)
		})
	}
}

func TestNewBrowserAdapter_WithNilContext(t *testing.T) {
	if testing.Short() {
		t.Skip("browser tests are skipped in short mode")
	}

	adapter, err := NewBrowserAdapter(nil, DefaultConfig()) //nolint:staticcheck
	require.NoError(t, err)
	defer adapter.Close()

	assert.NotNil(t, adapter.page)
	assert.Equal(t, defaultTimeout, adapter.timeout)
}

func TestBrowserAdapter_Navigate(t *testing.T) {
	server := newTestServer(t)
	adapter := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Navigate(ctx, server.URL))
	assert.Equal(t, server.URL+"/", adapter.CurrentURL())

	assert.ErrorIs(t, adapter.Navigate(ctx, "javascript:alert(1)"), ErrInvalidURL)
}

func TestBrowserAdapter_Snapshot(t *testing.T) {
	server := newTestServer(t)
	adapter := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Navigate(ctx, server.URL))
	doc, err := adapter.Snapshot(ctx, entity.SnapshotOptions{AwaitDecode: true})
	require.NoError(t, err)

	assert.True(t, doc.IsLive())
	assert.Equal(t, 1280.0, doc.Viewport().Width)

	photo := doc.QueryOne("#photo")
	require.NotNil(t, photo)
	w, h := photo.NaturalSize()
	assert.Equal(t, 4, w)
	assert.Equal(t, 4, h)
	rect, ok := photo.Rect()
	require.True(t, ok)
	assert.Equal(t, 200.0, rect.Width)
	assert.True(t, strings.HasSuffix(photo.CurrentSrc(), "/img/photo.png"))

	hero := doc.QueryOne("#hero")
	require.NotNil(t, hero)
	st, err := hero.Style("")
	require.NoError(t, err)
	assert.Contains(t, st.Get("background-image"), "/img/hero.jpg")

	data, err := doc.QueryOne("#paint").CanvasDataURL()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(data, "data:image/png;base64,"))

	host := doc.QueryOne("#host")
	require.NotNil(t, host)
	shadow := host.ShadowRoot()
	require.NotNil(t, shadow, "open shadow roots are serialized")
	assert.Len(t, shadow.Find("img"), 1)

	require.NotEmpty(t, doc.StyleSheets())
	assert.NoError(t, doc.StyleSheets()[0].Err)
}

func TestBrowserAdapter_Snapshot_SameOriginFrame(t *testing.T) {
	server := newTestServer(t)
	adapter := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Navigate(ctx, server.URL+"/frames"))
	doc, err := adapter.Snapshot(ctx, entity.SnapshotOptions{})
	require.NoError(t, err)

	frameDoc, err := doc.QueryOne("#inner").FrameDocument()
	require.NoError(t, err)
	assert.NotNil(t, frameDoc.QueryOne("#framed"))
}

func TestBrowserAdapter_ElementsFromPoint(t *testing.T) {
	server := newTestServer(t)
	adapter := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Navigate(ctx, server.URL+"/overlay"))
	doc, err := adapter.Snapshot(ctx, entity.SnapshotOptions{})
	require.NoError(t, err)

	ids, err := adapter.ElementsFromPoint(ctx, 100, 100)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(ids), 2)

	els := doc.ElementsFromPoint(100, 100)
	require.GreaterOrEqual(t, len(els), 2)
	assert.Equal(t, "shade", els[0].ID())
	assert.Equal(t, "photo", els[1].ID())
}

func TestBrowserAdapter_Refresh(t *testing.T) {
	server := newTestServer(t)
	adapter := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Navigate(ctx, server.URL))
	first, err := adapter.Snapshot(ctx, entity.SnapshotOptions{})
	require.NoError(t, err)

	_, err = adapter.page.Eval(`() => { const i = document.createElement('img'); i.id = 'late'; i.src = '/img/late.png'; document.body.prepend(i); }`)
	require.NoError(t, err)

	second, err := adapter.Refresh(ctx)
	require.NoError(t, err)
	assert.Nil(t, first.QueryOne("#late"))
	late := second.QueryOne("#late")
	require.NotNil(t, late)

	assert.Equal(t, first.Body().SnapshotID(), second.Body().SnapshotID(), "ids are kept across snapshots")
	assert.Nil(t, first.ByID(late.SnapshotID()), "new elements get fresh ids")
	for _, el := range first.QueryAll("img") {
		assert.Equal(t, el.ID(), second.ByID(el.SnapshotID()).ID())
	}
}

func TestBrowserAdapter_Screenshot(t *testing.T) {
	server := newTestServer(t)
	adapter := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Navigate(ctx, server.URL))
	shot, err := adapter.Screenshot(ctx)
	require.NoError(t, err)

	assert.Equal(t, "jpeg", shot.Format)
	assert.NotEmpty(t, shot.Data)
	assert.LessOrEqual(t, shot.Width, previewWidth)
	assert.Positive(t, shot.Height)
}

func TestBrowserAdapter_ClosedState(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	adapter.Close()
	adapter.Close()

	assert.True(t, adapter.closed)
	assert.ErrorIs(t, adapter.Navigate(ctx, "https://example.com"), ErrClosed)
	_, err := adapter.Snapshot(ctx, entity.SnapshotOptions{})
	assert.ErrorIs(t, err, ErrClosed)
	_, err = adapter.Refresh(ctx)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = adapter.Screenshot(ctx)
	assert.ErrorIs(t, err, ErrClosed)
	assert.Empty(t, adapter.CurrentURL())
}
