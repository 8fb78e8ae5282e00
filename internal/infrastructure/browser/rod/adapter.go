package rod

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"net/url"
	"sync"
	"time"

	"imgscout/internal/application/port/output"
	"imgscout/internal/domain/dom"
	"imgscout/internal/domain/entity"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

var _ output.BrowserPort = (*BrowserAdapter)(nil)

const (
	defaultTimeout      = 30 * time.Second
	defaultIdle         = 2 * time.Second
	defaultDecodeBudget = 2 * time.Second
	previewWidth        = 1024
)

var (
	ErrClosed     = errors.New("browser is closed")
	ErrInvalidURL = errors.New("invalid url")
)

type BrowserAdapter struct {
	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	timeout  time.Duration
	last     entity.SnapshotOptions
	closed   bool
}

type BrowserConfig struct {
	Headless     bool
	NoSandbox    bool
	DevTools     bool
	Timeout      time.Duration
	Idle         time.Duration
	DecodeBudget time.Duration
	Width        int
	Height       int
}

func DefaultConfig() BrowserConfig {
	return BrowserConfig{
		Headless:     true,
		NoSandbox:    false,
		DevTools:     false,
		Timeout:      defaultTimeout,
		Idle:         defaultIdle,
		DecodeBudget: defaultDecodeBudget,
		Width:        1280,
		Height:       800,
	}
}

func NewBrowserAdapter(ctx context.Context, cfg BrowserConfig) (*BrowserAdapter, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	l := launcher.New().
		Context(ctx).
		Headless(cfg.Headless).
		Devtools(cfg.DevTools).
		NoSandbox(cfg.NoSandbox).
		Delete("use-mock-keychain")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	if cfg.Width > 0 && cfg.Height > 0 {
		_ = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             cfg.Width,
			Height:            cfg.Height,
			DeviceScaleFactor: 1,
		})
	}

	return &BrowserAdapter{
		browser:  browser,
		launcher: l,
		page:     page,
		timeout:  cfg.Timeout,
		last:     entity.SnapshotOptions{DecodeBudget: cfg.DecodeBudget},
	}, nil
}

func (b *BrowserAdapter) Navigate(ctx context.Context, target string) error {
	if err := validateURL(target); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}

	page := b.page.Context(ctx).Timeout(b.timeout)
	if err := page.Navigate(target); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait load: %w", err)
	}
	_ = b.page.Context(ctx).WaitIdle(defaultIdle)
	return nil
}

// Snapshot captures the rendered page. Point queries on the returned document
// go to the live page.
func (b *BrowserAdapter) Snapshot(ctx context.Context, opts entity.SnapshotOptions) (*dom.Document, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	if opts.DecodeBudget <= 0 {
		opts.DecodeBudget = b.last.DecodeBudget
	}
	b.last = opts
	return b.snapshot(ctx, opts)
}

// Refresh re-captures the page with the options of the last Snapshot.
func (b *BrowserAdapter) Refresh(ctx context.Context) (*dom.Document, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	return b.snapshot(ctx, b.last)
}

func (b *BrowserAdapter) snapshot(ctx context.Context, opts entity.SnapshotOptions) (*dom.Document, error) {
	res, err := b.page.Context(ctx).Timeout(b.timeout).Eval(snapshotScript, opts.AwaitDecode, opts.DecodeBudget.Milliseconds())
	if err != nil {
		return nil, fmt.Errorf("snapshot script: %w", err)
	}

	var snap dom.Snapshot
	if err := json.Unmarshal([]byte(res.Value.Str()), &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	doc, err := snap.Document()
	if err != nil {
		return nil, err
	}

	doc.SetPointLocator(func(x, y float64) ([]*dom.Element, error) {
		ids, err := b.ElementsFromPoint(ctx, x, y)
		if err != nil {
			return nil, err
		}
		out := make([]*dom.Element, 0, len(ids))
		for _, id := range ids {
			if el := doc.ByID(id); el != nil {
				out = append(out, el)
			}
		}
		return out, nil
	})
	return doc, nil
}

// ElementsFromPoint returns the snapshot ids under a viewport point, frontmost first.
func (b *BrowserAdapter) ElementsFromPoint(ctx context.Context, x, y float64) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	return b.elementsFromPoint(ctx, x, y)
}

func (b *BrowserAdapter) elementsFromPoint(ctx context.Context, x, y float64) ([]string, error) {
	res, err := b.page.Context(ctx).Timeout(b.timeout).Eval(pointScript, x, y)
	if err != nil {
		return nil, fmt.Errorf("elementsFromPoint: %w", err)
	}
	var ids []string
	if err := json.Unmarshal([]byte(res.Value.Str()), &ids); err != nil {
		return nil, fmt.Errorf("decode point ids: %w", err)
	}
	return ids, nil
}

func (b *BrowserAdapter) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}

	imgBytes, err := b.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}

	if img.Bounds().Dx() > previewWidth {
		img = imaging.Resize(img, previewWidth, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 75}); err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}

	return &entity.Screenshot{
		Data:   buf.Bytes(),
		Format: "jpeg",
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}

func (b *BrowserAdapter) CurrentURL() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ""
	}
	info, err := b.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (b *BrowserAdapter) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	if b.browser != nil {
		_ = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
	}
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return fmt.Errorf("%w: missing host in %q", ErrInvalidURL, raw)
		}
	case "file":
	default:
		return fmt.Errorf("%w: unsupported scheme in %q", ErrInvalidURL, raw)
	}
	return nil
}
