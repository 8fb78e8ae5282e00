package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"imgscout/internal/application/port/input"
	"imgscout/internal/application/port/output"
	"imgscout/internal/domain/dom"
	"imgscout/internal/domain/entity"
	"imgscout/internal/usecase/extract"
	"imgscout/internal/usecase/pierce"
	"imgscout/internal/usecase/sites"
)

var (
	ErrNoSource  = errors.New("scan request has no html, file or url")
	ErrNoBrowser = errors.New("url scans need a browser")
)

var _ input.PageScanner = (*ScanPageUseCase)(nil)

// ScanPageUseCase loads one page, extracts its image candidates and
// optionally pierces overlays at a point.
type ScanPageUseCase struct {
	browser   output.BrowserPort
	extractor *extract.Extractor
	piercer   *pierce.Piercer
	registry  *sites.Registry
	logger    output.LoggerPort
	viewport  dom.Viewport

	// live guards the single browser page.
	live sync.Mutex

	mu       sync.Mutex
	lastHost string
}

type ScanPageConfig struct {
	// Viewport is used for static documents; live ones report their own.
	Viewport dom.Viewport
}

// NewScanPageUseCase wires the engine. browser may be nil, in which case only
// HTML and file sources can be scanned.
func NewScanPageUseCase(
	browser output.BrowserPort,
	extractor *extract.Extractor,
	piercer *pierce.Piercer,
	registry *sites.Registry,
	logger output.LoggerPort,
	cfg ScanPageConfig,
) *ScanPageUseCase {
	return &ScanPageUseCase{
		browser:   browser,
		extractor: extractor,
		piercer:   piercer,
		registry:  registry,
		logger:    logger,
		viewport:  cfg.Viewport,
	}
}

func (uc *ScanPageUseCase) Execute(ctx context.Context, req entity.ScanRequest) (*entity.ScanResult, error) {
	started := time.Now()

	if req.Source() == "url" {
		uc.live.Lock()
		defer uc.live.Unlock()
	}

	doc, err := uc.load(ctx, req)
	if err != nil {
		return nil, err
	}
	uc.trackHost(doc.Hostname())

	log := uc.logger.WithFields(map[string]any{
		"page":   doc.URL(),
		"source": req.Source(),
	})

	extractor := uc.extractor
	if doc.IsLive() && uc.browser != nil {
		extractor = extractor.WithRefresher(uc.browser)
	}

	roots := resolveRoots(doc, req.Selector)
	if len(roots) == 0 {
		log.Warn("Selector matched nothing", "selector", req.Selector)
	}

	result := &entity.ScanResult{
		BatchID: uuid.New().String(),
		PageURL: uc.pageURL(doc),
		Images:  extractor.ExtractImagesFromRoots(ctx, roots, req.Extract),
	}
	if h := extractor.ActiveHandler(doc); h != nil {
		result.Handler = h.Name()
	}

	if req.PierceAt != nil {
		result.Pierced = uc.pierce(ctx, extractor, doc, *req.PierceAt, req)
	}

	if req.Screenshot {
		shot, err := uc.screenshot(ctx, doc)
		if err != nil {
			log.Warn("Screenshot failed", "error", err)
		}
		result.Screenshot = shot
	}

	result.DurationMS = time.Since(started).Milliseconds()
	log.Info("Page scanned",
		"handler", result.Handler,
		"images", len(result.Images),
		"duration_ms", result.DurationMS,
	)
	return result, nil
}

func (uc *ScanPageUseCase) load(ctx context.Context, req entity.ScanRequest) (*dom.Document, error) {
	switch req.Source() {
	case "html":
		doc, err := dom.Parse(strings.NewReader(req.HTML), pageURLOr(req.PageURL, "about:blank"), uc.viewport)
		if err != nil {
			return nil, fmt.Errorf("parse html: %w", err)
		}
		return doc, nil

	case "file":
		f, err := os.Open(req.File)
		if err != nil {
			return nil, fmt.Errorf("open page file: %w", err)
		}
		defer f.Close()

		doc, err := dom.Parse(f, pageURLOr(req.PageURL, fileURL(req.File)), uc.viewport)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", req.File, err)
		}
		return doc, nil

	case "url":
		if uc.browser == nil {
			return nil, ErrNoBrowser
		}
		if err := uc.browser.Navigate(ctx, req.URL); err != nil {
			return nil, fmt.Errorf("navigate: %w", err)
		}
		if final := uc.browser.CurrentURL(); final != "" && final != req.URL {
			uc.logger.Debug("Navigation redirected", "requested", req.URL, "final", final)
		}
		opts := req.Snapshot
		if req.Extract.DeepScan {
			opts.AwaitDecode = true
		}
		doc, err := uc.browser.Snapshot(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("snapshot: %w", err)
		}
		return doc, nil
	}
	return nil, ErrNoSource
}

// pageURL prefers the browser's address after redirects for live pages.
func (uc *ScanPageUseCase) pageURL(doc *dom.Document) string {
	if doc.IsLive() && uc.browser != nil {
		if cur := uc.browser.CurrentURL(); cur != "" {
			return cur
		}
	}
	return doc.URL()
}

// trackHost drops the registry's cached handler when the scanned host changes.
func (uc *ScanPageUseCase) trackHost(host string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if host == uc.lastHost {
		return
	}
	if uc.registry != nil {
		uc.registry.Reset()
	}
	uc.lastHost = host
}

func (uc *ScanPageUseCase) pierce(ctx context.Context, x *extract.Extractor, doc *dom.Document, at entity.Point, req entity.ScanRequest) *entity.PiercedSummary {
	res := uc.piercer.PierceToImage(doc, at.X, at.Y, req.Pierce)
	if res == nil {
		uc.logger.Debug("Nothing to pierce", "x", at.X, "y", at.Y)
		return nil
	}

	summary := &entity.PiercedSummary{
		Element:    res.Element.String(),
		Method:     res.Method,
		Confidence: res.Confidence,
	}
	opts := entity.ExtractOptions{
		IncludeDataURLs: req.Extract.IncludeDataURLs,
		IncludeBlobURLs: req.Extract.IncludeBlobURLs,
	}
	for _, img := range x.ExtractImagesFromRoots(ctx, []*dom.Element{res.Element}, opts) {
		summary.Images = append(summary.Images, img.URL)
	}
	return summary
}

func (uc *ScanPageUseCase) screenshot(ctx context.Context, doc *dom.Document) (*entity.Screenshot, error) {
	if !doc.IsLive() || uc.browser == nil {
		return nil, errors.New("screenshots need a live page")
	}
	return uc.browser.Screenshot(ctx)
}

// resolveRoots picks the extraction roots: the selector's matches, else the
// body, else the document element.
func resolveRoots(doc *dom.Document, selector string) []*dom.Element {
	if s := strings.TrimSpace(selector); s != "" {
		return doc.QueryAll(s)
	}
	if body := doc.Body(); body != nil {
		return []*dom.Element{body}
	}
	if root := doc.DocumentElement(); root != nil {
		return []*dom.Element{root}
	}
	return nil
}

func pageURLOr(pageURL, def string) string {
	if pageURL != "" {
		return pageURL
	}
	return def
}

func fileURL(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return "file://" + filepath.ToSlash(abs)
}
