package usecase

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"imgscout/internal/application/port/input"
	"imgscout/internal/application/port/output"
	"imgscout/internal/domain/entity"
)

var _ input.BatchScanner = (*ScanBatchUseCase)(nil)

// ScanBatchUseCase fans a request out over several pages. Files are parsed
// concurrently; URLs share one browser page and go one at a time behind a
// rate limiter.
type ScanBatchUseCase struct {
	scanner       input.PageScanner
	logger        output.LoggerPort
	maxConcurrent int
	limiter       *rate.Limiter
}

type ScanBatchConfig struct {
	MaxConcurrent int
	// RequestsPerSecond limits navigations; zero disables the limit.
	RequestsPerSecond float64
	Burst             int
}

func NewScanBatchUseCase(scanner input.PageScanner, logger output.LoggerPort, cfg ScanBatchConfig) *ScanBatchUseCase {
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &ScanBatchUseCase{
		scanner:       scanner,
		logger:        logger,
		maxConcurrent: cfg.MaxConcurrent,
		limiter:       rate.NewLimiter(limit, cfg.Burst),
	}
}

// ScanFiles scans every file with at most MaxConcurrent in flight. Items come
// back in input order. The error is non-nil only when ctx is cancelled.
func (uc *ScanBatchUseCase) ScanFiles(ctx context.Context, files []string, req entity.ScanRequest) ([]entity.BatchItem, error) {
	items := make([]entity.BatchItem, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.maxConcurrent)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r := req
			r.HTML, r.URL = "", ""
			r.File = file
			items[i] = uc.scanOne(ctx, file, r)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return items, fmt.Errorf("scan files: %w", err)
	}
	return items, nil
}

// ScanURLs navigates to each URL in turn, waiting on the limiter between them.
func (uc *ScanBatchUseCase) ScanURLs(ctx context.Context, urls []string, req entity.ScanRequest) ([]entity.BatchItem, error) {
	items := make([]entity.BatchItem, 0, len(urls))
	for _, u := range urls {
		if err := uc.limiter.Wait(ctx); err != nil {
			return items, fmt.Errorf("rate limit: %w", err)
		}
		r := req
		r.HTML, r.File = "", ""
		r.URL = u
		items = append(items, uc.scanOne(ctx, u, r))
	}
	return items, nil
}

func (uc *ScanBatchUseCase) scanOne(ctx context.Context, page string, req entity.ScanRequest) entity.BatchItem {
	item := entity.BatchItem{Page: page}
	res, err := uc.scanner.Execute(ctx, req)
	if err != nil {
		uc.logger.Warn("Page scan failed", "page", page, "error", err)
		item.Error = err.Error()
		return item
	}
	item.Result = res
	return item
}
