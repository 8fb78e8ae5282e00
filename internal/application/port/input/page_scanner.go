package input

import (
	"context"

	"imgscout/internal/domain/entity"
)

type PageScanner interface {
	Execute(ctx context.Context, req entity.ScanRequest) (*entity.ScanResult, error)
}

// BatchScanner scans several pages. A failed page is reported in its
// BatchItem and does not stop the others.
type BatchScanner interface {
	ScanFiles(ctx context.Context, files []string, req entity.ScanRequest) ([]entity.BatchItem, error)
	ScanURLs(ctx context.Context, urls []string, req entity.ScanRequest) ([]entity.BatchItem, error)
}
