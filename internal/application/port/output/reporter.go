package output

import (
	"context"

	"imgscout/internal/domain/entity"
)

// ReporterPort presents scan results to the user.
type ReporterPort interface {
	ShowScan(ctx context.Context, res *entity.ScanResult)
	ShowError(ctx context.Context, page string, err error)
}
