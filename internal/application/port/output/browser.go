package output

import (
	"context"

	"imgscout/internal/domain/dom"
	"imgscout/internal/domain/entity"
)

type BrowserPort interface {
	Navigate(ctx context.Context, url string) error

	Snapshot(ctx context.Context, opts entity.SnapshotOptions) (*dom.Document, error)
	Refresh(ctx context.Context) (*dom.Document, error)
	ElementsFromPoint(ctx context.Context, x, y float64) ([]string, error)
	Screenshot(ctx context.Context) (*entity.Screenshot, error)

	CurrentURL() string
	Close()
}
