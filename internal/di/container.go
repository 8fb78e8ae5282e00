package di

import (
	"context"
	"fmt"

	"imgscout/internal/application/port/input"
	"imgscout/internal/application/port/output"
	"imgscout/internal/application/usecase"
	"imgscout/internal/domain/dom"
	"imgscout/internal/infrastructure/browser/rod"
	"imgscout/internal/infrastructure/config"
	"imgscout/internal/infrastructure/logger"
	"imgscout/internal/infrastructure/userinteraction"
	"imgscout/internal/usecase/extract"
	"imgscout/internal/usecase/pierce"
	"imgscout/internal/usecase/sites"
)

type Container struct {
	Browser  output.BrowserPort
	Logger   output.LoggerPort
	Reporter output.ReporterPort
	Registry *sites.Registry

	Scanner input.PageScanner
	Batch   input.BatchScanner
}

type Options struct {
	// Live starts a browser; without it only HTML and file sources work.
	Live    bool
	Verbose bool
}

func NewContainer(ctx context.Context, cfg *config.Config, opts Options) (*Container, error) {
	log, err := logger.NewLoggerAdapter(logger.Options{
		Name:         cfg.Log.Name,
		Dir:          cfg.Log.Dir,
		ConsoleLevel: cfg.Log.Level,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	var browser output.BrowserPort
	if opts.Live {
		browserCfg := rod.DefaultConfig()
		browserCfg.Headless = cfg.Browser.Headless
		browserCfg.NoSandbox = cfg.Browser.NoSandbox
		browserCfg.Width = cfg.Browser.Width
		browserCfg.Height = cfg.Browser.Height
		if d := cfg.Browser.Timeout(); d > 0 {
			browserCfg.Timeout = d
		}
		if d := cfg.Browser.DecodeBudget(); d > 0 {
			browserCfg.DecodeBudget = d
		}
		b, err := rod.NewBrowserAdapter(ctx, browserCfg)
		if err != nil {
			log.Close()
			return nil, fmt.Errorf("failed to create browser: %w", err)
		}
		browser = b
	}

	registry := sites.NewDefaultRegistry(sites.WithGoogleViewerWait(cfg.Sites.GoogleViewerWait()))
	handlers := registry.All()
	names := make([]string, 0, len(handlers))
	for _, h := range handlers {
		names = append(names, h.Name())
	}
	log.Debug("Site handlers registered", "handlers", names)

	scanner := usecase.NewScanPageUseCase(
		browser,
		extract.New(registry, log),
		pierce.New(registry, log),
		registry,
		log,
		usecase.ScanPageConfig{Viewport: dom.Viewport{
			Width:  float64(cfg.Browser.Width),
			Height: float64(cfg.Browser.Height),
			DPR:    1,
		}},
	)
	batch := usecase.NewScanBatchUseCase(scanner, log, usecase.ScanBatchConfig{
		MaxConcurrent:     cfg.Batch.MaxConcurrent,
		RequestsPerSecond: cfg.Batch.RequestsPerSecond,
		Burst:             cfg.Batch.Burst,
	})

	return &Container{
		Browser:  browser,
		Logger:   log,
		Reporter: userinteraction.NewConsoleReporter(opts.Verbose),
		Registry: registry,
		Scanner:  scanner,
		Batch:    batch,
	}, nil
}

func (c *Container) Close() {
	if c.Browser != nil {
		c.Browser.Close()
	}
	if c.Logger != nil {
		c.Logger.Close()
	}
}
