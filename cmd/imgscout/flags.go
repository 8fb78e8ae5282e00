package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"imgscout/internal/domain/entity"
	"imgscout/internal/infrastructure/config"
)

type cliFlags struct {
	configPath string
	url        string
	files      string
	selector   string
	deep       bool
	visible    bool
	padding    float64
	dataURLs   bool
	blobURLs   bool
	pierce     string
	expand     bool
	screenshot string
	json       bool
	verbose    bool

	// set holds the names given on the command line.
	set map[string]bool
}

func parseFlags(fs *flag.FlagSet, args []string) (*cliFlags, error) {
	f := &cliFlags{set: map[string]bool{}}
	fs.StringVar(&f.configPath, "config", "", "Scan profile (YAML or JSON)")
	fs.StringVar(&f.url, "url", "", "Page to open in the browser")
	fs.StringVar(&f.files, "file", "", "Comma separated HTML files to scan without a browser")
	fs.StringVar(&f.selector, "selector", "", "CSS selector of the extraction roots (default body)")
	fs.BoolVar(&f.deep, "deep", false, "Deep scan: frames, stylesheets, embedded JSON and hidden attributes")
	fs.BoolVar(&f.visible, "visible-only", false, "Skip elements outside the padded viewport")
	fs.Float64Var(&f.padding, "padding", 0, "Viewport padding in px (default min(500, 25% of the height))")
	fs.BoolVar(&f.dataURLs, "data-urls", false, "Keep data: URLs")
	fs.BoolVar(&f.blobURLs, "blob-urls", false, "Keep blob: URLs")
	fs.StringVar(&f.pierce, "pierce", "", "Viewport point x,y to pierce overlays at")
	fs.BoolVar(&f.expand, "expand", false, "Expand a pierced image to its card or figure")
	fs.StringVar(&f.screenshot, "screenshot", "", "Write a JPEG preview of the page to this path")
	fs.BoolVar(&f.json, "json", false, "Print results as JSON")
	fs.BoolVar(&f.verbose, "verbose", false, "Show srcset candidates and positions")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })

	if f.url == "" && f.files == "" {
		return nil, fmt.Errorf("one of -url or -file is required")
	}
	if f.url != "" && f.files != "" {
		return nil, fmt.Errorf("-url and -file are mutually exclusive")
	}
	if f.screenshot != "" && f.url == "" {
		return nil, fmt.Errorf("-screenshot needs -url")
	}
	return f, nil
}

// apply lets explicit flags win over the profile and environment.
func (f *cliFlags) apply(cfg *config.Config) {
	if f.set["selector"] {
		cfg.Scan.Selector = f.selector
	}
	if f.set["deep"] {
		cfg.Scan.Extract.DeepScan = f.deep
	}
	if f.set["visible-only"] {
		cfg.Scan.Extract.VisibleOnly = f.visible
	}
	if f.set["padding"] {
		cfg.Scan.Extract.ViewportPadding = entity.WithPadding(f.padding)
	}
	if f.set["data-urls"] {
		cfg.Scan.Extract.IncludeDataURLs = f.dataURLs
	}
	if f.set["blob-urls"] {
		cfg.Scan.Extract.IncludeBlobURLs = f.blobURLs
	}
	if f.set["expand"] {
		cfg.Pierce.ExpandToContainer = f.expand
	}
}

func (f *cliFlags) fileList() []string {
	var out []string
	for _, p := range strings.Split(f.files, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parsePoint(s string) (*entity.Point, error) {
	if s == "" {
		return nil, nil
	}
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return nil, fmt.Errorf("point %q: want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return nil, fmt.Errorf("point %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return nil, fmt.Errorf("point %q: %w", s, err)
	}
	return &entity.Point{X: x, Y: y}, nil
}

func buildRequest(f *cliFlags, cfg *config.Config) (entity.ScanRequest, error) {
	at, err := parsePoint(f.pierce)
	if err != nil {
		return entity.ScanRequest{}, err
	}
	return entity.ScanRequest{
		URL:        f.url,
		Selector:   cfg.Scan.Selector,
		Extract:    cfg.Scan.Extract,
		PierceAt:   at,
		Pierce:     cfg.Pierce.Options(),
		Screenshot: f.screenshot != "",
		Snapshot: entity.SnapshotOptions{
			AwaitDecode:  cfg.Browser.AwaitDecode,
			DecodeBudget: cfg.Browser.DecodeBudget(),
		},
	}, nil
}
