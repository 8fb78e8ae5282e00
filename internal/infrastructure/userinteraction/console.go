package userinteraction

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"imgscout/internal/application/port/output"
	"imgscout/internal/domain/entity"
)

var _ output.ReporterPort = (*ConsoleReporter)(nil)

const maxURLLen = 110

type ConsoleReporter struct {
	out     io.Writer
	verbose bool
}

func NewConsoleReporter(verbose bool) *ConsoleReporter {
	return &ConsoleReporter{out: os.Stdout, verbose: verbose}
}

// WithWriter redirects the report, e.g. into a buffer.
func (r *ConsoleReporter) WithWriter(w io.Writer) *ConsoleReporter {
	r.out = w
	return r
}

func (r *ConsoleReporter) ShowScan(ctx context.Context, res *entity.ScanResult) {
	if res == nil {
		return
	}

	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Fprintf(r.out, "\n━━━ %s ━━━\n", res.PageURL)

	dim := color.New(color.Faint)
	handler := res.Handler
	if handler == "" {
		handler = "generic"
	}
	dim.Fprintf(r.out, "   batch %s | handler %s | %d ms\n", res.BatchID, handler, res.DurationMS)

	if len(res.Images) == 0 {
		color.New(color.FgYellow).Fprintln(r.out, "⚠ No images found")
	}
	for i, img := range res.Images {
		r.showImage(i, img)
	}

	if res.Pierced != nil {
		r.showPierced(res.Pierced)
	}

	green := color.New(color.FgGreen)
	green.Fprintf(r.out, "✓ %d image(s)\n", len(res.Images))
}

func (r *ConsoleReporter) ShowError(ctx context.Context, page string, err error) {
	red := color.New(color.FgRed)
	red.Fprintf(r.out, "❌ %s: ", page)
	color.New(color.Faint).Fprintln(r.out, truncate(err.Error(), 300))
}

func (r *ConsoleReporter) showImage(i int, img entity.ExtractedImage) {
	icon := originIcon(img.OriginType)
	yellow := color.New(color.FgYellow)
	yellow.Fprintf(r.out, "%3d %s %-14s ", i+1, icon, img.OriginType)
	fmt.Fprintln(r.out, truncate(displayURL(img), maxURLLen))

	var details []string
	if img.Width > 0 && img.Height > 0 {
		details = append(details, fmt.Sprintf("%dx%d", img.Width, img.Height))
	}
	if img.FilenameHint != "" {
		details = append(details, img.FilenameHint)
	}
	if img.LazyHint {
		details = append(details, "lazy")
	}
	if r.verbose && len(img.SrcsetCandidates) > 1 {
		details = append(details, fmt.Sprintf("%d srcset entries", len(img.SrcsetCandidates)))
	}
	if len(details) > 0 {
		color.New(color.Faint).Fprintf(r.out, "      %s\n", strings.Join(details, " · "))
	}
}

func (r *ConsoleReporter) showPierced(p *entity.PiercedSummary) {
	blue := color.New(color.FgBlue, color.Bold)
	blue.Fprintf(r.out, "🎯 %s via %s (confidence %.2f)\n", p.Element, p.Method, p.Confidence)
	for _, u := range p.Images {
		color.New(color.Faint).Fprintf(r.out, "      %s\n", truncate(u, maxURLLen))
	}
}

func originIcon(o entity.OriginType) string {
	icons := map[entity.OriginType]string{
		entity.OriginImg:           "🖼",
		entity.OriginSrcset:        "🔍",
		entity.OriginPicture:       "🔍",
		entity.OriginCSSBackground: "🎨",
		entity.OriginCSSMask:       "🎨",
		entity.OriginCSSContent:    "🎨",
		entity.OriginImageSet:      "🎨",
		entity.OriginLinkHref:      "🔗",
		entity.OriginDataAttr:      "🏷",
		entity.OriginLazyAttr:      "💤",
		entity.OriginCanvas:        "🖌",
		entity.OriginInlineSVG:     "✏",
		entity.OriginVideoPoster:   "🎬",
		entity.OriginDataURL:       "📦",
	}
	if icon, ok := icons[o]; ok {
		return icon
	}
	return "•"
}

// displayURL shortens data: URIs to their header.
func displayURL(img entity.ExtractedImage) string {
	if !img.IsDataURL {
		return img.URL
	}
	if i := strings.IndexByte(img.URL, ','); i > 0 {
		return fmt.Sprintf("%s,… (%d bytes)", img.URL[:i], len(img.URL)-i-1)
	}
	return img.URL
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
