package scoring

import (
	"sort"

	"imgscout/internal/usecase/parse"
)

// PickSrcsetCandidate chooses the entry to load for a display width. With a known
// width the tightest width candidate covering width*dpr wins, else the widest;
// without width descriptors the densest entry wins. With an unknown display width
// the largest width (or density) wins.
func PickSrcsetCandidate(cands []parse.SrcsetCandidate, displayWidth, dpr float64) (parse.SrcsetCandidate, bool) {
	if len(cands) == 0 {
		return parse.SrcsetCandidate{}, false
	}
	if dpr <= 0 {
		dpr = 1
	}

	if displayWidth <= 0 {
		best := cands[0]
		for _, c := range cands[1:] {
			if sizeKey(c) > sizeKey(best) {
				best = c
			}
		}
		return best, true
	}

	target := displayWidth * dpr
	var widths []parse.SrcsetCandidate
	for _, c := range cands {
		if c.Width > 0 {
			widths = append(widths, c)
		}
	}

	if len(widths) > 0 {
		var (
			fit     parse.SrcsetCandidate
			hasFit  bool
			largest = widths[0]
		)
		for _, c := range widths {
			if float64(c.Width) >= target && (!hasFit || c.Width < fit.Width) {
				fit, hasFit = c, true
			}
			if c.Width > largest.Width {
				largest = c
			}
		}
		if hasFit {
			return fit, true
		}
		return largest, true
	}

	sorted := make([]parse.SrcsetCandidate, len(cands))
	copy(sorted, cands)
	sort.SliceStable(sorted, func(i, j int) bool {
		return density(sorted[i]) > density(sorted[j])
	})
	return sorted[0], true
}

func density(c parse.SrcsetCandidate) float64 {
	if c.Density > 0 {
		return c.Density
	}
	return 1
}

func sizeKey(c parse.SrcsetCandidate) float64 {
	if c.Width > 0 {
		return float64(c.Width)
	}
	return density(c)
}
