package scoring

import (
	"regexp"

	"imgscout/internal/domain/entity"
)

const (
	priorityLowRes  = 1
	priorityBase    = 2
	priorityGeneric = 3
	prioritySrcset  = 4
	priorityStrong  = 5
)

var (
	strongOriginalName = regexp.MustCompile(`(?i)orig|full|hi-?res|high-?res|zoom|download|master|raw|large|max|big`)
	srcsetLikeName     = regexp.MustCompile(`(?i)srcset`)
	genericImageName   = regexp.MustCompile(`(?i)src|image|img|photo|poster`)
	lowResPattern      = regexp.MustCompile(`(?i)thumb|small|tiny|preview|lqip`)
)

// AttributePriority ranks a URL by the attribute it was read from.
func AttributePriority(name, url string) int {
	p := priorityBase
	switch {
	case strongOriginalName.MatchString(name):
		p = priorityStrong
	case srcsetLikeName.MatchString(name):
		p = prioritySrcset
	case genericImageName.MatchString(name):
		p = priorityGeneric
	}
	if lowResPattern.MatchString(name) || lowResPattern.MatchString(url) {
		p = min(p, priorityLowRes)
	}
	return p
}

// PickBestCandidate returns the candidate with the highest priority, then the
// highest quality. The first candidate wins ties.
//
// Quality is bounded below the priority step, so priority dominates.
func PickBestCandidate(cands []entity.Candidate) (entity.Candidate, bool) {
	if len(cands) == 0 {
		return entity.Candidate{}, false
	}
	best := cands[0]
	bestScore := candidateScore(best)
	for _, c := range cands[1:] {
		if s := candidateScore(c); s > bestScore {
			best, bestScore = c, s
		}
	}
	return best, true
}

const (
	priorityStep = 1_000_000
	maxQuality   = priorityStep - 1
)

func candidateScore(c entity.Candidate) float64 {
	q := c.Quality
	if q < 0 {
		q = 0
	}
	if q > maxQuality {
		q = maxQuality
	}
	return float64(c.Priority)*priorityStep + q
}
