package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imgscout/internal/domain/entity"
	"imgscout/internal/usecase/parse"
)

func TestAttributePriority(t *testing.T) {
	tests := []struct {
		name string
		attr string
		url  string
		want int
	}{
		{"strong original", "data-original", "https://x.com/a.jpg", 5},
		{"zoom", "data-zoom-image", "https://x.com/a.jpg", 5},
		{"srcset", "data-srcset", "https://x.com/a.jpg", 4},
		{"generic src", "data-src", "https://x.com/a.jpg", 3},
		{"poster", "poster", "https://x.com/a.jpg", 3},
		{"unrelated", "data-bg", "https://x.com/a.jpg", 2},
		{"low-res name", "data-thumb", "https://x.com/a.jpg", 1},
		{"low-res url beats strong name", "data-full", "https://x.com/small/a.jpg", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AttributePriority(tt.attr, tt.url))
		})
	}
}

func TestPickBestCandidate_PriorityDominatesQuality(t *testing.T) {
	best, ok := PickBestCandidate([]entity.Candidate{
		{URL: "low", Priority: 4, Quality: 1_000_000_000},
		{URL: "high", Priority: 5, Quality: 0},
	})
	require.True(t, ok)
	assert.Equal(t, "high", best.URL)
}

func TestPickBestCandidate_QualityAndTies(t *testing.T) {
	best, _ := PickBestCandidate([]entity.Candidate{
		{URL: "a", Priority: 3, Quality: 100},
		{URL: "b", Priority: 3, Quality: 200},
		{URL: "c", Priority: 3, Quality: 200},
	})
	assert.Equal(t, "b", best.URL)

	_, ok := PickBestCandidate(nil)
	assert.False(t, ok)
}

func TestPickSrcsetCandidate(t *testing.T) {
	cands := []parse.SrcsetCandidate{
		{URL: "a", Width: 320},
		{URL: "b", Width: 640},
		{URL: "c", Width: 1280},
	}

	got, ok := PickSrcsetCandidate(cands, 300, 1)
	require.True(t, ok)
	assert.Equal(t, "a", got.URL, "tightest candidate covering the target")

	got, _ = PickSrcsetCandidate(cands, 2000, 1)
	assert.Equal(t, "c", got.URL, "largest when nothing covers the target")

	got, _ = PickSrcsetCandidate(cands, 300, 2)
	assert.Equal(t, "b", got.URL, "dpr scales the target")

	got, _ = PickSrcsetCandidate(cands, 0, 1)
	assert.Equal(t, "c", got.URL, "unknown width picks the largest")
}

func TestPickSrcsetCandidate_Densities(t *testing.T) {
	cands := []parse.SrcsetCandidate{
		{URL: "one"},
		{URL: "three", Density: 3},
		{URL: "two", Density: 2},
	}

	got, _ := PickSrcsetCandidate(cands, 400, 1)
	assert.Equal(t, "three", got.URL)

	got, _ = PickSrcsetCandidate(cands, 0, 1)
	assert.Equal(t, "three", got.URL)

	_, ok := PickSrcsetCandidate(nil, 100, 1)
	assert.False(t, ok)
}

func TestExtractLinkedImageURLs(t *testing.T) {
	base := "https://www.example.com/page"

	assert.Equal(t, []string{"https://cdn.x.com/a.jpg"},
		ExtractLinkedImageURLs("https://cdn.x.com/a.jpg", base))

	got := ExtractLinkedImageURLs("https://www.google.com/imgres?imgurl=https%3A%2F%2Fphotos.x.com%2Fbig.png&tbnid=1", base)
	assert.Equal(t, []string{"https://photos.x.com/big.png"}, got)

	got = ExtractLinkedImageURLs("/redirect?u=https%253A%252F%252Fcdn.y.com%252Fz.webp", base)
	assert.Equal(t, []string{"https://cdn.y.com/z.webp"}, got, "double-encoded values are unwrapped")

	assert.Empty(t, ExtractLinkedImageURLs("https://www.example.com/article?id=5", base))
	assert.Empty(t, ExtractLinkedImageURLs("javascript:void(0)", base))
}
