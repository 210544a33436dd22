package vectorstore

import (
	"math"
	"sort"
)

// L2Distance is the Euclidean distance between two equal length vectors.
func L2Distance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// topK sorts by ascending score, keeping input order for ties, and cuts to k.
func topK(scored []ScoredChunk, k int) []ScoredChunk {
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score < scored[j].Score })
	if k < len(scored) {
		scored = scored[:k]
	}
	return scored
}
