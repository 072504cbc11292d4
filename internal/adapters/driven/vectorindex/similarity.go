// Package vectorindex holds the scoring shared by the in-process vector
// index backends. Each backend lives in its own subpackage.
package vectorindex

import (
	"math"
	"sort"

	"github.com/custodia-labs/notesrag/internal/core/domain"
)

// Cosine returns the cosine similarity of a and b, or 0 when either has
// zero magnitude. The vectors must have equal length.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for k := range a {
		x, y := float64(a[k]), float64(b[k])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// TopK orders matches by descending score and keeps the first k. Equal
// scores keep their input order.
func TopK(matches []domain.QueryMatch, k int) []domain.QueryMatch {
	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}
