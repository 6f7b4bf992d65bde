package store

import (
	"math"
	"strings"
)

// Cosine returns the cosine similarity of two vectors. Mismatched or zero
// vectors score 0 rather than erroring: records without a usable embedding
// simply never win a semantic search.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i] * b[i])
		na += float64(a[i] * a[i])
		nb += float64(b[i] * b[i])
	}

	if na == 0 || nb == 0 {
		return 0
	}

	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// KeywordMatches reports whether text matches the query under the shared
// keyword rule: the exact phrase, or any single word longer than 2
// characters, case-insensitively.
func KeywordMatches(text, query string) bool {
	lowerText := strings.ToLower(text)
	lowerQuery := strings.ToLower(strings.TrimSpace(query))

	if lowerQuery == "" {
		return false
	}

	if strings.Contains(lowerText, lowerQuery) {
		return true
	}

	for _, word := range strings.Fields(lowerQuery) {
		if len([]rune(word)) > 2 && strings.Contains(lowerText, word) {
			return true
		}
	}

	return false
}
