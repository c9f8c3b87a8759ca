package extract

import (
	"strings"

	"github.com/agext/levenshtein"
)

// Similarity returns a case-insensitive Levenshtein similarity in [0,1].
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" && b == "" {
		return 1
	}
	return levenshtein.Similarity(a, b, nil)
}
