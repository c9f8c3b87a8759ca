package compare

import (
	"fmt"
	"math"
	"strings"

	"github.com/agext/levenshtein"
)

// ruleDecision is the outcome of a deterministic, type-specific comparison.
type ruleDecision struct {
	match      bool
	confidence float64
	reasoning  string
}

// nameTokensMatch compares person/company names by token coverage: the
// fraction of important tokens on the smaller side that fuzzy-match a token
// on the other side. Short tokens (titles, initials) are ignored.
func nameTokensMatch(source, extracted string, tokenSimilarity, coverageThreshold float64) ruleDecision {
	srcTokens := importantTokens(source)
	extTokens := importantTokens(extracted)
	if len(srcTokens) == 0 || len(extTokens) == 0 {
		return ruleDecision{reasoning: "no comparable name tokens"}
	}

	// Coverage is measured from the side with fewer important tokens so a
	// middle name on one side does not sink the score.
	a, b := srcTokens, extTokens
	if len(b) < len(a) {
		a, b = b, a
	}

	covered := 0
	for _, t := range a {
		for _, u := range b {
			if levenshtein.Similarity(t, u, nil) >= tokenSimilarity {
				covered++
				break
			}
		}
	}
	coverage := float64(covered) / float64(len(a))

	return ruleDecision{
		match:      coverage > coverageThreshold,
		confidence: clamp(0.5 + coverage/2),
		reasoning:  fmt.Sprintf("name token coverage %.2f", coverage),
	}
}

// importantTokens drops tokens of two characters or fewer, such as initials and
// most honorific abbreviations after punctuation stripping.
func importantTokens(s string) []string {
	var out []string
	for _, tok := range strings.Fields(s) {
		if len([]rune(tok)) > 2 {
			out = append(out, tok)
		}
	}
	return out
}

// amountsMatch compares monetary/numeric values by relative difference.
// Confidence decays linearly as the difference approaches the tolerance.
func amountsMatch(source, extracted string, tolerance float64) (ruleDecision, bool) {
	sv, okS := ParseAmount(source)
	ev, okE := ParseAmount(extracted)
	if !okS || !okE {
		return ruleDecision{}, false
	}

	denom := math.Max(math.Abs(sv), math.Abs(ev))
	if denom == 0 {
		return ruleDecision{match: true, confidence: 0.98, reasoning: "both amounts are zero"}, true
	}

	relDiff := math.Abs(sv-ev) / denom
	if relDiff < tolerance {
		return ruleDecision{
			match:      true,
			confidence: clamp(0.98 - relDiff/tolerance*0.1),
			reasoning:  fmt.Sprintf("relative difference %.4f within tolerance", relDiff),
		}, true
	}
	return ruleDecision{
		match:      false,
		confidence: clamp(0.9 - relDiff),
		reasoning:  fmt.Sprintf("relative difference %.4f exceeds tolerance", relDiff),
	}, true
}

// textSimilarity is the Levenshtein-based similarity of two normalized strings.
func textSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	return levenshtein.Similarity(a, b, nil)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
