package normalize

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// FuzzyMatch finds the best match for value among candidates using
// subsequence-based fuzzy ranking, returning ok=false if nothing clears
// threshold. An exact, case-insensitive match always scores 1.0.
func FuzzyMatch(value string, candidates []string, threshold float64) (match string, similarity float64, ok bool) {
	if value == "" || len(candidates) == 0 {
		return "", 0, false
	}
	lower := strings.ToLower(strings.TrimSpace(value))

	for _, c := range candidates {
		if strings.ToLower(strings.TrimSpace(c)) == lower {
			return c, 1.0, true
		}
	}

	bestCandidate := ""
	bestSim := 0.0
	for _, c := range candidates {
		sim := similarityScore(lower, c)
		if sim > bestSim {
			bestSim = sim
			bestCandidate = c
		}
	}
	if bestCandidate != "" && bestSim >= threshold {
		return bestCandidate, bestSim, true
	}
	return "", 0, false
}

// Similarity reports the normalized [0,1] similarity between a and b,
// using the same scoring function as FuzzyMatch (1.0 for an exact,
// case-insensitive match).
func Similarity(a, b string) float64 {
	al, bl := strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	if al == bl {
		return 1.0
	}
	return similarityScore(al, b)
}

// similarityScore normalizes the library's rank (lower is a tighter
// subsequence match, -1 is no match at all) into a [0,1] similarity by
// comparing the rank against the longer string's length — a perfect
// subsequence match with no gaps approaches 1.0, a weak or absent match
// approaches 0.0.
func similarityScore(lower, candidate string) float64 {
	candLower := strings.ToLower(strings.TrimSpace(candidate))
	rank := fuzzy.RankMatch(lower, candLower)
	if rank < 0 {
		return 0
	}
	maxLen := len(lower)
	if len(candLower) > maxLen {
		maxLen = len(candLower)
	}
	if maxLen == 0 {
		return 0
	}
	sim := 1.0 - float64(rank)/float64(maxLen)
	if sim < 0 {
		sim = 0
	}
	if sim > 1 {
		sim = 1
	}
	return sim
}
