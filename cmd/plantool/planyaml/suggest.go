package planyaml

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// maxEditDistance bounds typo suggestions that are not subsequence matches.
const maxEditDistance = 2

// suggest returns the candidate closest to key, or "" when none is close.
// Abbreviations ("param" for "parameters") are matched first, then typos
// within a small edit distance.
func suggest(key string, candidates []string) string {
	if ranks := fuzzy.RankFindFold(key, candidates); len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}

	best, bestDist := "", maxEditDistance+1
	for _, c := range candidates {
		if d := fuzzy.LevenshteinDistance(key, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
