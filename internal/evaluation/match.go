package evaluation

import (
	"strings"

	"github.com/JaimeStill/counsel/pkg/keywords"
)

// MatchThreshold is the question similarity a pairing must exceed.
const MatchThreshold = 0.3

// Match pairs a ground-truth Q&A with a generated one by index.
type Match struct {
	Truth      int     `json:"truth"`
	Generated  int     `json:"generated"`
	Similarity float64 `json:"similarity"`
}

// MatchPairs greedily pairs each generated question, in order, with the most
// similar ground-truth question not yet taken. Similarity is the keyword
// Jaccard of the two questions; when either has no keywords it is 0.5 if one
// question contains the other and 0 otherwise. Ties go to the lowest
// ground-truth index, and pairings at or below MatchThreshold are dropped.
func MatchPairs(truth, generated []QAPair) []Match {
	truthKeys := make([]keywords.Set, len(truth))
	for i, p := range truth {
		truthKeys[i] = keywords.Extract(p.Question)
	}

	taken := make([]bool, len(truth))
	var matches []Match

	for g, gen := range generated {
		genKeys := keywords.Extract(gen.Question)
		best, bestSim := -1, 0.0

		for t := range truth {
			if taken[t] {
				continue
			}
			sim := similarity(gen.Question, truth[t].Question, genKeys, truthKeys[t])
			if sim > bestSim {
				best, bestSim = t, sim
			}
		}

		if best >= 0 && bestSim > MatchThreshold {
			taken[best] = true
			matches = append(matches, Match{Truth: best, Generated: g, Similarity: bestSim})
		}
	}

	return matches
}

func similarity(a, b string, ak, bk keywords.Set) float64 {
	if len(ak) > 0 && len(bk) > 0 {
		return keywords.Similarity(ak, bk)
	}
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if strings.Contains(la, lb) || strings.Contains(lb, la) {
		return 0.5
	}
	return 0
}
