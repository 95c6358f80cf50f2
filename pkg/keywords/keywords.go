// Package keywords scores answer overlap by the Jaccard similarity of their
// significant words.
package keywords

import (
	"maps"
	"regexp"
	"slices"
	"strings"
)

// MinLength is the shortest word counted as a keyword.
const MinLength = 4

var wordPattern = regexp.MustCompile(`\b[a-z]+\b`)

var stopwords = toSet(
	"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for",
	"of", "with", "by", "from", "as", "is", "was", "are", "were", "be",
	"been", "being", "have", "has", "had", "do", "does", "did", "will",
	"would", "should", "could", "may", "might", "must", "can", "this",
	"that", "these", "those", "it", "its", "they", "them", "their",
	"there", "then", "than", "when", "where", "what", "which", "who",
	"whom", "whose", "why", "how", "all", "each", "every", "some", "any",
	"no", "not", "only", "just", "also", "more", "most", "other", "such",
	"same", "very", "much", "many", "few", "little", "own", "shall",
)

// Set is a set of lowercase keywords.
type Set map[string]struct{}

// Sorted returns the members of s in lexical order.
func (s Set) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

// Result is the outcome of comparing a reference answer against a candidate.
type Result struct {
	Score   float64  `json:"score"`
	Matched []string `json:"matched_keywords"`
	Missing []string `json:"missing_keywords"`
}

// Extract returns the lowercase words of at least MinLength letters in text
// that are not stopwords.
func Extract(text string) Set {
	set := Set{}
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if len(w) < MinLength {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		set[w] = struct{}{}
	}
	return set
}

// Score compares the keywords of reference and candidate. Matched holds the
// shared keywords and Missing the reference keywords absent from candidate.
// When only one side has keywords the score is 0 and Missing holds them all.
func Score(reference, candidate string) Result {
	a := Extract(reference)
	b := Extract(candidate)

	switch {
	case len(a) == 0 && len(b) == 0:
		return Result{Score: 1.0, Matched: []string{}, Missing: []string{}}
	case len(a) == 0 || len(b) == 0:
		return Result{Score: 0, Matched: []string{}, Missing: union(a, b).Sorted()}
	}

	matched := Set{}
	missing := Set{}
	for w := range a {
		if _, ok := b[w]; ok {
			matched[w] = struct{}{}
		} else {
			missing[w] = struct{}{}
		}
	}

	return Result{
		Score:   Similarity(a, b),
		Matched: matched.Sorted(),
		Missing: missing.Sorted(),
	}
}

// Similarity returns |a ∩ b| / |a ∪ b|, or 0 when both sets are empty.
func Similarity(a, b Set) float64 {
	u := len(union(a, b))
	if u == 0 {
		return 0
	}

	shared := 0
	for w := range a {
		if _, ok := b[w]; ok {
			shared++
		}
	}
	return float64(shared) / float64(u)
}

func union(a, b Set) Set {
	out := maps.Clone(a)
	if out == nil {
		out = Set{}
	}
	maps.Copy(out, b)
	return out
}

func toSet(words ...string) Set {
	s := make(Set, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}
