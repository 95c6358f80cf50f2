// Package chunking splits long documents into bounded segments, preferring
// clause and section headers, then paragraph and line breaks, as split points.
//
// All sizes and offsets are measured in runes so a cut never lands inside a
// multi-byte code point.
package chunking

import (
	"regexp"
	"slices"
	"unicode"
	"unicode/utf8"
)

// boundaryPatterns are tried in order. Each match marks the start of a
// numbered clause ("1.1", "2(a)") or a literal section header.
var boundaryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\n\s*\d+\.\d+`),
	regexp.MustCompile(`\n\s*\d+\([a-z]\)`),
	regexp.MustCompile(`\n\s*SECTION\s+\d+`),
	regexp.MustCompile(`\n\s*Article\s+\d+`),
	regexp.MustCompile(`\n\s*Clause\s+\d+`),
}

var (
	paragraphBreak = []rune("\n\n")
	lineBreak      = []rune("\n")
)

// Span is a trimmed segment of the source text. Start and End are rune
// offsets into the source (half-open); Size is End - Start.
type Span struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Size  int    `json:"size"`
	Text  string `json:"text"`
}

// Chunk splits text into ordered, non-empty segments of at most maxSize runes.
// Text that already fits is returned unchanged as a single chunk.
func Chunk(text string, maxSize int) []string {
	spans := Split(text, maxSize)
	chunks := make([]string, len(spans))
	for i, s := range spans {
		chunks[i] = s.Text
	}
	return chunks
}

// Split is Chunk with source offsets. It panics if maxSize is not positive.
func Split(text string, maxSize int) []Span {
	if maxSize <= 0 {
		panic("chunking: maxSize must be positive")
	}
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= maxSize {
		return []Span{{Start: 0, End: len(runes), Size: len(runes), Text: text}}
	}

	bounds := boundaries(text, len(runes), maxSize)

	var spans []Span
	for i := 0; i < len(bounds)-1; i++ {
		spans = append(spans, splitWindow(runes, bounds[i], bounds[i+1], maxSize)...)
	}

	spans = forceSplit(runes, spans, maxSize)

	return slices.DeleteFunc(spans, func(s Span) bool { return s.Size == 0 })
}

// boundaries returns sorted, unique rune offsets that always include 0 and
// total. A candidate is kept only when it sits more than maxSize/3 runes past the
// most recently accepted candidate, across all patterns.
func boundaries(text string, total, maxSize int) []int {
	points := []int{0}
	last := 0
	minGap := maxSize / 3

	for _, re := range boundaryPatterns {
		bytePos, runePos := 0, 0
		for _, m := range re.FindAllStringIndex(text, -1) {
			runePos += utf8.RuneCountInString(text[bytePos:m[0]])
			bytePos = m[0]
			if runePos > last+minGap {
				points = append(points, runePos)
				last = runePos
			}
		}
	}

	points = append(points, total)
	slices.Sort(points)
	return slices.Compact(points)
}

// splitWindow re-splits runes[start:end] until every piece fits, preferring a
// paragraph break in the last 40% of the window, then a line break in the
// last 30%, then a hard cut at maxSize.
func splitWindow(runes []rune, start, end, maxSize int) []Span {
	var spans []Span

	for end-start > maxSize {
		window := runes[start : start+maxSize]
		cut := maxSize

		if p := lastIndex(window, paragraphBreak, maxSize-int(float64(maxSize)*0.4)); p >= 0 && float64(p) > float64(maxSize)*0.6 {
			cut = p + len(paragraphBreak)
		} else if p := lastIndex(window, lineBreak, maxSize-int(float64(maxSize)*0.3)); p >= 0 && float64(p) > float64(maxSize)*0.7 {
			cut = p + len(lineBreak)
		}

		spans = append(spans, span(runes, start, start+cut))
		start, end = trim(runes, start+cut, end)
	}

	if s, e := trim(runes, start, end); e > s {
		spans = append(spans, span(runes, s, e))
	}

	return spans
}

// forceSplit cuts any residual oversized span at fixed maxSize-rune widths.
func forceSplit(runes []rune, spans []Span, maxSize int) []Span {
	out := make([]Span, 0, len(spans))
	for _, s := range spans {
		if s.Size <= maxSize {
			out = append(out, s)
			continue
		}
		start, end := s.Start, s.End
		for end-start > maxSize {
			out = append(out, span(runes, start, start+maxSize))
			start, end = trim(runes, start+maxSize, end)
		}
		if end > start {
			out = append(out, span(runes, start, end))
		}
	}
	return out
}

// span builds a trimmed Span over runes[start:end].
func span(runes []rune, start, end int) Span {
	s, e := trim(runes, start, end)
	return Span{
		Start: s,
		End:   e,
		Size:  e - s,
		Text:  string(runes[s:e]),
	}
}

func trim(runes []rune, start, end int) (int, int) {
	for start < end && unicode.IsSpace(runes[start]) {
		start++
	}
	for end > start && unicode.IsSpace(runes[end-1]) {
		end--
	}
	return start, end
}

// lastIndex returns the position of the last occurrence of sep that lies
// entirely within window[from:], or -1.
func lastIndex(window, sep []rune, from int) int {
	from = max(from, 0)
	for i := len(window) - len(sep); i >= from; i-- {
		if slices.Equal(window[i:i+len(sep)], sep) {
			return i
		}
	}
	return -1
}
