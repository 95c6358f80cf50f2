package rubric

import (
	"regexp"
	"strconv"
	"strings"
)

// categories maps each header marker to its category name, in rubric order.
var categories = []struct{ marker, name string }{
	{"🟥", "LIABILITY STRUCTURE"},
	{"🟧", "INDEMNIFICATION"},
	{"🟨", "IP OWNERSHIP"},
	{"🟩", "CONFIDENTIALITY & DATA HANDLING"},
	{"🟦", "INSURANCE"},
	{"🟫", "OPERATIONAL PERFORMANCE"},
	{"⬛", "TERMINATION & SURVIVAL"},
	{"⬜", "COMMERCIAL RESTRICTIONS"},
}

var (
	categoryNumber = regexp.MustCompile(`(\d+)\.`)
	questionLine   = regexp.MustCompile(`^Q(\d+):\s*(.+)`)
)

// Question is one rubric question with the guidance used to grade it.
type Question struct {
	Category       string `json:"category"`
	CategoryNumber int    `json:"category_number"`
	QuestionNumber int    `json:"question_number"`
	Question       string `json:"question"`
	Guidance       string `json:"guidance"`
}

// Parse reads a rubric document. A category starts at a line beginning with
// one of the colored square markers and takes its number from the first
// "N." on that line, or the previous number plus one. "Qn:" lines open a
// question and the following "A:" line supplies its guidance; a question
// without guidance is dropped.
func Parse(content string) []Question {
	var (
		out     []Question
		current Question
		open    bool
	)

	flush := func() {
		if open && current.Question != "" && current.Guidance != "" {
			out = append(out, current)
		}
		open = false
	}

	for raw := range strings.SplitSeq(content, "\n") {
		line := strings.TrimSpace(raw)

		if name, ok := categoryHeader(line); ok {
			flush()
			if m := categoryNumber.FindStringSubmatch(line); m != nil {
				current.CategoryNumber, _ = strconv.Atoi(m[1])
			} else {
				current.CategoryNumber++
			}
			current.Category = name
			current.QuestionNumber = 0
			current.Question = ""
			current.Guidance = ""
			continue
		}

		if m := questionLine.FindStringSubmatch(line); m != nil {
			flush()
			current.QuestionNumber, _ = strconv.Atoi(m[1])
			current.Question = strings.TrimSpace(m[2])
			current.Guidance = ""
			open = true
			continue
		}

		if g, ok := strings.CutPrefix(line, "A:"); ok && open {
			current.Guidance = strings.TrimSpace(g)
		}
	}
	flush()

	return out
}

func categoryHeader(line string) (string, bool) {
	for _, c := range categories {
		if strings.HasPrefix(line, c.marker) {
			return c.name, true
		}
	}
	return "", false
}
