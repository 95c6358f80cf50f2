package evaluation

import (
	"regexp"
	"strings"
)

var (
	questionPattern = regexp.MustCompile(`^Q\d+:`)
	answerPattern   = regexp.MustCompile(`^A\d+:`)
)

// QAPair is one question and answer, tagged with the section header it
// appeared under.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Section  string `json:"section,omitempty"`
}

// ParseQA reads Q&A pairs from markdown. A "## SECTION ..." line sets the
// section for the pairs that follow. A "Qn:" line yields a pair only when the
// next line is an "An:" line; other content is ignored.
func ParseQA(markdown string) []QAPair {
	var (
		pairs   []QAPair
		section string
	)

	lines := strings.Split(markdown, "\n")
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])

		if strings.HasPrefix(line, "## SECTION") {
			section = strings.TrimSpace(strings.ReplaceAll(line, "##", ""))
			continue
		}

		if !questionPattern.MatchString(line) || i+1 >= len(lines) {
			continue
		}

		next := strings.TrimSpace(lines[i+1])
		if !answerPattern.MatchString(next) {
			continue
		}

		pairs = append(pairs, QAPair{
			Question: afterColon(line),
			Answer:   afterColon(next),
			Section:  section,
		})
		i++
	}

	return pairs
}

func afterColon(s string) string {
	_, rest, _ := strings.Cut(s, ":")
	return strings.TrimSpace(rest)
}
