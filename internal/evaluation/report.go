package evaluation

import (
	"fmt"
	"strings"
)

const maxListedKeywords = 10

// Text renders the report for people: summary scores followed by every
// matched pair with its judgment and up to ten keywords per list.
func (r *Report) Text() string {
	rule := strings.Repeat("=", 80)

	lines := []string{
		rule,
		"EVALUATION REPORT",
		rule,
		"",
		fmt.Sprintf("Total Ground Truth Q&A Pairs: %d", r.TotalGroundTruthPairs),
		fmt.Sprintf("Total Generated Q&A Pairs: %d", r.TotalGeneratedPairs),
		fmt.Sprintf("Matched Pairs: %d", r.MatchedPairs),
		fmt.Sprintf("Match Rate: %.2f%%", r.MatchRate*100),
		"",
		"SCORES:",
		fmt.Sprintf("  Average LLM Score: %.3f", r.AverageLLMScore),
		fmt.Sprintf("  Average Keyword Score: %.3f", r.AverageKeywordScore),
		fmt.Sprintf("  Average Combined Score: %.3f", r.AverageCombinedScore),
		"",
		rule,
		"DETAILED RESULTS",
		rule,
		"",
	}

	for i, res := range r.Results {
		section := res.Section
		if section == "" {
			section = "N/A"
		}
		lines = append(lines,
			fmt.Sprintf("\n--- Pair %d ---", i+1),
			"Section: "+section,
			"Question: "+res.Question,
			"",
			"Ground Truth Answer:",
			res.GroundTruthAnswer,
			"",
			"Generated Answer:",
			res.GeneratedAnswer,
			"",
			fmt.Sprintf("LLM Score: %.3f", res.LLMScore),
			fmt.Sprintf("Keyword Score: %.3f", res.KeywordScore),
			fmt.Sprintf("Combined Score: %.3f", res.CombinedScore),
			"",
			"LLM Judgment:",
			res.LLMJudgment,
			"",
			keywordLine("Matched Keywords", res.MatchedKeywords),
			keywordLine("Missing Keywords", res.MissingKeywords),
			"",
		)
	}

	return strings.Join(lines, "\n")
}

func keywordLine(label string, words []string) string {
	shown := words[:min(len(words), maxListedKeywords)]
	return fmt.Sprintf("%s (%d): %s", label, len(words), strings.Join(shown, ", "))
}
