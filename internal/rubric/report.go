package rubric

import (
	"fmt"
	"strings"
)

// Text renders the assessment for people: the overall score, categories in
// rubric order and the areas rated HIGH or CRITICAL.
func (a *Assessment) Text() string {
	rule := strings.Repeat("=", 80)

	lines := []string{
		rule,
		"RUBRIC RISK ASSESSMENT",
		rule,
		"",
		fmt.Sprintf("Overall Score: %.2f/5 (%s Risk)", a.OverallScore, a.OverallRiskLevel),
		fmt.Sprintf("Questions Answered: %d of %d", a.AnsweredQuestions, a.TotalQuestions),
		"",
		"CATEGORIES:",
	}

	for _, cs := range a.CategoryScores {
		lines = append(lines, fmt.Sprintf("  %d. %s: %.2f/5 (%s)", cs.CategoryNumber, cs.Category, cs.AverageScore, cs.RiskLevel))
		for _, q := range cs.Questions {
			lines = append(lines, fmt.Sprintf("     Q%d: %.1f %s", q.QuestionNumber, q.Score, q.Question))
		}
	}

	if len(a.CriticalRisks) > 0 {
		lines = append(lines, "", "CRITICAL RISK AREAS:")
		for _, c := range a.CriticalRisks {
			lines = append(lines, "  - "+c)
		}
	}

	return strings.Join(lines, "\n") + "\n"
}
