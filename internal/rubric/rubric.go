// Package rubric grades contract text against a question rubric. Each
// question is answered by a model on a 1-5 scale; question scores roll up
// into category and overall risk levels.
package rubric

import (
	"cmp"
	"context"
	"log/slog"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/counsel/internal/prompts"
	"github.com/JaimeStill/counsel/internal/risk"
	"github.com/JaimeStill/counsel/pkg/formatting"
	"github.com/JaimeStill/counsel/pkg/llm"
	"github.com/JaimeStill/counsel/pkg/metrics"
	"github.com/JaimeStill/counsel/pkg/record"
)

const (
	neutralScore = 3.0
	maxAnswerLen = 500
)

var (
	scoreFallback = regexp.MustCompile(`(?i)score["']?\s*[:=]\s*([1-5])`)
	levelFallback = regexp.MustCompile(`(?i)risk[_\s]*level["']?\s*[:=]\s*([A-Z]+)`)
)

// Answer is the graded response to one question.
type Answer struct {
	Category       string     `json:"category"`
	CategoryNumber int        `json:"category_number"`
	QuestionNumber int        `json:"question_number"`
	Question       string     `json:"question"`
	Answer         string     `json:"answer"`
	Score          float64    `json:"score"`
	Reasoning      string     `json:"reasoning"`
	RiskLevel      risk.Level `json:"risk_level"`
}

// CategoryScore averages the answers within one category.
type CategoryScore struct {
	Category       string     `json:"category"`
	CategoryNumber int        `json:"category_number"`
	AverageScore   float64    `json:"average_score"`
	RiskLevel      risk.Level `json:"risk_level"`
	Questions      []Answer   `json:"questions"`
}

// Assessment is the outcome of one rubric evaluation.
type Assessment struct {
	RunID             uuid.UUID       `json:"run_id"`
	OverallScore      float64         `json:"overall_score"`
	OverallRiskLevel  risk.Level      `json:"overall_risk_level"`
	TotalQuestions    int             `json:"total_questions"`
	AnsweredQuestions int             `json:"answered_questions"`
	CriticalRisks     []string        `json:"critical_risks"`
	CategoryScores    []CategoryScore `json:"category_scores"`
}

// LevelForScore maps a 1-5 score onto a risk level.
func LevelForScore(score float64) risk.Level {
	switch {
	case score >= 4.5:
		return risk.LevelLow
	case score >= 3.5:
		return risk.LevelMedium
	case score >= 2.5:
		return risk.LevelHigh
	default:
		return risk.LevelCritical
	}
}

// Evaluator answers rubric questions with a model.
type Evaluator struct {
	llm          llm.Completer
	prompts      *prompts.System
	maxContext   int
	maxQuestions int
	workers      int
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// New creates an Evaluator.
func New(c llm.Completer, ps *prompts.System, cfg *Config, m *metrics.Metrics, logger *slog.Logger) *Evaluator {
	return &Evaluator{
		llm:          c,
		prompts:      ps,
		maxContext:   cfg.MaxContextChars,
		maxQuestions: cfg.MaxQuestions,
		workers:      max(cfg.Workers, 1),
		metrics:      m,
		logger:       logger.With("component", "rubric"),
	}
}

// Evaluate parses rubric and grades contract against each question. A failed
// question scores a neutral 3.0; only an empty input or ctx ending fails the
// call.
func (e *Evaluator) Evaluate(ctx context.Context, contract, rubric string) (*Assessment, error) {
	if strings.TrimSpace(contract) == "" {
		return nil, ErrEmptyDocument
	}

	questions := Parse(rubric)
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	total := len(questions)
	if e.maxQuestions > 0 && len(questions) > e.maxQuestions {
		questions = questions[:e.maxQuestions]
	}

	res := &Assessment{
		RunID:             uuid.New(),
		TotalQuestions:    total,
		AnsweredQuestions: len(questions),
		CriticalRisks:     []string{},
	}
	logger := e.logger.With("run_id", res.RunID)
	logger.Info("rubric evaluation started", "questions", len(questions), "total", total)

	excerpt := truncate(contract, e.maxContext)
	answers := make([]Answer, len(questions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, q := range questions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			answers[i] = e.answer(gctx, logger, q, excerpt)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	aggregate(res, answers)

	logger.Info("rubric evaluation complete",
		"overall_score", res.OverallScore,
		"overall_risk", res.OverallRiskLevel,
		"critical_risks", len(res.CriticalRisks),
	)
	return res, nil
}

func (e *Evaluator) answer(ctx context.Context, logger *slog.Logger, q Question, contract string) Answer {
	a := Answer{
		Category:       q.Category,
		CategoryNumber: q.CategoryNumber,
		QuestionNumber: q.QuestionNumber,
		Question:       q.Question,
	}

	resp, err := e.ask(ctx, q, contract)
	e.metrics.RubricQuestion(err)
	if err != nil {
		logger.Error("question evaluation failed",
			"category", q.Category,
			"question", q.QuestionNumber,
			"error", err,
		)
		a.Answer = "Error evaluating: " + err.Error()
		a.Score = neutralScore
		a.Reasoning = "Could not evaluate due to error"
		a.RiskLevel = risk.LevelMedium
		return a
	}

	interpret(&a, resp)
	return a
}

func (e *Evaluator) ask(ctx context.Context, q Question, contract string) (string, error) {
	prompt, err := e.prompts.Compose(prompts.StageRubric,
		prompts.Section{Title: "RUBRIC QUESTION", Body: q.Question},
		prompts.Section{Title: "GUIDANCE FOR EVALUATION", Body: q.Guidance},
		prompts.Section{Title: "CONTRACT TEXT", Body: contract},
	)
	if err != nil {
		return "", err
	}
	return e.llm.Complete(ctx, prompt)
}

// answerResponse is the JSON shape the rubric stage asks for.
type answerResponse struct {
	Answer    record.Value `json:"answer"`
	Score     record.Value `json:"score"`
	Reasoning record.Value `json:"reasoning"`
	RiskLevel record.Value `json:"risk_level"`
}

// interpret fills a from a JSON response, falling back to pattern matching
// when no JSON object can be read.
func interpret(a *Answer, resp string) {
	if r, err := formatting.Parse[answerResponse](resp); err == nil {
		a.Answer = resp
		if !r.Answer.IsNull() {
			a.Answer = text(r.Answer)
		}
		a.Score = min(max(number(r.Score, neutralScore), 1), 5)
		a.Reasoning = text(r.Reasoning)
		a.RiskLevel = risk.LevelMedium
		if !r.RiskLevel.IsNull() {
			a.RiskLevel = risk.ParseLevel(text(r.RiskLevel))
		}
		return
	}

	a.Answer = truncate(resp, maxAnswerLen)
	a.Reasoning = resp
	a.Score = neutralScore
	if m := scoreFallback.FindStringSubmatch(resp); m != nil {
		a.Score, _ = strconv.ParseFloat(m[1], 64)
	}
	a.RiskLevel = risk.LevelMedium
	if m := levelFallback.FindStringSubmatch(resp); m != nil {
		a.RiskLevel = risk.ParseLevel(m[1])
	}
}

func aggregate(res *Assessment, answers []Answer) {
	var order []string
	groups := make(map[string][]Answer)
	sum := 0.0
	for _, a := range answers {
		if _, ok := groups[a.Category]; !ok {
			order = append(order, a.Category)
		}
		groups[a.Category] = append(groups[a.Category], a)
		sum += a.Score
	}

	for _, name := range order {
		qs := groups[name]
		avg := 0.0
		for _, a := range qs {
			avg += a.Score
		}
		avg /= float64(len(qs))
		res.CategoryScores = append(res.CategoryScores, CategoryScore{
			Category:       name,
			CategoryNumber: qs[0].CategoryNumber,
			AverageScore:   avg,
			RiskLevel:      LevelForScore(avg),
			Questions:      qs,
		})
	}
	slices.SortStableFunc(res.CategoryScores, func(a, b CategoryScore) int {
		return cmp.Compare(a.CategoryNumber, b.CategoryNumber)
	})

	if len(answers) > 0 {
		res.OverallScore = sum / float64(len(answers))
	}
	res.OverallRiskLevel = LevelForScore(res.OverallScore)

	for _, cs := range res.CategoryScores {
		if cs.RiskLevel == risk.LevelHigh || cs.RiskLevel == risk.LevelCritical {
			res.CriticalRisks = append(res.CriticalRisks, cs.Category)
		}
	}
}

func number(v record.Value, def float64) float64 {
	if n, ok := v.Num(); ok {
		return n
	}
	if s, ok := v.Str(); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && !math.IsNaN(f) {
			return f
		}
	}
	return def
}

func text(v record.Value) string {
	if s, ok := v.Str(); ok {
		return s
	}
	if v.IsNull() {
		return ""
	}
	b, _ := v.MarshalJSON()
	return string(b)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
