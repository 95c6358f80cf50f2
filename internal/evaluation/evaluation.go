// Package evaluation scores generated Q&A pairs against a ground truth by
// pairing questions on keyword similarity and grading each answer pair with
// an LLM judge and keyword overlap.
package evaluation

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/counsel/pkg/keywords"
	"github.com/JaimeStill/counsel/pkg/metrics"
)

// Weights combine the judge and keyword scores. They are applied as given,
// without normalization.
type Weights struct {
	LLM     float64 `json:"llm"`
	Keyword float64 `json:"keyword"`
}

// DefaultWeights favors the judge over keyword overlap.
var DefaultWeights = Weights{LLM: 0.7, Keyword: 0.3}

// Validate rejects negative or non-finite weights and the all-zero pair.
func (w Weights) Validate() error {
	for _, f := range []float64{w.LLM, w.Keyword} {
		if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: llm=%v keyword=%v", ErrInvalidWeights, w.LLM, w.Keyword)
		}
	}
	if w.LLM == 0 && w.Keyword == 0 {
		return fmt.Errorf("%w: both weights are zero", ErrInvalidWeights)
	}
	return nil
}

// Warn describes weights that do not sum to 1 within 0.01. It returns "" for
// weights that do.
func (w Weights) Warn() string {
	sum := w.LLM + w.Keyword
	if math.Abs(sum-1) <= 0.01 {
		return ""
	}
	return fmt.Sprintf("weights sum to %.2f, not 1.0; combined scores are not normalized", sum)
}

// Result is the evaluation of one matched Q&A pair.
type Result struct {
	Question          string   `json:"question"`
	Section           string   `json:"section,omitempty"`
	GroundTruthAnswer string   `json:"ground_truth_answer"`
	GeneratedAnswer   string   `json:"generated_answer"`
	Similarity        float64  `json:"question_similarity"`
	LLMScore          float64  `json:"llm_score"`
	KeywordScore      float64  `json:"keyword_score"`
	CombinedScore     float64  `json:"combined_score"`
	LLMJudgment       string   `json:"llm_judgment"`
	MatchedKeywords   []string `json:"matched_keywords"`
	MissingKeywords   []string `json:"missing_keywords"`
}

// Report aggregates the results of one evaluation run.
type Report struct {
	RunID                 uuid.UUID `json:"run_id"`
	Weights               Weights   `json:"weights"`
	TotalGroundTruthPairs int       `json:"total_ground_truth_pairs"`
	TotalGeneratedPairs   int       `json:"total_generated_pairs"`
	MatchedPairs          int       `json:"matched_pairs"`
	MatchRate             float64   `json:"match_rate"`
	AverageLLMScore       float64   `json:"average_llm_score"`
	AverageKeywordScore   float64   `json:"average_keyword_score"`
	AverageCombinedScore  float64   `json:"average_combined_score"`
	Results               []Result  `json:"results"`
	UnmatchedGroundTruth  int       `json:"unmatched_ground_truth"`
	UnmatchedGenerated    int       `json:"unmatched_generated"`
}

// Evaluator runs the matching and scoring pipeline.
type Evaluator struct {
	judge   Judge
	workers int
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates an Evaluator that grades up to workers pairs concurrently.
func New(j Judge, workers int, m *metrics.Metrics, logger *slog.Logger) *Evaluator {
	return &Evaluator{
		judge:   j,
		workers: max(workers, 1),
		metrics: m,
		logger:  logger.With("component", "evaluation"),
	}
}

// Evaluate parses both markdown documents, pairs their questions and scores
// every matched pair. Results follow the order of the generated pairs.
func (e *Evaluator) Evaluate(ctx context.Context, truth, generated string, w Weights) (*Report, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	truthPairs := ParseQA(truth)
	genPairs := ParseQA(generated)
	matches := MatchPairs(truthPairs, genPairs)

	report := &Report{
		RunID:                 uuid.New(),
		Weights:               w,
		TotalGroundTruthPairs: len(truthPairs),
		TotalGeneratedPairs:   len(genPairs),
		MatchedPairs:          len(matches),
		UnmatchedGroundTruth:  len(truthPairs) - len(matches),
		UnmatchedGenerated:    len(genPairs) - len(matches),
		Results:               make([]Result, len(matches)),
	}
	logger := e.logger.With("run_id", report.RunID)
	logger.Info("evaluation started",
		"ground_truth_pairs", len(truthPairs),
		"generated_pairs", len(genPairs),
		"matched_pairs", len(matches),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, m := range matches {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			report.Results[i] = e.score(gctx, truthPairs[m.Truth], genPairs[m.Generated], m.Similarity, w)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.metrics.QAPairs(metrics.OutcomeMatched, report.MatchedPairs)
	e.metrics.QAPairs(metrics.OutcomeUnmatched, report.UnmatchedGenerated)

	if len(truthPairs) > 0 {
		report.MatchRate = float64(report.MatchedPairs) / float64(len(truthPairs))
	}
	if n := float64(len(report.Results)); n > 0 {
		for _, r := range report.Results {
			report.AverageLLMScore += r.LLMScore
			report.AverageKeywordScore += r.KeywordScore
			report.AverageCombinedScore += r.CombinedScore
		}
		report.AverageLLMScore /= n
		report.AverageKeywordScore /= n
		report.AverageCombinedScore /= n
	}

	logger.Info("evaluation complete",
		"match_rate", report.MatchRate,
		"average_combined_score", report.AverageCombinedScore,
	)

	return report, nil
}

func (e *Evaluator) score(ctx context.Context, truth, gen QAPair, sim float64, w Weights) Result {
	j := e.judge.Judge(ctx, truth.Question, truth.Answer, gen.Answer)
	kw := keywords.Score(truth.Answer, gen.Answer)

	return Result{
		Question:          truth.Question,
		Section:           truth.Section,
		GroundTruthAnswer: truth.Answer,
		GeneratedAnswer:   gen.Answer,
		Similarity:        sim,
		LLMScore:          j.Score,
		KeywordScore:      kw.Score,
		CombinedScore:     w.LLM*j.Score + w.Keyword*kw.Score,
		LLMJudgment:       j.Text,
		MatchedKeywords:   kw.Matched,
		MissingKeywords:   kw.Missing,
	}
}
