// Package risk scores the clause sections of an extracted agreement record
// and blends the clause scores with structural completeness into an overall
// compliance score and risk level.
package risk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/counsel/internal/schema"
	"github.com/JaimeStill/counsel/pkg/formatting"
	"github.com/JaimeStill/counsel/pkg/llm"
	"github.com/JaimeStill/counsel/pkg/metrics"
	"github.com/JaimeStill/counsel/pkg/record"
)

const (
	neutralScore = 50.0
	// presentFloor keeps a present clause above the 0 reserved for missing ones.
	presentFloor = 5.0

	qualityWeight      = 0.6
	completenessWeight = 0.4
)

// ClauseAssessment is the score for one category.
type ClauseAssessment struct {
	ClauseName      string       `json:"clause_name"`
	ComplianceScore float64      `json:"compliance_score"`
	RiskLevel       Level        `json:"risk_level"`
	RiskFactors     []string     `json:"risk_factors"`
	Recommendations []string     `json:"recommendations"`
	Details         record.Value `json:"details"`
}

// Missing reports whether the clause was absent from the record.
func (c ClauseAssessment) Missing() bool {
	s, _ := c.Details.Get("status")
	v, _ := s.Str()
	return v == "missing"
}

// Result is the outcome of one Assess call.
type Result struct {
	RunID                  uuid.UUID          `json:"run_id"`
	OverallComplianceScore float64            `json:"overall_compliance_score"`
	OverallRiskLevel       Level              `json:"overall_risk_level"`
	StructureCompleteness  float64            `json:"structure_completeness"`
	MissingClausesCount    int                `json:"missing_clauses_count"`
	Summary                string             `json:"summary"`
	ClauseAssessments      []ClauseAssessment `json:"clause_assessments"`
}

// Assessor scores records against a catalog of clause categories.
type Assessor struct {
	llm     llm.Completer
	catalog Catalog
	schema  *schema.Node
	workers int
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates an Assessor. root supplies the wrapper key unwrapped from
// records before assessment.
func New(
	c llm.Completer,
	catalog Catalog,
	root *schema.Node,
	cfg *Config,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Assessor {
	return &Assessor{
		llm:     c,
		catalog: catalog,
		schema:  root,
		workers: max(cfg.Workers, 1),
		metrics: m,
		logger:  logger.With("component", "risk"),
	}
}

// Assess scores every catalog category of rec concurrently and aggregates
// the results in catalog order. Absent or empty clauses score 0 without a
// model call; model failures degrade to a neutral 50.
func (a *Assessor) Assess(ctx context.Context, rec record.Value) (*Result, error) {
	rec = a.schema.Unwrap(rec)
	if rec.Kind() != record.KindObject {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidRecord, rec.Kind())
	}

	res := &Result{
		RunID:             uuid.New(),
		ClauseAssessments: make([]ClauseAssessment, len(a.catalog)),
	}
	logger := a.logger.With("run_id", res.RunID)
	logger.Info("risk assessment started", "categories", len(a.catalog))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	present := 0
	for i, cat := range a.catalog {
		data, _ := rec.Get(cat.Key)
		if !data.IsEmpty() {
			present++
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res.ClauseAssessments[i] = a.assess(gctx, logger, cat, data)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.aggregate(res, present)

	logger.Info("risk assessment complete",
		"overall_score", res.OverallComplianceScore,
		"overall_risk", res.OverallRiskLevel,
		"missing", res.MissingClausesCount,
	)

	return res, nil
}

func (a *Assessor) assess(ctx context.Context, logger *slog.Logger, cat Category, data record.Value) ClauseAssessment {
	logger = logger.With("clause", cat.Key)

	if data.IsEmpty() {
		logger.Info("clause missing")
		a.metrics.Clause(cat.Key, metrics.OutcomeMissing)
		return ClauseAssessment{
			ClauseName:      cat.Key,
			ComplianceScore: 0,
			RiskLevel:       LevelHigh,
			RiskFactors:     []string{cat.Title + " clause is missing or not specified in the MSA"},
			Recommendations: []string{"Add " + cat.Title + " clause to the MSA"},
			Details:         record.Object(record.KV("status", record.String("missing"))),
		}
	}

	if cat.Template == "" {
		logger.Warn("no assessment prompt for clause")
		a.metrics.Clause(cat.Key, metrics.OutcomeSkipped)
		return ClauseAssessment{
			ClauseName:      cat.Key,
			ComplianceScore: neutralScore,
			RiskLevel:       LevelMedium,
			RiskFactors:     []string{"No assessment prompt available"},
			Recommendations: []string{"Review clause manually"},
			Details:         record.Object(),
		}
	}

	ca, err := a.score(ctx, cat, data)
	a.metrics.Clause(cat.Key, outcome(err))
	if err != nil {
		logger.Error("clause assessment failed", "error", err)
		return ClauseAssessment{
			ClauseName:      cat.Key,
			ComplianceScore: neutralScore,
			RiskLevel:       LevelMedium,
			RiskFactors:     []string{"Assessment error: " + err.Error()},
			Recommendations: []string{"Review clause manually"},
			Details:         record.Object(record.KV("error", record.String(err.Error()))),
		}
	}
	return ca
}

// clauseResponse is the JSON shape the clause prompts ask for.
type clauseResponse struct {
	ComplianceScore record.Value `json:"compliance_score"`
	RiskLevel       record.Value `json:"risk_level"`
	RiskFactors     record.Value `json:"risk_factors"`
	Recommendations record.Value `json:"recommendations"`
	Details         record.Value `json:"details"`
}

func (a *Assessor) score(ctx context.Context, cat Category, data record.Value) (ClauseAssessment, error) {
	raw, err := data.MarshalJSON()
	if err != nil {
		return ClauseAssessment{}, err
	}
	var indented bytes.Buffer
	if err := json.Indent(&indented, raw, "", "  "); err != nil {
		return ClauseAssessment{}, err
	}

	prompt := cat.Template +
		"\n\nCLAUSE DATA (JSON):\n" + indented.String() +
		"\n\nAnalyze this clause and provide your risk assessment in JSON format as specified above."

	resp, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		return ClauseAssessment{}, err
	}

	r, err := formatting.Parse[clauseResponse](resp)
	if err != nil {
		return ClauseAssessment{}, err
	}

	score := min(max(number(r.ComplianceScore, neutralScore), 0), 100)
	if score <= 0 {
		score = presentFloor
	}

	level := LevelMedium
	if s, ok := r.RiskLevel.Str(); ok {
		level = ParseLevel(s)
	}

	details := r.Details
	if details.Kind() != record.KindObject {
		details = record.Object()
	}

	return ClauseAssessment{
		ClauseName:      cat.Key,
		ComplianceScore: score,
		RiskLevel:       level,
		RiskFactors:     nonNil(r.RiskFactors.Strings()),
		Recommendations: nonNil(r.Recommendations.Strings()),
		Details:         details,
	}, nil
}

func (a *Assessor) aggregate(res *Result, present int) {
	total := len(res.ClauseAssessments)

	quality := neutralScore
	if total > 0 {
		quality = 0
		for _, ca := range res.ClauseAssessments {
			quality += ca.ComplianceScore
		}
		quality /= float64(total)
		res.StructureCompleteness = 100 * float64(present) / float64(total)
	}
	res.MissingClausesCount = total - present

	res.OverallComplianceScore = qualityWeight*quality + completenessWeight*res.StructureCompleteness
	res.OverallRiskLevel = overallLevel(res.OverallComplianceScore, res.ClauseAssessments)
	res.Summary = summary(res)
}

// overallLevel escalates to HIGH or CRITICAL when even the mildest clause
// rating is that severe, and otherwise bands the overall score.
func overallLevel(score float64, assessments []ClauseAssessment) Level {
	maxSev := LevelMedium.Severity()
	if len(assessments) > 0 {
		maxSev = assessments[0].RiskLevel.Severity()
		for _, ca := range assessments[1:] {
			maxSev = max(maxSev, ca.RiskLevel.Severity())
		}
	}

	switch {
	case maxSev <= LevelHigh.Severity():
		if maxSev == LevelCritical.Severity() {
			return LevelCritical
		}
		return LevelHigh
	case score >= 75:
		return LevelLow
	case score >= 50:
		return LevelMedium
	default:
		return LevelHigh
	}
}

func summary(res *Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Overall Compliance Score: %.1f/100 (%s Risk)\n\n", res.OverallComplianceScore, res.OverallRiskLevel)
	fmt.Fprintf(&sb, "Assessed %d clauses:\n", len(res.ClauseAssessments))
	for _, ca := range res.ClauseAssessments {
		fmt.Fprintf(&sb, "- %s: %.1f/100 (%s)\n", ca.ClauseName, ca.ComplianceScore, ca.RiskLevel)
	}
	return sb.String()
}

func outcome(err error) string {
	if err != nil {
		return metrics.OutcomeFailure
	}
	return metrics.OutcomeSuccess
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// number reads a JSON number or numeric string, returning def otherwise.
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
