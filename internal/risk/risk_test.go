package risk_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/JaimeStill/counsel/internal/prompts"
	"github.com/JaimeStill/counsel/internal/risk"
	"github.com/JaimeStill/counsel/internal/schema"
	"github.com/JaimeStill/counsel/pkg/llm"
	"github.com/JaimeStill/counsel/pkg/metrics"
	"github.com/JaimeStill/counsel/pkg/record"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

const agreement = `{
	"commercial_terms": {"payment_terms": "Net 30"},
	"liability_indemnification": null,
	"intellectual_property": {"ownership": "Client"},
	"termination": {"notice_period": "30 days"},
	"confidentiality": {"term": "5 years"}
}`

var fiveKeys = []string{
	"commercial_terms",
	"liability_indemnification",
	"intellectual_property",
	"termination",
	"confidentiality",
}

func mustParse(t *testing.T, s string) record.Value {
	t.Helper()
	v, err := record.Parse([]byte(s))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	return v
}

func fiveCatalog(t *testing.T) risk.Catalog {
	t.Helper()
	c, err := risk.DefaultCatalog().Select(fiveKeys)
	if err != nil {
		t.Fatalf("Select error: %v", err)
	}
	return c
}

// keyed builds a catalog whose templates start with "CLAUSE <key>" so a fake
// completer can tell the requests apart.
func keyed(keys ...string) risk.Catalog {
	c := make(risk.Catalog, len(keys))
	for i, k := range keys {
		c[i] = risk.Category{Key: k, Title: risk.Title(k), Template: "CLAUSE " + k}
	}
	return c
}

func writeFile(dir, name, content string) error {
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func fixed(resp string) llm.CompleterFunc {
	return func(context.Context, string) (string, error) { return resp, nil }
}

func newAssessor(c llm.Completer, cat risk.Catalog, m *metrics.Metrics) *risk.Assessor {
	return risk.New(c, cat, schema.Default(), &risk.Config{Workers: 3}, m, discard)
}

func TestAssess(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		t.Fatalf("metrics.New error: %v", err)
	}

	var calls atomic.Int32
	c := llm.CompleterFunc(func(_ context.Context, prompt string) (string, error) {
		calls.Add(1)
		if !strings.Contains(prompt, "CLAUSE DATA (JSON):\n{\n  \"") {
			t.Errorf("prompt missing indented clause data:\n%s", prompt)
		}
		return "```json\n" + `{"compliance_score": 80, "risk_level": "low", "risk_factors": ["cap"], "recommendations": ["raise cap"], "details": {"note": "ok"}}` + "\n```", nil
	})

	res, err := newAssessor(c, fiveCatalog(t), m).Assess(context.Background(), mustParse(t, agreement))
	if err != nil {
		t.Fatalf("Assess error: %v", err)
	}

	if got := calls.Load(); got != 4 {
		t.Errorf("calls = %d, want 4", got)
	}
	if res.MissingClausesCount != 1 {
		t.Errorf("MissingClausesCount = %d, want 1", res.MissingClausesCount)
	}
	if res.StructureCompleteness != 80 {
		t.Errorf("StructureCompleteness = %v, want 80", res.StructureCompleteness)
	}
	if math.Abs(res.OverallComplianceScore-70.4) > 1e-9 {
		t.Errorf("OverallComplianceScore = %v, want 70.4", res.OverallComplianceScore)
	}
	if res.OverallRiskLevel != risk.LevelMedium {
		t.Errorf("OverallRiskLevel = %s, want MEDIUM", res.OverallRiskLevel)
	}

	var names []string
	for _, ca := range res.ClauseAssessments {
		names = append(names, ca.ClauseName)
	}
	if diff := cmp.Diff(fiveKeys, names); diff != "" {
		t.Errorf("clause order mismatch (-want +got):\n%s", diff)
	}

	missing := res.ClauseAssessments[1]
	if !missing.Missing() || missing.ComplianceScore != 0 || missing.RiskLevel != risk.LevelHigh {
		t.Errorf("missing clause = %+v", missing)
	}
	if diff := cmp.Diff([]string{"Liability Indemnification clause is missing or not specified in the MSA"}, missing.RiskFactors); diff != "" {
		t.Errorf("missing RiskFactors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Add Liability Indemnification clause to the MSA"}, missing.Recommendations); diff != "" {
		t.Errorf("missing Recommendations mismatch (-want +got):\n%s", diff)
	}

	scored := res.ClauseAssessments[0]
	if scored.ComplianceScore != 80 || scored.RiskLevel != risk.LevelLow {
		t.Errorf("scored clause = %+v", scored)
	}
	if diff := cmp.Diff([]string{"raise cap"}, scored.Recommendations); diff != "" {
		t.Errorf("Recommendations mismatch (-want +got):\n%s", diff)
	}
	if note, _ := scored.Details.Lookup("note"); !note.Equal(record.String("ok")) {
		t.Errorf("details note = %v", note)
	}

	wantSummary := "Overall Compliance Score: 70.4/100 (MEDIUM Risk)\n\n" +
		"Assessed 5 clauses:\n" +
		"- commercial_terms: 80.0/100 (LOW)\n" +
		"- liability_indemnification: 0.0/100 (HIGH)\n" +
		"- intellectual_property: 80.0/100 (LOW)\n" +
		"- termination: 80.0/100 (LOW)\n" +
		"- confidentiality: 80.0/100 (LOW)\n"
	if diff := cmp.Diff(wantSummary, res.Summary); diff != "" {
		t.Errorf("Summary mismatch (-want +got):\n%s", diff)
	}

	expected := `
# HELP counsel_clause_assessments_total Clause risk assessments by category and outcome
# TYPE counsel_clause_assessments_total counter
counsel_clause_assessments_total{category="commercial_terms",outcome="success"} 1
counsel_clause_assessments_total{category="confidentiality",outcome="success"} 1
counsel_clause_assessments_total{category="intellectual_property",outcome="success"} 1
counsel_clause_assessments_total{category="liability_indemnification",outcome="missing"} 1
counsel_clause_assessments_total{category="termination",outcome="success"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "counsel_clause_assessments_total"); err != nil {
		t.Error(err)
	}
}

func TestAssessOverallLevel(t *testing.T) {
	tests := []struct {
		name   string
		levels map[string]string
		want   risk.Level
	}{
		{
			name:   "all high escalates",
			levels: map[string]string{"a": "HIGH", "b": "HIGH"},
			want:   risk.LevelHigh,
		},
		{
			name:   "all critical escalates",
			levels: map[string]string{"a": "CRITICAL", "b": "CRITICAL"},
			want:   risk.LevelCritical,
		},
		{
			name:   "mixed severity bands the score",
			levels: map[string]string{"a": "CRITICAL", "b": "LOW"},
			want:   risk.LevelLow,
		},
		{
			name:   "unknown level reads as medium",
			levels: map[string]string{"a": "SEVERE", "b": "MEDIUM"},
			want:   risk.LevelLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := llm.CompleterFunc(func(_ context.Context, prompt string) (string, error) {
				key := strings.TrimPrefix(strings.SplitN(prompt, "\n", 2)[0], "CLAUSE ")
				return `{"compliance_score": 90, "risk_level": "` + tt.levels[key] + `"}`, nil
			})
			rec := mustParse(t, `{"a": {"x": 1}, "b": {"y": 2}}`)

			res, err := newAssessor(c, keyed("a", "b"), nil).Assess(context.Background(), rec)
			if err != nil {
				t.Fatalf("Assess error: %v", err)
			}
			if res.OverallRiskLevel != tt.want {
				t.Errorf("OverallRiskLevel = %s, want %s", res.OverallRiskLevel, tt.want)
			}
		})
	}
}

func TestAssessResponses(t *testing.T) {
	tests := []struct {
		name       string
		resp       string
		err        error
		wantScore  float64
		wantLevel  risk.Level
		wantFactor string
	}{
		{
			name:      "zero floored for present clause",
			resp:      `{"compliance_score": 0, "risk_level": "CRITICAL"}`,
			wantScore: 5,
			wantLevel: risk.LevelCritical,
		},
		{
			name:      "numeric string",
			resp:      `{"compliance_score": "85", "risk_level": "LOW"}`,
			wantScore: 85,
			wantLevel: risk.LevelLow,
		},
		{
			name:      "clamped above range",
			resp:      `{"compliance_score": 150, "risk_level": "LOW"}`,
			wantScore: 100,
			wantLevel: risk.LevelLow,
		},
		{
			name:      "defaults when fields absent",
			resp:      `{}`,
			wantScore: 50,
			wantLevel: risk.LevelMedium,
		},
		{
			name:       "unparseable response",
			resp:       "the clause looks fine",
			wantScore:  50,
			wantLevel:  risk.LevelMedium,
			wantFactor: "Assessment error: ",
		},
		{
			name:       "completer error",
			err:        errors.New("connection reset"),
			wantScore:  50,
			wantLevel:  risk.LevelMedium,
			wantFactor: "Assessment error: connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := llm.CompleterFunc(func(context.Context, string) (string, error) {
				return tt.resp, tt.err
			})
			rec := mustParse(t, `{"a": {"x": 1}}`)

			res, err := newAssessor(c, keyed("a"), nil).Assess(context.Background(), rec)
			if err != nil {
				t.Fatalf("Assess error: %v", err)
			}

			ca := res.ClauseAssessments[0]
			if ca.ComplianceScore != tt.wantScore {
				t.Errorf("ComplianceScore = %v, want %v", ca.ComplianceScore, tt.wantScore)
			}
			if ca.RiskLevel != tt.wantLevel {
				t.Errorf("RiskLevel = %s, want %s", ca.RiskLevel, tt.wantLevel)
			}
			if tt.wantFactor != "" {
				if len(ca.RiskFactors) != 1 || !strings.HasPrefix(ca.RiskFactors[0], tt.wantFactor) {
					t.Errorf("RiskFactors = %q, want prefix %q", ca.RiskFactors, tt.wantFactor)
				}
				if _, ok := ca.Details.Get("error"); !ok {
					t.Error("details missing error")
				}
			}
		})
	}
}

func TestAssessRecordShapes(t *testing.T) {
	inner := `{"a": {"x": 1}, "b": null}`
	tests := []struct {
		name    string
		rec     string
		present int
	}{
		{name: "bare", rec: inner, present: 1},
		{name: "wrapped", rec: `{"MASTER_SERVICE_AGREEMENT": ` + inner + `}`, present: 1},
		{name: "double wrapped", rec: `{"MASTER_SERVICE_AGREEMENT": {"MASTER SERVICE AGREEMENT": ` + inner + `}}`, present: 1},
		{name: "sibling beside wrapper", rec: `{"MASTER_SERVICE_AGREEMENT": {"a": {"x": 1}}, "b": {"y": 2}}`, present: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAssessor(fixed(`{"compliance_score": 70}`), keyed("a", "b"), nil)
			res, err := a.Assess(context.Background(), mustParse(t, tt.rec))
			if err != nil {
				t.Fatalf("Assess error: %v", err)
			}
			if got := 2 - res.MissingClausesCount; got != tt.present {
				t.Errorf("present = %d, want %d", got, tt.present)
			}
		})
	}

	t.Run("not an object", func(t *testing.T) {
		a := newAssessor(fixed(`{}`), keyed("a"), nil)
		_, err := a.Assess(context.Background(), mustParse(t, `[1, 2]`))
		if !errors.Is(err, risk.ErrInvalidRecord) {
			t.Errorf("err = %v, want ErrInvalidRecord", err)
		}
	})
}

func TestAssessEmptyTemplate(t *testing.T) {
	var calls atomic.Int32
	c := llm.CompleterFunc(func(context.Context, string) (string, error) {
		calls.Add(1)
		return `{}`, nil
	})

	cat := risk.Catalog{
		{Key: "a", Title: "A"},
		{Key: "b", Title: "B"},
	}
	res, err := newAssessor(c, cat, nil).Assess(context.Background(), mustParse(t, `{"a": {"x": 1}}`))
	if err != nil {
		t.Fatalf("Assess error: %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("calls = %d, want 0", calls.Load())
	}

	present, absent := res.ClauseAssessments[0], res.ClauseAssessments[1]
	if present.ComplianceScore != 50 || present.RiskLevel != risk.LevelMedium {
		t.Errorf("a = %v %s, want 50 MEDIUM", present.ComplianceScore, present.RiskLevel)
	}
	if diff := cmp.Diff([]string{"No assessment prompt available"}, present.RiskFactors); diff != "" {
		t.Errorf("RiskFactors mismatch (-want +got):\n%s", diff)
	}

	// An absent clause is missing whether or not it has a prompt.
	if absent.ComplianceScore != 0 || absent.RiskLevel != risk.LevelHigh || !absent.Missing() {
		t.Errorf("b = %v %s missing=%v, want 0 HIGH missing", absent.ComplianceScore, absent.RiskLevel, absent.Missing())
	}
	if res.MissingClausesCount != 1 {
		t.Errorf("MissingClausesCount = %d, want 1", res.MissingClausesCount)
	}
	if res.StructureCompleteness != 50 {
		t.Errorf("StructureCompleteness = %v, want 50", res.StructureCompleteness)
	}
}

func TestAssessEmptyCatalog(t *testing.T) {
	res, err := newAssessor(fixed(`{}`), nil, nil).Assess(context.Background(), mustParse(t, `{}`))
	if err != nil {
		t.Fatalf("Assess error: %v", err)
	}
	if res.StructureCompleteness != 0 {
		t.Errorf("StructureCompleteness = %v, want 0", res.StructureCompleteness)
	}
	if res.OverallComplianceScore != 30 {
		t.Errorf("OverallComplianceScore = %v, want 30", res.OverallComplianceScore)
	}
	if res.OverallRiskLevel != risk.LevelHigh {
		t.Errorf("OverallRiskLevel = %s, want HIGH", res.OverallRiskLevel)
	}
}

func TestAssessCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newAssessor(fixed(`{}`), keyed("a"), nil).Assess(ctx, mustParse(t, `{"a": {"x": 1}}`))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestCatalog(t *testing.T) {
	c := risk.DefaultCatalog()
	if len(c) != 10 {
		t.Fatalf("len = %d, want 10", len(c))
	}
	for _, cat := range c {
		if cat.Template == "" {
			t.Errorf("%s has no template", cat.Key)
		}
	}

	t.Run("select keeps catalog order", func(t *testing.T) {
		got, err := c.Select([]string{"insurance", "commercial_terms"})
		if err != nil {
			t.Fatalf("Select error: %v", err)
		}
		if len(got) != 2 || got[0].Key != "commercial_terms" || got[1].Key != "insurance" {
			t.Errorf("Select = %+v", got)
		}
	})

	t.Run("select unknown", func(t *testing.T) {
		_, err := c.Select([]string{"warranties", "force_majeure"})
		if !errors.Is(err, risk.ErrUnknownCategory) {
			t.Errorf("err = %v, want ErrUnknownCategory", err)
		}
	})

	t.Run("disabled clause override", func(t *testing.T) {
		dir := t.TempDir()
		if err := writeFile(dir, "clauses/insurance.md", ""); err != nil {
			t.Fatal(err)
		}
		ps, err := prompts.Load(dir, discard)
		if err != nil {
			t.Fatalf("Load error: %v", err)
		}
		cat, err := risk.NewCatalog(ps)
		if err != nil {
			t.Fatalf("NewCatalog error: %v", err)
		}
		if cat[len(cat)-1].Template != "" {
			t.Error("insurance template should be disabled")
		}
	})
}

func TestTitle(t *testing.T) {
	tests := map[string]string{
		"dispute_resolution":        "Dispute Resolution",
		"liability_indemnification": "Liability Indemnification",
		"insurance":                 "Insurance",
	}
	for in, want := range tests {
		if got := risk.Title(in); got != want {
			t.Errorf("Title(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]risk.Level{
		"low":       risk.LevelLow,
		" HIGH ":    risk.LevelHigh,
		"Critical":  risk.LevelCritical,
		"":          risk.LevelMedium,
		"very high": risk.LevelMedium,
	}
	for in, want := range tests {
		if got := risk.ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestConfig(t *testing.T) {
	t.Setenv("TEST_RISK_WORKERS", "4")

	var cfg risk.Config
	if err := cfg.Finalize(&risk.Env{Workers: "TEST_RISK_WORKERS"}); err != nil {
		t.Fatalf("Finalize error: %v", err)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}

	bad := risk.Config{Workers: -1}
	if err := bad.Finalize(nil); err == nil {
		t.Error("expected error for negative workers")
	}
}
