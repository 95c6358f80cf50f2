package metrics_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/JaimeStill/counsel/pkg/metrics"
)

func TestRecording(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	m.LLMRequest("extractor", time.Second, nil)
	m.LLMRequest("extractor", time.Second, errors.New("boom"))
	m.LLMRequest("judge", time.Second, nil)
	m.Chunk(nil)
	m.Chunk(errors.New("boom"))
	m.Chunk(errors.New("boom"))
	m.Clause("insurance", metrics.OutcomeMissing)
	m.QAPairs(metrics.OutcomeMatched, 4)
	m.QAPairs(metrics.OutcomeUnmatched, 0)

	requests := `
# HELP counsel_llm_requests_total LLM completion requests by caller role and outcome
# TYPE counsel_llm_requests_total counter
counsel_llm_requests_total{outcome="failure",role="extractor"} 1
counsel_llm_requests_total{outcome="success",role="extractor"} 1
counsel_llm_requests_total{outcome="success",role="judge"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(requests), "counsel_llm_requests_total"); err != nil {
		t.Errorf("llm requests: %v", err)
	}

	if n, err := testutil.GatherAndCount(reg, "counsel_extraction_chunks_total"); err != nil || n != 2 {
		t.Errorf("chunk series = %d (err %v), want 2", n, err)
	}

	expected := `
# HELP counsel_qa_pairs_total Generated Q&A pairs by match outcome
# TYPE counsel_qa_pairs_total counter
counsel_qa_pairs_total{outcome="matched"} 4
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "counsel_qa_pairs_total"); err != nil {
		t.Errorf("qa pairs: %v", err)
	}
}

func TestDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := metrics.New(reg); err != nil {
		t.Fatalf("first New error: %v", err)
	}
	if _, err := metrics.New(reg); err == nil {
		t.Error("expected error registering collectors twice")
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	m.LLMRequest("extractor", time.Second, nil)
	m.Chunk(nil)
	m.Clause("insurance", metrics.OutcomeSuccess)
	m.Section(errors.New("boom"))
	m.QAPairs(metrics.OutcomeMatched, 1)
	m.RubricQuestion(nil)
}

func TestWriteFile(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	m.Chunk(nil)

	path := filepath.Join(t.TempDir(), "counsel.prom")
	if err := metrics.WriteFile(path, reg); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if !strings.Contains(string(data), `counsel_extraction_chunks_total{outcome="success"} 1`) {
		t.Errorf("metrics file missing chunk counter:\n%s", data)
	}
}
