// Package metrics records LLM call, chunk, clause, section and Q&A outcomes as
// Prometheus collectors. A nil *Metrics is valid and records nothing.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "counsel"

// Outcome label values.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeMissing   = "missing"
	OutcomeSkipped   = "skipped"
	OutcomeMatched   = "matched"
	OutcomeUnmatched = "unmatched"
)

// Metrics groups the collectors registered by New.
type Metrics struct {
	llmRequests     *prometheus.CounterVec
	llmDuration     *prometheus.HistogramVec
	chunks          *prometheus.CounterVec
	clauses         *prometheus.CounterVec
	sections        *prometheus.CounterVec
	qaPairs         *prometheus.CounterVec
	rubricQuestions *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "LLM completion requests by caller role and outcome",
		}, []string{"role", "outcome"}),

		llmDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "LLM completion latency including retries",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"role"}),

		chunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_chunks_total",
			Help:      "Document chunks sent for structured extraction",
		}, []string{"outcome"}),

		clauses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clause_assessments_total",
			Help:      "Clause risk assessments by category and outcome",
		}, []string{"category", "outcome"}),

		sections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_sections_total",
			Help:      "Document sections sent for Q&A generation",
		}, []string{"outcome"}),

		qaPairs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "qa_pairs_total",
			Help:      "Generated Q&A pairs by match outcome",
		}, []string{"outcome"}),

		rubricQuestions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rubric_questions_total",
			Help:      "Rubric questions evaluated by outcome",
		}, []string{"outcome"}),
	}

	collectors := []prometheus.Collector{
		m.llmRequests,
		m.llmDuration,
		m.chunks,
		m.clauses,
		m.sections,
		m.qaPairs,
		m.rubricQuestions,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}

	return m, nil
}

// LLMRequest records one completion call made on behalf of role.
func (m *Metrics) LLMRequest(role string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.llmRequests.WithLabelValues(role, outcome(err)).Inc()
	m.llmDuration.WithLabelValues(role).Observe(d.Seconds())
}

// Chunk records the outcome of extracting one chunk.
func (m *Metrics) Chunk(err error) {
	if m == nil {
		return
	}
	m.chunks.WithLabelValues(outcome(err)).Inc()
}

// Clause records the outcome of assessing one clause category.
func (m *Metrics) Clause(category, outcome string) {
	if m == nil {
		return
	}
	m.clauses.WithLabelValues(category, outcome).Inc()
}

// Section records the outcome of generating Q&A pairs for one section.
func (m *Metrics) Section(err error) {
	if m == nil {
		return
	}
	m.sections.WithLabelValues(outcome(err)).Inc()
}

// QAPairs adds n generated pairs with the given match outcome.
func (m *Metrics) QAPairs(outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.qaPairs.WithLabelValues(outcome).Add(float64(n))
}

// RubricQuestion records the outcome of evaluating one rubric question.
func (m *Metrics) RubricQuestion(err error) {
	if m == nil {
		return
	}
	m.rubricQuestions.WithLabelValues(outcome(err)).Inc()
}

// WriteFile writes every metric gathered by g to path in the Prometheus
// text exposition format.
func WriteFile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics file: %w", err)
	}
	return nil
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
