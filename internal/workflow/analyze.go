package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/counsel/internal/extraction"
	"github.com/JaimeStill/counsel/internal/risk"
	"github.com/JaimeStill/counsel/pkg/document"
)

// Analysis is the combined output of one Analyze run. Parse and Risk carry
// the run's ID.
type Analysis struct {
	RunID       uuid.UUID          `json:"run_id"`
	Document    *document.Text     `json:"document"`
	Parse       *extraction.Result `json:"parse"`
	Risk        *risk.Result       `json:"risk"`
	Durations   Durations          `json:"durations"`
	CompletedAt time.Time          `json:"completed_at"`
}

// Durations records wall time per stage.
type Durations struct {
	Extract time.Duration `json:"extract"`
	Parse   time.Duration `json:"parse"`
	Assess  time.Duration `json:"assess"`
}

// Analyze extracts the text of the named document, parses it into a record
// and assesses the record's clauses. A failure in any stage ends the run.
func Analyze(ctx context.Context, rt *Runtime, name string, data []byte) (*Analysis, error) {
	a := &Analysis{RunID: uuid.New()}
	logger := rt.Logger.With("component", "workflow", "run_id", a.RunID)
	logger.Info("analysis started", "document", name, "bytes", len(data))

	begin := time.Now()
	start := begin
	doc, err := document.Extract(ctx, name, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractFailed, err)
	}
	a.Document = doc
	a.Durations.Extract = time.Since(start)
	logger.Info("extract stage complete", "pages", doc.Pages, "duration", a.Durations.Extract)

	start = time.Now()
	parsed, err := rt.Parser.Parse(ctx, doc.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	parsed.RunID = a.RunID
	a.Parse = parsed
	a.Durations.Parse = time.Since(start)
	logger.Info("parse stage complete",
		"chunks", parsed.Chunks,
		"failed_chunks", len(parsed.FailedChunks),
		"duration", a.Durations.Parse,
	)

	start = time.Now()
	assessed, err := rt.Assessor.Assess(ctx, parsed.Record)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAssessFailed, err)
	}
	assessed.RunID = a.RunID
	a.Risk = assessed
	a.Durations.Assess = time.Since(start)
	a.CompletedAt = time.Now()

	logger.Info("analysis complete",
		"overall_score", assessed.OverallComplianceScore,
		"overall_risk", assessed.OverallRiskLevel,
		"duration", a.CompletedAt.Sub(begin),
	)
	return a, nil
}
