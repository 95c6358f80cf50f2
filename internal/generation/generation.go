// Package generation turns contract text into markdown Q&A pairs, one model
// call per document section.
package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/counsel/internal/prompts"
	"github.com/JaimeStill/counsel/pkg/chunking"
	"github.com/JaimeStill/counsel/pkg/llm"
	"github.com/JaimeStill/counsel/pkg/metrics"
)

// Result is the generated Q&A document.
type Result struct {
	RunID uuid.UUID `json:"run_id"`
	// Markdown joins the section outputs under "=== SECTION i ===" headers.
	Markdown string `json:"markdown"`
	Sections int    `json:"sections"`
	// FailedSections lists 1-based section numbers left out of Markdown.
	FailedSections []int `json:"failed_sections,omitempty"`
}

// Generator sends document sections to a model with the Q&A generation prompt.
type Generator struct {
	llm       llm.Completer
	prompts   *prompts.System
	chunkSize int
	workers   int
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New creates a Generator.
func New(c llm.Completer, ps *prompts.System, cfg *Config, m *metrics.Metrics, logger *slog.Logger) *Generator {
	return &Generator{
		llm:       c,
		prompts:   ps,
		chunkSize: cfg.ChunkSize,
		workers:   max(cfg.Workers, 1),
		metrics:   m,
		logger:    logger.With("component", "generation"),
	}
}

// Generate splits text into sections and generates Q&A pairs for each. A
// failed section is logged and left out; the call fails only when every
// section does or ctx ends.
func (g *Generator) Generate(ctx context.Context, text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}
	chunks := chunking.Chunk(text, g.chunkSize)

	res := &Result{RunID: uuid.New(), Sections: len(chunks)}
	logger := g.logger.With("run_id", res.RunID)
	logger.Info("generation started", "sections", len(chunks))

	outputs := make([]string, len(chunks))
	errs := make([]error, len(chunks))

	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)

	for i, chunk := range chunks {
		eg.Go(func() error {
			if err := ectx.Err(); err != nil {
				return err
			}
			start := time.Now()
			outputs[i], errs[i] = g.section(ectx, i+1, chunk)
			g.metrics.Section(errs[i])
			if errs[i] != nil {
				logger.Warn("section failed", "section", i+1, "error", errs[i])
				return nil
			}
			logger.Info("section generated", "section", i+1, "duration", time.Since(start))
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var sb strings.Builder
	var failed []error
	for i, out := range outputs {
		if errs[i] != nil {
			res.FailedSections = append(res.FailedSections, i+1)
			failed = append(failed, fmt.Errorf("section %d: %w", i+1, errs[i]))
			continue
		}
		fmt.Fprintf(&sb, "=== SECTION %d ===\n%s\n", i+1, out)
	}

	if len(failed) == len(chunks) {
		return nil, errors.Join(append([]error{ErrAllSectionsFailed}, failed...)...)
	}

	res.Markdown = sb.String()
	logger.Info("generation complete", "failed_sections", len(res.FailedSections))
	return res, nil
}

func (g *Generator) section(ctx context.Context, n int, chunk string) (string, error) {
	prompt, err := g.prompts.Compose(prompts.StageGenerate, prompts.Section{
		Title: fmt.Sprintf("Document Section %d", n),
		Body:  chunk,
	})
	if err != nil {
		return "", err
	}
	return g.llm.Complete(ctx, prompt)
}
