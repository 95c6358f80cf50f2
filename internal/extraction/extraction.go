// Package extraction turns contract text into a structured record by prompting
// a model with the extraction schema, splitting documents that exceed the
// request budget and merging the per-chunk records in document order.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/counsel/internal/prompts"
	"github.com/JaimeStill/counsel/internal/schema"
	"github.com/JaimeStill/counsel/pkg/chunking"
	"github.com/JaimeStill/counsel/pkg/formatting"
	"github.com/JaimeStill/counsel/pkg/llm"
	"github.com/JaimeStill/counsel/pkg/metrics"
	"github.com/JaimeStill/counsel/pkg/record"
)

// Result is the outcome of one Parse call.
type Result struct {
	RunID  uuid.UUID    `json:"run_id"`
	Record record.Value `json:"record"`
	Chunks int          `json:"chunks"`
	// FailedChunks holds the 1-based numbers of chunks whose extraction failed.
	FailedChunks []int             `json:"failed_chunks,omitempty"`
	Conflicts    []record.Conflict `json:"conflicts,omitempty"`
	Warnings     []schema.Warning  `json:"warnings,omitempty"`
	Normalized   int               `json:"normalized"`
}

// Sizing is the request plan for a document of a given length.
type Sizing struct {
	// Effective is the largest document slice sent in one request.
	Effective int
	// Chunked reports whether the document must be split.
	Chunked bool
}

// Parser extracts structured records from contract text.
type Parser struct {
	llm     llm.Completer
	schema  *schema.Node
	prompt  string
	cfg     Config
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New renders the extraction prompt for root once and returns a Parser that
// sends it through c.
func New(
	c llm.Completer,
	ps *prompts.System,
	root *schema.Node,
	cfg *Config,
	m *metrics.Metrics,
	logger *slog.Logger,
) (*Parser, error) {
	prompt, err := ps.Compose(prompts.StageExtract, prompts.Section{
		Title: "SCHEMA STRUCTURE",
		Body:  root.Describe(),
	})
	if err != nil {
		return nil, fmt.Errorf("compose extraction prompt: %w", err)
	}

	return &Parser{
		llm:     c,
		schema:  root,
		prompt:  prompt,
		cfg:     *cfg,
		metrics: m,
		logger:  logger.With("component", "extraction"),
	}, nil
}

// Prompt returns the rendered extraction prompt without a document.
func (p *Parser) Prompt() string {
	return p.prompt
}

// Sizing plans requests for a document of docLen characters.
//
// The prompt overhead is budgeted at 1.5x its length. When that leaves no room
// for the document, the budget grows to 2.5x the prompt length. Independently,
// a prompt plus document over MaxRequestSize forces chunking and caps the
// slice size at what still fits under that ceiling.
func (p *Parser) Sizing(docLen int) Sizing {
	promptLen := utf8.RuneCountInString(p.prompt)
	overhead := int(1.5 * float64(promptLen))

	effective := p.cfg.RequestBudget - overhead
	if effective <= 0 {
		budget := int(2.5 * float64(promptLen))
		p.logger.Warn("request budget too small for prompt, growing budget",
			"request_budget", p.cfg.RequestBudget,
			"budget", budget,
		)
		effective = max(budget-overhead, 1)
	}

	s := Sizing{Effective: effective, Chunked: docLen > effective}

	if promptLen+docLen > p.cfg.MaxRequestSize {
		s.Chunked = true
		if room := p.cfg.MaxRequestSize - promptLen; room > 0 {
			s.Effective = min(s.Effective, room)
		} else {
			p.logger.Warn("prompt exceeds max request size, keeping effective size",
				"prompt_chars", promptLen,
				"max_request_size", p.cfg.MaxRequestSize,
				"effective", s.Effective,
			)
		}
	}

	return s
}

// Parse extracts a record from text. Documents that do not fit one request
// are chunked and extracted concurrently; failed chunks are dropped and the
// remaining records merged in chunk order, earlier chunks winning conflicts.
// The merged record is unwrapped, enum placeholders are nulled and mandatory
// fields are checked. Missing mandatory fields are reported as warnings.
func (p *Parser) Parse(ctx context.Context, text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}

	res := &Result{RunID: uuid.New()}
	logger := p.logger.With("run_id", res.RunID)

	docLen := utf8.RuneCountInString(text)
	if docLen > p.cfg.LargeDocumentWarning {
		logger.Warn("large document, extraction may be slow", "chars", docLen)
	}

	plan := p.Sizing(docLen)
	logger.Info("extraction started",
		"chars", docLen,
		"effective", plan.Effective,
		"chunked", plan.Chunked,
	)

	var rec record.Value
	if !plan.Chunked {
		v, err := p.extract(ctx, p.prompt+"\n\n"+text)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
		}
		rec = p.schema.Unwrap(v)
		res.Chunks = 1
	} else {
		var err error
		rec, err = p.extractChunks(ctx, logger, text, plan.Effective, res)
		if err != nil {
			return nil, err
		}
	}

	rec, res.Normalized = p.schema.Normalize(rec)
	res.Warnings = p.schema.Validate(rec)
	res.Record = rec

	for _, w := range res.Warnings {
		logger.Warn("validation warning", "path", w.Path, "message", w.Message)
	}
	for _, c := range res.Conflicts {
		logger.Warn("merge conflict, keeping earlier chunk", "path", c.Path)
	}

	logger.Info("extraction complete",
		"chunks", res.Chunks,
		"failed_chunks", len(res.FailedChunks),
		"conflicts", len(res.Conflicts),
		"warnings", len(res.Warnings),
		"normalized", res.Normalized,
	)

	return res, nil
}

func (p *Parser) extractChunks(
	ctx context.Context,
	logger *slog.Logger,
	text string,
	size int,
	res *Result,
) (record.Value, error) {
	chunks := chunking.Chunk(text, size)
	total := len(chunks)
	res.Chunks = total

	records := make([]record.Value, total)
	errs := make([]error, total)

	var g errgroup.Group
	g.SetLimit(max(min(p.cfg.Workers, total), 1))

	for i, chunk := range chunks {
		g.Go(func() error {
			if ctx.Err() != nil {
				errs[i] = ctx.Err()
				return nil
			}

			prompt := p.prompt + "\n\n" + chunkNote(i+1, total) + "\n\n" + chunk
			v, err := p.extract(ctx, prompt)
			p.metrics.Chunk(err)
			if err != nil {
				errs[i] = fmt.Errorf("chunk %d/%d: %w", i+1, total, err)
				logger.Warn("chunk extraction failed",
					"chunk", i+1,
					"total", total,
					"error", err,
				)
				return nil
			}

			records[i] = p.schema.Unwrap(v)
			logger.Debug("chunk extracted", "chunk", i+1, "total", total, "chars", utf8.RuneCountInString(chunk))
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		return record.Value{}, err
	}

	var ok []record.Value
	for i := range chunks {
		if errs[i] != nil {
			res.FailedChunks = append(res.FailedChunks, i+1)
			continue
		}
		ok = append(ok, records[i])
	}

	if len(ok) == 0 {
		return record.Value{}, errors.Join(append([]error{ErrAllChunksFailed}, errs...)...)
	}

	merged, conflicts := record.MergeAll(ok...)
	res.Conflicts = conflicts
	return merged, nil
}

func chunkNote(i, total int) string {
	return fmt.Sprintf(
		"NOTE: This is chunk %d/%d of the document. Extract only the information present in this chunk. "+
			"Omit or set to null any field that does not appear in it; do not guess values from other parts of the agreement.",
		i, total,
	)
}

func (p *Parser) extract(ctx context.Context, prompt string) (record.Value, error) {
	resp, err := p.llm.Complete(ctx, prompt)
	if err != nil {
		return record.Value{}, err
	}

	js, err := formatting.ExtractJSON(resp)
	if err != nil {
		return record.Value{}, err
	}

	v, err := record.Parse([]byte(js))
	if err != nil {
		return record.Value{}, fmt.Errorf("%w: %w", formatting.ErrParseFailed, err)
	}
	if v.Kind() != record.KindObject {
		return record.Value{}, fmt.Errorf("%w: got %s", ErrNotObject, v.Kind())
	}
	return v, nil
}
