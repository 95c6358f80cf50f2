package extraction_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/JaimeStill/counsel/internal/extraction"
	"github.com/JaimeStill/counsel/internal/prompts"
	"github.com/JaimeStill/counsel/internal/schema"
	"github.com/JaimeStill/counsel/pkg/formatting"
	"github.com/JaimeStill/counsel/pkg/llm"
	"github.com/JaimeStill/counsel/pkg/metrics"
	"github.com/JaimeStill/counsel/pkg/record"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

const testSchema = `
name: TEST AGREEMENT
mandatory: true
fields:
- name: agreement_id
  type: string
  mandatory: true
- name: governing_law
  type: string
- name: payment_method
  type: enum
  values: [Wire, Check]
children:
- name: parties
  list: true
  fields:
  - name: name
    type: string
`

func testRoot(t *testing.T) *schema.Node {
	t.Helper()
	root, err := schema.Load([]byte(testSchema))
	if err != nil {
		t.Fatalf("Load schema error: %v", err)
	}
	return root
}

func newParser(t *testing.T, c llm.Completer, cfg extraction.Config, m *metrics.Metrics) *extraction.Parser {
	t.Helper()
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize error: %v", err)
	}
	p, err := extraction.New(c, prompts.Default(), testRoot(t), &cfg, m, discard)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return p
}

func promptLen(t *testing.T) int {
	t.Helper()
	p := newParser(t, llm.CompleterFunc(nil), extraction.Config{}, nil)
	return utf8.RuneCountInString(p.Prompt())
}

// chunkedConfig yields an effective slice size of 40 characters.
func chunkedConfig(t *testing.T) extraction.Config {
	return extraction.Config{
		RequestBudget:  int(1.5*float64(promptLen(t))) + 40,
		MaxRequestSize: 1 << 20,
	}
}

// threeParagraphs splits into exactly three chunks at an effective size of 40.
func threeParagraphs() string {
	return strings.Join([]string{
		fmt.Sprintf("%-30s", "ZZALPHA clause text"),
		fmt.Sprintf("%-30s", "ZZBRAVO clause text"),
		fmt.Sprintf("%-30s", "ZZCHARLIE clause text"),
	}, "\n\n")
}

func mustParse(t *testing.T, s string) record.Value {
	t.Helper()
	v, err := record.Parse([]byte(s))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	return v
}

func TestPrompt(t *testing.T) {
	p := newParser(t, llm.CompleterFunc(nil), extraction.Config{}, nil)
	prompt := p.Prompt()

	for _, s := range []string{
		"SCHEMA STRUCTURE:\n- TEST AGREEMENT (MANDATORY)",
		"Allowed values: Wire, Check",
		"Return ONLY valid JSON",
	} {
		if !strings.Contains(prompt, s) {
			t.Errorf("prompt missing %q", s)
		}
	}
}

func TestEmptyDocument(t *testing.T) {
	var calls atomic.Int32
	c := llm.CompleterFunc(func(context.Context, string) (string, error) {
		calls.Add(1)
		return "{}", nil
	})
	p := newParser(t, c, extraction.Config{}, nil)

	for _, text := range []string{"", "  \n\t "} {
		if _, err := p.Parse(context.Background(), text); !errors.Is(err, extraction.ErrEmptyDocument) {
			t.Errorf("Parse(%q) error = %v, want ErrEmptyDocument", text, err)
		}
	}
	if calls.Load() != 0 {
		t.Errorf("calls = %d, want 0", calls.Load())
	}
}

func TestSingleRequest(t *testing.T) {
	var got string
	c := llm.CompleterFunc(func(_ context.Context, prompt string) (string, error) {
		got = prompt
		return "Here is the record:\n```json\n" +
			`{"TEST_AGREEMENT": {"governing_law": "Delaware", "payment_method": "not specified"}}` +
			"\n```", nil
	})
	p := newParser(t, c, extraction.Config{}, nil)

	res, err := p.Parse(context.Background(), "This Agreement is governed by Delaware law.")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if !strings.HasSuffix(got, "\n\nThis Agreement is governed by Delaware law.") {
		t.Errorf("document not appended to prompt: %q", got[len(got)-60:])
	}
	if res.Chunks != 1 || len(res.FailedChunks) != 0 {
		t.Errorf("Chunks = %d, FailedChunks = %v", res.Chunks, res.FailedChunks)
	}
	if res.Normalized != 1 {
		t.Errorf("Normalized = %d, want 1", res.Normalized)
	}

	want := mustParse(t, `{"governing_law": "Delaware", "payment_method": null}`)
	if !res.Record.Equal(want) {
		b, _ := res.Record.MarshalJSON()
		t.Errorf("Record = %s", b)
	}

	if len(res.Warnings) != 1 || res.Warnings[0].Path != "agreement_id" {
		t.Errorf("Warnings = %v, want agreement_id", res.Warnings)
	}
}

func TestSingleRequestErrors(t *testing.T) {
	tests := []struct {
		name string
		resp string
		err  error
		want error
	}{
		{"collaborator error", "", errors.New("bad gateway"), extraction.ErrExtractionFailed},
		{"no json", "I could not find an agreement.", nil, formatting.ErrNoJSON},
		{"list response", "```json\n[1, 2]\n```", nil, extraction.ErrNotObject},
		{"malformed json", `{"agreement_id": }`, nil, formatting.ErrParseFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := llm.CompleterFunc(func(context.Context, string) (string, error) {
				return tt.resp, tt.err
			})
			p := newParser(t, c, extraction.Config{}, nil)

			_, err := p.Parse(context.Background(), "text")
			if !errors.Is(err, extraction.ErrExtractionFailed) {
				t.Errorf("error = %v, want ErrExtractionFailed", err)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSizing(t *testing.T) {
	pl := promptLen(t)

	t.Run("fits", func(t *testing.T) {
		p := newParser(t, llm.CompleterFunc(nil), extraction.Config{
			RequestBudget:  int(1.5*float64(pl)) + 1000,
			MaxRequestSize: 1 << 20,
		}, nil)
		s := p.Sizing(1000)
		if s.Chunked || s.Effective != 1000 {
			t.Errorf("Sizing = %+v, want effective 1000 unchunked", s)
		}
		if s := p.Sizing(1001); !s.Chunked {
			t.Errorf("Sizing(1001) = %+v, want chunked", s)
		}
	})

	t.Run("budget grows for large prompts", func(t *testing.T) {
		p := newParser(t, llm.CompleterFunc(nil), extraction.Config{
			RequestBudget:  10,
			MaxRequestSize: 1 << 20,
		}, nil)
		s := p.Sizing(10)
		want := int(2.5*float64(pl)) - int(1.5*float64(pl))
		if s.Effective != want || s.Chunked {
			t.Errorf("Sizing = %+v, want effective %d unchunked", s, want)
		}
	})

	t.Run("ceiling forces chunking", func(t *testing.T) {
		p := newParser(t, llm.CompleterFunc(nil), extraction.Config{
			RequestBudget:  1 << 20,
			MaxRequestSize: pl + 50,
		}, nil)
		s := p.Sizing(94)
		if !s.Chunked || s.Effective != 50 {
			t.Errorf("Sizing = %+v, want effective 50 chunked", s)
		}
	})

	t.Run("ceiling below prompt keeps effective", func(t *testing.T) {
		p := newParser(t, llm.CompleterFunc(nil), extraction.Config{
			RequestBudget:  int(1.5*float64(pl)) + 500,
			MaxRequestSize: pl - 1,
		}, nil)
		s := p.Sizing(100)
		if !s.Chunked || s.Effective != 500 {
			t.Errorf("Sizing = %+v, want effective 500 chunked", s)
		}
	})
}

func TestChunkedExtraction(t *testing.T) {
	var (
		mu    sync.Mutex
		notes []string
	)
	c := llm.CompleterFunc(func(_ context.Context, prompt string) (string, error) {
		mu.Lock()
		for _, n := range []string{"chunk 1/3", "chunk 2/3", "chunk 3/3"} {
			if strings.Contains(prompt, n) {
				notes = append(notes, n)
			}
		}
		mu.Unlock()

		switch {
		case strings.Contains(prompt, "ZZALPHA"):
			return `{"TEST_AGREEMENT": {"agreement_id": "A-1", "governing_law": "Delaware", "parties": [{"name": "Acme"}]}}`, nil
		case strings.Contains(prompt, "ZZBRAVO"):
			return "```json\n" + `{"governing_law": "Texas", "parties": [{"name": "Acme"}, {"name": "Globex"}]}` + "\n```", nil
		case strings.Contains(prompt, "ZZCHARLIE"):
			return `{"agreement_id": null, "payment_method": "None"}`, nil
		}
		return "", errors.New("unexpected chunk")
	})

	p := newParser(t, c, chunkedConfig(t), nil)
	res, err := p.Parse(context.Background(), threeParagraphs())
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if res.Chunks != 3 {
		t.Fatalf("Chunks = %d, want 3", res.Chunks)
	}
	if len(notes) != 3 {
		t.Errorf("chunk notes = %v, want one per chunk", notes)
	}

	want := mustParse(t, `{
		"agreement_id": "A-1",
		"governing_law": "Delaware",
		"parties": [{"name": "Acme"}, {"name": "Globex"}],
		"payment_method": null
	}`)
	if !res.Record.Equal(want) {
		b, _ := res.Record.MarshalJSON()
		t.Errorf("Record = %s", b)
	}

	if len(res.Conflicts) != 1 || res.Conflicts[0].Path != "governing_law" {
		t.Errorf("Conflicts = %+v, want governing_law", res.Conflicts)
	}
	if res.Normalized != 1 {
		t.Errorf("Normalized = %d, want 1", res.Normalized)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", res.Warnings)
	}
}

func TestChunkFailureIsDropped(t *testing.T) {
	c := llm.CompleterFunc(func(_ context.Context, prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "ZZBRAVO"):
			return "", errors.New("gateway timeout")
		case strings.Contains(prompt, "ZZCHARLIE"):
			return "no json here", nil
		}
		return `{"agreement_id": "A-1"}`, nil
	})

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		t.Fatalf("metrics.New error: %v", err)
	}

	p := newParser(t, c, chunkedConfig(t), m)
	res, err := p.Parse(context.Background(), threeParagraphs())
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if len(res.FailedChunks) != 2 || res.FailedChunks[0] != 2 || res.FailedChunks[1] != 3 {
		t.Errorf("FailedChunks = %v, want [2 3]", res.FailedChunks)
	}
	if !res.Record.Equal(mustParse(t, `{"agreement_id": "A-1"}`)) {
		b, _ := res.Record.MarshalJSON()
		t.Errorf("Record = %s", b)
	}

	expected := `
# HELP counsel_extraction_chunks_total Document chunks sent for structured extraction
# TYPE counsel_extraction_chunks_total counter
counsel_extraction_chunks_total{outcome="failure"} 2
counsel_extraction_chunks_total{outcome="success"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "counsel_extraction_chunks_total"); err != nil {
		t.Error(err)
	}
}

func TestAllChunksFail(t *testing.T) {
	boom := errors.New("model unavailable")
	c := llm.CompleterFunc(func(context.Context, string) (string, error) {
		return "", boom
	})

	p := newParser(t, c, chunkedConfig(t), nil)
	_, err := p.Parse(context.Background(), threeParagraphs())
	if !errors.Is(err, extraction.ErrAllChunksFailed) {
		t.Errorf("error = %v, want ErrAllChunksFailed", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want chunk errors joined", err)
	}
}

func TestCancellation(t *testing.T) {
	c := llm.CompleterFunc(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newParser(t, c, chunkedConfig(t), nil)
	if _, err := p.Parse(ctx, threeParagraphs()); !errors.Is(err, context.Canceled) {
		t.Errorf("chunked error = %v, want context.Canceled", err)
	}

	single := newParser(t, c, extraction.Config{}, nil)
	if _, err := single.Parse(ctx, "short"); !errors.Is(err, context.Canceled) {
		t.Errorf("single error = %v, want context.Canceled", err)
	}
}

func TestConfigFinalize(t *testing.T) {
	var cfg extraction.Config
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize error: %v", err)
	}
	if cfg.RequestBudget != 120000 || cfg.MaxRequestSize != 60000 || cfg.Workers != 4 || cfg.LargeDocumentWarning != 50000 {
		t.Errorf("defaults = %+v", cfg)
	}

	t.Setenv("TEST_EXTRACTION_WORKERS", "8")
	env := extraction.Config{}
	if err := env.Finalize(&extraction.Env{Workers: "TEST_EXTRACTION_WORKERS"}); err != nil {
		t.Fatalf("Finalize error: %v", err)
	}
	if env.Workers != 8 {
		t.Errorf("Workers = %d, want 8", env.Workers)
	}

	bad := extraction.Config{Workers: -1}
	if err := bad.Finalize(nil); err == nil {
		t.Error("expected error for negative workers")
	}

	base := extraction.Config{Workers: 2, SchemaFile: "a.yaml"}
	base.Merge(&extraction.Config{SchemaFile: "b.yaml"})
	if base.Workers != 2 || base.SchemaFile != "b.yaml" {
		t.Errorf("Merge = %+v", base)
	}
}
