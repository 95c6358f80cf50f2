package main

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/counsel/internal/evaluation"
	"github.com/JaimeStill/counsel/internal/extraction"
	"github.com/JaimeStill/counsel/internal/generation"
	"github.com/JaimeStill/counsel/internal/prompts"
	"github.com/JaimeStill/counsel/internal/risk"
	"github.com/JaimeStill/counsel/internal/rubric"
	"github.com/JaimeStill/counsel/internal/workflow"
	"github.com/JaimeStill/counsel/pkg/chunking"
	"github.com/JaimeStill/counsel/pkg/llm"
	"github.com/JaimeStill/counsel/pkg/record"
)

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "counsel",
		Short: "Contract clause extraction and risk analysis",
		Long: `counsel extracts a structured clause record from contract documents with a
language model, assesses clause risk, generates and evaluates contract Q&A and
grades contracts against a question rubric.

Inputs are local files, or keys in the configured object store with
--from-storage. Configuration is read from config.toml, an optional
config.<COUNSEL_ENV>.toml overlay and COUNSEL_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "config.toml", "Base configuration file")
	pf.BoolVar(&opts.fromStorage, "from-storage", false, "Read inputs from the configured object store")
	pf.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")
	pf.StringVarP(&opts.output, "output", "o", "", "Write output to this file instead of stdout")

	root.AddCommand(
		chunkCmd(opts),
		parseCmd(opts),
		assessCmd(opts),
		analyzeCmd(opts),
		evaluateCmd(opts),
		generateCmd(opts),
		rubricCmd(opts),
		promptsCmd(opts),
	)
	return root
}

// withApp wraps a command body with app setup and shutdown.
func withApp(opts *options, fn func(a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), opts)
		if err != nil {
			return err
		}
		defer a.close()
		return fn(a, cmd, args)
	}
}

func chunkCmd(opts *options) *cobra.Command {
	var size int

	cmd := &cobra.Command{
		Use:   "chunk <document>",
		Short: "Show how a document is split for extraction",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(a *app, cmd *cobra.Command, args []string) error {
			doc, err := a.document(args[0])
			if err != nil {
				return err
			}

			chars := utf8.RuneCountInString(doc.Body)
			if size <= 0 {
				parser, err := a.parser(nil)
				if err != nil {
					return err
				}
				size = parser.Sizing(chars).Effective
			}

			spans := chunking.Split(doc.Body, size)
			return a.writeJSON(struct {
				Document string          `json:"document"`
				Chars    int             `json:"chars"`
				Size     int             `json:"size"`
				Chunks   []chunking.Span `json:"chunks"`
			}{doc.Name, chars, size, spans})
		}),
	}

	cmd.Flags().IntVar(&size, "size", 0, "Maximum chunk size in characters (default: extraction effective size)")
	return cmd
}

func parseCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <document>",
		Short: "Extract the structured clause record from a contract",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(a *app, cmd *cobra.Command, args []string) error {
			doc, err := a.document(args[0])
			if err != nil {
				return err
			}
			c, err := a.infra.Extractor()
			if err != nil {
				return err
			}
			parser, err := a.parser(c)
			if err != nil {
				return err
			}

			res, err := parser.Parse(a.ctx(), doc.Body)
			if err != nil {
				return err
			}
			return a.writeJSON(res)
		}),
	}
}

func assessCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "assess <record.json>",
		Short: "Assess clause risk for an extracted record",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(a *app, cmd *cobra.Command, args []string) error {
			data, err := a.read(args[0])
			if err != nil {
				return err
			}
			rec, err := record.Parse(data)
			if err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}
			assessor, err := a.assessor()
			if err != nil {
				return err
			}

			res, err := assessor.Assess(a.ctx(), rec)
			if err != nil {
				return err
			}
			return a.writeJSON(res)
		}),
	}
}

func analyzeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <document>",
		Short: "Extract a contract record and assess its clause risk in one run",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(a *app, cmd *cobra.Command, args []string) error {
			data, err := a.read(args[0])
			if err != nil {
				return err
			}
			rt, err := a.runtime()
			if err != nil {
				return err
			}
			res, err := workflow.Analyze(a.ctx(), rt, args[0], data)
			if err != nil {
				return err
			}
			return a.writeJSON(res)
		}),
	}
}

func evaluateCmd(opts *options) *cobra.Command {
	var (
		llmWeight     float64
		keywordWeight float64
		asJSON        bool
	)

	cmd := &cobra.Command{
		Use:   "evaluate <ground-truth.md> <generated.md>",
		Short: "Score generated Q&A pairs against a ground truth",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(opts, func(a *app, cmd *cobra.Command, args []string) error {
			cfg := &a.infra.Config.Evaluation
			w := cfg.Weights()
			if cmd.Flags().Changed("llm-weight") {
				w.LLM = llmWeight
			}
			if cmd.Flags().Changed("keyword-weight") {
				w.Keyword = keywordWeight
			}
			if err := w.Validate(); err != nil {
				return err
			}
			if msg := w.Warn(); msg != "" {
				a.infra.Logger.Warn(msg, "llm_weight", w.LLM, "keyword_weight", w.Keyword)
			}

			truth, err := a.text(args[0])
			if err != nil {
				return err
			}
			generated, err := a.text(args[1])
			if err != nil {
				return err
			}
			c, err := a.infra.Judge()
			if err != nil {
				return err
			}

			judge := evaluation.NewLLMJudge(c, a.infra.Prompts, a.infra.Logger)
			report, err := evaluation.New(judge, cfg.Workers, a.infra.Metrics, a.infra.Logger).
				Evaluate(a.ctx(), truth, generated, w)
			if err != nil {
				return err
			}

			if asJSON {
				return a.writeJSON(report)
			}
			return a.writeText(report.Text())
		}),
	}

	f := cmd.Flags()
	f.Float64Var(&llmWeight, "llm-weight", evaluation.DefaultWeights.LLM, "Weight of the judge score")
	f.Float64Var(&keywordWeight, "keyword-weight", evaluation.DefaultWeights.Keyword, "Weight of the keyword score")
	f.BoolVar(&asJSON, "json", false, "Write the report as JSON")
	return cmd
}

func generateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "generate-qa <document>",
		Short: "Generate contract Q&A pairs as markdown",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(a *app, cmd *cobra.Command, args []string) error {
			doc, err := a.document(args[0])
			if err != nil {
				return err
			}
			c, err := a.infra.Extractor()
			if err != nil {
				return err
			}

			gen := generation.New(c, a.infra.Prompts, &a.infra.Config.Generation, a.infra.Metrics, a.infra.Logger)
			res, err := gen.Generate(a.ctx(), doc.Body)
			if err != nil {
				return err
			}
			if len(res.FailedSections) > 0 {
				a.infra.Logger.Warn("sections left out of output",
					"failed", res.FailedSections,
					"sections", res.Sections,
				)
			}
			return a.writeText(res.Markdown)
		}),
	}
}

func rubricCmd(opts *options) *cobra.Command {
	var (
		file   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "rubric <document>",
		Short: "Grade a contract against a question rubric",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(a *app, cmd *cobra.Command, args []string) error {
			cfg := &a.infra.Config.Rubric
			if file == "" {
				file = cfg.File
			}
			if file == "" {
				return fmt.Errorf("no rubric file: pass --rubric or set rubric.file")
			}

			doc, err := a.document(args[0])
			if err != nil {
				return err
			}
			data, err := a.infra.ReadInput(a.ctx(), file, false)
			if err != nil {
				return err
			}
			c, err := a.infra.Extractor()
			if err != nil {
				return err
			}

			ev := rubric.New(c, a.infra.Prompts, cfg, a.infra.Metrics, a.infra.Logger)
			res, err := ev.Evaluate(a.ctx(), doc.Body, string(data))
			if err != nil {
				return err
			}

			if asJSON {
				return a.writeJSON(res)
			}
			return a.writeText(res.Text())
		}),
	}

	f := cmd.Flags()
	f.StringVar(&file, "rubric", "", "Rubric markdown file, read locally (default: rubric.file)")
	f.BoolVar(&asJSON, "json", false, "Write the assessment as JSON")
	return cmd
}

func promptsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "prompts [stage]",
		Short: "List prompt stages or show the effective prompt for one",
		Long: `Without an argument, prompts lists the stages whose instructions can be
overridden from the [prompts] directory. With a stage, it prints the
instructions in effect for that stage followed by its response format.`,
		Args: cobra.MaximumNArgs(1),
		RunE: withApp(opts, func(a *app, cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				var sb strings.Builder
				for _, s := range prompts.Stages() {
					sb.WriteString(string(s))
					sb.WriteByte('\n')
				}
				return a.writeText(sb.String())
			}

			stage, err := prompts.ParseStage(args[0])
			if err != nil {
				return fmt.Errorf("%w: %q", err, args[0])
			}
			text, err := a.infra.Prompts.Compose(stage)
			if err != nil {
				return err
			}
			return a.writeText(text)
		}),
	}
}

func (a *app) parser(c llm.Completer) (*extraction.Parser, error) {
	return extraction.New(c, a.infra.Prompts, a.infra.Schema, &a.infra.Config.Extraction, a.infra.Metrics, a.infra.Logger)
}

// assessor scores clauses through the judge client.
func (a *app) assessor() (*risk.Assessor, error) {
	c, err := a.infra.Judge()
	if err != nil {
		return nil, err
	}
	catalog, err := risk.NewCatalog(a.infra.Prompts)
	if err != nil {
		return nil, err
	}
	catalog, err = catalog.Select(a.infra.Config.Risk.Categories)
	if err != nil {
		return nil, err
	}
	return risk.New(c, catalog, a.infra.Schema, &a.infra.Config.Risk, a.infra.Metrics, a.infra.Logger), nil
}

// runtime pairs an extractor-backed parser with a judge-backed assessor.
func (a *app) runtime() (*workflow.Runtime, error) {
	c, err := a.infra.Extractor()
	if err != nil {
		return nil, err
	}
	parser, err := a.parser(c)
	if err != nil {
		return nil, err
	}
	assessor, err := a.assessor()
	if err != nil {
		return nil, err
	}
	return &workflow.Runtime{Parser: parser, Assessor: assessor, Logger: a.infra.Logger}, nil
}
