package evaluation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/JaimeStill/counsel/internal/prompts"
	"github.com/JaimeStill/counsel/pkg/formatting"
	"github.com/JaimeStill/counsel/pkg/llm"
	"github.com/JaimeStill/counsel/pkg/record"
)

// NeutralScore is the judge score used when no score can be recovered.
const NeutralScore = 0.5

var scorePattern = regexp.MustCompile(`(?i)score["']?\s*[:=]\s*([0-9.]+)`)

// Judgment is a judge's semantic score in [0,1] with its explanation.
type Judgment struct {
	Score float64
	Text  string
}

// Judge scores how well a generated answer matches the ground truth. It never
// fails; problems degrade to a neutral score explained in the text.
type Judge interface {
	Judge(ctx context.Context, question, truth, generated string) Judgment
}

// LLMJudge asks a model to compare the two answers.
type LLMJudge struct {
	llm     llm.Completer
	prompts *prompts.System
	logger  *slog.Logger
}

// NewLLMJudge creates a judge that sends comparison prompts through c.
func NewLLMJudge(c llm.Completer, ps *prompts.System, logger *slog.Logger) *LLMJudge {
	return &LLMJudge{
		llm:     c,
		prompts: ps,
		logger:  logger.With("component", "judge"),
	}
}

// Judge implements Judge.
func (j *LLMJudge) Judge(ctx context.Context, question, truth, generated string) Judgment {
	prompt, err := j.prompts.Compose(prompts.StageJudge,
		prompts.Section{Title: "Question", Body: question},
		prompts.Section{Title: "Ground Truth Answer", Body: truth},
		prompts.Section{Title: "Generated Answer", Body: generated},
	)
	if err == nil {
		var resp string
		resp, err = j.llm.Complete(ctx, prompt)
		if err == nil {
			return j.interpret(resp)
		}
	}

	j.logger.Error("llm evaluation failed", "error", err)
	return Judgment{
		Score: NeutralScore,
		Text:  fmt.Sprintf("Error during LLM evaluation: %v", err),
	}
}

// judgeResponse is the JSON shape the judge stage asks for. Fields stay
// loosely typed so a string score or a scalar point list still decodes.
type judgeResponse struct {
	Score     record.Value `json:"score"`
	Reasoning record.Value `json:"reasoning"`
	Matched   record.Value `json:"key_points_matched"`
	Missing   record.Value `json:"key_points_missing"`
	Incorrect record.Value `json:"key_points_incorrect"`
}

func (j *LLMJudge) interpret(resp string) Judgment {
	if r, err := formatting.Parse[judgeResponse](resp); err == nil {
		score := clamp(number(r.Score, 0), 0, 1)

		var sb strings.Builder
		fmt.Fprintf(&sb, "Score: %.2f\nReasoning: %s\n", score, text(r.Reasoning))
		for _, line := range []struct {
			label  string
			points record.Value
		}{
			{"Matched Points", r.Matched},
			{"Missing Points", r.Missing},
			{"Incorrect Points", r.Incorrect},
		} {
			if points := line.points.Strings(); len(points) > 0 {
				fmt.Fprintf(&sb, "%s: %s\n", line.label, strings.Join(points, ", "))
			}
		}
		return Judgment{Score: score, Text: strings.TrimSpace(sb.String())}
	}

	if m := scorePattern.FindStringSubmatch(resp); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			return Judgment{Score: clamp(f, 0, 1), Text: resp}
		}
	}

	j.logger.Warn("could not parse judge response, using neutral score")
	return Judgment{Score: NeutralScore, Text: resp}
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

func text(v record.Value) string {
	if s, ok := v.Str(); ok {
		return s
	}
	if v.IsNull() {
		return ""
	}
	b, _ := v.MarshalJSON()
	return string(b)
}

func clamp(f, lo, hi float64) float64 {
	return min(max(f, lo), hi)
}
