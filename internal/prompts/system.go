package prompts

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Section is a titled block of run data placed between a stage's
// instructions and its spec.
type Section struct {
	Title string
	Body  string
}

// System resolves prompt text, preferring overrides loaded from disk over the
// built-in defaults. A System is read-only after construction.
type System struct {
	instructions map[Stage]string
	clauses      map[string]string
}

// Default returns a System holding only the built-in prompts.
func Default() *System {
	s := &System{
		instructions: make(map[Stage]string, len(instructions)),
		clauses:      make(map[string]string, len(clauses)),
	}
	for stage, text := range instructions {
		s.instructions[stage] = text
	}
	for _, c := range clauses {
		s.clauses[c.key] = c.render()
	}
	return s
}

// Load returns a System whose instructions are overridden by files in dir.
// A file named <stage>.md replaces that stage's instructions and
// clauses/<key>.md replaces the instructions of a clause prompt. An empty
// clause file disables the LLM assessment of that clause. An empty dir
// yields Default.
func Load(dir string, logger *slog.Logger) (*System, error) {
	s := Default()
	if dir == "" {
		return s, nil
	}

	for _, stage := range Stages() {
		text, ok, err := readOverride(filepath.Join(dir, string(stage)+".md"))
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if text == "" {
			return nil, fmt.Errorf("%w: %s", ErrEmptyOverride, stage)
		}
		s.instructions[stage] = text
		logger.Info("prompt override loaded", "stage", stage)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "clauses"))
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read clause overrides: %w", err)
	}

	for _, e := range entries {
		key, isMD := strings.CutSuffix(e.Name(), ".md")
		if e.IsDir() || !isMD {
			continue
		}
		if _, known := s.clauses[key]; !known {
			return nil, fmt.Errorf("%w: %s", ErrUnknownClause, key)
		}
		text, _, err := readOverride(filepath.Join(dir, "clauses", e.Name()))
		if err != nil {
			return nil, err
		}
		s.clauses[key] = text
		logger.Info("clause prompt override loaded", "clause", key)
	}

	return s, nil
}

func readOverride(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read prompt override: %w", err)
	}
	return strings.TrimSpace(string(data)), true, nil
}

// Instructions returns the effective instructions for a stage.
func (s *System) Instructions(stage Stage) (string, error) {
	text, ok := s.instructions[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}

// Compose builds a prompt from a stage's instructions, the given sections
// and the stage spec, separated by blank lines.
func (s *System) Compose(stage Stage, sections ...Section) (string, error) {
	instructions, err := s.Instructions(stage)
	if err != nil {
		return "", fmt.Errorf("load instructions for %s: %w", stage, err)
	}

	spec, err := Spec(stage)
	if err != nil {
		return "", fmt.Errorf("load spec for %s: %w", stage, err)
	}

	var sb strings.Builder
	sb.WriteString(instructions)
	for _, sec := range sections {
		sb.WriteString("\n\n")
		if sec.Title != "" {
			sb.WriteString(sec.Title)
			sb.WriteString(":\n")
		}
		sb.WriteString(sec.Body)
	}
	sb.WriteString("\n\n")
	sb.WriteString(spec)

	return sb.String(), nil
}

// Clause returns the complete assessment template for a clause key: its
// instructions followed by the assessment response format. The template is
// empty when the clause has been disabled by an empty override.
func (s *System) Clause(key string) (string, error) {
	text, ok := s.clauses[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownClause, key)
	}
	return clauseTemplate(text), nil
}
