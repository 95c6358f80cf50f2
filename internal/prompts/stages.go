package prompts

import (
	"slices"
)

// Stage identifies an LLM call site whose instructions can be overridden.
type Stage string

// Prompt stages.
const (
	StageExtract  Stage = "extract"
	StageJudge    Stage = "judge"
	StageGenerate Stage = "generate"
	StageRubric   Stage = "rubric"
)

var stages = []Stage{
	StageExtract,
	StageJudge,
	StageGenerate,
	StageRubric,
}

// Stages returns the list of valid prompt stages.
func Stages() []Stage {
	return stages
}

// ParseStage validates a string as a known prompt stage.
// Returns ErrInvalidStage if the value is not recognized.
func ParseStage(s string) (Stage, error) {
	v := Stage(s)
	if !slices.Contains(stages, v) {
		return "", ErrInvalidStage
	}
	return v, nil
}
