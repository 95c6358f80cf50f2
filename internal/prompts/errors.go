package prompts

import "errors"

// Domain errors for prompt operations.
var (
	ErrInvalidStage  = errors.New("stage must be extract, judge, generate, or rubric")
	ErrUnknownClause = errors.New("unknown clause")
	ErrEmptyOverride = errors.New("prompt override is empty")
)
