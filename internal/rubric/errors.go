package rubric

import "errors"

var (
	// ErrEmptyDocument indicates contract text with no content.
	ErrEmptyDocument = errors.New("document is empty")
	// ErrNoQuestions indicates a rubric with no answerable questions.
	ErrNoQuestions = errors.New("rubric has no questions with guidance")
)
