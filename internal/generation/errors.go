package generation

import "errors"

var (
	// ErrEmptyDocument indicates input text with no content.
	ErrEmptyDocument = errors.New("document is empty")
	// ErrAllSectionsFailed indicates no section produced Q&A pairs.
	ErrAllSectionsFailed = errors.New("all document sections failed")
)
