// Package workflow runs the end-to-end analysis of a contract: text
// extraction, structured parsing and clause risk assessment under one run ID.
package workflow

import "errors"

// Sentinel errors for workflow stages.
var (
	ErrExtractFailed = errors.New("text extraction failed")
	ErrParseFailed   = errors.New("structured parsing failed")
	ErrAssessFailed  = errors.New("risk assessment failed")
)
