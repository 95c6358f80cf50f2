package extraction

import "errors"

var (
	// ErrEmptyDocument indicates text with nothing but whitespace.
	ErrEmptyDocument = errors.New("document text is empty")
	// ErrExtractionFailed indicates the single-request extraction failed.
	ErrExtractionFailed = errors.New("extraction failed")
	// ErrAllChunksFailed indicates that no chunk of a split document produced a record.
	ErrAllChunksFailed = errors.New("all chunks failed extraction")
	// ErrNotObject indicates a response whose JSON is not an object.
	ErrNotObject = errors.New("extraction response is not a json object")
)
