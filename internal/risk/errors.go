package risk

import "errors"

var (
	// ErrInvalidRecord indicates a record that is not a JSON object once unwrapped.
	ErrInvalidRecord = errors.New("record is not an object")
	// ErrUnknownCategory indicates a category key absent from the catalog.
	ErrUnknownCategory = errors.New("unknown clause category")
)
