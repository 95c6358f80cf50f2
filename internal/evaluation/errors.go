package evaluation

import "errors"

// ErrInvalidWeights indicates a negative, non-finite or all-zero weight pair.
var ErrInvalidWeights = errors.New("invalid scoring weights")
