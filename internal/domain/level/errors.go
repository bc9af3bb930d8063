package level

import "errors"

// Sentinel kinds for level-table errors.
var (
	ErrEmptyTable     = errors.New("level table must not be empty")
	ErrUnorderedTable = errors.New("level thresholds must be strictly increasing")
)
