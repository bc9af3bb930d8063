package criteria

import "errors"

// Sentinel kinds for criteria errors.
var (
	ErrUnknownKind     = errors.New("unknown criteria kind")
	ErrInvalidCriteria = errors.New("invalid criteria")
)
