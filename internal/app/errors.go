package app

import "errors"

// Sentinel kinds for engine errors.
var (
	ErrEmptyUserID   = errors.New("user id must not be empty")
	ErrEmptyAction   = errors.New("action type must not be empty")
	ErrUnknownAction = errors.New("unknown action type")
)
