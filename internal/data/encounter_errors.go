package data

import "errors"

// Sentinel errors for encounter definition loading.
var (
	ErrMissingID         = errors.New("encounter id is empty")
	ErrNoPhases          = errors.New("encounter has no phases")
	ErrMissingStart      = errors.New("phase has no start trigger")
	ErrMissingReset      = errors.New("encounter has no reset trigger")
	ErrDuplicateID       = errors.New("duplicate encounter id")
	ErrUnknownActionType = errors.New("unknown action type")
	ErrBadColor          = errors.New("invalid color")
	ErrNotDirectory      = errors.New("definitions path is not a directory")
)
