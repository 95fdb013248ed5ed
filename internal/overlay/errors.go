package overlay

import "errors"

var (
	// ErrUnknownMessage is returned for an inbound message with an unknown type.
	ErrUnknownMessage = errors.New("unknown message type")
	// ErrBadMessage is returned for an inbound message missing a required field.
	ErrBadMessage = errors.New("malformed message")
)
