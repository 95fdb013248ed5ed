package trigger

import "errors"

// Sentinel errors for trigger validation.
var (
	ErrMalformedTrigger = errors.New("malformed trigger")
	ErrUnknownKind      = errors.New("unknown trigger kind")
	ErrMissingKeyBind   = errors.New("key trigger without keyBind")
	ErrBadKeyBind       = errors.New("keyBind is not a valid key index")
	ErrNegativeRadius   = errors.New("negative radius")
	ErrShapeMismatch    = errors.New("position and antipode dimensions differ")
)
