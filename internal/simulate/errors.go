package simulate

import "errors"

// Sentinel errors for simulation failures.
var (
	ErrInvariant = errors.New("grid invariant violated")
	ErrMismatch  = errors.New("remote grid differs from local grid")
	ErrRemote    = errors.New("remote request failed")
)
