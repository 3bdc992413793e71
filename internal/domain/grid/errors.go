package grid

import "errors"

// Sentinel error kinds for this package.
var (
	ErrInconsistent   = errors.New("grid state inconsistent")
	ErrUnknownAction  = errors.New("unknown grid action")
	ErrMissingWebcast = errors.New("action requires a webcast id")
)
