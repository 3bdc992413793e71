package catalog

import "errors"

// Sentinel error kinds for this package. These allow errors.Is from callers.
var (
	ErrInvalidFeed        = errors.New("invalid webcast feed")
	ErrDuplicateWebcastID = errors.New("duplicate webcast id")
)
