// Package model contains domain models passed between layers.
package model

import (
	"context"

	"github.com/gameday-grid/gameday/internal/domain/grid"
)

// Command asks the dispatcher to change one session's grid. Reply, when set,
// receives exactly one Result.
type Command struct {
	SessionID string
	ActionID  string // optional client id for idempotent retries
	Action    grid.Action

	// Mutate replaces Action when set. Used for service-internal changes
	// such as pruning after a catalog update.
	Mutate func(grid.State) grid.State

	// Delete removes the session instead of changing it.
	Delete bool

	Ctx   context.Context
	Reply chan<- Result
}

// Result is what the dispatcher reports back for a Command.
type Result struct {
	State   grid.State
	Changed bool
	Err     error
}

// Apply runs the command against s.
func (c *Command) Apply(s grid.State) grid.State {
	if c.Mutate != nil {
		return c.Mutate(s)
	}
	return grid.Reduce(s, c.Action)
}

// Label names the command for logs and metrics.
func (c *Command) Label() string {
	if c.Delete {
		return "delete"
	}
	if c.Mutate != nil {
		return "internal"
	}
	return string(c.Action.Type)
}
