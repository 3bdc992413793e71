// Package simulate drives randomized grid action sequences through the
// reducer, and optionally through a running server, checking the grid
// invariants after every step.
package simulate

import (
	"time"

	"github.com/gameday-grid/gameday/internal/domain/grid"
)

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL  string        // server to drive; empty runs locally only
	Actions  int           // actions per session
	Sessions int           // independent sessions, run concurrently
	Seed     uint64        // base seed; session k uses (Seed, k)
	FeedFile string        // feed document; empty uses a generated feed
	Events   int           // events in the generated feed
	Timeout  time.Duration // HTTP request timeout
	Verbose  bool          // log every step
}

// Default configuration values.
const (
	DefaultActions  = 1000
	DefaultSessions = 4
	DefaultEvents   = 12
	DefaultTimeout  = 10 * time.Second
)

func (c *Config) withDefaults() Config {
	out := *c
	if out.Actions <= 0 {
		out.Actions = DefaultActions
	}
	if out.Sessions <= 0 {
		out.Sessions = DefaultSessions
	}
	if out.Events <= 0 {
		out.Events = DefaultEvents
	}
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	return out
}

// Stats summarizes a run.
type Stats struct {
	Sessions   int
	Actions    int
	Changed    int
	Noops      int
	Duplicates int
	Remote     bool
	ByType     map[grid.ActionType]int
	Duration   time.Duration
}

func (s *Stats) merge(o sessionStats) {
	s.Actions += o.actions
	s.Changed += o.changed
	s.Noops += o.actions - o.changed
	s.Duplicates += o.duplicates
	for t, n := range o.byType {
		s.ByType[t] += n
	}
}

type sessionStats struct {
	actions    int
	changed    int
	duplicates int
	byType     map[grid.ActionType]int
}
