package worker

import (
	"github.com/gameday-grid/gameday/pkg/logger"
)

// Option applies a configuration option to the Dispatcher.
type Option func(*Dispatcher)

// WithName sets the dispatcher name for identification and logging.
func WithName(name string) Option {
	return func(d *Dispatcher) {
		if name != "" {
			d.name = name
		}
	}
}

// WithLogger sets a custom logger for the dispatcher.
func WithLogger(l logger.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithConsistencyCheck verifies every new state before it is stored.
func WithConsistencyCheck(enabled bool) Option {
	return func(d *Dispatcher) {
		d.check = enabled
	}
}
