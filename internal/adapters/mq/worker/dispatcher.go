// Package worker runs the single goroutine that applies grid commands.
//
// Every session mutation flows through one Dispatcher, so a session state is
// never written by two goroutines at once and each command sees the result
// of the one before it.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gameday-grid/gameday/internal/adapters/repository"
	"github.com/gameday-grid/gameday/internal/domain/grid"
	"github.com/gameday-grid/gameday/internal/domain/model"
	"github.com/gameday-grid/gameday/pkg/logger"
	"github.com/gameday-grid/gameday/pkg/metrics"
)

// Store is the part of the session store the dispatcher writes through.
type Store interface {
	Get(ctx context.Context, id string) (grid.State, error)
	Put(ctx context.Context, id string, s grid.State) error
	Delete(ctx context.Context, id string) error
}

// Queue defines how the dispatcher receives commands.
type Queue interface {
	Next(ctx context.Context) (*model.Command, bool)
}

// Dispatcher applies commands from a Queue to a Store, one at a time.
type Dispatcher struct {
	queue Queue
	store Store
	name  string
	check bool

	started   atomic.Bool
	done      chan struct{}
	processed atomic.Int64
	failed    atomic.Int64

	logger logger.Logger
}

// NewDispatcher creates a dispatcher reading q and writing s.
func NewDispatcher(q Queue, s Store, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		queue:  q,
		store:  s,
		name:   "dispatcher",
		check:  true,
		done:   make(chan struct{}),
		logger: logger.Get().Named("dispatcher"),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.name != "dispatcher" {
		d.logger = d.logger.Named(d.name)
	}
	return d
}

// Start runs the dispatcher loop in a new goroutine. Calling it twice is a no-op.
func (d *Dispatcher) Start(ctx context.Context) {
	if !d.started.CompareAndSwap(false, true) {
		return
	}
	go d.run(ctx)
}

// run processes commands until the queue is closed and drained or ctx is done.
func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)
	d.logger.Debug(ctx, "dispatcher running")

	for {
		cmd, ok := d.queue.Next(ctx)
		if !ok {
			d.logger.Debug(ctx, "dispatcher exiting",
				logger.Int64("processed", d.processed.Load()),
			)
			return
		}
		d.process(ctx, cmd)
	}
}

// Shutdown waits for the loop to exit. The caller closes the queue first.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	if !d.started.Load() {
		return nil
	}
	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		d.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when the loop has exited.
func (d *Dispatcher) Done() <-chan struct{} { return d.done }

// Processed returns the number of commands applied so far.
func (d *Dispatcher) Processed() int64 { return d.processed.Load() }

// Failed returns the number of commands that ended in an error.
func (d *Dispatcher) Failed() int64 { return d.failed.Load() }

// process applies a single command and replies to its caller.
func (d *Dispatcher) process(ctx context.Context, cmd *model.Command) {
	start := time.Now()
	label := cmd.Label()

	if cmd.Ctx != nil {
		if err := cmd.Ctx.Err(); err != nil {
			metrics.RecordCommandSkipped()
			d.reply(ctx, cmd, model.Result{Err: err})
			return
		}
	}

	if cmd.Delete {
		if err := d.store.Delete(ctx, cmd.SessionID); err != nil {
			d.fail(ctx, cmd, "delete", err)
			return
		}
		d.processed.Add(1)
		d.reply(ctx, cmd, model.Result{Changed: true})
		return
	}

	current, err := d.store.Get(ctx, cmd.SessionID)
	if err != nil {
		d.fail(ctx, cmd, "load", err)
		return
	}

	next := cmd.Apply(current)
	if d.check {
		if err := next.Check(); err != nil {
			d.fail(ctx, cmd, "inconsistent", err)
			return
		}
	}

	changed := next != current
	if changed {
		if err := d.store.Put(ctx, cmd.SessionID, next); err != nil {
			d.fail(ctx, cmd, "store", err)
			return
		}
		metrics.RecordActionApplied(label)
	} else {
		metrics.RecordActionNoop(label)
	}

	d.processed.Add(1)
	metrics.RecordActionLatency(float64(time.Since(start).Microseconds()) / 1000)
	d.logger.Debug(ctx, "command applied",
		logger.String("session", cmd.SessionID),
		logger.String("action", label),
		logger.Bool("changed", changed),
	)
	d.reply(ctx, cmd, model.Result{State: next, Changed: changed})
}

func (d *Dispatcher) fail(ctx context.Context, cmd *model.Command, kind string, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		// Unknown sessions are a caller error, not a dispatcher fault.
		d.logger.Debug(ctx, "command for unknown session",
			logger.String("session", cmd.SessionID),
			logger.String("action", cmd.Label()),
		)
		d.reply(ctx, cmd, model.Result{Err: fmt.Errorf("%s %s: %w", cmd.Label(), cmd.SessionID, err)})
		return
	}
	d.failed.Add(1)
	metrics.RecordDispatcherError()
	metrics.RecordErrorByComponent("dispatcher", kind)
	d.logger.Error(ctx, "command failed",
		logger.String("session", cmd.SessionID),
		logger.String("action", cmd.Label()),
		logger.Error(err),
	)
	d.reply(ctx, cmd, model.Result{Err: fmt.Errorf("%s %s: %w", cmd.Label(), cmd.SessionID, err)})
}

// reply never blocks; callers provide a buffered channel.
func (d *Dispatcher) reply(ctx context.Context, cmd *model.Command, r model.Result) {
	if cmd.Reply == nil {
		return
	}
	select {
	case cmd.Reply <- r:
	default:
		d.logger.Warn(ctx, "reply dropped", logger.String("session", cmd.SessionID))
	}
}
