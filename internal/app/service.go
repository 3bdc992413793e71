// Package service wires the grid domain to the session store, the command
// queue and the dispatcher, and implements what the HTTP API depends on.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gameday-grid/gameday/internal/adapters/mq/queue"
	"github.com/gameday-grid/gameday/internal/adapters/mq/worker"
	"github.com/gameday-grid/gameday/internal/adapters/repository"
	"github.com/gameday-grid/gameday/internal/domain/catalog"
	"github.com/gameday-grid/gameday/internal/domain/dedupe"
	"github.com/gameday-grid/gameday/internal/domain/grid"
	"github.com/gameday-grid/gameday/internal/domain/model"
	"github.com/gameday-grid/gameday/pkg/logger"
	"github.com/gameday-grid/gameday/pkg/metrics"
)

const shutdownTimeout = 5 * time.Second

// Service implements the API dependencies for the grid system.
type Service struct {
	mu sync.RWMutex

	// Core components
	sessions   *repository.MemoryStore
	catalogs   *repository.CatalogStore
	deduper    dedupe.Deduper
	commands   *queue.InMemoryQueue
	dispatcher *worker.Dispatcher

	// Configuration
	queueSize       int
	dedupeSize      int
	sessionTTL      time.Duration
	maxSessions     int
	janitorInterval time.Duration
	pruneOnUpdate   bool

	// Action ids currently being dispatched, mapped to a channel closed
	// when the attempt finishes.
	inflight sync.Map

	// State
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	logger logger.Logger
}

// New constructs a new Service with default configuration. Sessions and the
// catalog live for the lifetime of the Service, across Start/Stop cycles.
func New(opts ...Option) *Service {
	s := &Service{
		queueSize:       10_000,
		dedupeSize:      50_000,
		sessionTTL:      24 * time.Hour,
		maxSessions:     10_000,
		janitorInterval: time.Minute,
		pruneOnUpdate:   true,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.sessions = repository.NewMemoryStore(repository.WithMaxSessions(s.maxSessions))
	s.catalogs = repository.NewCatalogStore(nil)
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting grid service...")

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.commands = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.dispatcher = worker.NewDispatcher(s.commands, s.sessions,
		worker.WithLogger(s.logger.Named("dispatcher")),
	)
	s.dispatcher.Start(runCtx)

	if s.sessionTTL > 0 {
		s.wg.Add(1)
		go s.janitor(runCtx)
	}

	s.started = true
	s.logger.Info(ctx, "grid service started",
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("maxSessions", s.maxSessions),
		logger.Duration("sessionTTL", s.sessionTTL),
	)
	return nil
}

// Stop drains pending commands and shuts the service down.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	commands, dispatcher, stopRun := s.commands, s.dispatcher, s.cancel
	s.mu.Unlock()

	ctx := context.Background()
	s.logger.Info(ctx, "stopping grid service...")

	// Commands already queued are still applied and answered.
	_ = commands.Close()
	sctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	if err := dispatcher.Shutdown(sctx); err != nil {
		s.logger.Warn(ctx, "dispatcher did not drain", logger.Error(err))
	}
	cancel()

	stopRun()
	s.wg.Wait()

	s.logger.Info(ctx, "grid service stopped")
}

// CreateSession starts a new grid. A non-empty share query restores the
// grid it describes; webcasts missing from the catalog are dropped.
func (s *Service) CreateSession(ctx context.Context, initial url.Values) (string, grid.State, error) {
	if !s.isStarted() {
		return "", grid.State{}, ErrStopped
	}

	st := grid.New()
	if len(initial) > 0 {
		c := s.catalogs.Load()
		st = grid.DecodeQuery(initial).Prune(c.Has)
	}

	id := uuid.NewString()
	if err := s.sessions.Create(ctx, id, st); err != nil {
		if errors.Is(err, repository.ErrCapacity) {
			return "", grid.State{}, ErrTooManySessions
		}
		return "", grid.State{}, fmt.Errorf("create session: %w", err)
	}
	metrics.RecordSessionCreated()
	s.logger.Debug(ctx, "session created",
		logger.String("session", id),
		logger.Int("layout", st.LayoutID),
	)
	return id, st, nil
}

// Session returns the current grid of a session.
func (s *Service) Session(ctx context.Context, id string) (grid.State, error) {
	st, err := s.sessions.Get(ctx, id)
	if err != nil {
		return grid.State{}, mapStoreErr(err)
	}
	return st, nil
}

// DeleteSession removes a session.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.dispatch(ctx, &model.Command{SessionID: id, Delete: true}); err != nil {
		return err
	}
	metrics.RecordSessionDeleted()
	return nil
}

// Apply runs one grid action against a session. A non-empty actionID makes
// retries idempotent: a repeated id returns the current state with
// duplicate set and changes nothing. A retry that arrives while the first
// attempt is still in flight waits for it, so the state it returns always
// includes the original action. If the first attempt failed, the retry
// applies the action itself.
func (s *Service) Apply(ctx context.Context, sessionID, actionID string, a grid.Action) (state grid.State, duplicate bool, err error) {
	if !s.isStarted() {
		return grid.State{}, false, ErrStopped
	}
	if err := a.Validate(); err != nil {
		metrics.RecordActionRejected("invalid")
		return grid.State{}, false, fmt.Errorf("%w: %w", ErrInvalidAction, err)
	}
	if a.Type == grid.ActionPlace || a.Type == grid.ActionAdd {
		if !s.catalogs.Load().Has(a.WebcastID) {
			metrics.RecordActionRejected("unknown_webcast")
			return grid.State{}, false, fmt.Errorf("%w: %s", ErrUnknownWebcast, a.WebcastID)
		}
	}

	if _, err := s.Session(ctx, sessionID); err != nil {
		return grid.State{}, false, err
	}

	key := ""
	if actionID != "" {
		key = sessionID + "/" + actionID
		done := make(chan struct{})
		if prev, loaded := s.inflight.LoadOrStore(key, done); loaded {
			select {
			case <-prev.(chan struct{}):
			case <-ctx.Done():
				return grid.State{}, false, ctx.Err()
			}
			return s.Apply(ctx, sessionID, actionID, a)
		}
		defer func() {
			s.inflight.Delete(key)
			close(done)
		}()

		if s.deduper.SeenAndRecord(ctx, key) {
			metrics.RecordActionDuplicate()
			s.logger.Debug(ctx, "duplicate action skipped",
				logger.String("session", sessionID),
				logger.String("actionID", actionID),
			)
			current, err := s.Session(ctx, sessionID)
			if err != nil {
				return grid.State{}, false, err
			}
			return current, true, nil
		}
	}

	r, err := s.dispatch(ctx, &model.Command{SessionID: sessionID, ActionID: actionID, Action: a})
	if err != nil {
		if key != "" && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			s.deduper.Unrecord(ctx, key)
		}
		return grid.State{}, false, err
	}
	return r.State, false, nil
}

// Catalog returns the current catalog. Never nil.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalogs.Load()
}

// UpdateCatalog rebuilds the catalog from feed and publishes it. A rejected
// feed leaves the previous catalog in place.
func (s *Service) UpdateCatalog(ctx context.Context, feed catalog.Feed) (*catalog.Catalog, error) {
	start := time.Now()
	c, err := catalog.BuildCatalog(feed)
	if err != nil {
		metrics.RecordCatalogFailure()
		metrics.RecordErrorByComponent("catalog", "build")
		return nil, fmt.Errorf("update catalog: %w", err)
	}
	metrics.RecordCatalogBuildLatency(float64(time.Since(start).Microseconds()) / 1000)
	s.catalogs.Swap(c)
	metrics.RecordCatalogRebuild()

	log := s.log()
	log.Info(ctx, "catalog updated", logger.Int("webcasts", c.Len()))

	if s.pruneOnUpdate && s.isStarted() {
		// The catalog is already published; a caller that goes away must
		// not leave sessions showing webcasts it no longer contains.
		s.pruneSessions(context.WithoutCancel(ctx), c)
	}
	return c, nil
}

// UpdateCatalogFrom parses a feed document and publishes its catalog.
func (s *Service) UpdateCatalogFrom(ctx context.Context, r io.Reader) (*catalog.Catalog, error) {
	feed, err := catalog.ParseFeed(r)
	if err != nil {
		metrics.RecordCatalogFailure()
		return nil, fmt.Errorf("update catalog: %w", err)
	}
	return s.UpdateCatalog(ctx, feed)
}

// pruneSessions clears webcasts missing from c out of every session.
func (s *Service) pruneSessions(ctx context.Context, c *catalog.Catalog) {
	total := 0
	for _, id := range s.sessions.IDs(ctx) {
		removed := 0
		_, err := s.dispatch(ctx, &model.Command{
			SessionID: id,
			Mutate: func(st grid.State) grid.State {
				next := st.Prune(c.Has)
				removed = len(st.DisplayedIDs()) - len(next.DisplayedIDs())
				return next
			},
		})
		switch {
		case err == nil:
			total += removed
		case errors.Is(err, ErrSessionNotFound):
		default:
			s.logger.Warn(ctx, "prune failed", logger.String("session", id), logger.Error(err))
		}
	}
	if total > 0 {
		metrics.RecordCatalogPrunedSlots(total)
		s.logger.Info(ctx, "pruned webcasts missing from catalog", logger.Int("removed", total))
	}
}

// janitor expires idle sessions until ctx is done.
func (s *Service) janitor(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.ExpireIdle(ctx)
		}
	}
}

// ExpireIdle deletes sessions unused for longer than the session TTL and
// returns how many were removed.
func (s *Service) ExpireIdle(ctx context.Context) int {
	expired := 0
	for _, id := range s.sessions.Idle(ctx, s.sessionTTL) {
		if _, err := s.dispatch(ctx, &model.Command{SessionID: id, Delete: true}); err != nil {
			if !errors.Is(err, ErrSessionNotFound) {
				s.logger.Warn(ctx, "expire failed", logger.String("session", id), logger.Error(err))
			}
			continue
		}
		expired++
	}
	if expired > 0 {
		metrics.RecordSessionsExpired(expired)
		s.logger.Info(ctx, "expired idle sessions", logger.Int("count", expired))
	}
	return expired
}

// dispatch hands cmd to the dispatcher and waits for its result.
func (s *Service) dispatch(ctx context.Context, cmd *model.Command) (model.Result, error) {
	s.mu.RLock()
	q, started := s.commands, s.started
	s.mu.RUnlock()
	if !started {
		return model.Result{}, ErrStopped
	}

	reply := make(chan model.Result, 1)
	cmd.Ctx = ctx
	cmd.Reply = reply

	if err := q.Enqueue(ctx, cmd); err != nil {
		switch {
		case errors.Is(err, queue.ErrFull):
			metrics.RecordActionRejected("backpressure")
			return model.Result{}, ErrBackpressure
		case errors.Is(err, queue.ErrClosed):
			return model.Result{}, ErrStopped
		default:
			return model.Result{}, err
		}
	}

	select {
	case r := <-reply:
		if r.Err != nil {
			return r, mapStoreErr(r.Err)
		}
		return r, nil
	case <-ctx.Done():
		return model.Result{}, ctx.Err()
	}
}

func mapStoreErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrSessionNotFound
	}
	return err
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

func (s *Service) log() logger.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.logger == nil {
		return logger.Get().Named("service")
	}
	return s.logger
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	sessions := s.sessions.Count(ctx)
	stats := map[string]any{
		"started":         s.started,
		"queueSize":       s.queueSize,
		"dedupeSize":      s.dedupeSize,
		"maxSessions":     s.maxSessions,
		"sessionTTL":      s.sessionTTL.String(),
		"pruneOnUpdate":   s.pruneOnUpdate,
		"sessions":        sessions,
		"catalogWebcasts": s.catalogs.Load().Len(),
	}

	if s.started {
		stats["queueLength"] = s.commands.Len(ctx)
		stats["dedupeEntries"] = s.deduper.Size()
		stats["processed"] = s.dispatcher.Processed()
		stats["failed"] = s.dispatcher.Failed()
	}
	metrics.UpdateSessionsActive(sessions)

	return stats
}
