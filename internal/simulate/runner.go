package simulate

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gameday-grid/gameday/internal/domain/catalog"
	"github.com/gameday-grid/gameday/internal/domain/grid"
	"github.com/gameday-grid/gameday/pkg/logger"
)

// Run executes a simulation and returns its statistics. The first invariant
// violation or remote mismatch stops the run.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	cfg := config.withDefaults()
	log := logger.Get().Named("simulate")
	start := time.Now()

	feed, err := loadFeed(cfg)
	if err != nil {
		return nil, err
	}
	c, err := catalog.BuildCatalog(feed)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}
	if c.Len() == 0 {
		return nil, fmt.Errorf("%w: feed has no webcasts", catalog.ErrInvalidFeed)
	}

	var client *httpClient
	if cfg.BaseURL != "" {
		client = newHTTPClient(cfg.BaseURL, cfg.Timeout)
		if err := client.health(ctx); err != nil {
			return nil, fmt.Errorf("service health check failed: %w", err)
		}
		if err := client.putFeed(ctx, feed); err != nil {
			return nil, fmt.Errorf("publish feed: %w", err)
		}
	}

	log.Info(ctx, "starting grid simulation",
		logger.Int("sessions", cfg.Sessions),
		logger.Int("actions", cfg.Actions),
		logger.String("seed", strconv.FormatUint(cfg.Seed, 10)),
		logger.Int("webcasts", c.Len()),
		logger.Bool("remote", client != nil),
	)

	results := make([]sessionStats, cfg.Sessions)
	g, gctx := errgroup.WithContext(ctx)
	for k := range cfg.Sessions {
		g.Go(func() error {
			st, err := runSession(gctx, &cfg, k, c, client, log)
			if err != nil {
				return fmt.Errorf("session %d: %w", k, err)
			}
			results[k] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &Stats{
		Sessions: cfg.Sessions,
		Remote:   client != nil,
		ByType:   make(map[grid.ActionType]int),
	}
	for _, r := range results {
		stats.merge(r)
	}
	stats.Duration = time.Since(start)
	displayFinalStats(ctx, log, stats)
	return stats, nil
}

func loadFeed(cfg Config) (catalog.Feed, error) {
	if cfg.FeedFile == "" {
		return syntheticFeed(cfg.Events), nil
	}
	f, err := os.Open(cfg.FeedFile)
	if err != nil {
		return catalog.Feed{}, fmt.Errorf("open feed: %w", err)
	}
	defer func() { _ = f.Close() }()
	return catalog.ParseFeed(f)
}

// runSession drives one session. Local state is authoritative; with a
// client every step is mirrored remotely and compared.
func runSession(ctx context.Context, cfg *Config, k int, c *catalog.Catalog, client *httpClient, log logger.Logger) (sessionStats, error) {
	st := sessionStats{byType: make(map[grid.ActionType]int)}
	gen := newGenerator(cfg.Seed, uint64(k), c)
	s := grid.New()

	var sessionID string
	if client != nil {
		id, err := client.createSession(ctx)
		if err != nil {
			return st, err
		}
		sessionID = id
		defer func() {
			if err := client.deleteSession(context.WithoutCancel(ctx), sessionID); err != nil {
				log.Warn(ctx, "failed to delete session", logger.String("session", sessionID), logger.Error(err))
			}
		}()
	}

	var lastActionID string
	for step := range cfg.Actions {
		if err := ctx.Err(); err != nil {
			return st, err
		}

		if client != nil && lastActionID != "" && gen.replay() {
			resp, err := client.apply(ctx, sessionID, lastActionID, grid.Action{Type: grid.ActionReset})
			if err != nil {
				return st, err
			}
			if !resp.Duplicate {
				return st, fmt.Errorf("%w: step %d: replayed action %s was applied again", ErrMismatch, step, lastActionID)
			}
			if err := verifyRemote(s, resp.GridView); err != nil {
				return st, fmt.Errorf("step %d: %w", step, err)
			}
			st.duplicates++
		}

		a := gen.next(s)
		next := grid.Reduce(s, a)
		st.actions++
		st.byType[a.Type]++
		if next != s {
			st.changed++
		}
		s = next

		if cfg.Verbose {
			log.Debug(ctx, "step",
				logger.Int("session", k),
				logger.Int("step", step),
				logger.Any("action", a),
				logger.Any("displayed", s.DisplayedIDs()),
			)
		}
		if err := verifyLocal(s); err != nil {
			return st, fmt.Errorf("step %d %s: %w", step, a.Type, err)
		}

		if client != nil {
			lastActionID = strconv.Itoa(k) + "-" + strconv.Itoa(step)
			resp, err := client.apply(ctx, sessionID, lastActionID, a)
			if err != nil {
				return st, fmt.Errorf("step %d: %w", step, err)
			}
			if err := verifyRemote(s, resp.GridView); err != nil {
				return st, fmt.Errorf("step %d %s: %w", step, a.Type, err)
			}
		}
	}

	if client != nil {
		q, err := client.share(ctx, sessionID)
		if err != nil {
			return st, err
		}
		if want := grid.EncodeQuery(s).Encode(); q != want {
			return st, fmt.Errorf("%w: share link %q, remote %q", ErrMismatch, want, q)
		}
	}
	return st, nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	types := make([]string, 0, len(stats.ByType))
	for t := range stats.ByType {
		types = append(types, string(t))
	}
	sort.Strings(types)
	fields := []logger.Field{
		logger.Int("sessions", stats.Sessions),
		logger.Int("actions", stats.Actions),
		logger.Int("changed", stats.Changed),
		logger.Int("noops", stats.Noops),
		logger.Int("duplicates", stats.Duplicates),
		logger.Bool("remote", stats.Remote),
		logger.Duration("duration", stats.Duration),
	}
	for _, t := range types {
		fields = append(fields, logger.Int("type."+t, stats.ByType[grid.ActionType(t)]))
	}
	log.Info(ctx, "simulation completed", fields...)
}
