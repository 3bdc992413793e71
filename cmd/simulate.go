package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gameday-grid/gameday/internal/simulate"
	"github.com/gameday-grid/gameday/pkg/logger"
)

func newSimulateCmd() *cobra.Command {
	cfg := &simulate.Config{}
	var logFormat string
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Drive random grid actions and check the grid invariants",
		Long: "Drive random grid action sequences through the reducer and check the grid\n" +
			"invariants after every step. With --url every action is also sent to a running\n" +
			"server and its grid is compared with the local one.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithFormat(logFormat), logger.WithOutput(cmd.OutOrStdout())); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}
			if cfg.Verbose {
				_ = logger.SetLevelString("debug")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			stats, err := simulate.Run(ctx, cfg)
			if err != nil {
				return fmt.Errorf("simulation failed: %w", err)
			}
			cmd.Printf("%d sessions, %d actions (%d changed, %d no-op, %d duplicates) in %s\n",
				stats.Sessions, stats.Actions, stats.Changed, stats.Noops, stats.Duplicates, stats.Duration)
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&cfg.Actions, "actions", simulate.DefaultActions, "Actions per session")
	f.IntVar(&cfg.Sessions, "sessions", simulate.DefaultSessions, "Number of concurrent sessions")
	f.Uint64Var(&cfg.Seed, "seed", 1, "Random seed")
	f.StringVar(&cfg.BaseURL, "url", "", "Base URL of a running server (default: local only)")
	f.StringVar(&cfg.FeedFile, "feed", "", "Feed document to build the catalog from (default: generated)")
	f.IntVar(&cfg.Events, "events", simulate.DefaultEvents, "Events in the generated feed")
	f.DurationVar(&cfg.Timeout, "timeout", simulate.DefaultTimeout, "HTTP request timeout")
	f.BoolVar(&cfg.Verbose, "verbose", false, "Log every step")
	f.StringVar(&logFormat, "log-format", "text", "Log format: text or json")
	return cmd
}
