// Package config defines service configuration and how it is loaded.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the pending grid command queue.
	QueueSize int `koanf:"queue_size"`

	// DedupeSize bounds the remembered action ids.
	DedupeSize int `koanf:"dedupe_size"`

	// SessionTTL is how long an unused session lives. Zero disables expiry.
	SessionTTL time.Duration `koanf:"session_ttl"`

	// MaxSessions caps live sessions. Zero means unlimited.
	MaxSessions int `koanf:"max_sessions"`

	// JanitorInterval is how often idle sessions are looked for.
	JanitorInterval time.Duration `koanf:"janitor_interval"`

	// PruneOnCatalogUpdate clears webcasts that left the feed from sessions.
	PruneOnCatalogUpdate bool `koanf:"prune_on_catalog_update"`

	// FeedFile is an optional webcast feed document loaded at startup.
	FeedFile string `koanf:"feed_file"`

	// CORSOrigins lists allowed browser origins. Empty allows none.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitRPS and RateLimitBurst bound actions per client IP.
	// A zero rate disables limiting.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// MetricsNamespace and MetricsSubsystem prefix every metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`

	// MetricsLatencyBuckets are the latency histogram buckets in
	// milliseconds. Empty keeps the built-in buckets.
	MetricsLatencyBuckets []float64 `koanf:"metrics_latency_buckets"`

	// MetricsRefreshInterval is how often runtime gauges are sampled.
	MetricsRefreshInterval time.Duration `koanf:"metrics_refresh_interval"`

	// MetricsLabels are constant labels as key=value pairs.
	MetricsLabels []string `koanf:"metrics_labels"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		QueueSize:            10_000,
		DedupeSize:           50_000,
		SessionTTL:           24 * time.Hour,
		MaxSessions:          10_000,
		JanitorInterval:      time.Minute,
		PruneOnCatalogUpdate: true,
		CORSOrigins:          []string{"*"},
		RateLimitRPS:         20,
		RateLimitBurst:       40,

		MetricsNamespace:       "gameday",
		MetricsSubsystem:       "grid",
		MetricsRefreshInterval: 10 * time.Second,
	}
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case !oneOf(c.LogLevel, "debug", "info", "warn", "warning", "error"):
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	case !oneOf(c.LogFormat, "text", "json"):
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.DedupeSize < 0:
		return fmt.Errorf("%w: dedupe_size must not be negative", ErrInvalidConfig)
	case c.SessionTTL < 0:
		return fmt.Errorf("%w: session_ttl must not be negative", ErrInvalidConfig)
	case c.MaxSessions < 0:
		return fmt.Errorf("%w: max_sessions must not be negative", ErrInvalidConfig)
	case c.JanitorInterval <= 0:
		return fmt.Errorf("%w: janitor_interval must be positive", ErrInvalidConfig)
	case c.RateLimitRPS < 0:
		return fmt.Errorf("%w: rate_limit_rps must not be negative", ErrInvalidConfig)
	case c.RateLimitRPS > 0 && c.RateLimitBurst < 1:
		return fmt.Errorf("%w: rate_limit_burst must be at least 1", ErrInvalidConfig)
	case strings.TrimSpace(c.MetricsNamespace) == "":
		return fmt.Errorf("%w: metrics_namespace must not be empty", ErrInvalidConfig)
	case c.MetricsRefreshInterval <= 0:
		return fmt.Errorf("%w: metrics_refresh_interval must be positive", ErrInvalidConfig)
	case !ascending(c.MetricsLatencyBuckets):
		return fmt.Errorf("%w: metrics_latency_buckets must be strictly increasing", ErrInvalidConfig)
	}
	if _, err := c.MetricsConstLabels(); err != nil {
		return err
	}
	return nil
}

// MetricsConstLabels parses MetricsLabels into a label map.
func (c *Config) MetricsConstLabels() (map[string]string, error) {
	labels := make(map[string]string, len(c.MetricsLabels))
	for _, pair := range c.MetricsLabels {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: metrics_labels entry %q is not key=value", ErrInvalidConfig, pair)
		}
		labels[k] = strings.TrimSpace(v)
	}
	return labels, nil
}

func ascending(xs []float64) bool {
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return false
		}
	}
	return true
}

func oneOf(v string, allowed ...string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
