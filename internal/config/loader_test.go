package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gameday-grid/gameday/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"GAMEDAY_CONFIG", "GAMEDAY_ENV_FILE", "GAMEDAY_ADDR", "GAMEDAY_LOG_LEVEL",
	"GAMEDAY_LOG_FORMAT", "GAMEDAY_QUEUE_SIZE", "GAMEDAY_DEDUPE_SIZE",
	"GAMEDAY_SESSION_TTL", "GAMEDAY_MAX_SESSIONS", "GAMEDAY_JANITOR_INTERVAL",
	"GAMEDAY_PRUNE_ON_CATALOG_UPDATE", "GAMEDAY_FEED_FILE", "GAMEDAY_CORS_ORIGINS",
	"GAMEDAY_RATE_LIMIT_RPS", "GAMEDAY_RATE_LIMIT_BURST", "GAMEDAY_METRICS_NAMESPACE",
	"GAMEDAY_METRICS_SUBSYSTEM", "GAMEDAY_METRICS_LATENCY_BUCKETS",
	"GAMEDAY_METRICS_REFRESH_INTERVAL", "GAMEDAY_METRICS_LABELS",
}

func clearConfigEnvVars() {
	for _, k := range configEnvVars {
		_ = os.Unsetenv(k)
	}
}

func writeTemp(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.SessionTTL, convey.ShouldEqual, 24*time.Hour)
			convey.So(cfg.PruneOnCatalogUpdate, convey.ShouldBeTrue)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given invalid field values", t, func() {
		cases := []func(*config.Config){
			func(c *config.Config) { c.Addr = " " },
			func(c *config.Config) { c.LogLevel = "loud" },
			func(c *config.Config) { c.LogFormat = "xml" },
			func(c *config.Config) { c.QueueSize = 0 },
			func(c *config.Config) { c.DedupeSize = -1 },
			func(c *config.Config) { c.SessionTTL = -time.Second },
			func(c *config.Config) { c.MaxSessions = -1 },
			func(c *config.Config) { c.JanitorInterval = 0 },
			func(c *config.Config) { c.RateLimitRPS = -1 },
			func(c *config.Config) { c.RateLimitBurst = 0 },
			func(c *config.Config) { c.MetricsNamespace = "" },
			func(c *config.Config) { c.MetricsRefreshInterval = 0 },
			func(c *config.Config) { c.MetricsLatencyBuckets = []float64{5, 1} },
			func(c *config.Config) { c.MetricsLabels = []string{"nolabel"} },
		}
		for _, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldNotBeBlank)
		}
	})

	convey.Convey("Given rate limiting is off", t, func() {
		cfg := config.New()
		cfg.RateLimitRPS = 0
		cfg.RateLimitBurst = 0
		convey.So(cfg.Validate(), convey.ShouldBeNil)
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then the defaults are returned", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("GAMEDAY_ADDR", ":8080")
			_ = os.Setenv("GAMEDAY_QUEUE_SIZE", "500")
			_ = os.Setenv("GAMEDAY_SESSION_TTL", "90m")
			_ = os.Setenv("GAMEDAY_PRUNE_ON_CATALOG_UPDATE", "false")
			_ = os.Setenv("GAMEDAY_CORS_ORIGINS", "https://a.example,https://b.example")
			_ = os.Setenv("GAMEDAY_RATE_LIMIT_RPS", "2.5")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env vars override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.SessionTTL, convey.ShouldEqual, 90*time.Minute)
				convey.So(cfg.PruneOnCatalogUpdate, convey.ShouldBeFalse)
				convey.So(cfg.CORSOrigins, convey.ShouldResemble, []string{"https://a.example", "https://b.example"})
				convey.So(cfg.RateLimitRPS, convey.ShouldEqual, 2.5)
			})
		})

		convey.Convey("When metrics settings come from the environment", func() {
			_ = os.Setenv("GAMEDAY_METRICS_NAMESPACE", "wall")
			_ = os.Setenv("GAMEDAY_METRICS_LATENCY_BUCKETS", "1,5,25")
			_ = os.Setenv("GAMEDAY_METRICS_REFRESH_INTERVAL", "30s")
			_ = os.Setenv("GAMEDAY_METRICS_LABELS", "site=champs,region=east")

			cfg, err := config.Load(ctx)

			convey.Convey("Then they are parsed into the metrics fields", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "wall")
				convey.So(cfg.MetricsSubsystem, convey.ShouldEqual, "grid")
				convey.So(cfg.MetricsLatencyBuckets, convey.ShouldResemble, []float64{1, 5, 25})
				convey.So(cfg.MetricsRefreshInterval, convey.ShouldEqual, 30*time.Second)
				labels, err := cfg.MetricsConstLabels()
				convey.So(err, convey.ShouldBeNil)
				convey.So(labels, convey.ShouldResemble, map[string]string{"site": "champs", "region": "east"})
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			path := writeTemp(t, "gameday.yaml", `
addr: ":9090"
log_format: json
queue_size: 300
janitor_interval: 30s
feed_file: /srv/feed.json
`)
			_ = os.Setenv("GAMEDAY_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values are used", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300)
				convey.So(cfg.JanitorInterval, convey.ShouldEqual, 30*time.Second)
				convey.So(cfg.FeedFile, convey.ShouldEqual, "/srv/feed.json")
			})

			convey.Convey("And env vars still win over the file", func() {
				_ = os.Setenv("GAMEDAY_ADDR", ":7070")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300)
			})
		})

		convey.Convey("When a .env file is present", func() {
			path := writeTemp(t, "test.env", "GAMEDAY_MAX_SESSIONS=7\nGAMEDAY_ADDR=:1111\n")
			_ = os.Setenv("GAMEDAY_ENV_FILE", path)
			_ = os.Setenv("GAMEDAY_ADDR", ":2222")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it fills in variables that are not already set", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.MaxSessions, convey.ShouldEqual, 7)
				convey.So(cfg.Addr, convey.ShouldEqual, ":2222")
			})
		})

		convey.Convey("When the YAML file does not exist", func() {
			_ = os.Setenv("GAMEDAY_CONFIG", "/non/existent/file.yaml")
			_, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a value does not parse", func() {
			_ = os.Setenv("GAMEDAY_QUEUE_SIZE", "lots")
			_, err := config.Load(ctx)

			convey.Convey("Then the config is invalid", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a value fails validation", func() {
			_ = os.Setenv("GAMEDAY_ADDR", "")
			_ = os.Setenv("GAMEDAY_QUEUE_SIZE", "-1")
			_, err := config.Load(ctx)

			convey.Convey("Then the config is invalid", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}
