package simulate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gameday-grid/gameday/internal/adapters/http/api"
	service "github.com/gameday-grid/gameday/internal/app"
	"github.com/gameday-grid/gameday/internal/domain/catalog"
	"github.com/gameday-grid/gameday/internal/domain/grid"
	"github.com/gameday-grid/gameday/internal/domain/types"
	"github.com/gameday-grid/gameday/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func testCatalog(t *testing.T) *catalog.Catalog {
	c, err := catalog.BuildCatalog(syntheticFeed(5))
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}
	return c
}

func TestGenerator(t *testing.T) {
	Convey("Given two generators with the same seed and stream", t, func() {
		c := testCatalog(t)
		a := newGenerator(7, 1, c)
		b := newGenerator(7, 1, c)

		Convey("Then they produce the same actions", func() {
			s := grid.New()
			for range 200 {
				x, y := a.next(s), b.next(s)
				So(x, ShouldResemble, y)
				s = grid.Reduce(s, x)
			}
		})
	})

	Convey("Given a generator", t, func() {
		c := testCatalog(t)
		g := newGenerator(42, 0, c)

		Convey("Then every action validates and placements use catalog ids", func() {
			s := grid.New()
			for range 500 {
				a := g.next(s)
				So(a.Validate(), ShouldBeNil)
				if a.Type == grid.ActionPlace || a.Type == grid.ActionAdd {
					So(c.Has(a.WebcastID), ShouldBeTrue)
				}
				s = grid.Reduce(s, a)
			}
		})
	})
}

func TestSyntheticFeed(t *testing.T) {
	Convey("Given a synthetic feed of four events", t, func() {
		c, err := catalog.BuildCatalog(syntheticFeed(4))

		Convey("Then it builds with specials and multi-stream events", func() {
			So(err, ShouldBeNil)
			So(c.SpecialIDs(), ShouldResemble, []string{"firstinspires-0", "tba-0"})
			// 1 + 2 + 3 + 1 streams plus two specials
			So(c.Len(), ShouldEqual, 9)
			So(c.Has("2024sim2-2"), ShouldBeTrue)
		})
	})
}

func TestVerify(t *testing.T) {
	Convey("Given a grid built by the reducer", t, func() {
		s := grid.ReduceAll(grid.New(),
			grid.Action{Type: grid.ActionSelectLayout, LayoutID: 3},
			grid.Action{Type: grid.ActionAdd, WebcastID: "tba-0"},
			grid.Action{Type: grid.ActionPlace, WebcastID: "2024sim0-0", Position: 2},
		)

		Convey("Then it passes local verification", func() {
			So(verifyLocal(s), ShouldBeNil)
		})

		Convey("When a slot is corrupted", func() {
			bad := s
			bad.Slots[8] = grid.Slot{WebcastID: "orphan-0"}

			Convey("Then local verification reports an invariant violation", func() {
				So(errors.Is(verifyLocal(bad), ErrInvariant), ShouldBeTrue)
			})
		})

		Convey("When the remote view matches after a JSON round trip", func() {
			data, err := json.Marshal(types.NewGridView("x", s, nil))
			So(err, ShouldBeNil)
			var remote types.GridView
			So(json.Unmarshal(data, &remote), ShouldBeNil)

			Convey("Then remote verification passes", func() {
				So(verifyRemote(s, remote), ShouldBeNil)
			})

			Convey("And a moved webcast is a mismatch", func() {
				moved := grid.Reduce(s, grid.Action{Type: grid.ActionSwap, Position: 0, Other: 1})
				So(errors.Is(verifyRemote(moved, remote), ErrMismatch), ShouldBeTrue)
			})
		})
	})
}

func TestRun_Local(t *testing.T) {
	Convey("Given a local simulation", t, func() {
		cfg := &Config{Actions: 400, Sessions: 3, Seed: 99, Events: 6}

		Convey("When it runs twice", func() {
			first, err1 := Run(context.Background(), cfg)
			second, err2 := Run(context.Background(), cfg)

			Convey("Then both succeed with identical counts", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(first.Actions, ShouldEqual, 1200)
				So(first.Changed+first.Noops, ShouldEqual, first.Actions)
				So(first.Changed, ShouldEqual, second.Changed)
				So(first.ByType, ShouldResemble, second.ByType)
				So(first.Remote, ShouldBeFalse)
			})
		})

		Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := Run(ctx, cfg)

			Convey("Then the run stops with the context error", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})

	Convey("Given a feed file", t, func() {
		data, err := json.Marshal(syntheticFeed(2))
		So(err, ShouldBeNil)
		path := filepath.Join(t.TempDir(), "feed.json")
		So(os.WriteFile(path, data, 0o600), ShouldBeNil)

		Convey("Then the simulation uses it", func() {
			stats, err := Run(context.Background(), &Config{Actions: 50, Sessions: 1, FeedFile: path})
			So(err, ShouldBeNil)
			So(stats.Actions, ShouldEqual, 50)
		})

		Convey("And an empty feed is refused", func() {
			empty := filepath.Join(t.TempDir(), "empty.json")
			So(os.WriteFile(empty, []byte(`{}`), 0o600), ShouldBeNil)
			_, err := Run(context.Background(), &Config{FeedFile: empty})
			So(errors.Is(err, catalog.ErrInvalidFeed), ShouldBeTrue)
		})
	})
}

func TestRun_Remote(t *testing.T) {
	Convey("Given a running grid server", t, func() {
		svc := service.New()
		So(svc.Start(context.Background()), ShouldBeNil)
		srv := httptest.NewServer(api.NewServer(svc).Router(context.Background()))
		defer func() {
			srv.Close()
			svc.Stop()
		}()

		Convey("When the simulation drives it", func() {
			stats, err := Run(context.Background(), &Config{
				BaseURL:  srv.URL,
				Actions:  150,
				Sessions: 2,
				Seed:     3,
			})

			Convey("Then remote and local grids agree at every step", func() {
				So(err, ShouldBeNil)
				So(stats.Remote, ShouldBeTrue)
				So(stats.Actions, ShouldEqual, 300)
			})

			Convey("And the sessions are cleaned up", func() {
				So(svc.GetStats()["sessions"], ShouldEqual, 0)
			})
		})
	})

	Convey("Given no server at the URL", t, func() {
		srv := httptest.NewServer(nil)
		url := srv.URL
		srv.Close()

		Convey("Then the health check fails", func() {
			_, err := Run(context.Background(), &Config{BaseURL: url, Actions: 1})
			So(errors.Is(err, ErrRemote), ShouldBeTrue)
		})
	})
}
