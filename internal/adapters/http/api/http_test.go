package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gameday-grid/gameday/internal/adapters/http/api"
	service "github.com/gameday-grid/gameday/internal/app"
	"github.com/gameday-grid/gameday/internal/domain/catalog"
	"github.com/gameday-grid/gameday/internal/domain/grid"
	"github.com/gameday-grid/gameday/internal/domain/layout"
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

const feedJSON = `{
  "special_webcasts": [
    {"key_name": "tba", "name": "TBA GameDay", "type": "twitch", "channel": "tbagameday"}
  ],
  "ongoing_events_w_webcasts": [
    {"key": "2024casj", "name": "Silicon Valley Regional", "webcasts": [
      {"type": "youtube", "channel": "abc"},
      {"type": "twitch", "channel": "def"}
    ]},
    {"key": "2024cur", "name": "Curie Division", "short_name": "Curie", "webcasts": [
      {"type": "youtube", "channel": "ghi"}
    ]}
  ]
}`

// stubDeps returns a fixed error from every session call.
type stubDeps struct {
	err error
}

func (s *stubDeps) GetStats() map[string]any { return map[string]any{"stub": true} }

func (s *stubDeps) CreateSession(context.Context, url.Values) (string, grid.State, error) {
	return "", grid.State{}, s.err
}

func (s *stubDeps) Session(context.Context, string) (grid.State, error) {
	return grid.State{}, s.err
}

func (s *stubDeps) DeleteSession(context.Context, string) error { return s.err }

func (s *stubDeps) Apply(context.Context, string, string, grid.Action) (grid.State, bool, error) {
	return grid.State{}, false, s.err
}

func (s *stubDeps) Catalog() *catalog.Catalog { return catalog.Empty() }

func (s *stubDeps) UpdateCatalogFrom(context.Context, io.Reader) (*catalog.Catalog, error) {
	return nil, s.err
}

func newTestServer(t *testing.T, opts ...api.Option) (*httptest.Server, *service.Service) {
	svc := service.New()
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	srv := httptest.NewServer(api.NewServer(svc, opts...).Router(context.Background()))
	t.Cleanup(func() {
		srv.Close()
		svc.Stop()
	})
	return srv, svc
}

func do(t *testing.T, method, u, body string) *http.Response {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, u, r)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, u, err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	defer func() { _ = resp.Body.Close() }()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

type actionView struct {
	types.GridView
	Duplicate bool `json:"duplicate"`
}

type webcastList struct {
	Count    int                 `json:"count"`
	Webcasts []types.WebcastView `json:"webcasts"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func TestAPI_Catalog(t *testing.T) {
	Convey("Given a running API", t, func() {
		srv, _ := newTestServer(t)

		Convey("When layouts are listed", func() {
			resp := do(t, http.MethodGet, srv.URL+"/layouts", "")
			got := decode[[]layout.Layout](t, resp)

			Convey("Then all layouts come back in display order", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(got, ShouldResemble, layout.All())
			})
		})

		Convey("When the feed is replaced", func() {
			resp := do(t, http.MethodPut, srv.URL+"/webcasts", feedJSON)
			got := decode[webcastList](t, resp)

			Convey("Then the catalog is listed in display order", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(got.Count, ShouldEqual, 4)
				So(got.Webcasts[0].ID, ShouldEqual, "tba-0")
				So(got.Webcasts[0].Special, ShouldBeTrue)
				So(got.Webcasts[1].Special, ShouldBeFalse)
			})

			Convey("And a later GET returns the same list", func() {
				list := decode[webcastList](t, do(t, http.MethodGet, srv.URL+"/webcasts", ""))
				So(list, ShouldResemble, got)
			})
		})

		Convey("When the feed is not JSON", func() {
			resp := do(t, http.MethodPut, srv.URL+"/webcasts", "{nope")
			got := decode[apiError](t, resp)

			Convey("Then it is rejected as an invalid feed", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				So(got.Code, ShouldEqual, "invalid_feed")
			})
		})

		Convey("When the feed derives duplicate ids", func() {
			dup := `{"ongoing_events_w_webcasts":[{"key":"x","webcasts":[{"type":"youtube","channel":"a"}]},{"key":"x","webcasts":[{"type":"youtube","channel":"b"}]}]}`
			resp := do(t, http.MethodPut, srv.URL+"/webcasts", dup)
			_ = resp.Body.Close()

			Convey("Then it is rejected", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestAPI_Sessions(t *testing.T) {
	Convey("Given a running API with a catalog", t, func() {
		srv, _ := newTestServer(t)
		resp := do(t, http.MethodPut, srv.URL+"/webcasts", feedJSON)
		_ = resp.Body.Close()
		So(resp.StatusCode, ShouldEqual, http.StatusOK)

		Convey("When a session is created", func() {
			resp := do(t, http.MethodPost, srv.URL+"/sessions", "")
			view := decode[types.GridView](t, resp)

			Convey("Then it is blank and addressable", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusCreated)
				So(view.SessionID, ShouldNotBeBlank)
				So(view.LayoutConfirmed, ShouldBeFalse)
				So(resp.Header.Get("Location"), ShouldEqual, "/sessions/"+view.SessionID)

				got := decode[types.GridView](t, do(t, http.MethodGet, srv.URL+"/sessions/"+view.SessionID, ""))
				So(got.SessionID, ShouldEqual, view.SessionID)
			})

			actions := srv.URL + "/sessions/" + view.SessionID + "/actions"

			Convey("And actions are applied in order", func() {
				r1 := do(t, http.MethodPost, actions, `{"type":"select_layout","layout_id":1}`)
				So(r1.StatusCode, ShouldEqual, http.StatusOK)
				_ = r1.Body.Close()

				r2 := do(t, http.MethodPost, actions, `{"action_id":"a1","type":"add","webcast_id":"2024casj-1"}`)
				got := decode[actionView](t, r2)

				So(r2.StatusCode, ShouldEqual, http.StatusOK)
				So(got.Duplicate, ShouldBeFalse)
				So(got.Layout.ID, ShouldEqual, 1)
				So(got.Positions, ShouldHaveLength, 2)
				So(got.Positions[0].WebcastID, ShouldEqual, "2024casj-1")
				So(got.Positions[0].Webcast, ShouldNotBeNil)
				So(got.Positions[0].Webcast.Channel, ShouldEqual, "def")
				So(got.Displayed, ShouldResemble, []string{"2024casj-1"})

				Convey("Then replaying an action id is reported as a duplicate", func() {
					again := decode[actionView](t, do(t, http.MethodPost, actions, `{"action_id":"a1","type":"add","webcast_id":"2024casj-1"}`))
					So(again.Duplicate, ShouldBeTrue)
					So(again.Displayed, ShouldResemble, []string{"2024casj-1"})
				})

				Convey("Then the share link restores the grid in a new session", func() {
					share := decode[map[string]string](t, do(t, http.MethodGet, srv.URL+"/sessions/"+view.SessionID+"/share", ""))
					q, err := url.ParseQuery(share["query"])
					So(err, ShouldBeNil)
					So(q.Get("layout"), ShouldEqual, "1")
					So(q.Get("view_0"), ShouldEqual, "2024casj-1")

					resp := do(t, http.MethodPost, srv.URL+"/sessions?"+share["query"], "")
					restored := decode[types.GridView](t, resp)
					So(resp.StatusCode, ShouldEqual, http.StatusCreated)
					So(restored.SessionID, ShouldNotEqual, view.SessionID)
					So(restored.Displayed, ShouldResemble, []string{"2024casj-1"})
				})
			})

			Convey("And an unknown webcast is rejected", func() {
				resp := do(t, http.MethodPost, actions, `{"type":"add","webcast_id":"nope-0"}`)
				got := decode[apiError](t, resp)
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				So(got.Code, ShouldEqual, "unknown_webcast")
			})

			Convey("And malformed actions are rejected", func() {
				for _, body := range []string{`{"type":"explode"}`, `{"type":"add"}`, `{"type":"reset","bogus":1}`, `[`} {
					resp := do(t, http.MethodPost, actions, body)
					_ = resp.Body.Close()
					So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				}
			})

			Convey("And the session can be deleted", func() {
				resp := do(t, http.MethodDelete, srv.URL+"/sessions/"+view.SessionID, "")
				_ = resp.Body.Close()
				So(resp.StatusCode, ShouldEqual, http.StatusNoContent)

				resp = do(t, http.MethodGet, srv.URL+"/sessions/"+view.SessionID, "")
				got := decode[apiError](t, resp)
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
				So(got.Code, ShouldEqual, "not_found")
			})
		})

		Convey("When a session id does not exist", func() {
			resp := do(t, http.MethodPost, srv.URL+"/sessions/missing/actions", `{"type":"reset"}`)
			_ = resp.Body.Close()

			Convey("Then actions return 404", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestAPI_Ops(t *testing.T) {
	Convey("Given a running API", t, func() {
		srv, _ := newTestServer(t, api.WithCORSOrigins([]string{"https://gameday.example"}))

		Convey("When stats are requested", func() {
			got := decode[map[string]any](t, do(t, http.MethodGet, srv.URL+"/stats", ""))

			Convey("Then service stats are returned", func() {
				So(got["started"], ShouldEqual, true)
			})
		})

		Convey("When health is requested", func() {
			resp := do(t, http.MethodGet, srv.URL+"/healthz", "")
			body, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()

			Convey("Then prometheus metrics are exposed", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(string(body), ShouldContainSubstring, "gameday_grid_")
			})
		})

		Convey("When a CORS preflight arrives from an allowed origin", func() {
			req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/webcasts", nil)
			req.Header.Set("Origin", "https://gameday.example")
			req.Header.Set("Access-Control-Request-Method", http.MethodPut)
			resp, err := http.DefaultClient.Do(req)
			So(err, ShouldBeNil)
			_ = resp.Body.Close()

			Convey("Then the origin is allowed", func() {
				So(resp.Header.Get("Access-Control-Allow-Origin"), ShouldEqual, "https://gameday.example")
			})
		})

		Convey("When a route does not exist", func() {
			resp := do(t, http.MethodGet, srv.URL+"/nope", "")
			_ = resp.Body.Close()

			Convey("Then 404 is returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestAPI_RateLimit(t *testing.T) {
	Convey("Given an API limited to a burst of two actions", t, func() {
		srv, _ := newTestServer(t, api.WithRateLimit(0.001, 2))
		view := decode[types.GridView](t, do(t, http.MethodPost, srv.URL+"/sessions", ""))
		actions := srv.URL + "/sessions/" + view.SessionID + "/actions"

		Convey("When three actions arrive at once", func() {
			var codes []int
			for range 3 {
				resp := do(t, http.MethodPost, actions, `{"type":"reset"}`)
				_ = resp.Body.Close()
				codes = append(codes, resp.StatusCode)
			}

			Convey("Then the third is refused", func() {
				So(codes, ShouldResemble, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests})
			})

			Convey("And other routes are not limited", func() {
				resp := do(t, http.MethodGet, srv.URL+"/sessions/"+view.SessionID, "")
				_ = resp.Body.Close()
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestAPI_ErrorMapping(t *testing.T) {
	Convey("Given handlers backed by failing dependencies", t, func() {
		cases := []struct {
			err    error
			status int
			code   string
		}{
			{service.ErrSessionNotFound, http.StatusNotFound, "not_found"},
			{service.ErrUnknownWebcast, http.StatusBadRequest, "unknown_webcast"},
			{service.ErrInvalidAction, http.StatusBadRequest, "bad_request"},
			{service.ErrBackpressure, http.StatusTooManyRequests, "backpressure"},
			{service.ErrTooManySessions, http.StatusTooManyRequests, "too_many_sessions"},
			{service.ErrStopped, http.StatusServiceUnavailable, "unavailable"},
			{catalog.ErrDuplicateWebcastID, http.StatusBadRequest, "invalid_feed"},
			{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
			{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
		}
		for _, tc := range cases {
			router := api.NewServer(&stubDeps{err: tc.err}).Router(context.Background())
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/sessions/x/actions", strings.NewReader(`{"type":"reset"}`))
			router.ServeHTTP(rec, req)

			var got apiError
			So(json.Unmarshal(rec.Body.Bytes(), &got), ShouldBeNil)
			So(rec.Code, ShouldEqual, tc.status)
			So(got.Code, ShouldEqual, tc.code)
		}
	})
}
