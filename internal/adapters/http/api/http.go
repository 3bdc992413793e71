// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	service "github.com/gameday-grid/gameday/internal/app"
	"github.com/gameday-grid/gameday/internal/domain/catalog"
	"github.com/gameday-grid/gameday/internal/domain/grid"
	"github.com/gameday-grid/gameday/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	StatsProvider

	CreateSession(ctx context.Context, initial url.Values) (string, grid.State, error)
	Session(ctx context.Context, id string) (grid.State, error)
	DeleteSession(ctx context.Context, id string) error
	Apply(ctx context.Context, sessionID, actionID string, a grid.Action) (grid.State, bool, error)

	Catalog() *catalog.Catalog
	UpdateCatalogFrom(ctx context.Context, r io.Reader) (*catalog.Catalog, error)
}

// Server wires HTTP routes for the grid API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	layoutsHandler  *LayoutsHandler
	webcastsHandler *WebcastsHandler
	sessionsHandler *SessionsHandler

	corsOrigins []string
	rateLimit   float64
	rateBurst   int
	logger      logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(deps),
		layoutsHandler:  NewLayoutsHandler(),
		webcastsHandler: NewWebcastsHandler(deps),
		sessionsHandler: NewSessionsHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("http")
	}
	return s
}

// Router builds a chi router with the middleware stack and all API routes.
func (s *Server) Router(ctx context.Context) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if len(s.corsOrigins) > 0 {
		c := cors.New(cors.Options{
			AllowedOrigins: s.corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"Location", "X-Request-Id"},
		})
		r.Use(c.Handler)
	}

	s.Register(ctx, r)
	return r
}

// Register attaches all API routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Get("/stats", s.statsHandler.HandleStats)
	r.Get("/layouts", s.layoutsHandler.HandleListLayouts)

	r.Route("/webcasts", func(r chi.Router) {
		r.Get("/", s.webcastsHandler.HandleListWebcasts)
		r.Put("/", s.webcastsHandler.HandleReplaceWebcasts)
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.sessionsHandler.HandleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.sessionsHandler.HandleGet)
			r.Delete("/", s.sessionsHandler.HandleDelete)
			r.Get("/share", s.sessionsHandler.HandleShare)
			r.With(RateLimitMiddleware(s.rateLimit, s.rateBurst)).
				Post("/actions", s.sessionsHandler.HandleAction)
		})
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates service and domain errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrUnknownWebcast):
		writeError(w, http.StatusBadRequest, "unknown_webcast", err)
	case errors.Is(err, service.ErrInvalidAction), errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, catalog.ErrInvalidFeed), errors.Is(err, catalog.ErrDuplicateWebcastID):
		writeError(w, http.StatusBadRequest, "invalid_feed", err)
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	case errors.Is(err, service.ErrTooManySessions):
		writeError(w, http.StatusTooManyRequests, "too_many_sessions", err)
	case errors.Is(err, service.ErrStopped):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "timeout", err)
	case errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "cancelled", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
