package api

import "github.com/gameday-grid/gameday/pkg/logger"

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithCORSOrigins enables CORS for the given origins.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// WithRateLimit limits action requests per client IP. A zero rate disables
// limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps >= 0 {
			s.rateLimit = rps
			s.rateBurst = burst
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}
