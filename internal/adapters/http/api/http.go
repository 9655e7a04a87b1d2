// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/nativetree/internal/domain/geo"
	"github.com/okian/nativetree/internal/domain/model"
	"github.com/okian/nativetree/pkg/logger"
	"golang.org/x/time/rate"
)

// TreeDependencies exposes the read side of the catalogue.
type TreeDependencies interface {
	Tree(ctx context.Context, id string) (model.Tree, error)
	Trees(ctx context.Context, query string) ([]model.Tree, error)
	Locations(ctx context.Context, treeID string) ([]model.LocationRecord, error)
}

// LocationDependencies exposes location writes.
type LocationDependencies interface {
	CreateLocation(ctx context.Context, treeID string, at geo.Coordinate) (model.LocationRecord, error)
}

// Dependencies required by HTTP handlers.
type Dependencies interface {
	TreeDependencies
	LocationDependencies
}

// Default write limit for POST /locations.
const (
	DefaultWriteRate  = 5
	DefaultWriteBurst = 10
)

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	treesHandler     *TreesHandler
	locationsHandler *LocationsHandler

	writeLimiter *rate.Limiter
	logger       logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithWriteLimit bounds POST /locations to perSec requests per second with
// the given burst. A non-positive rate disables the limit.
func WithWriteLimit(perSec float64, burst int) Option {
	return func(s *Server) {
		if perSec <= 0 {
			s.writeLimiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.writeLimiter = rate.NewLimiter(rate.Limit(perSec), burst)
	}
}

// WithLogger sets the logger used for server-side failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		writeLimiter: rate.NewLimiter(DefaultWriteRate, DefaultWriteBurst),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.treesHandler = NewTreesHandler(deps, s.logger)
	s.locationsHandler = NewLocationsHandler(deps, s.logger)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/trees", MetricsMiddleware(s.treesHandler.HandleList, "trees"))
	mux.HandleFunc("/trees/", MetricsMiddleware(s.treesHandler.HandleTree, "tree"))

	create := s.locationsHandler.HandleCreate
	if s.writeLimiter != nil {
		create = RateLimitMiddleware(create, "locations", s.writeLimiter)
	}
	mux.HandleFunc("/locations", MetricsMiddleware(create, "locations"))
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

// statusFor maps an error kind to an HTTP status and error code.
func statusFor(err error) (int, string) {
	switch model.KindOf(err) {
	case model.ErrValidationRejection:
		return http.StatusBadRequest, "bad_request"
	case model.ErrNotFound:
		return http.StatusNotFound, "not_found"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeFailure writes err with its mapped status. Server errors are logged
// and their detail is not returned to the caller.
func writeFailure(ctx context.Context, log logger.Logger, w http.ResponseWriter, op string, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error(ctx, "request failed",
			logger.String("op", op),
			logger.String("request_id", RequestIDFrom(ctx)),
			logger.Error(err))
		writeError(w, status, code, nil)
		return
	}
	writeError(w, status, code, err)
}
