// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/nativetree/internal/adapters/repository"
	"github.com/okian/nativetree/internal/domain/geo"
	"github.com/okian/nativetree/internal/domain/model"
	"github.com/okian/nativetree/pkg/logger"
	"github.com/okian/nativetree/pkg/metrics"
)

// ErrNotStarted is returned by operations called before Start.
var ErrNotStarted = errors.New("service not started")

// Service implements the API dependencies for the tree catalogue and the
// location records.
type Service struct {
	mu sync.RWMutex

	// Core components
	store repository.Store
	// owned reports whether Stop should close the store.
	owned bool

	// Configuration
	storeDriver string
	storeDSN    string
	seed        bool

	// State
	started   bool
	startedAt time.Time
	created   atomic.Int64
	rejected  atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStoreDriver selects the repository driver and its DSN.
func WithStoreDriver(driver, dsn string) Option {
	return func(s *Service) {
		if driver != "" {
			s.storeDriver = driver
			s.storeDSN = dsn
		}
	}
}

// WithStore uses an already opened store. The caller keeps ownership.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithSeed controls whether the species catalogue is seeded on start.
func WithSeed(seed bool) Option {
	return func(s *Service) { s.seed = seed }
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		storeDriver: "memory",
		seed:        true,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start opens the store unless one was injected.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting tree service...")

	if s.store == nil {
		store, err := repository.Open(ctx, s.storeDriver, s.storeDSN,
			repository.WithSeed(s.seed),
			repository.WithLogger(s.logger.Named("repository")))
		if err != nil {
			return err
		}
		s.store = store
		s.owned = true
	}

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "tree service started", logger.String("store", s.storeDriver))
	return nil
}

// Stop releases the store if the service opened it.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping tree service...")
	if s.owned && s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(context.Background(), "failed to close store", logger.Error(err))
		}
		s.store = nil
		s.owned = false
	}

	s.started = false
	s.logger.Info(context.Background(), "tree service stopped")
}

func (s *Service) repo() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// Tree returns one tree; unknown ids wrap model.ErrNotFound.
func (s *Service) Tree(ctx context.Context, id string) (model.Tree, error) {
	store, err := s.repo()
	if err != nil {
		return model.Tree{}, err
	}
	return store.Tree(ctx, strings.TrimSpace(id))
}

// Trees lists the catalogue filtered by a name query.
func (s *Service) Trees(ctx context.Context, query string) ([]model.Tree, error) {
	store, err := s.repo()
	if err != nil {
		return nil, err
	}
	return store.Trees(ctx, query)
}

// Locations lists the recorded locations of a tree.
func (s *Service) Locations(ctx context.Context, treeID string) ([]model.LocationRecord, error) {
	store, err := s.repo()
	if err != nil {
		return nil, err
	}
	return store.Locations(ctx, strings.TrimSpace(treeID))
}

// CreateLocation validates and stores a new location. Invalid input wraps
// model.ErrValidationRejection; an unknown tree wraps model.ErrNotFound.
func (s *Service) CreateLocation(ctx context.Context, treeID string, at geo.Coordinate) (model.LocationRecord, error) {
	const op = "service.create_location"
	store, err := s.repo()
	if err != nil {
		return model.LocationRecord{}, err
	}
	treeID = strings.TrimSpace(treeID)
	if treeID == "" {
		s.rejected.Add(1)
		return model.LocationRecord{}, model.WrapKind(op, model.ErrValidationRejection, errors.New("missing tree_id"))
	}
	if err := at.Validate(); err != nil {
		s.rejected.Add(1)
		return model.LocationRecord{}, model.WrapKind(op, model.ErrValidationRejection, err)
	}

	rec, err := store.InsertLocation(ctx, treeID, at)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			s.rejected.Add(1)
		}
		return model.LocationRecord{}, err
	}
	s.created.Add(1)
	s.logger.Info(ctx, "location recorded",
		logger.String("tree_id", rec.TreeID),
		logger.String("location_id", rec.LocationID))
	return rec, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":           s.started,
		"storeDriver":       s.storeDriver,
		"locationsCreated":  s.created.Load(),
		"locationsRejected": s.rejected.Load(),
	}

	if s.started {
		stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())
		trees, locs, err := s.store.Counts(context.Background())
		if err == nil {
			stats["totalTrees"] = trees
			stats["totalLocations"] = locs
			metrics.UpdateTreeCount(trees)
		}
	}

	return stats
}
