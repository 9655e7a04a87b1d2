// Package locsync keeps the per-tree list of recorded locations in step with
// the backend: it loads and annotates them, and saves new points after a
// local duplicate check.
package locsync

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/nativetree/internal/adapters/geocode"
	"github.com/okian/nativetree/internal/domain/geo"
	"github.com/okian/nativetree/internal/domain/model"
	"github.com/okian/nativetree/pkg/logger"
	"github.com/okian/nativetree/pkg/metrics"
)

// Backend is the subset of the REST client used for locations.
type Backend interface {
	Locations(ctx context.Context, treeID string) ([]model.LocationRecord, error)
	CreateLocation(ctx context.Context, treeID string, at geo.Coordinate) (model.LocationRecord, error)
}

// Geocoder resolves display addresses. It never fails.
type Geocoder = geocode.Resolver

// PositionProvider is the device location service.
type PositionProvider interface {
	RequestPermission(ctx context.Context) (bool, error)
	CurrentPosition(ctx context.Context) (geo.Coordinate, error)
}

// Syncer hands out a View per tree being looked at.
type Syncer struct {
	backend  Backend
	geocoder Geocoder
	position PositionProvider
	log      logger.Logger
}

// New creates a Syncer over its ports.
func New(backend Backend, geocoder Geocoder, position PositionProvider, opts ...Option) *Syncer {
	s := &Syncer{
		backend:  backend,
		geocoder: geocoder,
		position: position,
		log:      logger.Get().Named("locsync"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open returns an empty view for treeID. Call Refresh to populate it.
func (s *Syncer) Open(treeID string) *View {
	return &View{
		syncer:  s,
		treeID:  treeID,
		pending: make(map[[2]int64]struct{}),
		log:     s.log.With(logger.String("tree_id", treeID)),
	}
}

// CapturePosition asks for location permission and returns the current fix.
func (s *Syncer) CapturePosition(ctx context.Context) (geo.Coordinate, error) {
	granted, err := s.position.RequestPermission(ctx)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("%w: %w", ErrPositionUnavailable, err)
	}
	if !granted {
		s.log.Info(ctx, "location permission denied")
		return geo.Coordinate{}, ErrPermissionDenied
	}
	c, err := s.position.CurrentPosition(ctx)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("%w: %w", ErrPositionUnavailable, err)
	}
	return c, nil
}

// View is the location list of one tree. All methods are safe for
// concurrent use. After Close, results of calls still in flight are dropped.
type View struct {
	syncer *Syncer
	treeID string
	log    logger.Logger

	mu      sync.Mutex
	records []model.LocationRecord
	pending map[[2]int64]struct{}
	closed  bool
}

// TreeID returns the tree this view shows.
func (v *View) TreeID() string { return v.treeID }

// Records returns a copy of the current list.
func (v *View) Records() []model.LocationRecord {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]model.LocationRecord, len(v.records))
	copy(out, v.records)
	return out
}

// Close detaches the view. It does not cancel in-flight calls.
func (v *View) Close() {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
}

func (v *View) isClosed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

// Refresh replaces the list with the backend's, each record annotated with
// its address. Lookups run concurrently and keep the backend order.
func (v *View) Refresh(ctx context.Context) ([]model.LocationRecord, error) {
	recs, err := v.syncer.backend.Locations(ctx, v.treeID)
	if err != nil {
		v.log.Warn(ctx, "failed to load locations", logger.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	metrics.RecordLocationsListed()

	if len(recs) == 0 {
		v.mu.Lock()
		defer v.mu.Unlock()
		if v.closed {
			return nil, ErrClosed
		}
		v.records = nil
		return nil, ErrNoLocations
	}

	v.annotate(ctx, recs)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil, ErrClosed
	}
	v.records = recs
	out := make([]model.LocationRecord, len(recs))
	copy(out, recs)
	return out, nil
}

func (v *View) annotate(ctx context.Context, recs []model.LocationRecord) {
	coords := make([]geo.Coordinate, len(recs))
	for i, r := range recs {
		coords[i] = geo.Coordinate{Latitude: r.Latitude, Longitude: r.Longitude}
	}
	for i, addr := range geocode.ResolveAll(ctx, v.syncer.geocoder, coords) {
		recs[i].Address = addr
	}
}

// Save records at as a new location of the view's tree. A point matching,
// to 5 decimal places, one already listed or being saved is rejected with
// ErrAlreadyExists without a network call. On success the record is
// appended with its address; the list is not re-fetched.
func (v *View) Save(ctx context.Context, at geo.Coordinate) (model.LocationRecord, error) {
	if err := at.Validate(); err != nil {
		metrics.RecordLocationSave("invalid")
		return model.LocationRecord{}, model.WrapKind("locsync.save", model.ErrValidationRejection, err)
	}
	key := [2]int64{geo.Quantize(at.Latitude), geo.Quantize(at.Longitude)}

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return model.LocationRecord{}, ErrClosed
	}
	_, inFlight := v.pending[key]
	dup := inFlight
	for _, r := range v.records {
		if dup {
			break
		}
		dup = geo.SamePoint(at, geo.Coordinate{Latitude: r.Latitude, Longitude: r.Longitude})
	}
	if dup {
		v.mu.Unlock()
		metrics.RecordLocationSave("duplicate")
		v.log.Info(ctx, "location already recorded", logger.String("at", at.String()))
		return model.LocationRecord{}, ErrAlreadyExists
	}
	v.pending[key] = struct{}{}
	v.mu.Unlock()

	defer func() {
		v.mu.Lock()
		delete(v.pending, key)
		v.mu.Unlock()
	}()

	rec, err := v.syncer.backend.CreateLocation(ctx, v.treeID, at)
	if err != nil {
		metrics.RecordLocationSave("error")
		v.log.Warn(ctx, "failed to save location", logger.String("at", at.String()), logger.Error(err))
		return model.LocationRecord{}, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	metrics.RecordLocationSave("ok")

	rec.Address = v.syncer.geocoder.Resolve(ctx, rec.Latitude, rec.Longitude)

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.closed {
		v.records = append(v.records, rec)
	}
	return rec, nil
}

// SaveCurrent captures the device position and saves it.
func (v *View) SaveCurrent(ctx context.Context) (model.LocationRecord, error) {
	at, err := v.syncer.CapturePosition(ctx)
	if err != nil {
		return model.LocationRecord{}, err
	}
	return v.Save(ctx, at)
}
