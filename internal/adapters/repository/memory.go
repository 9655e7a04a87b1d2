package repository

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/okian/nativetree/internal/domain/geo"
	"github.com/okian/nativetree/internal/domain/model"
	"github.com/okian/nativetree/pkg/logger"
	"github.com/okian/nativetree/pkg/metrics"
)

// MemoryStore is an in-process Store for development and tests.
type MemoryStore struct {
	mu        sync.RWMutex
	trees     map[string]model.Tree
	locations map[string][]model.LocationRecord
	nextID    int64
	nLocs     int
	log       logger.Logger
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an in-memory store, seeded unless WithSeed(false).
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := newOptions(opts)
	s := &MemoryStore{
		trees:     make(map[string]model.Tree),
		locations: make(map[string][]model.LocationRecord),
		log:       o.log,
	}
	if o.seed {
		for _, t := range catalogue() {
			s.trees[t.TreeID] = t
		}
	}
	metrics.UpdateTreeCount(len(s.trees))
	return s
}

// PutTree inserts or replaces a catalogue row.
func (s *MemoryStore) PutTree(t model.Tree) {
	s.mu.Lock()
	s.trees[t.TreeID] = t
	n := len(s.trees)
	s.mu.Unlock()
	metrics.UpdateTreeCount(n)
}

func (s *MemoryStore) Tree(_ context.Context, id string) (model.Tree, error) {
	defer observe("tree", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.trees[id]
	if !ok {
		return model.Tree{}, ErrNotFound
	}
	return t, nil
}

func (s *MemoryStore) Trees(_ context.Context, query string) ([]model.Tree, error) {
	defer observe("trees", time.Now())
	s.mu.RLock()
	out := make([]model.Tree, 0, len(s.trees))
	for _, t := range s.trees {
		if t.Matches(query) {
			out = append(out, t)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return lessID(out[i].TreeID, out[j].TreeID) })
	return out, nil
}

func (s *MemoryStore) Locations(_ context.Context, treeID string) ([]model.LocationRecord, error) {
	defer observe("locations", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.locations[treeID]
	out := make([]model.LocationRecord, len(src))
	copy(out, src)
	return out, nil
}

func (s *MemoryStore) InsertLocation(ctx context.Context, treeID string, at geo.Coordinate) (model.LocationRecord, error) {
	defer observe("insert_location", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.trees[treeID]; !ok {
		return model.LocationRecord{}, ErrNotFound
	}
	s.nextID++
	rec := model.LocationRecord{
		LocationID: strconv.FormatInt(s.nextID, 10),
		TreeID:     treeID,
		Latitude:   at.Latitude,
		Longitude:  at.Longitude,
	}
	s.locations[treeID] = append(s.locations[treeID], rec)
	s.nLocs++
	s.log.Debug(ctx, "location stored", logger.String("tree_id", treeID), logger.String("location_id", rec.LocationID))
	return rec, nil
}

func (s *MemoryStore) Counts(_ context.Context) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.trees), s.nLocs, nil
}

func (s *MemoryStore) Close() error { return nil }

// lessID orders numeric ids numerically and falls back to string order.
func lessID(a, b string) bool {
	ai, aerr := strconv.ParseInt(a, 10, 64)
	bi, berr := strconv.ParseInt(b, 10, 64)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a < b
}

func observe(op string, start time.Time) {
	metrics.RecordRepositoryLatency(op, float64(time.Since(start).Microseconds())/1000)
}
