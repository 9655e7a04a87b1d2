// Package history keeps the bounded, deduplicated list of identified trees
// on the device, most recent first.
package history

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/okian/nativetree/internal/adapters/kvcache"
	"github.com/okian/nativetree/internal/domain/model"
	"github.com/okian/nativetree/pkg/logger"
	"github.com/okian/nativetree/pkg/metrics"
)

// Defaults.
const (
	DefaultCapacity = 50
	DefaultKey      = "treeHistory"
)

// Store is the sighting history. The in-memory list is authoritative for the
// session; every mutation writes the whole list back to the cache.
type Store struct {
	cache    kvcache.Cache
	key      string
	capacity int
	log      logger.Logger

	mu     sync.Mutex
	items  []model.Sighting
	loaded bool
	// stale is set when the last read or persist failed, so the cache
	// content may be older than items.
	stale bool
}

// New creates a history store over cache.
func New(cache kvcache.Cache, opts ...Option) *Store {
	s := &Store{
		cache:    cache,
		key:      DefaultKey,
		capacity: DefaultCapacity,
		log:      logger.Get().Named("history"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the history from the cache. Absent or malformed content yields
// an empty list. After a failed read or persist the in-memory list is
// returned instead of the stale cache value; a failed read also returns an
// error wrapping model.ErrPersistence.
func (s *Store) Load(ctx context.Context) ([]model.Sighting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded && s.stale {
		return s.snapshot(), nil
	}
	err := s.loadLocked(ctx)
	return s.snapshot(), err
}

// Add prepends sg unless an entry with the same tree id exists. It reports
// whether the list changed. On a persist failure the entry stays in memory
// and the error wraps model.ErrPersistence.
func (s *Store) Add(ctx context.Context, sg model.Sighting) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	for _, it := range s.items {
		if it.TreeID == sg.TreeID {
			metrics.RecordHistoryMutation("add", "duplicate")
			return false, nil
		}
	}

	next := make([]model.Sighting, 0, min(len(s.items)+1, s.capacity))
	next = append(next, sg)
	for _, it := range s.items {
		if len(next) == s.capacity {
			break
		}
		next = append(next, it)
	}
	s.items = next

	if err := s.persist(ctx, "add"); err != nil {
		return true, err
	}
	metrics.RecordHistoryMutation("add", "added")
	return true, nil
}

// Remove drops the entry with treeID, if any, and persists the result.
func (s *Store) Remove(ctx context.Context, treeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	next := s.items[:0:0]
	for _, it := range s.items {
		if it.TreeID != treeID {
			next = append(next, it)
		}
	}
	s.items = next

	if err := s.persist(ctx, "remove"); err != nil {
		return err
	}
	metrics.RecordHistoryMutation("remove", "ok")
	return nil
}

// Clear empties the history and persists the empty list.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = true
	s.items = nil

	if err := s.persist(ctx, "clear"); err != nil {
		return err
	}
	metrics.RecordHistoryMutation("clear", "ok")
	return nil
}

// List returns the full in-memory list, hidden entries included.
func (s *Store) List() []model.Sighting {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Visible returns the entries shown to the user: unknown placeholders are
// dropped.
func (s *Store) Visible() []model.Sighting {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Sighting, 0, len(s.items))
	for _, it := range s.items {
		if !it.Hidden() {
			out = append(out, it)
		}
	}
	return out
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// ensureLoaded must be called with s.mu held. Load failures are already
// logged and leave the in-memory list untouched.
func (s *Store) ensureLoaded(ctx context.Context) {
	if !s.loaded {
		_ = s.loadLocked(ctx)
	}
}

// loadLocked must be called with s.mu held. The list is only replaced after a
// successful read; a failed read keeps it and marks the cache stale. A store
// that never loaded retries the read before its next mutation.
func (s *Store) loadLocked(ctx context.Context) error {
	raw, ok, err := s.cache.Get(ctx, s.key)
	if err != nil {
		s.stale = true
		s.log.Error(ctx, "failed to read history",
			logger.String("key", s.key),
			logger.Int("size", len(s.items)),
			logger.Error(err))
		return model.WrapKind("history.load", model.ErrPersistence, err)
	}
	s.loaded = true
	s.stale = false
	s.items = s.decode(ctx, raw, ok)
	metrics.UpdateHistorySize(len(s.items))
	return nil
}

// decode maps stored content to a deduplicated list. Absent or malformed
// content yields an empty list.
func (s *Store) decode(ctx context.Context, raw []byte, ok bool) []model.Sighting {
	if !ok || len(raw) == 0 {
		return nil
	}
	var stored []model.Sighting
	if err := json.Unmarshal(raw, &stored); err != nil {
		s.log.Warn(ctx, "discarding malformed history", logger.String("key", s.key), logger.Error(err))
		return nil
	}

	var items []model.Sighting
	seen := make(map[string]struct{}, len(stored))
	for _, it := range stored {
		if _, dup := seen[it.TreeID]; dup {
			continue
		}
		if len(items) == s.capacity {
			break
		}
		seen[it.TreeID] = struct{}{}
		items = append(items, it)
	}
	return items
}

// persist must be called with s.mu held. In-memory state is kept on failure.
func (s *Store) persist(ctx context.Context, op string) error {
	metrics.UpdateHistorySize(len(s.items))

	items := s.items
	if items == nil {
		items = []model.Sighting{}
	}
	b, err := json.Marshal(items)
	if err == nil {
		err = s.cache.Set(ctx, s.key, b)
	}
	if err != nil {
		s.stale = true
		metrics.RecordHistoryMutation(op, "error")
		metrics.RecordHistoryPersistError()
		s.log.Error(ctx, "failed to persist history",
			logger.String("op", op),
			logger.Int("size", len(s.items)),
			logger.Error(err))
		return model.WrapKind("history."+op, model.ErrPersistence, err)
	}
	s.stale = false
	return nil
}

func (s *Store) snapshot() []model.Sighting {
	out := make([]model.Sighting, len(s.items))
	copy(out, s.items)
	return out
}
