package history

import "github.com/okian/nativetree/pkg/logger"

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithCapacity sets the maximum number of entries kept. Non-positive values
// are ignored.
func WithCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithKey sets the cache key the history is stored under.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithLogger overrides the component logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}
