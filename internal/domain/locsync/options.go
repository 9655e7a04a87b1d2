package locsync

import "github.com/okian/nativetree/pkg/logger"

// Option applies a configuration option to the Syncer.
type Option func(*Syncer)

// WithLogger overrides the component logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Syncer) {
		if l != nil {
			s.log = l
		}
	}
}
