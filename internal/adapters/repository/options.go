package repository

import "github.com/okian/nativetree/pkg/logger"

type options struct {
	seed bool
	log  logger.Logger
}

func newOptions(opts []Option) options {
	o := options{seed: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Get().Named("repository")
	}
	return o
}

// Option applies a configuration option to a store.
type Option func(*options)

// WithSeed controls whether the native species catalogue is inserted on
// open. Existing rows are left untouched.
func WithSeed(seed bool) Option {
	return func(o *options) { o.seed = seed }
}

// WithLogger overrides the component logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}
