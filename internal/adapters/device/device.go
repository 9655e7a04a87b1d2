// Package device provides location providers for hosts without a GPS
// stack: a fixed position that can be granted or denied, as the CLI and
// tests need.
package device

import (
	"context"
	"errors"
	"sync"

	"github.com/okian/nativetree/internal/domain/geo"
)

// ErrNoFix reports that no position is available.
var ErrNoFix = errors.New("device: no position fix")

// Fixed is a permission-gated provider that always reports the same
// position once one is set.
type Fixed struct {
	mu       sync.Mutex
	granted  bool
	coord    geo.Coordinate
	hasFix   bool
	requests int
}

// Option applies a configuration option to Fixed.
type Option func(*Fixed)

// WithPosition sets the reported position.
func WithPosition(c geo.Coordinate) Option {
	return func(f *Fixed) {
		f.coord = c
		f.hasFix = true
	}
}

// WithPermission sets whether permission requests are granted.
func WithPermission(granted bool) Option {
	return func(f *Fixed) { f.granted = granted }
}

// NewFixed returns a provider that grants permission and has no fix until
// WithPosition or SetPosition is used.
func NewFixed(opts ...Option) *Fixed {
	f := &Fixed{granted: true}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// RequestPermission reports whether location access is granted.
func (f *Fixed) RequestPermission(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++
	return f.granted, nil
}

// CurrentPosition returns the configured position.
func (f *Fixed) CurrentPosition(ctx context.Context) (geo.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return geo.Coordinate{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.hasFix {
		return geo.Coordinate{}, ErrNoFix
	}
	return f.coord, nil
}

// SetPosition replaces the reported position.
func (f *Fixed) SetPosition(c geo.Coordinate) {
	f.mu.Lock()
	f.coord, f.hasFix = c, true
	f.mu.Unlock()
}

// SetPermission changes the answer to later permission requests.
func (f *Fixed) SetPermission(granted bool) {
	f.mu.Lock()
	f.granted = granted
	f.mu.Unlock()
}

// PermissionRequests returns how many times permission was requested.
func (f *Fixed) PermissionRequests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests
}
