// Package kvcache is the device-local key-value cache: a handful of string
// keys, each holding one opaque blob. Writes replace the whole value.
package kvcache

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	ErrClosed        = errors.New("kvcache: closed")
	ErrRead          = errors.New("kvcache: read failed")
	ErrWrite         = errors.New("kvcache: write failed")
	ErrUnknownDriver = errors.New("kvcache: unknown driver")
)

// Cache stores whole-value blobs by key. Implementations are safe for
// concurrent use; concurrent writers to one key resolve last-write-wins.
type Cache interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key; deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open returns the cache for driver: "memory", "file" or "sqlite".
func Open(driver, path string) (Cache, error) {
	switch driver {
	case "memory":
		return NewMemory(), nil
	case "file":
		return NewFile(path)
	case "sqlite":
		return NewSQLite(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
