// Package repository is the backend's relational store: the native tree
// catalogue and the locations recorded against it.
package repository

import (
	"context"
	"fmt"

	"github.com/okian/nativetree/internal/domain/geo"
	"github.com/okian/nativetree/internal/domain/model"
)

// Store provides read/write access to trees and locations.
type Store interface {
	// Tree returns one tree. Returns ErrNotFound if the id is unknown.
	Tree(ctx context.Context, id string) (model.Tree, error)
	// Trees lists the catalogue ordered by id, filtered by a case-insensitive
	// substring of the common or scientific name. An empty query lists all.
	Trees(ctx context.Context, query string) ([]model.Tree, error)

	// Locations returns the locations of a tree in insertion order. An unknown
	// tree yields an empty list.
	Locations(ctx context.Context, treeID string) ([]model.LocationRecord, error)
	// InsertLocation stores a new location and returns the stored row.
	// Returns ErrNotFound if the tree is unknown.
	InsertLocation(ctx context.Context, treeID string, at geo.Coordinate) (model.LocationRecord, error)

	// Counts returns the number of trees and locations.
	Counts(ctx context.Context) (trees, locations int, err error)

	Close() error
}

// Open returns the store for driver: "memory", "sqlite" or "postgres".
func Open(ctx context.Context, driver, dsn string, opts ...Option) (Store, error) {
	switch driver {
	case "memory":
		return NewMemoryStore(opts...), nil
	case "sqlite":
		return NewSQLiteStore(ctx, dsn, opts...)
	case "postgres":
		return NewPostgresStore(ctx, dsn, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
