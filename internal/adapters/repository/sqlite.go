package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

const defaultSQLitePath = "nativetree.db"

var sqliteDialect = dialect{
	name: "sqlite",
	ddl: []string{
		`PRAGMA foreign_keys = ON`,
		`CREATE TABLE IF NOT EXISTS native_tree_tbl (
			tree_id       TEXT PRIMARY KEY,
			tree_name     TEXT NOT NULL,
			sci_name      TEXT NOT NULL,
			description   TEXT NOT NULL DEFAULT '',
			lifespan      TEXT NOT NULL DEFAULT '',
			growth_needs  TEXT NOT NULL DEFAULT '',
			growth_period TEXT NOT NULL DEFAULT '',
			source_link   TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS location_tbl (
			location_id INTEGER PRIMARY KEY AUTOINCREMENT,
			tree_id     TEXT NOT NULL REFERENCES native_tree_tbl(tree_id),
			latitude    REAL NOT NULL,
			longitude   REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS location_tbl_tree_id_idx ON location_tbl(tree_id)`,
	},
}

// NewSQLiteStore opens or creates a SQLite database at path. ":memory:" is
// accepted.
func NewSQLiteStore(ctx context.Context, path string, opts ...Option) (Store, error) {
	if path == "" {
		path = defaultSQLitePath
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection keeps PRAGMAs and ":memory:" state consistent
	db.SetMaxOpenConns(1)
	s, err := newSQLStore(ctx, db, sqliteDialect, newOptions(opts))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}
