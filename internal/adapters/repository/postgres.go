package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

const (
	defaultPostgresDriver = "pgx"
	defaultPostgresDSN    = "postgres://localhost/native_tree_ai_db?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

var postgresDialect = dialect{
	name:     "postgres",
	numbered: true,
	ddl: []string{
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
			location_id BIGSERIAL PRIMARY KEY,
			tree_id     TEXT NOT NULL REFERENCES native_tree_tbl(tree_id),
			latitude    DOUBLE PRECISION NOT NULL,
			longitude   DOUBLE PRECISION NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS location_tbl_tree_id_idx ON location_tbl(tree_id)`,
	},
}

// NewPostgresStore opens a Postgres-backed store using dsn (falls back to
// defaultPostgresDSN), applies the schema and seeds the catalogue.
func NewPostgresStore(ctx context.Context, dsn string, opts ...Option) (Store, error) {
	if dsn == "" {
		dsn = defaultPostgresDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultPostgresDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s, err := newSQLStore(ctx, db, postgresDialect, newOptions(opts))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}
