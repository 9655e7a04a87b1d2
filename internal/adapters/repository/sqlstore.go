package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/okian/nativetree/internal/domain/geo"
	"github.com/okian/nativetree/internal/domain/model"
	"github.com/okian/nativetree/pkg/logger"
	"github.com/okian/nativetree/pkg/metrics"
)

// dialect captures the differences between the SQL backends.
type dialect struct {
	name string
	ddl  []string
	// numbered placeholders ($1) instead of ?
	numbered bool
}

// sqlStore implements Store over database/sql. Queries are written with ?
// placeholders and rebound for the dialect.
type sqlStore struct {
	db      *sql.DB
	dialect dialect
	log     logger.Logger
}

const treeColumns = `tree_id, tree_name, sci_name, description, lifespan, growth_needs, growth_period, source_link`

func newSQLStore(ctx context.Context, db *sql.DB, d dialect, o options) (*sqlStore, error) {
	s := &sqlStore{db: db, dialect: d, log: o.log}
	for _, stmt := range d.ddl {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("apply %s schema: %w", d.name, err)
		}
	}
	if o.seed {
		if err := s.seed(ctx); err != nil {
			return nil, err
		}
	}
	if n, _, err := s.Counts(ctx); err == nil {
		metrics.UpdateTreeCount(n)
	}
	return s, nil
}

func (s *sqlStore) rebind(q string) string {
	if !s.dialect.numbered {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) seed(ctx context.Context) error {
	q := s.rebind(`INSERT INTO native_tree_tbl (` + treeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tree_id) DO NOTHING`)
	for _, t := range catalogue() {
		if _, err := s.db.ExecContext(ctx, q,
			t.TreeID, t.TreeName, t.ScientificName, t.Description,
			t.Lifespan, t.GrowthNeeds, t.GrowthPeriod, t.SourceLink); err != nil {
			return fmt.Errorf("seed %s: %w", t.TreeName, err)
		}
	}
	return nil
}

func (s *sqlStore) fail(ctx context.Context, op string, err error) error {
	metrics.RecordRepositoryError(op)
	s.log.Error(ctx, "query failed", logger.String("op", op), logger.String("driver", s.dialect.name), logger.Error(err))
	return fmt.Errorf("%w: %s: %w", ErrQuery, op, err)
}

func (s *sqlStore) Tree(ctx context.Context, id string) (model.Tree, error) {
	defer observe("tree", time.Now())
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+treeColumns+` FROM native_tree_tbl WHERE tree_id = ?`), id)
	t, err := scanTree(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Tree{}, ErrNotFound
	}
	if err != nil {
		return model.Tree{}, s.fail(ctx, "tree", err)
	}
	return t, nil
}

func (s *sqlStore) Trees(ctx context.Context, query string) ([]model.Tree, error) {
	defer observe("trees", time.Now())
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT `+treeColumns+` FROM native_tree_tbl
		WHERE LOWER(tree_name) LIKE ? OR LOWER(sci_name) LIKE ?`), pattern, pattern)
	if err != nil {
		return nil, s.fail(ctx, "trees", err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.Tree{}
	for rows.Next() {
		t, err := scanTree(rows)
		if err != nil {
			return nil, s.fail(ctx, "trees", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(ctx, "trees", err)
	}
	sort.Slice(out, func(i, j int) bool { return lessID(out[i].TreeID, out[j].TreeID) })
	return out, nil
}

func (s *sqlStore) Locations(ctx context.Context, treeID string) ([]model.LocationRecord, error) {
	defer observe("locations", time.Now())
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT location_id, tree_id, latitude, longitude
		FROM location_tbl WHERE tree_id = ? ORDER BY location_id`), treeID)
	if err != nil {
		return nil, s.fail(ctx, "locations", err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.LocationRecord{}
	for rows.Next() {
		rec, err := scanLocation(rows)
		if err != nil {
			return nil, s.fail(ctx, "locations", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(ctx, "locations", err)
	}
	return out, nil
}

func (s *sqlStore) InsertLocation(ctx context.Context, treeID string, at geo.Coordinate) (model.LocationRecord, error) {
	defer observe("insert_location", time.Now())
	var exists int
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT 1 FROM native_tree_tbl WHERE tree_id = ?`), treeID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return model.LocationRecord{}, ErrNotFound
	}
	if err != nil {
		return model.LocationRecord{}, s.fail(ctx, "insert_location", err)
	}

	row := s.db.QueryRowContext(ctx, s.rebind(`INSERT INTO location_tbl (tree_id, latitude, longitude)
		VALUES (?, ?, ?) RETURNING location_id, tree_id, latitude, longitude`),
		treeID, at.Latitude, at.Longitude)
	rec, err := scanLocation(row)
	if err != nil {
		return model.LocationRecord{}, s.fail(ctx, "insert_location", err)
	}
	s.log.Debug(ctx, "location stored", logger.String("tree_id", treeID), logger.String("location_id", rec.LocationID))
	return rec, nil
}

func (s *sqlStore) Counts(ctx context.Context) (int, int, error) {
	var trees, locs int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM native_tree_tbl`).Scan(&trees); err != nil {
		return 0, 0, s.fail(ctx, "counts", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM location_tbl`).Scan(&locs); err != nil {
		return 0, 0, s.fail(ctx, "counts", err)
	}
	return trees, locs, nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTree(sc scanner) (model.Tree, error) {
	var t model.Tree
	err := sc.Scan(&t.TreeID, &t.TreeName, &t.ScientificName, &t.Description,
		&t.Lifespan, &t.GrowthNeeds, &t.GrowthPeriod, &t.SourceLink)
	return t, err
}

func scanLocation(sc scanner) (model.LocationRecord, error) {
	var (
		rec model.LocationRecord
		id  int64
	)
	if err := sc.Scan(&id, &rec.TreeID, &rec.Latitude, &rec.Longitude); err != nil {
		return model.LocationRecord{}, err
	}
	rec.LocationID = strconv.FormatInt(id, 10)
	return rec, nil
}
