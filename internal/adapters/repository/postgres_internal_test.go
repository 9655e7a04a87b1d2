package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/okian/nativetree/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPostgresOpen(t *testing.T) {
	_ = logger.Init()
	ctx := context.Background()

	Convey("Given the postgres store constructor", t, func() {
		orig := sqlOpen
		Reset(func() { sqlOpen = orig })

		Convey("When the driver cannot be opened", func() {
			var gotDriver, gotDSN string
			sqlOpen = func(driver, dsn string) (*sql.DB, error) {
				gotDriver, gotDSN = driver, dsn
				return nil, errors.New("no driver")
			}

			_, err := NewPostgresStore(ctx, "")

			Convey("Then the error should be wrapped and defaults used", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "open postgres")
				So(gotDriver, ShouldEqual, "pgx")
				So(gotDSN, ShouldEqual, defaultPostgresDSN)
			})
		})

		Convey("When the server is unreachable", func() {
			_, err := NewPostgresStore(ctx, "postgres://nativetree@127.0.0.1:1/nativetree?sslmode=disable&connect_timeout=1")

			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "ping postgres")
		})
	})
}

func TestRebind(t *testing.T) {
	Convey("Given SQL with ? placeholders", t, func() {
		q := `SELECT 1 FROM t WHERE a = ? AND b = ?`

		So((&sqlStore{dialect: postgresDialect}).rebind(q), ShouldEqual, `SELECT 1 FROM t WHERE a = $1 AND b = $2`)
		So((&sqlStore{dialect: sqliteDialect}).rebind(q), ShouldEqual, q)
	})
}
