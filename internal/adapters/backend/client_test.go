package backend_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/okian/nativetree/internal/adapters/backend"
	"github.com/okian/nativetree/internal/domain/geo"
	"github.com/okian/nativetree/internal/domain/model"
	"github.com/okian/nativetree/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const baseURL = "http://backend.test"

func init() {
	_ = logger.Init()
}

func setupHTTPMock(t *testing.T) {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
}

func TestClient(t *testing.T) {
	setupHTTPMock(t)
	ctx := context.Background()

	Convey("Given a backend client", t, func() {
		httpmock.Reset()
		c := backend.New(baseURL+"/", backend.WithTimeout(time.Second))

		Convey("When fetching a tree twice", func() {
			httpmock.RegisterResponder(http.MethodGet, baseURL+"/trees/1",
				httpmock.NewStringResponder(http.StatusOK, `{"tree_id":1,"tree_name":"Narra","sci_name":"Pterocarpus indicus","lifespan":"100+ years"}`))

			first, err1 := c.Tree(ctx, "1")
			second, err2 := c.Tree(ctx, "1")

			Convey("Then the second call should be served from cache", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(first.TreeID, ShouldEqual, "1")
				So(first.ScientificName, ShouldEqual, "Pterocarpus indicus")
				So(second, ShouldResemble, first)
				So(httpmock.GetTotalCallCount(), ShouldEqual, 1)
			})
		})

		Convey("When the tree cache is disabled", func() {
			nc := backend.New(baseURL, backend.WithTreeCacheTTL(0))
			httpmock.RegisterResponder(http.MethodGet, baseURL+"/trees/2",
				httpmock.NewStringResponder(http.StatusOK, `{"tree_id":"2","tree_name":"Banaba"}`))

			_, _ = nc.Tree(ctx, "2")
			_, _ = nc.Tree(ctx, "2")
			So(httpmock.GetTotalCallCount(), ShouldEqual, 2)
		})

		Convey("When the tree does not exist", func() {
			httpmock.RegisterResponder(http.MethodGet, baseURL+"/trees/99",
				httpmock.NewStringResponder(http.StatusNotFound, `{"code":"not_found","message":"Tree not found"}`))

			_, err := c.Tree(ctx, "99")

			Convey("Then a not-found error should be returned", func() {
				So(errors.Is(err, backend.ErrNotFound), ShouldBeTrue)
				So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "Tree not found")
			})
		})

		Convey("When listing the tree library with a query", func() {
			var gotQuery string
			httpmock.RegisterResponder(http.MethodGet, baseURL+"/trees", func(req *http.Request) (*http.Response, error) {
				gotQuery = req.URL.Query().Get("q")
				return httpmock.NewStringResponse(http.StatusOK, `[{"tree_id":"1","tree_name":"Narra"}]`), nil
			})

			trees, err := c.Trees(ctx, " narra ")
			So(err, ShouldBeNil)
			So(len(trees), ShouldEqual, 1)
			So(gotQuery, ShouldEqual, "narra")
		})

		Convey("When listing locations with string coordinates", func() {
			httpmock.RegisterResponder(http.MethodGet, baseURL+"/trees/1/locations",
				httpmock.NewStringResponder(http.StatusOK, `[{"location_id":3,"tree_id":1,"latitude":"14.5","longitude":"121.0"}]`))

			recs, err := c.Locations(ctx, "1")

			So(err, ShouldBeNil)
			So(recs, ShouldResemble, []model.LocationRecord{{LocationID: "3", TreeID: "1", Latitude: 14.5, Longitude: 121.0}})
		})

		Convey("When creating a location", func() {
			var sent map[string]any
			httpmock.RegisterResponder(http.MethodPost, baseURL+"/locations", func(req *http.Request) (*http.Response, error) {
				_ = json.NewDecoder(req.Body).Decode(&sent)
				return httpmock.NewStringResponse(http.StatusCreated,
					`{"location_id":"10","tree_id":"1","latitude":14.5,"longitude":121}`), nil
			})

			rec, err := c.CreateLocation(ctx, "1", geo.Coordinate{Latitude: 14.5, Longitude: 121})

			Convey("Then the stored row should be returned", func() {
				So(err, ShouldBeNil)
				So(rec.LocationID, ShouldEqual, "10")
				So(sent["tree_id"], ShouldEqual, "1")
				So(sent["latitude"], ShouldEqual, 14.5)
				So(sent["longitude"], ShouldEqual, 121.0)
			})
		})

		Convey("When the backend rejects a location", func() {
			httpmock.RegisterResponder(http.MethodPost, baseURL+"/locations",
				httpmock.NewStringResponder(http.StatusBadRequest, `{"code":"bad_request","message":"latitude out of range"}`))

			_, err := c.CreateLocation(ctx, "1", geo.Coordinate{Latitude: 95})
			So(errors.Is(err, model.ErrValidationRejection), ShouldBeTrue)
		})

		Convey("When the backend fails", func() {
			Convey("With a server error", func() {
				httpmock.RegisterResponder(http.MethodGet, baseURL+"/trees/1/locations",
					httpmock.NewStringResponder(http.StatusInternalServerError, `{"error":"Server error"}`))
				_, err := c.Locations(ctx, "1")
				So(errors.Is(err, backend.ErrUnavailable), ShouldBeTrue)
				So(errors.Is(err, model.ErrTransientNetwork), ShouldBeTrue)
			})

			Convey("With a transport error", func() {
				httpmock.RegisterResponder(http.MethodGet, baseURL+"/trees/1/locations",
					httpmock.NewErrorResponder(errors.New("connection reset")))
				_, err := c.Locations(ctx, "1")
				So(errors.Is(err, backend.ErrUnavailable), ShouldBeTrue)
			})

			Convey("With an undecodable body", func() {
				httpmock.RegisterResponder(http.MethodGet, baseURL+"/trees/1/locations",
					httpmock.NewStringResponder(http.StatusOK, `<html>`))
				_, err := c.Locations(ctx, "1")
				So(errors.Is(err, backend.ErrUnavailable), ShouldBeTrue)
			})
		})
	})
}
