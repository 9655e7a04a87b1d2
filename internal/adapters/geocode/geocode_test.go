package geocode_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"go.uber.org/goleak"

	"github.com/okian/nativetree/internal/adapters/geocode"
	"github.com/okian/nativetree/internal/domain/geo"
	"github.com/okian/nativetree/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const endpoint = "https://geocode.test/json"

func init() {
	_ = logger.Init()
}

func setupHTTPMock(t *testing.T) {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
}

const fullResponse = `{
  "status": "OK",
  "results": [{
    "formatted_address": "Diliman, Quezon City, Metro Manila, Philippines",
    "address_components": [
      {"long_name": "Diliman", "types": ["sublocality_level_1", "sublocality", "political"]},
      {"long_name": "Quezon City", "types": ["locality", "political"]},
      {"long_name": "Metro Manila", "types": ["administrative_area_level_1", "political"]},
      {"long_name": "Philippines", "types": ["country", "political"]}
    ]
  }]
}`

func TestResolve(t *testing.T) {
	setupHTTPMock(t)
	ctx := context.Background()

	Convey("Given a geocode client", t, func() {
		httpmock.Reset()
		c := geocode.New(geocode.WithEndpoint(endpoint), geocode.WithAPIKey("k"))

		Convey("When all address parts are present", func() {
			var gotLatLng, gotKey string
			httpmock.RegisterResponder(http.MethodGet, endpoint, func(req *http.Request) (*http.Response, error) {
				gotLatLng = req.URL.Query().Get("latlng")
				gotKey = req.URL.Query().Get("key")
				return httpmock.NewStringResponse(http.StatusOK, fullResponse), nil
			})

			addr := c.Resolve(ctx, 14.65, 121.07)

			Convey("Then barangay, city and region should be joined", func() {
				So(addr, ShouldEqual, "Diliman, Quezon City, Metro Manila")
				So(gotLatLng, ShouldEqual, "14.65,121.07")
				So(gotKey, ShouldEqual, "k")
			})
		})

		Convey("When several components share a type", func() {
			httpmock.RegisterResponder(http.MethodGet, endpoint, httpmock.NewStringResponder(http.StatusOK, `{
				"status":"OK",
				"results":[{"address_components":[
					{"long_name":"Krus na Ligas","types":["neighborhood","political"]},
					{"long_name":"Diliman","types":["sublocality_level_1","sublocality","political"]},
					{"long_name":"Quezon City","types":["locality","political"]}
				]}]
			}`))

			addr := c.Resolve(ctx, 14.65, 121.07)

			Convey("Then the last match should win", func() {
				So(addr, ShouldEqual, "Diliman, Quezon City")
			})
		})

		Convey("When only some parts are present", func() {
			httpmock.RegisterResponder(http.MethodGet, endpoint, httpmock.NewStringResponder(http.StatusOK, `{
				"status":"OK",
				"results":[{"address_components":[
					{"long_name":"Poblacion","types":["neighborhood"]},
					{"long_name":"Cebu","types":["administrative_area_level_1"]}
				]}]}`))

			So(c.Resolve(ctx, 10.3, 123.9), ShouldEqual, "Poblacion, Cebu")
		})

		Convey("When no known parts are present", func() {
			httpmock.RegisterResponder(http.MethodGet, endpoint, httpmock.NewStringResponder(http.StatusOK,
				`{"status":"OK","results":[{"formatted_address":"Unnamed Road, Philippines","address_components":[{"long_name":"Philippines","types":["country"]}]}]}`))

			So(c.Resolve(ctx, 10, 123), ShouldEqual, "Unnamed Road, Philippines")
		})

		Convey("When there are zero results", func() {
			httpmock.RegisterResponder(http.MethodGet, endpoint,
				httpmock.NewStringResponder(http.StatusOK, `{"status":"ZERO_RESULTS","results":[]}`))

			So(c.Resolve(ctx, 0, 0), ShouldEqual, geocode.AddressNotFound)
		})

		Convey("When the status is not OK", func() {
			httpmock.RegisterResponder(http.MethodGet, endpoint,
				httpmock.NewStringResponder(http.StatusOK, `{"status":"REQUEST_DENIED","results":[{"formatted_address":"x"}]}`))

			So(c.Resolve(ctx, 0, 0), ShouldEqual, geocode.AddressNotFound)
		})

		Convey("When the service fails", func() {
			Convey("With an HTTP error status", func() {
				httpmock.RegisterResponder(http.MethodGet, endpoint, httpmock.NewStringResponder(http.StatusBadGateway, ""))
				So(c.Resolve(ctx, 0, 0), ShouldEqual, geocode.AddressError)
			})

			Convey("With a transport error", func() {
				httpmock.RegisterResponder(http.MethodGet, endpoint, httpmock.NewErrorResponder(errors.New("no route")))
				So(c.Resolve(ctx, 0, 0), ShouldEqual, geocode.AddressError)
			})

			Convey("With a malformed body", func() {
				httpmock.RegisterResponder(http.MethodGet, endpoint, httpmock.NewStringResponder(http.StatusOK, `{"status":`))
				So(c.Resolve(ctx, 0, 0), ShouldEqual, geocode.AddressError)
			})
		})

		Convey("When the lookup exceeds the timeout", func() {
			slow := geocode.New(geocode.WithEndpoint(endpoint), geocode.WithTimeout(20*time.Millisecond))
			httpmock.RegisterResponder(http.MethodGet, endpoint, func(req *http.Request) (*http.Response, error) {
				<-req.Context().Done()
				return nil, req.Context().Err()
			})

			So(slow.Resolve(ctx, 0, 0), ShouldEqual, geocode.AddressError)
		})
	})
}

// delayResolver answers with the coordinate after a delay that shrinks with
// the index, so later entries finish first.
type delayResolver struct {
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (d *delayResolver) Resolve(_ context.Context, lat, lon float64) string {
	n := d.inFlight.Add(1)
	for {
		p := d.peak.Load()
		if n <= p || d.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(time.Duration(50-int(lat)*10) * time.Millisecond)
	d.inFlight.Add(-1)
	return fmt.Sprintf("%v/%v", lat, lon)
}

func TestResolveAll(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	Convey("Given several coordinates", t, func() {
		coords := []geo.Coordinate{
			{Latitude: 0, Longitude: 1},
			{Latitude: 1, Longitude: 2},
			{Latitude: 2, Longitude: 3},
			{Latitude: 3, Longitude: 4},
		}
		r := &delayResolver{}

		Convey("When resolving them all", func() {
			out := geocode.ResolveAll(context.Background(), r, coords)

			Convey("Then results should follow input order", func() {
				So(out, ShouldResemble, []string{"0/1", "1/2", "2/3", "3/4"})
			})

			Convey("Then lookups should have overlapped", func() {
				So(r.peak.Load(), ShouldBeGreaterThan, 1)
			})
		})

		Convey("When there is nothing to resolve", func() {
			So(geocode.ResolveAll(context.Background(), r, nil), ShouldBeEmpty)
		})
	})
}
