package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/okian/nativetree/internal/adapters/http/api"
	"github.com/okian/nativetree/internal/domain/geo"
	"github.com/okian/nativetree/internal/domain/model"
	"github.com/okian/nativetree/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// mockDependencies is an in-memory catalogue.
type mockDependencies struct {
	mu    sync.Mutex
	trees []model.Tree
	locs  map[string][]model.LocationRecord
	err   error
}

func newMockDependencies() *mockDependencies {
	return &mockDependencies{
		trees: []model.Tree{
			{TreeID: "1", TreeName: "narra", ScientificName: "Pterocarpus indicus"},
			{TreeID: "2", TreeName: "banaba", ScientificName: "Lagerstroemia speciosa"},
		},
		locs: map[string][]model.LocationRecord{},
	}
}

func (m *mockDependencies) Tree(_ context.Context, id string) (model.Tree, error) {
	if m.err != nil {
		return model.Tree{}, m.err
	}
	for _, t := range m.trees {
		if t.TreeID == id {
			return t, nil
		}
	}
	return model.Tree{}, model.NewKind("tree", model.ErrNotFound)
}

func (m *mockDependencies) Trees(_ context.Context, q string) ([]model.Tree, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []model.Tree
	for _, t := range m.trees {
		if t.Matches(q) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockDependencies) Locations(_ context.Context, treeID string) ([]model.LocationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locs[treeID], nil
}

func (m *mockDependencies) CreateLocation(ctx context.Context, treeID string, at geo.Coordinate) (model.LocationRecord, error) {
	if err := at.Validate(); err != nil {
		return model.LocationRecord{}, model.WrapKind("create", model.ErrValidationRejection, err)
	}
	if _, err := m.Tree(ctx, treeID); err != nil {
		return model.LocationRecord{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := model.LocationRecord{
		LocationID: "10",
		TreeID:     treeID,
		Latitude:   at.Latitude,
		Longitude:  at.Longitude,
	}
	m.locs[treeID] = append(m.locs[treeID], rec)
	return rec, nil
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func newMux(deps api.Dependencies, opts ...api.Option) *http.ServeMux {
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}, opts...)
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := newMockDependencies()
		mux := newMux(deps)

		Convey("Then the health endpoint should serve metrics", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then the stats endpoint should serve JSON", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("Then unknown paths should 404", func() {
			w := do(mux, http.MethodGet, "/leaderboard", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestTreesHandler(t *testing.T) {
	Convey("Given a catalogue of two trees", t, func() {
		deps := newMockDependencies()
		mux := newMux(deps)

		Convey("When listing all trees", func() {
			w := do(mux, http.MethodGet, "/trees", "")
			var trees []model.Tree
			So(json.Unmarshal(w.Body.Bytes(), &trees), ShouldBeNil)

			Convey("Then both should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(len(trees), ShouldEqual, 2)
			})
		})

		Convey("When searching with a query", func() {
			w := do(mux, http.MethodGet, "/trees?q=PTERO", "")
			var trees []model.Tree
			So(json.Unmarshal(w.Body.Bytes(), &trees), ShouldBeNil)
			So(len(trees), ShouldEqual, 1)
			So(trees[0].TreeName, ShouldEqual, "narra")
		})

		Convey("When a query matches nothing", func() {
			w := do(mux, http.MethodGet, "/trees?q=oak", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(strings.TrimSpace(w.Body.String()), ShouldEqual, "[]")
		})

		Convey("When fetching an existing tree", func() {
			w := do(mux, http.MethodGet, "/trees/1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"sci_name":"Pterocarpus indicus"`)
		})

		Convey("When fetching a missing tree", func() {
			w := do(mux, http.MethodGet, "/trees/99", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decodeError(w)["code"], ShouldEqual, "not_found")
		})

		Convey("When the id is empty", func() {
			w := do(mux, http.MethodGet, "/trees/", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a tree has no locations", func() {
			w := do(mux, http.MethodGet, "/trees/1/locations", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(strings.TrimSpace(w.Body.String()), ShouldEqual, "[]")
		})

		Convey("When a sub-resource is unknown", func() {
			w := do(mux, http.MethodGet, "/trees/1/photos", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the method is not GET", func() {
			w := do(mux, http.MethodDelete, "/trees/1", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the backing store fails", func() {
			deps.err = errors.New("connection reset by peer")
			w := do(mux, http.MethodGet, "/trees/1", "")

			Convey("Then a 500 should hide the cause", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(decodeError(w)["code"], ShouldEqual, "internal_error")
				So(w.Body.String(), ShouldNotContainSubstring, "connection reset")
			})
		})
	})
}

func TestLocationsHandler(t *testing.T) {
	Convey("Given the location write endpoint", t, func() {
		deps := newMockDependencies()
		mux := newMux(deps, api.WithWriteLimit(0, 0))

		Convey("When a valid location is posted", func() {
			w := do(mux, http.MethodPost, "/locations", `{"tree_id":"1","latitude":14.5,"longitude":121.0}`)

			Convey("Then it should be created and listed", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				var rec model.LocationRecord
				So(json.Unmarshal(w.Body.Bytes(), &rec), ShouldBeNil)
				So(rec.TreeID, ShouldEqual, "1")
				So(rec.Latitude, ShouldEqual, 14.5)

				list := do(mux, http.MethodGet, "/trees/1/locations", "")
				So(list.Body.String(), ShouldContainSubstring, `"location_id":"10"`)
			})
		})

		Convey("When ids and coordinates are sent as strings and numbers", func() {
			w := do(mux, http.MethodPost, "/locations", `{"tree_id":2,"latitude":"10.25","longitude":"123.5"}`)
			So(w.Code, ShouldEqual, http.StatusCreated)
		})

		Convey("When the body is malformed", func() {
			w := do(mux, http.MethodPost, "/locations", `{"tree_id":`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w)["code"], ShouldEqual, "bad_request")
		})

		Convey("When tree_id is missing", func() {
			w := do(mux, http.MethodPost, "/locations", `{"latitude":1,"longitude":2}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w)["message"], ShouldContainSubstring, "missing tree_id")
		})

		Convey("When a coordinate is missing", func() {
			w := do(mux, http.MethodPost, "/locations", `{"tree_id":"1","latitude":1}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w)["message"], ShouldContainSubstring, "missing longitude")
		})

		Convey("When the latitude is out of range", func() {
			w := do(mux, http.MethodPost, "/locations", `{"tree_id":"1","latitude":91,"longitude":2}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the tree does not exist", func() {
			w := do(mux, http.MethodPost, "/locations", `{"tree_id":"42","latitude":1,"longitude":2}`)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the method is GET", func() {
			w := do(mux, http.MethodGet, "/locations", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})

	Convey("Given a write limit of one request", t, func() {
		mux := newMux(newMockDependencies(), api.WithWriteLimit(0.001, 1))
		body := `{"tree_id":"1","latitude":1,"longitude":2}`

		Convey("When two writes arrive back to back", func() {
			first := do(mux, http.MethodPost, "/locations", body)
			second := do(mux, http.MethodPost, "/locations", body)

			Convey("Then the second should be rejected with 429", func() {
				So(first.Code, ShouldEqual, http.StatusCreated)
				So(second.Code, ShouldEqual, http.StatusTooManyRequests)
				So(decodeError(second)["code"], ShouldEqual, "rate_limited")
				So(second.Header().Get("Retry-After"), ShouldEqual, "1")
			})

			Convey("And reads should not be limited", func() {
				So(do(mux, http.MethodGet, "/trees", "").Code, ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestRequestID(t *testing.T) {
	Convey("Given the request id middleware", t, func() {
		var seen string
		h := api.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = api.RequestIDFrom(r.Context())
		}))

		Convey("When the caller sends no id", func() {
			w := do(h, http.MethodGet, "/trees", "")

			Convey("Then a uuid should be generated and echoed", func() {
				id := w.Header().Get(api.RequestIDHeader)
				_, err := uuid.Parse(id)
				So(err, ShouldBeNil)
				So(seen, ShouldEqual, id)
			})
		})

		Convey("When the caller sends an id", func() {
			req := httptest.NewRequest(http.MethodGet, "/trees", http.NoBody)
			req.Header.Set(api.RequestIDHeader, "abc-123")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then it should be propagated", func() {
				So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "abc-123")
				So(seen, ShouldEqual, "abc-123")
			})
		})

		Convey("When no middleware ran", func() {
			So(api.RequestIDFrom(context.Background()), ShouldBeEmpty)
		})
	})
}
