package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/nativetree/internal/adapters/http/api"
	app "github.com/okian/nativetree/internal/app"
	"github.com/okian/nativetree/internal/client"
	"github.com/okian/nativetree/internal/domain/model"
	"github.com/okian/nativetree/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithOutput(os.Stderr)); err != nil {
		panic(err)
	}
}

type stubClassifier struct {
	preds []model.Prediction
}

func (s *stubClassifier) Classify(_ context.Context, _ []byte) ([]model.Prediction, error) {
	return s.preds, nil
}

type stubGeocoder struct{}

func (stubGeocoder) Resolve(_ context.Context, lat, lon float64) string {
	return fmt.Sprintf("Barangay %.1f", lat)
}

// harness runs the CLI against an in-process backend.
type harness struct {
	configPath string
	dir        string
	cls        *stubClassifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	svc := app.New()
	if err := svc.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(svc.Stop)

	mux := http.NewServeMux()
	api.NewServer(svc, svc, api.WithWriteLimit(0, 0)).Register(context.Background(), mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfg := fmt.Sprintf("backend_url: %q\ncache_driver: file\ncache_path: %q\n", srv.URL, filepath.Join(dir, "cache.json"))
	path := filepath.Join(dir, "treeid.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}
	return &harness{configPath: path, dir: dir, cls: &stubClassifier{}}
}

func (h *harness) run(args ...string) (string, error) {
	s := &settings{opts: []client.Option{
		client.WithClassifier(h.cls),
		client.WithGeocoder(stubGeocoder{}),
	}}
	defer func() { _ = s.close() }()
	cmd := rootCommand(s)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", h.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) photo(name string, w, hgt int) string {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, hgt))); err != nil {
		panic(err)
	}
	path := filepath.Join(h.dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		panic(err)
	}
	return path
}

func TestIdentifyAndHistory(t *testing.T) {
	convey.Convey("Given the treeid CLI", t, func() {
		h := newHarness(t)

		convey.Convey("When a narra photo is identified", func() {
			h.cls.preds = []model.Prediction{{Label: "narra", Confidence: 0.95}}
			out, err := h.run("identify", h.photo("narra.png", 800, 600))

			convey.Convey("Then the tree should be printed and kept in history", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "narra (Pterocarpus indicus) id=1 confidence=0.95")

				list, err := h.run("history", "list")
				convey.So(err, convey.ShouldBeNil)
				convey.So(list, convey.ShouldContainSubstring, "1\tnarra\tPterocarpus indicus")
			})

			convey.Convey("And identifying it again should report the existing entry", func() {
				out, err := h.run("identify", h.photo("narra2.png", 800, 600))
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "already in history")
			})

			convey.Convey("And removing it should empty the history", func() {
				_, err := h.run("history", "remove", "1")
				convey.So(err, convey.ShouldBeNil)
				list, _ := h.run("history", "list")
				convey.So(list, convey.ShouldContainSubstring, "no trees identified yet")
			})

			convey.Convey("And clearing should empty the history", func() {
				_, err := h.run("history", "clear")
				convey.So(err, convey.ShouldBeNil)
				list, _ := h.run("history", "list")
				convey.So(list, convey.ShouldContainSubstring, "no trees identified yet")
			})
		})

		convey.Convey("When the model is unsure", func() {
			h.cls.preds = []model.Prediction{{Label: "unknown", Confidence: 0.93}}
			out, err := h.run("identify", h.photo("leaf.png", 800, 600))
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "unknown tree confidence=0.93")
		})

		convey.Convey("When a camera photo is too short", func() {
			_, err := h.run("identify", h.photo("short.png", 640, 200))

			convey.Convey("Then the alignment hint should be returned", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "align the camera")
			})

			convey.Convey("And the same photo should pass as an upload", func() {
				h.cls.preds = []model.Prediction{{Label: "banaba", Confidence: 0.97}}
				out, err := h.run("identify", "--upload", h.photo("short.png", 640, 200))
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "banaba")
			})
		})

		convey.Convey("When the image file does not exist", func() {
			_, err := h.run("identify", filepath.Join(h.dir, "missing.jpg"))
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestTreesAndLocations(t *testing.T) {
	convey.Convey("Given the treeid CLI against a seeded backend", t, func() {
		h := newHarness(t)

		convey.Convey("When showing a tree", func() {
			out, err := h.run("tree", "4")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "kamagong (Diospyros philippinensis)")
		})

		convey.Convey("When showing an unknown tree", func() {
			_, err := h.run("tree", "42")
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When searching the library", func() {
			out, err := h.run("trees", "talis")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "5\ttalisay\tTerminalia catappa")
		})

		convey.Convey("When a tree has no locations", func() {
			out, err := h.run("locations", "list", "2")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "no locations recorded")
		})

		convey.Convey("When a location is saved", func() {
			out, err := h.run("locations", "save", "2", "--lat", "14.5", "--lon", "121")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "saved")
			convey.So(out, convey.ShouldContainSubstring, "Barangay 14.5")

			convey.Convey("Then it should be listed with its address", func() {
				out, err := h.run("locations", "list", "2")
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "14.50000,121.00000\tBarangay 14.5")
			})

			convey.Convey("Then saving the same point again should be rejected", func() {
				_, err := h.run("locations", "save", "2", "--lat", "14.500001", "--lon", "121.000004")
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "already exists")
			})
		})

		convey.Convey("When save is missing a coordinate flag", func() {
			_, err := h.run("locations", "save", "2", "--lat", "14.5")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
