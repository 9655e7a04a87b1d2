// Package client is the device-side core: it turns a photo into a history
// entry and keeps per-tree location lists in step with the backend.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/nativetree/internal/adapters/backend"
	"github.com/okian/nativetree/internal/adapters/capture"
	"github.com/okian/nativetree/internal/adapters/classifier"
	"github.com/okian/nativetree/internal/adapters/device"
	"github.com/okian/nativetree/internal/adapters/geocode"
	"github.com/okian/nativetree/internal/adapters/kvcache"
	"github.com/okian/nativetree/internal/config"
	"github.com/okian/nativetree/internal/domain/geo"
	"github.com/okian/nativetree/internal/domain/history"
	"github.com/okian/nativetree/internal/domain/locsync"
	"github.com/okian/nativetree/internal/domain/model"
	"github.com/okian/nativetree/internal/domain/sighting"
	"github.com/okian/nativetree/pkg/logger"
	"github.com/okian/nativetree/pkg/metrics"
)

// ErrNilConfig is returned by New without a configuration.
var ErrNilConfig = errors.New("client: nil config")

// App wires the client components from configuration.
type App struct {
	cache      kvcache.Cache
	ownsCache  bool
	classifier classifier.Classifier
	geocoder   locsync.Geocoder
	position   locsync.PositionProvider
	httpClient *http.Client

	decider *sighting.Decider
	history *history.Store
	backend *backend.Client
	syncer  *locsync.Syncer

	log logger.Logger
}

// Identification is the result of one Identify call.
type Identification struct {
	Outcome sighting.Outcome
	// Added is false for unknown outcomes and for trees already in history.
	Added  bool
	Width  int
	Height int
}

// New builds an App from cfg.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	a := &App{}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = logger.Get().Named("client")
	}
	if a.httpClient == nil {
		a.httpClient = http.DefaultClient
	}

	timeout := time.Duration(cfg.RequestTimeoutMS) * time.Millisecond

	a.decider = sighting.NewDecider(sighting.WithThreshold(cfg.ConfidenceThreshold))

	if a.cache == nil {
		c, err := kvcache.Open(cfg.CacheDriver, cfg.CachePath)
		if err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
		a.cache = c
		a.ownsCache = true
	}

	if a.classifier == nil {
		a.classifier = classifier.New(
			classifier.WithEndpoint(cfg.ClassifierURL),
			classifier.WithAPIKey(cfg.ClassifierAPIKey),
			classifier.WithHTTPClient(a.httpClient),
			classifier.WithLogger(a.log.Named("classifier")))
	}
	if a.geocoder == nil {
		a.geocoder = geocode.New(
			geocode.WithEndpoint(cfg.GeocodeURL),
			geocode.WithAPIKey(cfg.GeocodeAPIKey),
			geocode.WithTimeout(timeout),
			geocode.WithHTTPClient(a.httpClient),
			geocode.WithLogger(a.log.Named("geocode")))
	}
	if a.position == nil {
		a.position = device.NewFixed()
	}

	a.history = history.New(a.cache,
		history.WithCapacity(cfg.HistoryCapacity),
		history.WithKey(cfg.HistoryKey),
		history.WithLogger(a.log.Named("history")))

	a.backend = backend.New(cfg.BackendURL,
		backend.WithTimeout(timeout),
		backend.WithTreeCacheTTL(time.Duration(cfg.TreeCacheTTLSec)*time.Second),
		backend.WithHTTPClient(a.httpClient),
		backend.WithLogger(a.log.Named("backend")))

	a.syncer = locsync.New(a.backend, a.geocoder, a.position,
		locsync.WithLogger(a.log.Named("locsync")))

	return a, nil
}

// Close releases the cache if the App opened it.
func (a *App) Close() error {
	if a.ownsCache {
		return a.cache.Close()
	}
	return nil
}

// Identify prepares the image, classifies it and records an identified tree
// in history. A history persistence failure is returned alongside a valid
// Identification; the entry stays in memory.
func (a *App) Identify(ctx context.Context, image []byte, src capture.Source) (Identification, error) {
	frame, err := capture.Prepare(image, src)
	if err != nil {
		return Identification{}, err
	}

	preds, err := a.classifier.Classify(ctx, frame.JPEG)
	if err != nil {
		metrics.RecordClassification("error")
		return Identification{}, err
	}

	out := a.decider.Decide(preds)
	metrics.RecordClassification(out.Kind.String())
	res := Identification{Outcome: out, Width: frame.Width, Height: frame.Height}

	s, ok := out.Sighting()
	if !ok {
		a.log.Info(ctx, "tree not recognised", logger.Int("predictions", len(preds)))
		return res, nil
	}
	added, err := a.history.Add(ctx, s)
	res.Added = added
	if err != nil {
		return res, err
	}
	a.log.Info(ctx, "tree identified",
		logger.String("tree_id", s.TreeID),
		logger.String("tree_name", s.TreeName),
		logger.Float64("confidence", out.Confidence),
		logger.Bool("added", added))
	return res, nil
}

// History returns the displayable history, most recent first.
func (a *App) History(ctx context.Context) ([]model.Sighting, error) {
	if _, err := a.history.Load(ctx); err != nil {
		return nil, err
	}
	return a.history.Visible(), nil
}

// RemoveHistory deletes one entry by tree id.
func (a *App) RemoveHistory(ctx context.Context, treeID string) error {
	return a.history.Remove(ctx, treeID)
}

// ClearHistory empties the history.
func (a *App) ClearHistory(ctx context.Context) error {
	return a.history.Clear(ctx)
}

// Tree returns the backend details of one tree.
func (a *App) Tree(ctx context.Context, id string) (model.Tree, error) {
	return a.backend.Tree(ctx, id)
}

// Trees searches the tree library.
func (a *App) Trees(ctx context.Context, query string) ([]model.Tree, error) {
	return a.backend.Trees(ctx, query)
}

// Locations returns the recorded locations of a tree with their addresses.
// A tree without locations yields an empty list and no error.
func (a *App) Locations(ctx context.Context, treeID string) ([]model.LocationRecord, error) {
	view := a.syncer.Open(treeID)
	defer view.Close()
	recs, err := view.Refresh(ctx)
	if errors.Is(err, locsync.ErrNoLocations) {
		return []model.LocationRecord{}, nil
	}
	return recs, err
}

// SaveLocation records a location for treeID. A nil at uses the device
// position. Points already recorded for the tree are rejected with
// locsync.ErrAlreadyExists.
func (a *App) SaveLocation(ctx context.Context, treeID string, at *geo.Coordinate) (model.LocationRecord, error) {
	view := a.syncer.Open(treeID)
	defer view.Close()

	if _, err := view.Refresh(ctx); err != nil && !errors.Is(err, locsync.ErrNoLocations) {
		// The duplicate check then only covers this call.
		a.log.Warn(ctx, "saving without the current location list", logger.Error(err))
	}
	if at == nil {
		return view.SaveCurrent(ctx)
	}
	return view.Save(ctx, *at)
}
