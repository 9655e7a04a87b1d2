package client

import (
	"net/http"

	"github.com/okian/nativetree/internal/adapters/classifier"
	"github.com/okian/nativetree/internal/adapters/kvcache"
	"github.com/okian/nativetree/internal/domain/locsync"
	"github.com/okian/nativetree/pkg/logger"
)

// Option configures an App.
type Option func(*App)

// WithCache uses an already opened cache instead of the configured driver.
// The caller keeps ownership.
func WithCache(c kvcache.Cache) Option {
	return func(a *App) {
		if c != nil {
			a.cache = c
		}
	}
}

// WithClassifier replaces the HTTP classifier.
func WithClassifier(c classifier.Classifier) Option {
	return func(a *App) {
		if c != nil {
			a.classifier = c
		}
	}
}

// WithGeocoder replaces the HTTP reverse geocoder.
func WithGeocoder(g locsync.Geocoder) Option {
	return func(a *App) {
		if g != nil {
			a.geocoder = g
		}
	}
}

// WithPosition sets the device location provider.
func WithPosition(p locsync.PositionProvider) Option {
	return func(a *App) {
		if p != nil {
			a.position = p
		}
	}
}

// WithHTTPClient is shared by the classifier, geocoder and backend clients.
func WithHTTPClient(hc *http.Client) Option {
	return func(a *App) {
		if hc != nil {
			a.httpClient = hc
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.log = l
		}
	}
}
