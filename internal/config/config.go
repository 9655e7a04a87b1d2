// Package config defines process configuration for the nativetree server and
// the treeid client, and the koanf loader that layers defaults, an optional
// YAML file and NATIVETREE_* environment variables.
//
// Conventions:
//   - Flat snake_case keys; the struct tag is the key.
//   - New() returns defaults; Load(ctx) layers file and env on top.
//   - Validation failures wrap ErrInvalidConfig.
package config

// Config contains process configuration for both binaries. Each binary reads
// the fields it needs and ignores the rest.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Server

	// Addr configures the HTTP listen address, e.g. ":5000".
	Addr string `koanf:"addr"`
	// StoreDriver selects the relational store: memory, sqlite or postgres.
	StoreDriver string `koanf:"store_driver"`
	// StoreDSN is the sqlite path or postgres connection string.
	StoreDSN string `koanf:"store_dsn"`
	// WriteRatePerSec and WriteBurst bound POST /locations.
	WriteRatePerSec float64 `koanf:"write_rate_per_sec"`
	WriteBurst      int     `koanf:"write_burst"`

	// Client

	// BackendURL is the base URL of the nativetree server.
	BackendURL string `koanf:"backend_url"`
	// ClassifierURL and ClassifierAPIKey address the image classifier.
	ClassifierURL    string `koanf:"classifier_url"`
	ClassifierAPIKey string `koanf:"classifier_api_key"`
	// GeocodeURL and GeocodeAPIKey address the reverse geocoder.
	GeocodeURL    string `koanf:"geocode_url"`
	GeocodeAPIKey string `koanf:"geocode_api_key"`
	// RequestTimeoutMS bounds geocode and backend calls. The classifier call
	// only uses the transport default.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`
	// ConfidenceThreshold is the minimum classifier confidence for a decision.
	ConfidenceThreshold float64 `koanf:"confidence_threshold"`
	// HistoryCapacity bounds the local sighting history.
	HistoryCapacity int `koanf:"history_capacity"`
	// HistoryKey is the cache key the history is stored under.
	HistoryKey string `koanf:"history_key"`
	// CacheDriver selects the local key-value cache: file, sqlite or memory.
	CacheDriver string `koanf:"cache_driver"`
	// CachePath is the file or sqlite database backing the local cache.
	CachePath string `koanf:"cache_path"`
	// TreeCacheTTLSec is how long tree details are reused before refetching.
	TreeCacheTTLSec int `koanf:"tree_cache_ttl_sec"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",

		Addr:            ":5000",
		StoreDriver:     "memory",
		StoreDSN:        "",
		WriteRatePerSec: 5,
		WriteBurst:      10,

		BackendURL:          "http://localhost:5000",
		ClassifierURL:       "https://detect.roboflow.com/natreee/13",
		ClassifierAPIKey:    "",
		GeocodeURL:          "https://maps.googleapis.com/maps/api/geocode/json",
		GeocodeAPIKey:       "",
		RequestTimeoutMS:    5000,
		ConfidenceThreshold: 0.90,
		HistoryCapacity:     50,
		HistoryKey:          "treeHistory",
		CacheDriver:         "file",
		CachePath:           "treeid-cache.json",
		TreeCacheTTLSec:     300,
	}
}
