// Package geocode turns coordinates into a short human-readable address.
// Lookups never fail outward: errors become placeholder strings.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/nativetree/internal/domain/geo"
	"github.com/okian/nativetree/pkg/logger"
	"github.com/okian/nativetree/pkg/metrics"
)

// Placeholder addresses.
const (
	AddressNotFound = "Address not found"
	AddressError    = "Error fetching address"
)

// DefaultEndpoint is the Google reverse geocoding API.
const DefaultEndpoint = "https://maps.googleapis.com/maps/api/geocode/json"

const (
	defaultTimeout   = 5 * time.Second
	maxResponseBytes = 1 << 20
)

// Resolver resolves a coordinate to a display address.
type Resolver interface {
	Resolve(ctx context.Context, lat, lon float64) string
}

// Client is the HTTP Resolver. It keeps no cache between calls.
type Client struct {
	endpoint string
	apiKey   string
	timeout  time.Duration
	http     *http.Client
	log      logger.Logger
}

var _ Resolver = (*Client)(nil)

// New creates a geocode client with configuration options.
func New(opts ...Option) *Client {
	c := &Client{
		endpoint: DefaultEndpoint,
		timeout:  defaultTimeout,
		http:     &http.Client{},
		log:      logger.Get().Named("geocode"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type component struct {
	LongName string   `json:"long_name"`
	Types    []string `json:"types"`
}

type result struct {
	FormattedAddress  string      `json:"formatted_address"`
	AddressComponents []component `json:"address_components"`
}

type response struct {
	Status  string   `json:"status"`
	Results []result `json:"results"`
}

// Resolve returns "barangay, city, region" for the coordinate, skipping
// parts the geocoder does not know.
func (c *Client) Resolve(ctx context.Context, lat, lon float64) string {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	addr, err := c.lookup(ctx, lat, lon)
	if err != nil {
		metrics.RecordGeocode("error")
		c.log.Warn(ctx, "reverse geocode failed",
			logger.Float64("lat", lat),
			logger.Float64("lon", lon),
			logger.Error(err))
		return AddressError
	}
	if addr == "" {
		metrics.RecordGeocode("not_found")
		return AddressNotFound
	}
	metrics.RecordGeocode("ok")
	return addr
}

// ResolveAll fans out r.Resolve over coords concurrently. The result at index
// i belongs to coords[i].
func ResolveAll(ctx context.Context, r Resolver, coords []geo.Coordinate) []string {
	out := make([]string, len(coords))
	g, gctx := errgroup.WithContext(ctx)
	for i, co := range coords {
		g.Go(func() error {
			out[i] = r.Resolve(gctx, co.Latitude, co.Longitude)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (c *Client) lookup(ctx context.Context, lat, lon float64) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("endpoint: %w", err)
	}
	q := u.Query()
	q.Set("latlng", strconv.FormatFloat(lat, 'f', -1, 64)+","+strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	if body.Status != "OK" || len(body.Results) == 0 {
		return "", nil
	}
	return format(body.Results[0]), nil
}

func format(r result) string {
	var barangay, city, region string
	// A later component of the same type replaces an earlier one.
	for _, comp := range r.AddressComponents {
		for _, t := range comp.Types {
			switch t {
			case "sublocality_level_1", "neighborhood":
				barangay = comp.LongName
			case "locality":
				city = comp.LongName
			case "administrative_area_level_1":
				region = comp.LongName
			}
		}
	}
	parts := make([]string, 0, 3)
	for _, p := range []string{barangay, city, region} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return strings.TrimSpace(r.FormattedAddress)
	}
	return strings.Join(parts, ", ")
}
