// Package backend is the HTTP client for the nativetree REST service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/okian/nativetree/internal/domain/geo"
	"github.com/okian/nativetree/internal/domain/model"
	"github.com/okian/nativetree/pkg/logger"
)

const (
	defaultTimeout   = 5 * time.Second
	defaultTreeTTL   = 5 * time.Minute
	maxResponseBytes = 4 << 20
)

// Client talks to the backend. Tree details are cached in memory since
// they change only when the catalogue is reseeded; location lists are
// always fetched fresh.
type Client struct {
	baseURL string
	timeout time.Duration
	treeTTL time.Duration
	http    *http.Client
	trees   *cache.Cache
	log     logger.Logger
}

// New creates a backend client for baseURL, e.g. "http://localhost:5000".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: defaultTimeout,
		treeTTL: defaultTreeTTL,
		http:    &http.Client{},
		log:     logger.Get().Named("backend"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.trees = cache.New(c.treeTTL, 2*c.treeTTL)
	return c
}

type createLocationRequest struct {
	TreeID    string  `json:"tree_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Tree fetches one tree by id.
func (c *Client) Tree(ctx context.Context, id string) (model.Tree, error) {
	key := "tree:" + id
	if c.treeTTL > 0 {
		if v, ok := c.trees.Get(key); ok {
			if t, ok := v.(model.Tree); ok {
				c.log.Debug(ctx, "tree cache hit", logger.String("tree_id", id))
				return t, nil
			}
		}
	}

	var t model.Tree
	if err := c.do(ctx, http.MethodGet, "/trees/"+url.PathEscape(id), nil, &t); err != nil {
		return model.Tree{}, err
	}
	if c.treeTTL > 0 {
		c.trees.SetDefault(key, t)
	}
	return t, nil
}

// Trees lists the tree library, optionally filtered by a name query.
func (c *Client) Trees(ctx context.Context, query string) ([]model.Tree, error) {
	path := "/trees"
	if q := strings.TrimSpace(query); q != "" {
		path += "?q=" + url.QueryEscape(q)
	}
	var out []model.Tree
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Locations lists the recorded locations of a tree.
func (c *Client) Locations(ctx context.Context, treeID string) ([]model.LocationRecord, error) {
	var out []model.LocationRecord
	if err := c.do(ctx, http.MethodGet, "/trees/"+url.PathEscape(treeID)+"/locations", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateLocation records a new location and returns the stored row.
func (c *Client) CreateLocation(ctx context.Context, treeID string, at geo.Coordinate) (model.LocationRecord, error) {
	body, err := json.Marshal(createLocationRequest{TreeID: treeID, Latitude: at.Latitude, Longitude: at.Longitude})
	if err != nil {
		return model.LocationRecord{}, fmt.Errorf("encode location: %w", err)
	}
	var rec model.LocationRecord
	if err := c.do(ctx, http.MethodPost, "/locations", body, &rec); err != nil {
		return model.LocationRecord{}, err
	}
	return rec, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn(ctx, "backend request failed",
			logger.String("method", method),
			logger.String("path", path),
			logger.Error(err))
		return fmt.Errorf("%w: %s %s: %w", ErrUnavailable, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %w", ErrUnavailable, err)
	}
	c.log.Debug(ctx, "backend request",
		logger.String("method", method),
		logger.String("path", path),
		logger.Int("status", resp.StatusCode),
		logger.Duration("elapsed", time.Since(start)))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, message(raw, path))
	case resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrRejected, message(raw, path))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%w: %s %s: status %d", ErrUnavailable, method, path, resp.StatusCode)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrUnavailable, path, err)
	}
	return nil
}

func message(raw []byte, fallback string) string {
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil {
		if eb.Message != "" {
			return eb.Message
		}
		if eb.Error != "" {
			return eb.Error
		}
	}
	return fallback
}
