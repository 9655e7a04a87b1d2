// Package classifier calls the hosted image classification model.
package classifier

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/nativetree/internal/domain/model"
	"github.com/okian/nativetree/pkg/logger"
	"github.com/okian/nativetree/pkg/metrics"
)

// DefaultEndpoint is the hosted native tree model.
const DefaultEndpoint = "https://detect.roboflow.com/natreee/13"

const maxResponseBytes = 1 << 20

// Classifier returns predictions for an image.
type Classifier interface {
	Classify(ctx context.Context, image []byte) ([]model.Prediction, error)
}

// Client is the HTTP Classifier. It is stateless apart from configuration
// and makes exactly one request per call, with no retry. No client timeout
// is set beyond what ctx and the transport impose.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	log      logger.Logger
}

var _ Classifier = (*Client)(nil)

// New creates a classifier client with configuration options.
func New(opts ...Option) *Client {
	c := &Client{
		endpoint: DefaultEndpoint,
		http:     &http.Client{},
		log:      logger.Get().Named("classifier"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type response struct {
	Predictions []model.Prediction `json:"predictions"`
}

// Classify posts the base64-encoded image and returns the predictions in the
// order the model produced them, with labels lower-cased.
func (c *Client) Classify(ctx context.Context, image []byte) ([]model.Prediction, error) {
	start := time.Now()
	preds, err := c.classify(ctx, image)
	metrics.RecordClassifierLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordClassifierError()
		c.log.Warn(ctx, "classification failed", logger.Error(err))
		return nil, err
	}
	c.log.Debug(ctx, "classification complete",
		logger.Int("predictions", len(preds)),
		logger.Duration("elapsed", time.Since(start)))
	return preds, nil
}

func (c *Client) classify(ctx context.Context, image []byte) ([]model.Prediction, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: endpoint: %w", ErrClassifierUnavailable, err)
	}
	q := u.Query()
	q.Set("api_key", c.apiKey)
	u.RawQuery = q.Encode()

	body := strings.NewReader(base64.StdEncoding.EncodeToString(image))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClassifierUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClassifierUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, fmt.Errorf("%w: status %d", ErrClassifierUnavailable, resp.StatusCode)
	}

	var out response
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrClassifierUnavailable, err)
	}
	for i := range out.Predictions {
		out.Predictions[i].Label = strings.ToLower(strings.TrimSpace(out.Predictions[i].Label))
	}
	return out.Predictions, nil
}
