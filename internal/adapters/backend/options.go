package backend

import (
	"net/http"
	"time"

	"github.com/okian/nativetree/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithTreeCacheTTL sets how long tree details are reused. Zero disables the
// cache.
func WithTreeCacheTTL(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.treeTTL = d
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger overrides the component logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}
