package x402agent

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vitwit/x402-agent/logger"
	"github.com/vitwit/x402-agent/metrics"
)

type Option func(*Client)

func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(c *Client) {
		c.metrics = r
	}
}

// WithTimeout sets the timeout applied to each HTTP attempt independently.
func WithTimeout(t time.Duration) Option {
	return func(c *Client) {
		c.timeout = t
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithMaxPriceUSD sets a client-wide per-request price ceiling, applied
// when the request itself does not carry one.
func WithMaxPriceUSD(limit decimal.Decimal) Option {
	return func(c *Client) {
		c.maxPriceUSD = &limit
	}
}
