package client

import (
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// DefaultTimeout bounds each round trip when no http.Client is supplied.
const DefaultTimeout = 15 * time.Second

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the http.Client used for every call. Timeouts,
// transports and TLS roots come from it.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets a per-request timeout on the client's http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets a custom logger. If not provided, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTracerProvider enables OpenTelemetry spans for each HTTP call.
// The default provider is a no-op.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		if tp != nil {
			c.tracerProvider = tp
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithAllowHTTP permits a plain http:// base URL. Intended for local
// development against a scoring service without TLS.
func WithAllowHTTP() Option {
	return func(c *Client) {
		c.allowHTTP = true
	}
}
