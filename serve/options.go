package serve

import (
	"log/slog"

	"github.com/zero-day-ai/netguardian/score"
	"github.com/zero-day-ai/netguardian/secret"
	"github.com/zero-day-ai/netguardian/store"
	"go.opentelemetry.io/otel/metric"
)

// Option configures a Server.
type Option func(*Server)

// WithStore sets where scans and reputation are kept. Default: store.NewMemory().
func WithStore(s store.Store) Option {
	return func(srv *Server) {
		if s != nil {
			srv.store = s
		}
	}
}

// WithSecret sets the fingerprint secret provider. It is required.
func WithSecret(p secret.Provider) Option {
	return func(srv *Server) {
		srv.secret = p
	}
}

// WithEngine replaces the default scoring rules.
func WithEngine(e *score.Engine) Option {
	return func(srv *Server) {
		if e != nil {
			srv.engine = e
		}
	}
}

// WithLogger sets a custom logger. If not provided, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(srv *Server) {
		if logger != nil {
			srv.logger = logger
		}
	}
}

// WithMeterProvider records scan metrics through mp. Default: noop.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(srv *Server) {
		if mp != nil {
			srv.meterProvider = mp
		}
	}
}

// WithTLS serves gRPC with the given PEM certificate and key. The HTTP API
// is expected behind a TLS-terminating proxy.
func WithTLS(certFile, keyFile string) Option {
	return func(srv *Server) {
		srv.tlsCertFile = certFile
		srv.tlsKeyFile = keyFile
	}
}
