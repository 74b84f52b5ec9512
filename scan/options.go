package scan

import (
	"context"
	"log/slog"
	"time"

	"github.com/zero-day-ai/netguardian/observe"
	"github.com/zero-day-ai/netguardian/report"
)

// ChecksFunc supplies the anomaly checks measured for an observation. The
// default measures nothing and every flag is sent as null.
type ChecksFunc func(ctx context.Context, obs observe.Observation) report.AnomalyChecks

// Option configures a Scanner.
type Option func(*Scanner)

// WithObserver sets the capability used to acquire the network observation.
func WithObserver(o observe.Observer) Option {
	return func(s *Scanner) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithPermissionGate sets the permission gate consulted before observing.
func WithPermissionGate(g observe.PermissionGate) Option {
	return func(s *Scanner) {
		if g != nil {
			s.gate = g
		}
	}
}

// WithChecks sets the anomaly check provider.
func WithChecks(fn ChecksFunc) Option {
	return func(s *Scanner) {
		if fn != nil {
			s.checks = fn
		}
	}
}

// WithClientMeta sets the client record sent with each scan.
func WithClientMeta(meta *report.ClientMeta) Option {
	return func(s *Scanner) {
		s.meta = meta
	}
}

// WithCountry sets the network country sent with each scan.
func WithCountry(code string) Option {
	return func(s *Scanner) {
		s.country = code
	}
}

// WithTimeout bounds a whole scan, acquisition and backend calls included.
// Zero means the caller's context is used as is.
func WithTimeout(d time.Duration) Option {
	return func(s *Scanner) {
		s.timeout = d
	}
}

// WithRetry retries scan submission up to attempts times in total when the
// failure is a transport error, sleeping backoff (doubled each time) between
// attempts. Rejections and malformed responses are never retried.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(s *Scanner) {
		if attempts > 0 {
			s.attempts = attempts
		}
		s.backoff = backoff
	}
}

// WithLogger sets a custom logger. If not provided, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}
